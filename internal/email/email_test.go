package email

import (
	"context"
	"testing"

	"github.com/Domenick1991/wingquest/internal/kafka"
	"github.com/stretchr/testify/assert"
)

func TestSender_Send(t *testing.T) {
	s := NewSender(nil)
	assert.NoError(t, s.Send(context.Background(), kafka.OrderEvent{Type: kafka.EventOrderCancelled, OrderNo: "ORD1"}))
	assert.NoError(t, s.Send(context.Background(), kafka.OrderEvent{Type: kafka.EventOrderCancelled, OrderNo: "ORD1", ContactEmail: "a@b.c"}))
}

func TestSubjectAndBody(t *testing.T) {
	checkIn := kafka.OrderEvent{Type: kafka.EventCheckInConfirmed, OrderNo: "ORD1", SeatNumber: "12C", BaggageFee: 15000}
	assert.Equal(t, "Check-in confirmed for order ORD1", Subject(checkIn))
	assert.Equal(t, "Seat 12C is confirmed. Checked baggage fee: 150.00.", Body(checkIn))

	cancel := kafka.OrderEvent{Type: kafka.EventOrderCancelled, OrderNo: "ORD2", FlightDate: "2025-11-01", RefundCents: 90000}
	assert.Equal(t, "Order ORD2 cancelled", Subject(cancel))
	assert.Equal(t, "Your order for 2025-11-01 was cancelled. Refund: 900.00.", Body(cancel))

	other := kafka.OrderEvent{Type: "paid", OrderNo: "ORD3", Status: "paid"}
	assert.Equal(t, "Update on order ORD3", Subject(other))
	assert.Equal(t, "Order status: paid.", Body(other))
}
