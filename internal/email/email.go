package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Domenick1991/wingquest/internal/domain"
	"github.com/Domenick1991/wingquest/internal/kafka"
)

// Sender renders order notifications. Delivery is a log line; a mail
// transport plugs in behind Send.
type Sender struct {
	logger *slog.Logger
}

func NewSender(logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{logger: logger}
}

func (s *Sender) Send(ctx context.Context, event kafka.OrderEvent) error {
	if event.ContactEmail == "" {
		s.logger.Info("skip notification without contact email", "type", event.Type, "order_id", event.OrderID)
		return nil
	}
	s.logger.Info("send email", "to", event.ContactEmail, "subject", Subject(event), "body", Body(event))
	return nil
}

func Subject(event kafka.OrderEvent) string {
	switch event.Type {
	case kafka.EventCheckInConfirmed:
		return fmt.Sprintf("Check-in confirmed for order %s", event.OrderNo)
	case kafka.EventOrderCancelled:
		return fmt.Sprintf("Order %s cancelled", event.OrderNo)
	default:
		return fmt.Sprintf("Update on order %s", event.OrderNo)
	}
}

func Body(event kafka.OrderEvent) string {
	switch event.Type {
	case kafka.EventCheckInConfirmed:
		body := fmt.Sprintf("Seat %s is confirmed.", event.SeatNumber)
		if event.BaggageFee > 0 {
			body += fmt.Sprintf(" Checked baggage fee: %s.", domain.Money(event.BaggageFee))
		}
		return body
	case kafka.EventOrderCancelled:
		return fmt.Sprintf("Your order for %s was cancelled. Refund: %s.", event.FlightDate, domain.Money(event.RefundCents))
	default:
		return fmt.Sprintf("Order status: %s.", event.Status)
	}
}
