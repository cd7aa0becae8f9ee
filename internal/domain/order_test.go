package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderItem_SameDeparture(t *testing.T) {
	date := func(s string) *string { return &s }

	testCases := []struct {
		name     string
		a, b     OrderItem
		expected bool
	}{
		{name: "same flight and date", a: OrderItem{FlightID: 1, FlightDate: date("2025-11-01")}, b: OrderItem{FlightID: 1, FlightDate: date("2025-11-01")}, expected: true},
		{name: "same flight other date", a: OrderItem{FlightID: 1, FlightDate: date("2025-11-01")}, b: OrderItem{FlightID: 1, FlightDate: date("2025-11-02")}},
		{name: "undated and dated", a: OrderItem{FlightID: 1}, b: OrderItem{FlightID: 1, FlightDate: date("2025-11-01")}, expected: true},
		{name: "empty date", a: OrderItem{FlightID: 1, FlightDate: date("2025-11-01")}, b: OrderItem{FlightID: 1, FlightDate: date("")}, expected: true},
		{name: "both undated", a: OrderItem{FlightID: 1}, b: OrderItem{FlightID: 1}, expected: true},
		{name: "other flight", a: OrderItem{FlightID: 1}, b: OrderItem{FlightID: 2}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.a.SameDeparture(tc.b))
			assert.Equal(t, tc.expected, tc.b.SameDeparture(tc.a))
		})
	}
}
