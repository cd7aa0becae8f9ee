package mapper

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/wingquest/internal/domain"
)

var (
	orderStatusLabels = map[domain.OrderStatus]string{
		domain.OrderStatusPending:   "Awaiting payment",
		domain.OrderStatusPaid:      "Paid",
		domain.OrderStatusCancelled: "Cancelled",
		domain.OrderStatusCompleted: "Completed",
	}
	paymentStatusLabels = map[domain.PaymentStatus]string{
		domain.PaymentStatusUnpaid:   "Unpaid",
		domain.PaymentStatusPaid:     "Paid",
		domain.PaymentStatusRefunded: "Refunded",
	}
	cabinLabels = map[domain.CabinClass]string{
		domain.CabinEconomy:  "Economy",
		domain.CabinBusiness: "Business",
		domain.CabinFirst:    "First",
	}
)

func CabinLabel(c domain.CabinClass) string {
	if l, ok := cabinLabels[c]; ok {
		return l
	}
	return cabinLabels[domain.CabinEconomy]
}

func labelOr[K comparable](labels map[K]string, key K) string {
	if l, ok := labels[key]; ok {
		return l
	}
	return fmt.Sprint(key)
}

type OrderCard struct {
	OrderID       int64                `json:"order_id"`
	OrderNo       string               `json:"order_no"`
	Status        domain.OrderStatus   `json:"status"`
	StatusLabel   string               `json:"status_label"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	PaymentLabel  string               `json:"payment_label"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	TotalOriginal domain.Money         `json:"total_amount_original"`
	Total         domain.Money         `json:"total_amount"`
	Currency      string               `json:"currency"`
	CreatedAt     time.Time            `json:"created_at"`
	PaidAt        *time.Time           `json:"paid_at,omitempty"`
	ExpiredAt     *time.Time           `json:"expired_at,omitempty"`
	Items         []CardItem           `json:"items"`
}

type CardItem struct {
	ItemID        int64                `json:"item_id"`
	FlightNumber  string               `json:"flight_number"`
	Airline       string               `json:"airline"`
	Departure     string               `json:"departure"`
	Arrival       string               `json:"arrival"`
	FlightDate    string               `json:"flight_date"`
	CabinClass    domain.CabinClass    `json:"cabin_class"`
	PassengerName string               `json:"passenger_name"`
	SeatNumber    string               `json:"seat_number,omitempty"`
	CheckInStatus domain.CheckInStatus `json:"check_in_status"`
	OriginalPrice domain.Money         `json:"original_price"`
	PaidPrice     domain.Money         `json:"paid_price"`
}

// ItemRow is one line of the flattened order list.
type ItemRow struct {
	OrderNo    string       `json:"order_no"`
	ItemID     int64        `json:"item_id"`
	Label      string       `json:"label"`
	Cabin      string       `json:"cabin"`
	Passenger  string       `json:"passenger"`
	Seat       string       `json:"seat"`
	CheckedIn  bool         `json:"checked_in"`
	PaidPrice  domain.Money `json:"paid_price"`
	PriceLabel string       `json:"price_label"`
}

func OrderCards(orders []domain.Order) []OrderCard {
	cards := make([]OrderCard, 0, len(orders))
	for _, o := range orders {
		cards = append(cards, orderCard(o))
	}
	return cards
}

func orderCard(o domain.Order) OrderCard {
	c := OrderCard{
		OrderID:       o.ID,
		OrderNo:       o.OrderNo,
		Status:        o.Status,
		StatusLabel:   labelOr(orderStatusLabels, o.Status),
		PaymentStatus: o.PaymentStatus,
		PaymentLabel:  labelOr(paymentStatusLabels, o.PaymentStatus),
		PaymentMethod: o.PaymentMethod,
		TotalOriginal: o.TotalAmountOriginal,
		Total:         o.TotalAmount,
		Currency:      o.Currency,
		CreatedAt:     o.CreatedAt.Time,
		Items:         make([]CardItem, 0, len(o.Items)),
	}
	if o.PaidAt != nil && !o.PaidAt.IsZero() {
		t := o.PaidAt.Time
		c.PaidAt = &t
	}
	if o.ExpiredAt != nil && !o.ExpiredAt.IsZero() {
		t := o.ExpiredAt.Time
		c.ExpiredAt = &t
	}
	for _, it := range o.Items {
		c.Items = append(c.Items, cardItem(it))
	}
	return c
}

func cardItem(it domain.OrderItem) CardItem {
	ci := CardItem{
		ItemID:        it.ID,
		FlightNumber:  itoa(it.FlightID),
		CabinClass:    it.CabinClass,
		CheckInStatus: it.CheckInStatus,
		OriginalPrice: it.OriginalPrice,
		PaidPrice:     it.PaidPrice,
	}
	if ci.CabinClass == "" {
		ci.CabinClass = domain.CabinEconomy
	}
	if ci.CheckInStatus == "" {
		ci.CheckInStatus = domain.CheckInNotChecked
	}
	if it.FlightDate != nil {
		ci.FlightDate = *it.FlightDate
	}
	if it.SeatNumber != nil {
		ci.SeatNumber = *it.SeatNumber
	}
	if it.Passenger != nil {
		ci.PassengerName = it.Passenger.Name
	}
	if f := it.Flight; f != nil {
		if f.FlightNumber != "" {
			ci.FlightNumber = f.FlightNumber
		}
		if f.Airline != nil {
			ci.Airline = f.Airline.Name
		}
		if f.Route != nil {
			ci.Departure = airportLabel(f.Route.DepartureAirport)
			ci.Arrival = airportLabel(f.Route.ArrivalAirport)
		}
	}
	return ci
}

// ItemRows flattens a card into display rows, one per item.
func ItemRows(card OrderCard) []ItemRow {
	rows := make([]ItemRow, 0, len(card.Items))
	for _, it := range card.Items {
		label := it.FlightNumber
		if it.Departure != "" && it.Arrival != "" {
			label += " " + it.Departure + " → " + it.Arrival
		}
		seat := it.SeatNumber
		if seat == "" {
			seat = "-"
		}
		rows = append(rows, ItemRow{
			OrderNo:    card.OrderNo,
			ItemID:     it.ItemID,
			Label:      label,
			Cabin:      CabinLabel(it.CabinClass),
			Passenger:  it.PassengerName,
			Seat:       seat,
			CheckedIn:  it.CheckInStatus == domain.CheckInChecked,
			PaidPrice:  it.PaidPrice,
			PriceLabel: it.PaidPrice.String(),
		})
	}
	return rows
}

type OrderTab string

const (
	TabAll       OrderTab = "all"
	TabUnpaid    OrderTab = "unpaid"
	TabPaid      OrderTab = "paid"
	TabCompleted OrderTab = "completed"
	TabCancelled OrderTab = "cancelled"
)

// FilterCards applies the order list tabs.
func FilterCards(cards []OrderCard, tab OrderTab) []OrderCard {
	out := make([]OrderCard, 0, len(cards))
	for _, c := range cards {
		keep := false
		switch tab {
		case TabUnpaid:
			keep = c.PaymentStatus == domain.PaymentStatusUnpaid
		case TabPaid:
			keep = c.PaymentStatus == domain.PaymentStatusPaid && c.Status == domain.OrderStatusPaid
		case TabCompleted:
			keep = c.Status == domain.OrderStatusCompleted
		case TabCancelled:
			keep = c.Status == domain.OrderStatusCancelled
		default:
			keep = true
		}
		if keep {
			out = append(out, c)
		}
	}
	return out
}

type SortKey string

const (
	SortByTime   SortKey = "time"
	SortByAmount SortKey = "amount"
)

// SortCards orders cards in place by creation time or paid total.
func SortCards(cards []OrderCard, key SortKey, desc bool) {
	less := func(i, j int) bool {
		if key == SortByAmount {
			return cards[i].Total < cards[j].Total
		}
		return cards[i].CreatedAt.Before(cards[j].CreatedAt)
	}
	sort.SliceStable(cards, func(i, j int) bool {
		if desc {
			return less(j, i)
		}
		return less(i, j)
	})
}

// ChatOrderDigest is the short order summary the assistant shows when a
// message names an order number.
func ChatOrderDigest(o domain.Order) string {
	flight := "TBD"
	route := "TBD"
	passenger := "-"
	if len(o.Items) > 0 {
		first := o.Items[0]
		if f := first.Flight; f != nil {
			if f.FlightNumber != "" {
				flight = f.FlightNumber
			}
			if f.Route != nil && f.Route.DepartureAirport != nil && f.Route.ArrivalAirport != nil {
				route = airportLabel(f.Route.DepartureAirport) + " → " + airportLabel(f.Route.ArrivalAirport)
			}
		}
		if first.Passenger != nil && first.Passenger.Name != "" {
			passenger = first.Passenger.Name
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Order %s status: %s/%s\n", o.OrderNo, o.Status, o.PaymentStatus)
	fmt.Fprintf(&b, "Amount: %s\n", o.TotalAmount)
	fmt.Fprintf(&b, "Flight: %s (%s)\n", flight, route)
	fmt.Fprintf(&b, "Passenger: %s", passenger)
	return b.String()
}

// OrderSummary is the compact form attached to assistant replies.
func OrderSummary(o domain.Order) domain.OrderSummary {
	return domain.OrderSummary{
		OrderID:       o.ID,
		OrderNo:       o.OrderNo,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		Total:         o.TotalAmount,
	}
}

func airportLabel(a *domain.Airport) string {
	if a == nil {
		return ""
	}
	return strings.TrimSpace(a.City + " " + a.Code)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
