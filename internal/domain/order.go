package domain

type CabinClass string

const (
	CabinEconomy  CabinClass = "economy"
	CabinBusiness CabinClass = "business"
	CabinFirst    CabinClass = "first"
)

func (c CabinClass) Valid() bool {
	switch c {
	case CabinEconomy, CabinBusiness, CabinFirst:
		return true
	}
	return false
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusCompleted OrderStatus = "completed"
)

// Terminal reports whether no further transitions are allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusCompleted
}

type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	PaymentAlipay     PaymentMethod = "alipay"
	PaymentWechat     PaymentMethod = "wechat"
	PaymentUnionpay   PaymentMethod = "unionpay"
	PaymentCreditCard PaymentMethod = "credit_card"
	PaymentOffline    PaymentMethod = "offline"
)

type CheckInStatus string

const (
	CheckInNotChecked CheckInStatus = "not_checked"
	CheckInChecked    CheckInStatus = "checked"
)

type TicketStatus string

const (
	TicketConfirmed TicketStatus = "confirmed"
	TicketCancelled TicketStatus = "cancelled"
)

type Order struct {
	ID                  int64         `json:"order_id"`
	OrderNo             string        `json:"order_no"`
	UserID              int64         `json:"user_id"`
	TotalAmountOriginal Money         `json:"total_amount_original"`
	TotalAmount         Money         `json:"total_amount"`
	Currency            string        `json:"currency"`
	PaymentMethod       PaymentMethod `json:"payment_method"`
	PaymentStatus       PaymentStatus `json:"payment_status"`
	Status              OrderStatus   `json:"status"`
	ContactName         *string       `json:"contact_name,omitempty"`
	PaidAt              *Timestamp    `json:"paid_at,omitempty"`
	ExpiredAt           *Timestamp    `json:"expired_at,omitempty"`
	CreatedAt           Timestamp     `json:"created_at"`
	UpdatedAt           Timestamp     `json:"updated_at"`
	Items               []OrderItem   `json:"items"`
}

// Item returns the item with the given id, or nil.
func (o *Order) Item(itemID int64) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i]
		}
	}
	return nil
}

// Clone returns a deep copy so callers can render without holding locks.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	cp := *o
	cp.Items = make([]OrderItem, len(o.Items))
	for i, it := range o.Items {
		if it.SeatNumber != nil {
			seat := *it.SeatNumber
			it.SeatNumber = &seat
		}
		if it.FlightDate != nil {
			date := *it.FlightDate
			it.FlightDate = &date
		}
		cp.Items[i] = it
	}
	return &cp
}

type OrderItem struct {
	ID            int64         `json:"item_id"`
	OrderID       int64         `json:"order_id"`
	FlightID      int64         `json:"flight_id"`
	FlightDate    *string       `json:"flight_date,omitempty"`
	CabinClass    CabinClass    `json:"cabin_class"`
	PassengerID   int64         `json:"passenger_id"`
	OriginalPrice Money         `json:"original_price"`
	PaidPrice     Money         `json:"paid_price"`
	SeatNumber    *string       `json:"seat_number,omitempty"`
	ContactEmail  *string       `json:"contact_email,omitempty"`
	CheckInStatus CheckInStatus `json:"check_in_status"`
	TicketStatus  TicketStatus  `json:"ticket_status"`
	Passenger     *Passenger    `json:"passenger,omitempty"`
	Flight        *Flight       `json:"flight,omitempty"`
}

// SameDeparture reports whether two items sit on the same departure. Items
// on one flight match when either lacks a flight date.
func (it OrderItem) SameDeparture(other OrderItem) bool {
	if it.FlightID != other.FlightID {
		return false
	}
	if it.FlightDate == nil || *it.FlightDate == "" || other.FlightDate == nil || *other.FlightDate == "" {
		return true
	}
	return *it.FlightDate == *other.FlightDate
}

type Passenger struct {
	ID           int64   `json:"passenger_id"`
	Name         string  `json:"name"`
	IDCard       string  `json:"id_card"`
	ContactPhone *string `json:"contact_phone,omitempty"`
}

type CancellationItem struct {
	ItemID    int64 `json:"item_id"`
	PaidPrice Money `json:"paid_price"`
	Penalty   Money `json:"penalty"`
	Refund    Money `json:"refund"`
}

// CancellationPreview is a server-computed estimate, not a commitment.
type CancellationPreview struct {
	FlightDate   string             `json:"flight_date"`
	PenaltyTotal Money              `json:"penalty_total"`
	RefundTotal  Money              `json:"refund_total"`
	Items        []CancellationItem `json:"items"`
}

type OrderStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Paid      int `json:"paid"`
	Cancelled int `json:"cancelled"`
	Completed int `json:"completed"`
}

// OrderFilter mirrors the list query parameters of the orders endpoint.
type OrderFilter struct {
	Status        OrderStatus
	PaymentStatus PaymentStatus
	OrderNo       string
	Skip          int
	Limit         int
}
