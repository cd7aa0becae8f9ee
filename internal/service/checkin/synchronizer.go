package checkin

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/Domenick1991/wingquest/internal/domain"
	"github.com/Domenick1991/wingquest/internal/kafka"
)

// OrdersAPI is the backend surface the synchronizer drives.
type OrdersAPI interface {
	GetOrder(ctx context.Context, orderID int64) (*domain.Order, error)
	CheckIn(ctx context.Context, itemID int64, seatNumber string) (*domain.OrderItem, error)
	CancelPreview(ctx context.Context, orderID int64, flightDate string) (*domain.CancellationPreview, error)
	CancelOrder(ctx context.Context, orderID int64, flightDate string) (*domain.Order, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type CheckInUseCase interface {
	LoadOrder(ctx context.Context, orderID int64) (*domain.Order, error)
	SetActiveItem(itemID int64) error
	OccupiedSeats(itemID int64) ([]string, error)
	SelectSeat(itemID int64, seatCode string) error
	SelectBaggage(itemID int64, optionID string) error
	ConfirmCheckIn(ctx context.Context, itemID int64) (*CheckInResult, error)
	PreviewCancellation(ctx context.Context, flightDate string) (*domain.CancellationPreview, error)
	ConfirmCancellation(ctx context.Context, flightDate string) (*domain.Order, error)
	Snapshot() *domain.Order
	Preview() *domain.CancellationPreview
	StagedSeat(itemID int64) (string, bool)
	View() View
}

var _ CheckInUseCase = (*Synchronizer)(nil)

type CheckInResult struct {
	Item       domain.OrderItem `json:"item"`
	Seat       string           `json:"seat"`
	Baggage    BaggageOption    `json:"baggage"`
	BaggageFee domain.Money     `json:"baggage_fee"`
}

// View is everything an order page renders, copied under one lock.
type View struct {
	Order         *domain.Order               `json:"order"`
	ActiveItemID  int64                       `json:"active_item_id"`
	OccupiedSeats []string                    `json:"occupied_seats"`
	StagedSeats   map[int64]string            `json:"staged_seats"`
	Baggage       map[int64]string            `json:"baggage"`
	Preview       *domain.CancellationPreview `json:"preview,omitempty"`
	Pending       []string                    `json:"pending,omitempty"`
}

const cancelSlot = "cancel"

func checkInSlot(itemID int64) string {
	return "check-in:" + strconv.FormatInt(itemID, 10)
}

// Synchronizer keeps one order page consistent with the backend. The mutex
// guards local state only and is never held across a backend call.
type Synchronizer struct {
	api         OrdersAPI
	publisher   EventPublisher
	eventsTopic string
	seats       SeatMap
	logger      *slog.Logger
	now         func() time.Time

	mu            sync.Mutex
	order         *domain.Order
	activeItemID  int64
	stagedSeats   map[int64]string
	stagedBaggage map[int64]string
	preview       *domain.CancellationPreview
	loadGen       uint64
	previewGen    uint64
	inFlight      map[string]bool
}

type SynchronizerOption func(*Synchronizer)

func WithEvents(publisher EventPublisher, topic string) SynchronizerOption {
	return func(s *Synchronizer) {
		s.publisher = publisher
		s.eventsTopic = topic
	}
}

func WithSeatMap(m SeatMap) SynchronizerOption {
	return func(s *Synchronizer) {
		s.seats = m
	}
}

func WithLogger(logger *slog.Logger) SynchronizerOption {
	return func(s *Synchronizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) SynchronizerOption {
	return func(s *Synchronizer) {
		s.now = now
	}
}

func NewSynchronizer(api OrdersAPI, opts ...SynchronizerOption) *Synchronizer {
	s := &Synchronizer{
		api:           api,
		seats:         DefaultSeatMap(),
		logger:        slog.Default(),
		now:           time.Now,
		stagedSeats:   make(map[int64]string),
		stagedBaggage: make(map[int64]string),
		inFlight:      make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Synchronizer) LoadOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	if orderID <= 0 {
		return nil, fmt.Errorf("%w: order %d", domain.ErrNotFound, orderID)
	}

	s.mu.Lock()
	s.loadGen++
	gen := s.loadGen
	s.mu.Unlock()

	order, err := s.api.GetOrder(ctx, orderID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.loadGen {
		return nil, domain.ErrStaleResponse
	}
	if err != nil {
		return nil, err
	}

	s.order = order.Clone()
	s.stagedSeats = make(map[int64]string)
	s.stagedBaggage = make(map[int64]string)
	s.preview = nil
	s.previewGen++
	s.activeItemID = 0
	if len(s.order.Items) > 0 {
		s.activeItemID = s.order.Items[0].ID
	}
	return s.order.Clone(), nil
}

func (s *Synchronizer) SetActiveItem(itemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.itemLocked(itemID); err != nil {
		return err
	}
	s.activeItemID = itemID
	return nil
}

func (s *Synchronizer) OccupiedSeats(itemID int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.itemLocked(itemID)
	if err != nil {
		return nil, err
	}
	return s.occupiedLocked(item), nil
}

func (s *Synchronizer) SelectSeat(itemID int64, seatCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.editableItemLocked(itemID)
	if err != nil {
		return err
	}
	if s.inFlight[checkInSlot(itemID)] {
		return domain.ErrRequestInFlight
	}
	seat, err := s.seats.Parse(seatCode)
	if err != nil {
		return err
	}
	cabin := item.CabinClass
	if cabin == "" {
		cabin = domain.CabinEconomy
	}
	if seat.Cabin != cabin {
		return fmt.Errorf("%w: seat %s is %s, ticket is %s", domain.ErrCabinMismatch, seat.Code, seat.Cabin, cabin)
	}
	for _, taken := range s.occupiedLocked(item) {
		if taken == seat.Code {
			return fmt.Errorf("%w: %s", domain.ErrSeatTaken, seat.Code)
		}
	}
	for otherID, staged := range s.stagedSeats {
		if otherID == itemID || staged != seat.Code {
			continue
		}
		if other := s.order.Item(otherID); other != nil && other.SameDeparture(*item) {
			return fmt.Errorf("%w: %s is selected for another passenger", domain.ErrSeatTaken, seat.Code)
		}
	}

	s.stagedSeats[itemID] = seat.Code
	s.activeItemID = itemID
	return nil
}

func (s *Synchronizer) SelectBaggage(itemID int64, optionID string) error {
	opt, err := baggageOption(optionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.editableItemLocked(itemID); err != nil {
		return err
	}
	if s.inFlight[checkInSlot(itemID)] {
		return domain.ErrRequestInFlight
	}
	s.stagedBaggage[itemID] = opt.ID
	return nil
}

func (s *Synchronizer) ConfirmCheckIn(ctx context.Context, itemID int64) (*CheckInResult, error) {
	s.mu.Lock()
	item, err := s.editableItemLocked(itemID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	seat, ok := s.stagedSeats[itemID]
	if !ok {
		s.mu.Unlock()
		return nil, domain.ErrNoSeatSelected
	}
	slot := checkInSlot(itemID)
	if s.inFlight[slot] {
		s.mu.Unlock()
		return nil, domain.ErrRequestInFlight
	}
	s.inFlight[slot] = true
	orderID := s.order.ID
	orderNo := s.order.OrderNo
	flightDate := derefString(item.FlightDate)
	email := derefString(item.ContactEmail)
	baggage, _ := baggageOption(s.stagedBaggage[itemID])
	s.mu.Unlock()

	updated, err := s.api.CheckIn(ctx, itemID, seat)

	s.mu.Lock()
	delete(s.inFlight, slot)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if updated != nil && updated.SeatNumber != nil && *updated.SeatNumber != "" {
		seat = *updated.SeatNumber
	}
	result := &CheckInResult{Seat: seat, Baggage: baggage, BaggageFee: baggage.Fee}
	if s.order != nil && s.order.ID == orderID {
		if current := s.order.Item(itemID); current != nil {
			committed := seat
			current.SeatNumber = &committed
			current.CheckInStatus = domain.CheckInChecked
			result.Item = *current
		}
		delete(s.stagedSeats, itemID)
	}
	s.mu.Unlock()

	s.publish(ctx, kafka.OrderEvent{
		Type:         kafka.EventCheckInConfirmed,
		OrderID:      orderID,
		OrderNo:      orderNo,
		ItemID:       itemID,
		SeatNumber:   seat,
		FlightDate:   flightDate,
		BaggageFee:   int64(baggage.Fee),
		ContactEmail: email,
		Status:       string(domain.CheckInChecked),
	})
	return result, nil
}

func (s *Synchronizer) PreviewCancellation(ctx context.Context, flightDate string) (*domain.CancellationPreview, error) {
	if err := validateFlightDate(flightDate); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.order == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: no order loaded", domain.ErrInvalidState)
	}
	if s.order.Status.Terminal() {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: order is %s", domain.ErrInvalidState, s.order.Status)
	}
	s.previewGen++
	gen := s.previewGen
	orderID := s.order.ID
	s.mu.Unlock()

	preview, err := s.api.CancelPreview(ctx, orderID, flightDate)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.previewGen {
		return nil, domain.ErrStaleResponse
	}
	if err != nil {
		return nil, err
	}
	cp := clonePreview(preview)
	if cp.FlightDate == "" {
		cp.FlightDate = flightDate
	}
	s.preview = cp
	return clonePreview(cp), nil
}

func (s *Synchronizer) ConfirmCancellation(ctx context.Context, flightDate string) (*domain.Order, error) {
	if err := validateFlightDate(flightDate); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.order == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: no order loaded", domain.ErrInvalidState)
	}
	if s.order.Status.Terminal() {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: order is %s", domain.ErrInvalidState, s.order.Status)
	}
	if s.preview == nil || s.preview.FlightDate != flightDate {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: preview the cancellation for %s first", domain.ErrValidation, flightDate)
	}
	if s.inFlight[cancelSlot] {
		s.mu.Unlock()
		return nil, domain.ErrRequestInFlight
	}
	s.inFlight[cancelSlot] = true
	orderID := s.order.ID
	orderNo := s.order.OrderNo
	refund := s.preview.RefundTotal
	email := contactEmail(s.order)
	s.mu.Unlock()

	cancelled, err := s.api.CancelOrder(ctx, orderID, flightDate)

	s.mu.Lock()
	delete(s.inFlight, cancelSlot)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	var out *domain.Order
	if s.order != nil && s.order.ID == orderID {
		if cancelled != nil && cancelled.ID == orderID && len(cancelled.Items) > 0 {
			s.order = cancelled.Clone()
		}
		s.order.Status = domain.OrderStatusCancelled
		if cancelled != nil && cancelled.PaymentStatus != "" {
			s.order.PaymentStatus = cancelled.PaymentStatus
		}
		s.stagedSeats = make(map[int64]string)
		s.stagedBaggage = make(map[int64]string)
		s.preview = nil
		s.previewGen++
		out = s.order.Clone()
	} else {
		out = cancelled.Clone()
	}
	s.mu.Unlock()

	s.publish(ctx, kafka.OrderEvent{
		Type:         kafka.EventOrderCancelled,
		OrderID:      orderID,
		OrderNo:      orderNo,
		FlightDate:   flightDate,
		RefundCents:  int64(refund),
		ContactEmail: email,
		Status:       string(domain.OrderStatusCancelled),
	})
	return out, nil
}

func (s *Synchronizer) Snapshot() *domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Clone()
}

func (s *Synchronizer) Preview() *domain.CancellationPreview {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clonePreview(s.preview)
}

func (s *Synchronizer) StagedSeat(itemID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seat, ok := s.stagedSeats[itemID]
	return seat, ok
}

func (s *Synchronizer) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Order:        s.order.Clone(),
		ActiveItemID: s.activeItemID,
		StagedSeats:  make(map[int64]string, len(s.stagedSeats)),
		Baggage:      make(map[int64]string, len(s.stagedBaggage)),
		Preview:      clonePreview(s.preview),
	}
	for id, seat := range s.stagedSeats {
		v.StagedSeats[id] = seat
	}
	for id, opt := range s.stagedBaggage {
		v.Baggage[id] = opt
	}
	for slot := range s.inFlight {
		v.Pending = append(v.Pending, slot)
	}
	if s.order != nil {
		if item := s.order.Item(s.activeItemID); item != nil {
			v.OccupiedSeats = s.occupiedLocked(item)
		}
	}
	return v
}

// SeatGrid renders the seat map for an item: occupied seats belong to
// siblings on the same departure, selected is the seat staged or held by
// the item itself.
func (s *Synchronizer) SeatGrid(itemID int64) ([]GridRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.itemLocked(itemID)
	if err != nil {
		return nil, err
	}
	occupied := make(map[string]bool)
	for _, code := range s.occupiedLocked(item) {
		occupied[code] = true
	}
	selected := s.stagedSeats[itemID]
	if selected == "" && item.SeatNumber != nil {
		selected = *item.SeatNumber
	}
	cabin := item.CabinClass
	if cabin == "" {
		cabin = domain.CabinEconomy
	}

	var rows []GridRow
	for _, zone := range s.seats.Zones {
		for row := zone.FirstRow; row <= zone.LastRow; row++ {
			gr := GridRow{Row: row, Cabin: zone.Cabin}
			for _, col := range zone.Columns {
				code := strconv.Itoa(row) + col
				gs := GridSeat{Seat: Seat{Code: code, Row: row, Column: col, Cabin: zone.Cabin}, State: SeatAvailable}
				switch {
				case occupied[code]:
					gs.State = SeatOccupied
				case code == selected:
					gs.State = SeatSelected
				}
				gs.Selectable = gs.State == SeatAvailable && zone.Cabin == cabin
				gr.Seats = append(gr.Seats, gs)
			}
			rows = append(rows, gr)
		}
	}
	return rows, nil
}

func (s *Synchronizer) itemLocked(itemID int64) (*domain.OrderItem, error) {
	if s.order == nil {
		return nil, fmt.Errorf("%w: no order loaded", domain.ErrInvalidState)
	}
	item := s.order.Item(itemID)
	if item == nil {
		return nil, fmt.Errorf("%w: item %d", domain.ErrNotFound, itemID)
	}
	return item, nil
}

func (s *Synchronizer) editableItemLocked(itemID int64) (*domain.OrderItem, error) {
	item, err := s.itemLocked(itemID)
	if err != nil {
		return nil, err
	}
	if s.order.Status.Terminal() {
		return nil, fmt.Errorf("%w: order is %s", domain.ErrInvalidState, s.order.Status)
	}
	if item.TicketStatus == domain.TicketCancelled {
		return nil, fmt.Errorf("%w: ticket for item %d is cancelled", domain.ErrInvalidState, itemID)
	}
	return item, nil
}

// occupiedLocked lists seats held by the other items on the same departure.
func (s *Synchronizer) occupiedLocked(item *domain.OrderItem) []string {
	out := []string{}
	for _, other := range s.order.Items {
		if other.ID == item.ID || !other.SameDeparture(*item) {
			continue
		}
		if other.SeatNumber != nil && *other.SeatNumber != "" {
			out = append(out, *other.SeatNumber)
		}
	}
	return out
}

func (s *Synchronizer) publish(ctx context.Context, event kafka.OrderEvent) {
	if s.publisher == nil || s.eventsTopic == "" {
		return
	}
	event.OccurredAt = s.now().UTC()
	key := strconv.FormatInt(event.OrderID, 10)
	if err := s.publisher.Publish(ctx, s.eventsTopic, key, event); err != nil {
		s.logger.Warn("failed to publish order event", "type", event.Type, "order_id", event.OrderID, "error", err)
	}
}

func validateFlightDate(flightDate string) error {
	if flightDate == "" {
		return fmt.Errorf("%w: flight date is required", domain.ErrValidation)
	}
	if _, err := time.Parse(domain.DateLayout, flightDate); err != nil {
		return fmt.Errorf("%w: flight date %q must be YYYY-MM-DD", domain.ErrValidation, flightDate)
	}
	return nil
}

func clonePreview(p *domain.CancellationPreview) *domain.CancellationPreview {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Items = append([]domain.CancellationItem(nil), p.Items...)
	return &cp
}

func contactEmail(order *domain.Order) string {
	for _, it := range order.Items {
		if it.ContactEmail != nil && *it.ContactEmail != "" {
			return *it.ContactEmail
		}
	}
	return ""
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
