package checkin

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/Domenick1991/wingquest/internal/domain"
)

var seatCodePattern = regexp.MustCompile(`^([0-9]{1,3})([A-Z])$`)

// Zone is a contiguous block of rows sold as one cabin class.
type Zone struct {
	Cabin    domain.CabinClass
	FirstRow int
	LastRow  int
	Columns  []string
}

type SeatMap struct {
	Zones []Zone
}

// DefaultSeatMap is the single-aisle layout the booking site renders:
// rows 1-4 first, 5-10 business, 11-30 economy.
func DefaultSeatMap() SeatMap {
	return SeatMap{Zones: []Zone{
		{Cabin: domain.CabinFirst, FirstRow: 1, LastRow: 4, Columns: []string{"A", "B"}},
		{Cabin: domain.CabinBusiness, FirstRow: 5, LastRow: 10, Columns: []string{"A", "B", "D", "E"}},
		{Cabin: domain.CabinEconomy, FirstRow: 11, LastRow: 30, Columns: []string{"A", "B", "C", "D", "E", "F"}},
	}}
}

type Seat struct {
	Code   string            `json:"code"`
	Row    int               `json:"row"`
	Column string            `json:"column"`
	Cabin  domain.CabinClass `json:"cabin"`
}

func (m SeatMap) zoneForRow(row int) (Zone, bool) {
	for _, z := range m.Zones {
		if row >= z.FirstRow && row <= z.LastRow {
			return z, true
		}
	}
	return Zone{}, false
}

// CabinForRow returns the cabin zone a row belongs to.
func (m SeatMap) CabinForRow(row int) (domain.CabinClass, bool) {
	z, ok := m.zoneForRow(row)
	return z.Cabin, ok
}

// Parse normalizes a seat code such as "12c" and checks it exists.
func (m SeatMap) Parse(code string) (Seat, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	match := seatCodePattern.FindStringSubmatch(normalized)
	if match == nil {
		return Seat{}, fmt.Errorf("%w: malformed seat code %q", domain.ErrValidation, code)
	}
	row, _ := strconv.Atoi(match[1])
	zone, ok := m.zoneForRow(row)
	if !ok {
		return Seat{}, fmt.Errorf("%w: row %d does not exist", domain.ErrValidation, row)
	}
	if !slices.Contains(zone.Columns, match[2]) {
		return Seat{}, fmt.Errorf("%w: seat %s does not exist", domain.ErrValidation, normalized)
	}
	return Seat{Code: normalized, Row: row, Column: match[2], Cabin: zone.Cabin}, nil
}

type SeatState string

const (
	SeatAvailable SeatState = "available"
	SeatOccupied  SeatState = "occupied"
	SeatSelected  SeatState = "selected"
)

type GridSeat struct {
	Seat
	State      SeatState `json:"state"`
	Selectable bool      `json:"selectable"`
}

type GridRow struct {
	Row   int               `json:"row"`
	Cabin domain.CabinClass `json:"cabin"`
	Seats []GridSeat        `json:"seats"`
}
