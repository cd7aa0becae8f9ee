package mapper

import (
	"sort"
	"strings"
	"time"

	"github.com/Domenick1991/wingquest/internal/domain"
)

type TripStatus string

const (
	TripUpcoming  TripStatus = "upcoming"
	TripOngoing   TripStatus = "ongoing"
	TripCompleted TripStatus = "completed"
)

const (
	DefaultRecentTrips = 3
	unknownLocation    = "TBD"
	ongoingWindow      = 6 * time.Hour
)

var tripStatusText = map[TripStatus]string{
	TripUpcoming:  "Departing soon",
	TripOngoing:   "In progress",
	TripCompleted: "Completed",
}

// Trip is one flight leg as shown on the dashboard.
type Trip struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Title      string     `json:"title"`
	Subtitle   string     `json:"subtitle"`
	Date       string     `json:"date"`
	Time       string     `json:"time"`
	Location   string     `json:"location"`
	Status     TripStatus `json:"status"`
	StatusText string     `json:"status_text"`
	Details    string     `json:"details"`
	DepartsAt  time.Time  `json:"departs_at"`
}

// TripsFromOrders maps every item of every order to a Trip. Missing nested
// fields get their defaults here so renderers never have to.
func TripsFromOrders(orders []domain.Order, now time.Time) []Trip {
	var trips []Trip
	for _, o := range orders {
		for _, it := range o.Items {
			trips = append(trips, tripFromItem(o, it, now))
		}
	}
	return trips
}

func tripFromItem(o domain.Order, it domain.OrderItem, now time.Time) Trip {
	var dep, arr *domain.Airport
	number := ""
	airline := ""
	clock := "00:00"
	if f := it.Flight; f != nil {
		number = f.FlightNumber
		if f.Airline != nil {
			airline = f.Airline.Name
		}
		if f.Route != nil {
			dep, arr = f.Route.DepartureAirport, f.Route.ArrivalAirport
		}
		if f.ScheduledDepartureTime != nil {
			clock = clockOf(*f.ScheduledDepartureTime)
		}
	}
	if number == "" {
		number = itoa(it.FlightID)
	}

	date := ""
	if it.FlightDate != nil && *it.FlightDate != "" {
		date = *it.FlightDate
	} else if !o.CreatedAt.IsZero() {
		date = o.CreatedAt.In(now.Location()).Format(domain.DateLayout)
	}

	t := Trip{
		ID:       o.OrderNo + "-" + itoa(it.ID),
		Type:     "flight",
		Title:    "Flight " + number,
		Subtitle: strings.TrimSpace(airline + " " + number),
		Date:     date,
		Time:     clock,
		Location: unknownLocation,
		Details:  CabinLabel(it.CabinClass) + " · 1 passenger",
	}
	if dep != nil && arr != nil {
		t.Title = dep.City + " → " + arr.City
	}
	if dep != nil {
		t.Location = dep.City + " " + dep.Code
	}

	t.DepartsAt = departure(date, clock, now.Location())
	switch {
	case t.DepartsAt.After(now):
		t.Status = TripUpcoming
	case now.Sub(t.DepartsAt) < ongoingWindow:
		t.Status = TripOngoing
	default:
		t.Status = TripCompleted
	}
	t.StatusText = tripStatusText[t.Status]
	return t
}

// RecentTrips returns the earliest trips whose date began no more than 24
// hours before now, at most limit of them.
func RecentTrips(orders []domain.Order, now time.Time, limit int) []Trip {
	if limit <= 0 {
		limit = DefaultRecentTrips
	}
	trips := TripsFromOrders(orders, now)
	sort.SliceStable(trips, func(i, j int) bool {
		return trips[i].DepartsAt.Before(trips[j].DepartsAt)
	})

	cutoff := now.Add(-24 * time.Hour)

	out := make([]Trip, 0, limit)
	for _, t := range trips {
		if len(out) == limit {
			break
		}
		day, err := time.ParseInLocation(domain.DateLayout, t.Date, now.Location())
		if err != nil || day.Before(cutoff) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// clockOf extracts HH:MM from "08:30", "08:30:00" or a full datetime.
func clockOf(s string) string {
	if i := strings.IndexAny(s, "T "); i >= 0 {
		s = s[i+1:]
	}
	if len(s) >= 5 && s[2] == ':' {
		return s[:5]
	}
	return "00:00"
}

func departure(date, clock string, loc *time.Location) time.Time {
	t, err := time.ParseInLocation(domain.DateLayout+" 15:04", date+" "+clock, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}
