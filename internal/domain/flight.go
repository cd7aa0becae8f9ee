package domain

// Flight is the nested flight block of an order item. Every nested part is
// optional in backend payloads.
type Flight struct {
	ID                     int64    `json:"flight_id"`
	FlightNumber           string   `json:"flight_number"`
	ScheduledDepartureTime *string  `json:"scheduled_departure_time,omitempty"`
	ScheduledArrivalTime   *string  `json:"scheduled_arrival_time,omitempty"`
	Airline                *Airline `json:"airline,omitempty"`
	Route                  *Route   `json:"route,omitempty"`
}

type Airline struct {
	Code string `json:"airline_code"`
	Name string `json:"airline_name"`
}

type Route struct {
	DepartureAirport *Airport `json:"departure_airport,omitempty"`
	ArrivalAirport   *Airport `json:"arrival_airport,omitempty"`
}

type Airport struct {
	Code string `json:"airport_code"`
	Name string `json:"airport_name"`
	City string `json:"city"`
}

type FlightSearchRequest struct {
	DepartureCity string     `json:"departure_city"`
	ArrivalCity   string     `json:"arrival_city"`
	DepartureDate string     `json:"departure_date"`
	AdultCount    int        `json:"adult_count,omitempty"`
	CabinClass    CabinClass `json:"cabin_class,omitempty"`
	PriceMin      *Money     `json:"price_min,omitempty"`
	PriceMax      *Money     `json:"price_max,omitempty"`
}

type FlightSearchResult struct {
	Flights []FlightOffer `json:"flights"`
	Total   int           `json:"total"`
}

type FlightOffer struct {
	Flight
	DepartureDate  string     `json:"departure_date"`
	CabinClass     CabinClass `json:"cabin_class"`
	Price          Money      `json:"price"`
	AvailableSeats int        `json:"available_seats"`
}

type FlightPricing struct {
	ID         int64      `json:"pricing_id"`
	FlightID   int64      `json:"flight_id"`
	CabinClass CabinClass `json:"cabin_class"`
	BasePrice  Money      `json:"base_price"`
}

type FlightAvailability struct {
	FlightID       int64      `json:"flight_id"`
	FlightDate     string     `json:"flight_date"`
	CabinClass     CabinClass `json:"cabin_class"`
	AvailableSeats int        `json:"available_seats"`
}
