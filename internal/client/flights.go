package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Domenick1991/wingquest/internal/domain"
)

func (c *Client) SearchFlights(ctx context.Context, req domain.FlightSearchRequest) (*domain.FlightSearchResult, error) {
	if req.DepartureCity == "" || req.ArrivalCity == "" || req.DepartureDate == "" {
		return nil, fmt.Errorf("search flights: %w: departure, arrival and date are required", domain.ErrValidation)
	}
	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}

	var result domain.FlightSearchResult
	err = c.doJSON(ctx, request{
		method:      http.MethodPost,
		path:        "/api/v1/flights/search",
		body:        body,
		contentType: "application/json",
	}, &result)
	if err != nil {
		return nil, fmt.Errorf("search flights: %w", err)
	}
	return &result, nil
}

func (c *Client) FlightPricing(ctx context.Context, flightID int64) ([]domain.FlightPricing, error) {
	pricing := make([]domain.FlightPricing, 0)
	err := c.doJSON(ctx, request{method: http.MethodGet, path: flightPath(flightID) + "/pricing"}, &pricing)
	if err != nil {
		return nil, fmt.Errorf("flight %d pricing: %w", flightID, err)
	}
	return pricing, nil
}

func (c *Client) FlightAvailability(ctx context.Context, flightID int64, flightDate string) ([]domain.FlightAvailability, error) {
	availability := make([]domain.FlightAvailability, 0)
	err := c.doJSON(ctx, request{
		method: http.MethodGet,
		path:   flightPath(flightID) + "/availability",
		query:  url.Values{"flight_date": {flightDate}},
	}, &availability)
	if err != nil {
		return nil, fmt.Errorf("flight %d availability: %w", flightID, err)
	}
	return availability, nil
}

func flightPath(flightID int64) string {
	return "/api/v1/flights/" + strconv.FormatInt(flightID, 10)
}
