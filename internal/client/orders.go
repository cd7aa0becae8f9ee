package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Domenick1991/wingquest/internal/domain"
)

func (c *Client) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	query := url.Values{}
	if filter.Skip > 0 {
		query.Set("skip", strconv.Itoa(filter.Skip))
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}
	if filter.PaymentStatus != "" {
		query.Set("payment_status", string(filter.PaymentStatus))
	}
	if filter.OrderNo != "" {
		query.Set("order_no", filter.OrderNo)
	}

	orders := make([]domain.Order, 0)
	err := c.doJSON(ctx, request{method: http.MethodGet, path: "/api/v1/orders/", query: query, protected: true}, &orders)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	if orderID <= 0 {
		return nil, fmt.Errorf("get order %d: %w", orderID, domain.ErrNotFound)
	}
	var order domain.Order
	err := c.doJSON(ctx, request{method: http.MethodGet, path: orderPath(orderID), protected: true}, &order)
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", orderID, err)
	}
	return &order, nil
}

func (c *Client) OrderStats(ctx context.Context) (*domain.OrderStats, error) {
	var stats domain.OrderStats
	err := c.doJSON(ctx, request{method: http.MethodGet, path: "/api/v1/orders/stats", protected: true}, &stats)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	return &stats, nil
}

func (c *Client) CancelPreview(ctx context.Context, orderID int64, flightDate string) (*domain.CancellationPreview, error) {
	var preview domain.CancellationPreview
	err := c.doJSON(ctx, request{
		method:    http.MethodGet,
		path:      orderPath(orderID) + "/cancel-preview",
		query:     url.Values{"flight_date": {flightDate}},
		protected: true,
	}, &preview)
	if err != nil {
		return nil, fmt.Errorf("cancel preview for order %d: %w", orderID, err)
	}
	if preview.FlightDate == "" {
		preview.FlightDate = flightDate
	}
	return &preview, nil
}

func (c *Client) CancelOrder(ctx context.Context, orderID int64, flightDate string) (*domain.Order, error) {
	var order domain.Order
	err := c.doJSON(ctx, request{
		method:    http.MethodPut,
		path:      orderPath(orderID) + "/cancel",
		query:     url.Values{"flight_date": {flightDate}},
		protected: true,
	}, &order)
	if err != nil {
		return nil, fmt.Errorf("cancel order %d: %w", orderID, err)
	}
	return &order, nil
}

func (c *Client) CheckIn(ctx context.Context, itemID int64, seatNumber string) (*domain.OrderItem, error) {
	query := url.Values{}
	query.Set("check_in_status", string(domain.CheckInChecked))
	query.Set("seat_number", seatNumber)
	return c.updateItem(ctx, itemID, "check-in", query)
}

func (c *Client) UpdateItemDate(ctx context.Context, itemID int64, flightDate string) (*domain.OrderItem, error) {
	return c.updateItem(ctx, itemID, "date", url.Values{"flight_date": {flightDate}})
}

func (c *Client) ChangeCabin(ctx context.Context, itemID int64, cabin domain.CabinClass) (*domain.OrderItem, error) {
	if !cabin.Valid() {
		return nil, fmt.Errorf("change cabin: %w: unknown cabin %q", domain.ErrValidation, cabin)
	}
	return c.updateItem(ctx, itemID, "cabin", url.Values{"cabin_class": {string(cabin)}})
}

func (c *Client) updateItem(ctx context.Context, itemID int64, action string, query url.Values) (*domain.OrderItem, error) {
	var item domain.OrderItem
	err := c.doJSON(ctx, request{
		method:    http.MethodPut,
		path:      "/api/v1/orders/items/" + strconv.FormatInt(itemID, 10) + "/" + action,
		query:     query,
		protected: true,
	}, &item)
	if err != nil {
		return nil, fmt.Errorf("update item %d %s: %w", itemID, action, err)
	}
	return &item, nil
}

func orderPath(orderID int64) string {
	return "/api/v1/orders/" + strconv.FormatInt(orderID, 10)
}
