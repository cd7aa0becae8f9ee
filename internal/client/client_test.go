package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/Domenick1991/wingquest/config"
	"github.com/Domenick1991/wingquest/internal/domain"
	"github.com/Domenick1991/wingquest/internal/session"
	"github.com/Domenick1991/wingquest/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, token string, role domain.Role) (*Client, *session.Session, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	sess := session.New(storage.NewMemoryStorage(), config.SessionConfig{})
	if token != "" {
		require.NoError(t, sess.Login(context.Background(), token, role))
	}
	return New(srv.URL, sess), sess, &hits
}

func TestClient_AttachesBearerToken(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer jwt-1", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/v1/orders/42", r.URL.Path)
		fmt.Fprint(w, `{"order_id":42,"order_no":"ORD2025110100001","status":"paid","total_amount":1280.50,"items":[]}`)
	}, "jwt-1", domain.RoleTraveler)

	order, err := c.GetOrder(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), order.ID)
	assert.Equal(t, domain.Money(128050), order.TotalAmount)
	assert.Equal(t, domain.OrderStatusPaid, order.Status)
}

func TestClient_ProtectedCallWithoutTokenFailsFast(t *testing.T) {
	c, _, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, "", "")

	_, err := c.GetOrder(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrAuth)

	_, err = c.ListOrders(context.Background(), domain.OrderFilter{})
	assert.ErrorIs(t, err, domain.ErrAuth)
	assert.True(t, IsAuthError(err))

	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
}

func TestClient_UnauthorizedClearsSession(t *testing.T) {
	testCases := []struct {
		name          string
		role          domain.Role
		uiPath        string
		expectedRoute string
	}{
		{name: "traveler default", role: domain.RoleTraveler, expectedRoute: "/"},
		{name: "admin by role", role: domain.RoleAdmin, expectedRoute: "/admin/login"},
		{name: "agency by role", role: domain.RoleAgency, expectedRoute: "/agency/login"},
		{name: "ui path wins", role: domain.RoleTraveler, uiPath: "/agency/orders", expectedRoute: "/agency/login"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, sess, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprint(w, `{"detail":"Could not validate credentials"}`)
			}, "expired", tc.role)

			ctx := context.Background()
			if tc.uiPath != "" {
				ctx = WithUIPath(ctx, tc.uiPath)
			}
			_, err := c.Me(ctx)

			var authErr *domain.AuthExpiredError
			require.True(t, errors.As(err, &authErr))
			assert.Equal(t, tc.expectedRoute, authErr.LoginRoute)
			assert.ErrorIs(t, err, domain.ErrAuthExpired)
			assert.False(t, sess.Authenticated())
		})
	}
}

func TestClient_ErrorBodies(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/orders/7":
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"detail":"order not found"}`)
		default:
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"detail":"order cannot be cancelled"}`)
		}
	}, "jwt", domain.RoleTraveler)

	_, err := c.GetOrder(context.Background(), 7)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "order not found")

	_, err = c.CancelOrder(context.Background(), 8, "2025-11-01")
	var httpErr *domain.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, `{"detail":"order cannot be cancelled"}`, httpErr.Body)
}

func TestClient_GetOrderInvalidID(t *testing.T) {
	c, _, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {}, "jwt", domain.RoleTraveler)

	_, err := c.GetOrder(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
}

func TestClient_ListOrdersQuery(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "20", q.Get("limit"))
		assert.Equal(t, "paid", q.Get("status"))
		assert.Equal(t, "", q.Get("skip"))
		fmt.Fprint(w, `[{"order_id":1,"order_no":"A","items":[{"item_id":9,"paid_price":"99.90"}]}]`)
	}, "jwt", domain.RoleTraveler)

	orders, err := c.ListOrders(context.Background(), domain.OrderFilter{Limit: 20, Status: domain.OrderStatusPaid})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.Money(9990), orders[0].Items[0].PaidPrice)
}

func TestClient_CheckInAndPreview(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/orders/items/5/check-in":
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "12C", r.URL.Query().Get("seat_number"))
			assert.Equal(t, "checked", r.URL.Query().Get("check_in_status"))
			fmt.Fprint(w, `{"item_id":5,"seat_number":"12C","check_in_status":"checked"}`)
		case "/api/v1/orders/3/cancel-preview":
			assert.Equal(t, "2025-11-01", r.URL.Query().Get("flight_date"))
			fmt.Fprint(w, `{"penalty_total":100,"refund_total":900,"items":[{"item_id":5,"paid_price":1000,"penalty":100,"refund":900}]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}, "jwt", domain.RoleTraveler)

	item, err := c.CheckIn(context.Background(), 5, "12C")
	require.NoError(t, err)
	assert.Equal(t, domain.CheckInChecked, item.CheckInStatus)

	preview, err := c.CancelPreview(context.Background(), 3, "2025-11-01")
	require.NoError(t, err)
	assert.Equal(t, "2025-11-01", preview.FlightDate)
	assert.Equal(t, domain.Money(90000), preview.RefundTotal)
	require.Len(t, preview.Items, 1)
}

func TestClient_LoginStoresToken(t *testing.T) {
	c, sess, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "alice", r.PostForm.Get("username"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		fmt.Fprint(w, `{"access_token":"jwt-new","token_type":"bearer"}`)
	}, "", "")

	token, err := c.Login(context.Background(), domain.Credentials{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "jwt-new", token.AccessToken)
	assert.Equal(t, "jwt-new", sess.Token())
	assert.Equal(t, domain.RoleTraveler, sess.Role())
}

func TestClient_PublicEndpointsWithoutToken(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		fmt.Fprint(w, `[{"pricing_id":1,"flight_id":3,"cabin_class":"business","base_price":2100}]`)
	}, "", "")

	pricing, err := c.FlightPricing(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, pricing, 1)
	assert.Equal(t, domain.CabinBusiness, pricing[0].CabinClass)
	assert.Equal(t, domain.Money(210000), pricing[0].BasePrice)
}

func TestClient_Validation(t *testing.T) {
	c, _, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {}, "jwt", domain.RoleTraveler)

	_, err := c.SearchFlights(context.Background(), domain.FlightSearchRequest{DepartureCity: "Beijing"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = c.ChangeCabin(context.Background(), 1, "premium")
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
}
