package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/wingquest/internal/client"
	"github.com/Domenick1991/wingquest/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockBackend is a mock implementation of Backend
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockBackend) CheckIn(ctx context.Context, itemID int64, seatNumber string) (*domain.OrderItem, error) {
	args := m.Called(ctx, itemID, seatNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderItem), args.Error(1)
}

func (m *MockBackend) CancelPreview(ctx context.Context, orderID int64, flightDate string) (*domain.CancellationPreview, error) {
	args := m.Called(ctx, orderID, flightDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CancellationPreview), args.Error(1)
}

func (m *MockBackend) CancelOrder(ctx context.Context, orderID int64, flightDate string) (*domain.Order, error) {
	args := m.Called(ctx, orderID, flightDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockBackend) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatResponse), args.Error(1)
}

func (m *MockBackend) ChatStream(ctx context.Context, req domain.ChatRequest) (*client.StreamReader, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.StreamReader), args.Error(1)
}

func (m *MockBackend) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockBackend) OrderStats(ctx context.Context) (*domain.OrderStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderStats), args.Error(1)
}

func (m *MockBackend) Me(ctx context.Context) (*domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockBackend) Login(ctx context.Context, creds domain.Credentials) (*domain.TokenResponse, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TokenResponse), args.Error(1)
}

func (m *MockBackend) AdminLogin(ctx context.Context, creds domain.Credentials) (*domain.TokenResponse, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TokenResponse), args.Error(1)
}

func (m *MockBackend) SearchFlights(ctx context.Context, req domain.FlightSearchRequest) (*domain.FlightSearchResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FlightSearchResult), args.Error(1)
}

func (m *MockBackend) FlightPricing(ctx context.Context, flightID int64) ([]domain.FlightPricing, error) {
	args := m.Called(ctx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FlightPricing), args.Error(1)
}

func (m *MockBackend) FlightAvailability(ctx context.Context, flightID int64, flightDate string) ([]domain.FlightAvailability, error) {
	args := m.Called(ctx, flightID, flightDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FlightAvailability), args.Error(1)
}

// newTestRouter mounts register under /api behind a session middleware
// that hands every request the same mock backend.
func newTestRouter(backend *MockBackend, register func(*gin.RouterGroup)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/api", SessionMiddleware(func(string, domain.Role) Backend { return backend }))
	register(group)
	return router
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer  abc "))
	assert.Equal(t, "", bearerToken("Basic abc"))
	assert.Equal(t, "", bearerToken("Bearer "))
	assert.Equal(t, "", bearerToken(""))
}

func TestSessionMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var gotToken string
	var gotRole domain.Role
	router := gin.New()
	router.Use(SessionMiddleware(func(token string, role domain.Role) Backend {
		gotToken, gotRole = token, role
		return &MockBackend{}
	}))
	router.GET("/whoami", func(c *gin.Context) {
		assert.NotNil(t, backendFrom(c))
		c.String(http.StatusOK, tokenFrom(c))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	req.Header.Set(headerRole, "agency")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tok-1", w.Body.String())
	assert.Equal(t, "tok-1", gotToken)
	assert.Equal(t, domain.RoleAgency, gotRole)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Equal(t, "", gotToken)
	assert.Equal(t, domain.RoleTraveler, gotRole)
}
