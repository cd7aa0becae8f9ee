package api

import (
	"context"
	"strings"

	"github.com/Domenick1991/wingquest/internal/client"
	"github.com/Domenick1991/wingquest/internal/domain"
	"github.com/Domenick1991/wingquest/internal/service/chat"
	"github.com/Domenick1991/wingquest/internal/service/checkin"
	"github.com/Domenick1991/wingquest/internal/session"
	"github.com/gin-gonic/gin"
)

// Backend is the slice of the booking backend the HTTP layer uses. It is
// bound to the session of one incoming request.
type Backend interface {
	checkin.OrdersAPI
	chat.ChatAPI
	OrderStats(ctx context.Context) (*domain.OrderStats, error)
	Me(ctx context.Context) (*domain.User, error)
	Login(ctx context.Context, creds domain.Credentials) (*domain.TokenResponse, error)
	AdminLogin(ctx context.Context, creds domain.Credentials) (*domain.TokenResponse, error)
	SearchFlights(ctx context.Context, req domain.FlightSearchRequest) (*domain.FlightSearchResult, error)
	FlightPricing(ctx context.Context, flightID int64) ([]domain.FlightPricing, error)
	FlightAvailability(ctx context.Context, flightID int64, flightDate string) ([]domain.FlightAvailability, error)
}

var _ Backend = (*client.Client)(nil)

// BackendFactory builds a Backend for the caller's token and role.
type BackendFactory func(token string, role domain.Role) Backend

// ClientFactory returns a factory producing API clients that share one
// transport configuration.
func ClientFactory(baseURL string, opts ...client.Option) BackendFactory {
	return func(token string, role domain.Role) Backend {
		return client.New(baseURL, session.WithToken(token, role), opts...)
	}
}

const (
	ctxBackend = "backend"
	ctxToken   = "token"

	headerRole   = "X-User-Role"
	headerUIPath = "X-UI-Path"
)

// SessionMiddleware binds a Backend to every request from the bearer token
// and records the UI path for login redirects.
func SessionMiddleware(factory BackendFactory) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		role := domain.Role(c.GetHeader(headerRole))
		if role == "" {
			role = domain.RoleTraveler
		}
		if path := c.GetHeader(headerUIPath); path != "" {
			c.Request = c.Request.WithContext(client.WithUIPath(c.Request.Context(), path))
		}
		c.Set(ctxToken, token)
		c.Set(ctxBackend, factory(token, role))
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func backendFrom(c *gin.Context) Backend {
	return c.MustGet(ctxBackend).(Backend)
}

func tokenFrom(c *gin.Context) string {
	return c.GetString(ctxToken)
}
