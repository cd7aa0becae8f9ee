package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/wingquest/internal/domain"
	"github.com/Domenick1991/wingquest/internal/session"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error      string `json:"error"`
	LoginRoute string `json:"login_route,omitempty"`
}

// statusFor maps core errors to HTTP statuses. Backend HTTP errors keep
// their own status; anything else is treated as an unreachable backend.
func statusFor(err error) int {
	var httpErr *domain.HTTPError
	switch {
	case errors.Is(err, domain.ErrAuth), errors.Is(err, domain.ErrAuthExpired):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCabinMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSeatTaken), errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrStaleResponse):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRequestInFlight):
		return http.StatusTooManyRequests
	case errors.As(err, &httpErr):
		return httpErr.StatusCode
	}
	return http.StatusBadGateway
}

func writeError(c *gin.Context, err error) {
	resp := errorResponse{Error: err.Error()}
	var expired *domain.AuthExpiredError
	switch {
	case errors.As(err, &expired):
		resp.LoginRoute = expired.LoginRoute
	case errors.Is(err, domain.ErrAuth):
		resp.LoginRoute = session.LoginRoute(c.GetHeader(headerUIPath))
	}
	c.JSON(statusFor(err), resp)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}
