package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/wingquest/internal/domain"
	"github.com/gin-gonic/gin"
)

// FlightHandler proxies the public flight endpoints.
type FlightHandler struct{}

func NewFlightHandler() *FlightHandler {
	return &FlightHandler{}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.POST("/search", h.search)
	router.GET("/:id/pricing", h.pricing)
	router.GET("/:id/availability", h.availability)
}

func (h *FlightHandler) search(c *gin.Context) {
	var req domain.FlightSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	result, err := backendFrom(c).SearchFlights(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *FlightHandler) pricing(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid id")
		return
	}
	pricing, err := backendFrom(c).FlightPricing(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pricing)
}

func (h *FlightHandler) availability(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid id")
		return
	}
	flightDate := c.Query("flight_date")
	if flightDate == "" {
		badRequest(c, "flight_date is required")
		return
	}
	availability, err := backendFrom(c).FlightAvailability(c.Request.Context(), id, flightDate)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, availability)
}
