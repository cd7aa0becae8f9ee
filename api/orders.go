package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/wingquest/internal/domain"
	"github.com/Domenick1991/wingquest/internal/mapper"
	"github.com/Domenick1991/wingquest/internal/service/checkin"
	"github.com/Domenick1991/wingquest/internal/websocket"
	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	registry    *checkin.Registry
	hub         *websocket.Hub
	recentLimit int
	now         func() time.Time
}

type seatRequest struct {
	Seat string `json:"seat" binding:"required"`
}

type baggageRequest struct {
	Option string `json:"option"`
}

type cancelRequest struct {
	FlightDate string `json:"flight_date"`
}

// NewOrderHandler serves the order pages. When hub is not nil, every
// change to a page is pushed to the tabs watching it.
func NewOrderHandler(registry *checkin.Registry, recentLimit int, hub *websocket.Hub) *OrderHandler {
	return &OrderHandler{registry: registry, hub: hub, recentLimit: recentLimit, now: time.Now}
}

func (h *OrderHandler) Register(router *gin.RouterGroup) {
	router.GET("/trips/recent", h.recentTrips)
	router.GET("/baggage-options", h.baggageOptions)
	router.GET("/orders", h.list)
	router.GET("/orders/stats", h.stats)
	router.POST("/orders/:id/load", h.load)
	router.GET("/orders/:id", h.view)
	router.GET("/orders/:id/ws", h.watch)
	router.GET("/orders/:id/items/:item/seats", h.seatGrid)
	router.POST("/orders/:id/items/:item/seat", h.selectSeat)
	router.POST("/orders/:id/items/:item/baggage", h.selectBaggage)
	router.POST("/orders/:id/items/:item/check-in", h.checkIn)
	router.GET("/orders/:id/cancel-preview", h.cancelPreview)
	router.POST("/orders/:id/cancel", h.cancel)
}

func (h *OrderHandler) recentTrips(c *gin.Context) {
	orders, err := backendFrom(c).ListOrders(c.Request.Context(), domain.OrderFilter{Limit: 20})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.RecentTrips(orders, h.now(), h.recentLimit))
}

func (h *OrderHandler) baggageOptions(c *gin.Context) {
	c.JSON(http.StatusOK, checkin.BaggageOptions())
}

func (h *OrderHandler) list(c *gin.Context) {
	filter := domain.OrderFilter{
		Status:        domain.OrderStatus(c.Query("status")),
		PaymentStatus: domain.PaymentStatus(c.Query("payment_status")),
		OrderNo:       c.Query("order_no"),
	}
	filter.Skip, _ = strconv.Atoi(c.Query("skip"))
	filter.Limit, _ = strconv.Atoi(c.Query("limit"))

	orders, err := backendFrom(c).ListOrders(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	cards := mapper.FilterCards(mapper.OrderCards(orders), mapper.OrderTab(c.DefaultQuery("tab", string(mapper.TabAll))))
	mapper.SortCards(cards, mapper.SortKey(c.DefaultQuery("sort", string(mapper.SortByTime))), c.DefaultQuery("order", "desc") == "desc")
	c.JSON(http.StatusOK, cards)
}

func (h *OrderHandler) stats(c *gin.Context) {
	stats, err := backendFrom(c).OrderStats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *OrderHandler) load(c *gin.Context) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}
	page := h.registry.Get(tokenFrom(c), orderID, backendFrom(c))
	if _, err := page.LoadOrder(c.Request.Context(), orderID); err != nil {
		h.fail(c, err)
		return
	}
	view := page.View()
	h.push(c, orderID, 0, websocket.MessageSnapshot, view)
	c.JSON(http.StatusOK, view)
}

// view renders the page state, loading the order on first access.
func (h *OrderHandler) view(c *gin.Context) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if page, found := h.registry.Lookup(tokenFrom(c), orderID); found {
		c.JSON(http.StatusOK, page.View())
		return
	}
	h.load(c)
}

func (h *OrderHandler) seatGrid(c *gin.Context) {
	page, _, itemID, ok := h.loaded(c)
	if !ok {
		return
	}
	rows, err := page.SeatGrid(itemID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *OrderHandler) selectSeat(c *gin.Context) {
	page, orderID, itemID, ok := h.loaded(c)
	if !ok {
		return
	}
	var req seatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := page.SelectSeat(itemID, req.Seat); err != nil {
		h.fail(c, err)
		return
	}
	view := page.View()
	h.push(c, orderID, itemID, websocket.MessageUpdated, view)
	c.JSON(http.StatusOK, view)
}

func (h *OrderHandler) selectBaggage(c *gin.Context) {
	page, orderID, itemID, ok := h.loaded(c)
	if !ok {
		return
	}
	var req baggageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := page.SelectBaggage(itemID, req.Option); err != nil {
		h.fail(c, err)
		return
	}
	view := page.View()
	h.push(c, orderID, itemID, websocket.MessageUpdated, view)
	c.JSON(http.StatusOK, view)
}

func (h *OrderHandler) checkIn(c *gin.Context) {
	page, orderID, itemID, ok := h.loaded(c)
	if !ok {
		return
	}
	result, err := page.ConfirmCheckIn(c.Request.Context(), itemID)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.push(c, orderID, itemID, websocket.MessageCheckedIn, page.View())
	c.JSON(http.StatusOK, result)
}

func (h *OrderHandler) cancelPreview(c *gin.Context) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}
	page, ok := h.lookup(c, orderID)
	if !ok {
		return
	}
	preview, err := page.PreviewCancellation(c.Request.Context(), c.Query("flight_date"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

func (h *OrderHandler) cancel(c *gin.Context) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}
	page, ok := h.lookup(c, orderID)
	if !ok {
		return
	}
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	order, err := page.ConfirmCancellation(c.Request.Context(), req.FlightDate)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.push(c, orderID, 0, websocket.MessageCancelled, page.View())
	c.JSON(http.StatusOK, order)
}

// loaded resolves the order and item path parameters to a synchronizer
// that already holds the order.
func (h *OrderHandler) loaded(c *gin.Context) (page *checkin.Synchronizer, orderID, itemID int64, ok bool) {
	if orderID, ok = idParam(c, "id"); !ok {
		return nil, 0, 0, false
	}
	if itemID, ok = idParam(c, "item"); !ok {
		return nil, 0, 0, false
	}
	page, ok = h.lookup(c, orderID)
	return page, orderID, itemID, ok
}

func (h *OrderHandler) lookup(c *gin.Context, orderID int64) (*checkin.Synchronizer, bool) {
	page, found := h.registry.Lookup(tokenFrom(c), orderID)
	if !found {
		h.notLoaded(c, orderID)
		return nil, false
	}
	return page, true
}

func (h *OrderHandler) notLoaded(c *gin.Context, orderID int64) {
	c.JSON(http.StatusConflict, errorResponse{Error: "order is not loaded; POST /api/orders/" + strconv.FormatInt(orderID, 10) + "/load first"})
}

// watch upgrades to a websocket that receives every change made to the
// caller's page state. Browsers cannot set headers on the handshake, so the
// token may also come from the access_token query parameter.
func (h *OrderHandler) watch(c *gin.Context) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if h.hub == nil {
		c.JSON(http.StatusNotImplemented, errorResponse{Error: "live updates are disabled"})
		return
	}
	token := tokenFrom(c)
	if token == "" {
		token = c.Query("access_token")
	}
	if token == "" {
		writeError(c, domain.ErrAuth)
		return
	}
	page, found := h.registry.Lookup(token, orderID)
	if !found {
		h.notLoaded(c, orderID)
		return
	}
	first := websocket.Message{Type: websocket.MessageSnapshot, OrderID: orderID, Payload: page.View()}
	// A failed handshake has already been answered by the upgrader.
	_ = h.hub.Serve(c.Writer, c.Request, pageTopic(token, orderID), first)
}

func (h *OrderHandler) push(c *gin.Context, orderID, itemID int64, kind websocket.MessageType, view checkin.View) {
	if h.hub == nil {
		return
	}
	h.hub.Broadcast(pageTopic(tokenFrom(c), orderID), websocket.Message{
		Type:    kind,
		OrderID: orderID,
		ItemID:  itemID,
		Payload: view,
	})
}

func pageTopic(token string, orderID int64) string {
	return token + "|" + strconv.FormatInt(orderID, 10)
}

// fail writes err and drops the caller's page state once the session is gone.
func (h *OrderHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrAuthExpired) {
		h.registry.Forget(tokenFrom(c))
		if orderID, perr := strconv.ParseInt(c.Param("id"), 10, 64); perr == nil && h.hub != nil {
			topic := pageTopic(tokenFrom(c), orderID)
			h.hub.Broadcast(topic, websocket.Message{Type: websocket.MessageSessionEnd, OrderID: orderID})
			h.hub.Close(topic)
		}
	}
	writeError(c, err)
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
