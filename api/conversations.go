package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/wingquest/internal/domain"
	"github.com/Domenick1991/wingquest/internal/service/chat"
	"github.com/gin-gonic/gin"
)

type ConversationHandler struct {
	store         *chat.ConversationStore
	streamTimeout time.Duration
	logger        *slog.Logger

	// token -> user id, so each user gets their own conversation list
	owners sync.Map
}

type createConversationRequest struct {
	Title string `json:"title"`
}

type sendMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

func NewConversationHandler(store *chat.ConversationStore, streamTimeout time.Duration, logger *slog.Logger) *ConversationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConversationHandler{store: store, streamTimeout: streamTimeout, logger: logger}
}

func (h *ConversationHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.POST("", h.create)
	router.GET("/:id", h.get)
	router.PATCH("/:id", h.update)
	router.DELETE("/:id", h.delete)
	router.POST("/:id/pin", h.togglePin)
	router.POST("/:id/messages", h.send)
}

// scoped returns the caller's conversation list, resolving the user once
// per token.
func (h *ConversationHandler) scoped(c *gin.Context) (*chat.ConversationStore, bool) {
	token := tokenFrom(c)
	if token == "" {
		writeError(c, domain.ErrAuth)
		return nil, false
	}
	if owner, ok := h.owners.Load(token); ok {
		return h.store.Scoped(owner.(string)), true
	}
	user, err := backendFrom(c).Me(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	key := chat.DefaultConversationsKey + ":" + strconv.FormatInt(user.ID, 10)
	h.owners.Store(token, key)
	return h.store.Scoped(key), true
}

func (h *ConversationHandler) list(c *gin.Context) {
	store, ok := h.scoped(c)
	if !ok {
		return
	}
	convs, err := store.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, convs)
}

func (h *ConversationHandler) create(c *gin.Context) {
	store, ok := h.scoped(c)
	if !ok {
		return
	}
	var req createConversationRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	conv, err := store.Create(c.Request.Context(), req.Title)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conv)
}

func (h *ConversationHandler) get(c *gin.Context) {
	store, ok := h.scoped(c)
	if !ok {
		return
	}
	conv, err := store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (h *ConversationHandler) update(c *gin.Context) {
	store, ok := h.scoped(c)
	if !ok {
		return
	}
	var patch domain.ConversationPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err.Error())
		return
	}
	conv, err := store.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (h *ConversationHandler) delete(c *gin.Context) {
	store, ok := h.scoped(c)
	if !ok {
		return
	}
	if err := store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ConversationHandler) togglePin(c *gin.Context) {
	store, ok := h.scoped(c)
	if !ok {
		return
	}
	conv, err := store.TogglePin(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// send runs one assistant exchange. Clients asking for text/event-stream
// get every stream event relayed followed by a "reply" event; others get
// the reply as JSON.
func (h *ConversationHandler) send(c *gin.Context) {
	store, ok := h.scoped(c)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	assistant := chat.NewAssistant(backendFrom(c), store,
		chat.WithStreamTimeout(h.streamTimeout),
		chat.WithAssistantLogger(h.logger),
	)

	if !strings.Contains(c.GetHeader("Accept"), "text/event-stream") {
		reply, err := assistant.Send(c.Request.Context(), c.Param("id"), req.Message, nil)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, reply)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	started := false
	reply, err := assistant.Send(c.Request.Context(), c.Param("id"), req.Message, func(ev domain.ChatEvent) {
		started = true
		c.SSEvent(string(ev.Kind), ev)
		c.Writer.Flush()
	})
	if err != nil {
		if !started {
			writeError(c, err)
			return
		}
		c.SSEvent("error", errorResponse{Error: err.Error()})
		c.Writer.Flush()
		return
	}
	c.SSEvent("reply", reply)
	c.Writer.Flush()
}
