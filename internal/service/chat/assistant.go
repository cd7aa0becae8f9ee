package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/Domenick1991/wingquest/internal/client"
	"github.com/Domenick1991/wingquest/internal/domain"
	"github.com/Domenick1991/wingquest/internal/mapper"
)

const (
	DefaultStreamTimeout = 60 * time.Second
	orderLookupLimit     = 100
)

var orderNoPattern = regexp.MustCompile(`(?i)\bORD\d{8,}\b`)

// ChatAPI is the part of the backend client the assistant needs.
type ChatAPI interface {
	Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error)
	ChatStream(ctx context.Context, req domain.ChatRequest) (*client.StreamReader, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
}

type Conversations interface {
	AppendMessage(ctx context.Context, id string, msg domain.ChatMessage) (*domain.ChatMessage, error)
}

// Reply is the outcome of one Send.
type Reply struct {
	Message     domain.ChatMessage    `json:"message"`
	Suggestions []domain.Suggestion   `json:"suggestions,omitempty"`
	Orders      []domain.OrderSummary `json:"orders,omitempty"`
	Fallback    bool                  `json:"fallback"`
}

type Assistant struct {
	api           ChatAPI
	conversations Conversations
	timeout       time.Duration
	logger        *slog.Logger
}

type AssistantOption func(*Assistant)

func WithStreamTimeout(d time.Duration) AssistantOption {
	return func(a *Assistant) {
		if d > 0 {
			a.timeout = d
		}
	}
}

func WithAssistantLogger(logger *slog.Logger) AssistantOption {
	return func(a *Assistant) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func NewAssistant(api ChatAPI, conversations Conversations, opts ...AssistantOption) *Assistant {
	a := &Assistant{
		api:           api,
		conversations: conversations,
		timeout:       DefaultStreamTimeout,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Send stores the user message, streams the assistant answer and stores it.
// onEvent, when set, sees every stream event as it arrives. If the stream
// cannot be opened or breaks, the non-streaming endpoint answers instead.
func (a *Assistant) Send(ctx context.Context, conversationID, text string, onEvent func(domain.ChatEvent)) (*Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: message is empty", domain.ErrValidation)
	}
	if onEvent == nil {
		onEvent = func(domain.ChatEvent) {}
	}

	if _, err := a.conversations.AppendMessage(ctx, conversationID, domain.ChatMessage{
		Role:    domain.RoleUser,
		Content: text,
	}); err != nil {
		return nil, err
	}

	reply := &Reply{}
	var content strings.Builder
	if digest, summary, ok := a.lookupOrder(ctx, text); ok {
		content.WriteString(digest)
		content.WriteString("\n\n")
		reply.Orders = append(reply.Orders, summary)
		reply.Suggestions = append(reply.Suggestions, domain.Suggestion{Label: "View order details", Route: "/my-orders"})
	}

	req := domain.ChatRequest{Message: text}
	streamed, final, err := a.stream(ctx, req, onEvent)
	switch {
	case err == nil:
		content.WriteString(streamed)
		if final != nil {
			reply.Suggestions = append(reply.Suggestions, final.Suggestions...)
			reply.Orders = append(reply.Orders, final.Orders...)
		}
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case client.IsAuthError(err):
		return nil, err
	default:
		a.logger.Warn("chat stream failed, falling back", "conversation_id", conversationID, "error", err)
		resp, ferr := a.api.Chat(ctx, req)
		if ferr != nil {
			return nil, fmt.Errorf("chat: stream: %v; fallback: %w", err, ferr)
		}
		reply.Fallback = true
		content.WriteString(fallbackText(resp))
		reply.Suggestions = append(reply.Suggestions, resp.Suggestions...)
		reply.Orders = append(reply.Orders, resp.Orders...)
	}

	msg, err := a.conversations.AppendMessage(ctx, conversationID, domain.ChatMessage{
		Role:    domain.RoleAssistant,
		Content: content.String(),
	})
	if err != nil {
		return nil, err
	}
	reply.Message = *msg
	return reply, nil
}

// stream runs one streaming exchange under the stream timeout and returns
// the accumulated text. An error event from the server counts as a failure.
func (a *Assistant) stream(ctx context.Context, req domain.ChatRequest, onEvent func(domain.ChatEvent)) (string, *domain.ChatFinal, error) {
	streamCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	reader, err := a.api.ChatStream(streamCtx, req)
	if err != nil {
		return "", nil, err
	}
	defer reader.Close()

	var acc strings.Builder
	var final *domain.ChatFinal
	for {
		ev, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return acc.String(), final, nil
		}
		if err != nil {
			return "", nil, err
		}
		onEvent(ev)
		switch ev.Kind {
		case domain.ChatEventDelta:
			acc.WriteString(ev.Delta)
		case domain.ChatEventTool:
			acc.WriteString(toolNote(ev.Tool))
		case domain.ChatEventFinal:
			final = ev.Final
		case domain.ChatEventError:
			return "", nil, fmt.Errorf("chat stream error %s: %s", ev.Error.Code, ev.Error.Detail)
		}
	}
}

// lookupOrder finds an order named in text among the user's orders. Lookup
// failures are ignored; the message is still sent.
func (a *Assistant) lookupOrder(ctx context.Context, text string) (string, domain.OrderSummary, bool) {
	orderNo := orderNoPattern.FindString(text)
	if orderNo == "" {
		return "", domain.OrderSummary{}, false
	}
	orders, err := a.api.ListOrders(ctx, domain.OrderFilter{Limit: orderLookupLimit})
	if err != nil {
		a.logger.Debug("order lookup skipped", "order_no", orderNo, "error", err)
		return "", domain.OrderSummary{}, false
	}
	for _, o := range orders {
		if strings.EqualFold(o.OrderNo, orderNo) {
			return mapper.ChatOrderDigest(o), mapper.OrderSummary(o), true
		}
	}
	return "", domain.OrderSummary{}, false
}

func toolNote(ev *domain.ToolEvent) string {
	if ev == nil || ev.Phase != "result" {
		return ""
	}
	switch ev.Tool {
	case "get_order_by_no":
		return "\nOrder details retrieved."
	case "get_my_orders":
		return "\nYour orders have been summarized."
	}
	return ""
}

func fallbackText(resp *domain.ChatResponse) string {
	var b strings.Builder
	b.WriteString(resp.Reply)
	if len(resp.Suggestions) > 0 {
		labels := make([]string, 0, len(resp.Suggestions))
		for _, s := range resp.Suggestions {
			labels = append(labels, s.Label)
		}
		b.WriteString("\nAvailable actions: " + strings.Join(labels, ", "))
	}
	if len(resp.Orders) > 0 {
		parts := make([]string, 0, len(resp.Orders))
		for _, o := range resp.Orders {
			parts = append(parts, fmt.Sprintf("%s(%s/%s) amount %s", o.OrderNo, o.Status, o.PaymentStatus, o.Total))
		}
		b.WriteString("\nRecent orders: " + strings.Join(parts, "; "))
	}
	return b.String()
}
