package domain

import "encoding/json"

type ChatRequest struct {
	Message string `json:"message"`
}

type Suggestion struct {
	Label  string         `json:"label"`
	Route  string         `json:"route,omitempty"`
	Params map[string]any `json:"params,omitempty"`
}

type OrderSummary struct {
	OrderID       int64         `json:"order_id"`
	OrderNo       string        `json:"order_no"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Total         Money         `json:"total"`
}

type ChatResponse struct {
	Reply       string         `json:"reply"`
	Suggestions []Suggestion   `json:"suggestions,omitempty"`
	Orders      []OrderSummary `json:"orders,omitempty"`
}

type ChatEventKind string

const (
	ChatEventDelta ChatEventKind = "delta"
	ChatEventTool  ChatEventKind = "tool"
	ChatEventFinal ChatEventKind = "final"
	ChatEventError ChatEventKind = "error"
)

// ChatEvent is one decoded frame of the assistant stream. Exactly one of the
// payload fields is set, selected by Kind.
type ChatEvent struct {
	Kind  ChatEventKind `json:"kind"`
	Delta string        `json:"delta,omitempty"`
	Tool  *ToolEvent    `json:"tool,omitempty"`
	Final *ChatFinal    `json:"final,omitempty"`
	Error *ChatError    `json:"error,omitempty"`
}

// ToolEvent reports a tool plan or a tool result from the assistant.
type ToolEvent struct {
	Phase string          `json:"phase"`
	Tool  string          `json:"tool,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type ChatFinal struct {
	Suggestions []Suggestion   `json:"suggestions,omitempty"`
	Orders      []OrderSummary `json:"orders,omitempty"`
}

type ChatError struct {
	Code   string `json:"error"`
	Detail string `json:"detail,omitempty"`
}
