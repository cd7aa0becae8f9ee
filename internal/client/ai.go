package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Domenick1991/wingquest/internal/domain"
)

// Chat asks the assistant for a single complete reply. The token is sent
// when present; anonymous chat is allowed.
func (c *Client) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	var resp domain.ChatResponse
	err = c.doJSON(ctx, request{
		method:      http.MethodPost,
		path:        "/api/v1/ai/chat",
		body:        body,
		contentType: "application/json",
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("ai chat: %w", err)
	}
	return &resp, nil
}

// ChatStream opens the event-stream variant. The caller must Close the
// returned reader; cancelling ctx aborts the stream.
func (c *Client) ChatStream(ctx context.Context, req domain.ChatRequest) (*StreamReader, error) {
	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/api/v1/ai/chat/stream",
		body:        body,
		contentType: "application/json",
		accept:      "text/event-stream",
	})
	if err != nil {
		return nil, fmt.Errorf("ai chat stream: %w", err)
	}
	return NewStreamReader(resp.Body), nil
}
