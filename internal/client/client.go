// Package client is the typed HTTP client for the booking backend REST API.
//
// Every request carries the session's bearer token when one is present.
// Protected endpoints fail with domain.ErrAuth before any I/O when the
// session is logged out. A 401 answer clears the session and surfaces a
// *domain.AuthExpiredError naming the login route for the current UI area.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Domenick1991/wingquest/internal/domain"
	"github.com/Domenick1991/wingquest/internal/session"
)

// maxErrorBody bounds how much of an error response is kept as the message.
const maxErrorBody = 64 * 1024

type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *session.Session
	logger     *slog.Logger
	timeout    time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds every request/response call. Chat streams are bounded
// only by the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(baseURL string, sess *session.Session, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		session:    sess,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session context the client authenticates with.
func (c *Client) Session() *session.Session {
	return c.session
}

type uiPathKey struct{}

// WithUIPath records the front-end path the call originates from so a 401
// can name the matching login route.
func WithUIPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, uiPathKey{}, path)
}

func (c *Client) uiPath(ctx context.Context) string {
	if path, ok := ctx.Value(uiPathKey{}).(string); ok && path != "" {
		return path
	}
	switch c.session.Role() {
	case domain.RoleAdmin:
		return "/admin"
	case domain.RoleAgency:
		return "/agency"
	default:
		return "/"
	}
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	accept      string
	protected   bool
}

// do sends req and returns the response only for 2xx answers. The caller
// owns the response body.
func (c *Client) do(ctx context.Context, req request) (*http.Response, error) {
	token := c.session.Token()
	if req.protected && token == "" {
		return nil, domain.ErrAuth
	}

	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, req.body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if req.accept != "" {
		httpReq.Header.Set("Accept", req.accept)
	} else {
		httpReq.Header.Set("Accept", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	body := readErrorBody(resp.Body)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		route := c.session.Expire(ctx, c.uiPath(ctx))
		c.logger.Warn("backend rejected session token", "path", req.path, "login_route", route)
		return nil, &domain.AuthExpiredError{LoginRoute: route, Body: body}
	case http.StatusNotFound:
		if body == "" {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, body)
	default:
		return nil, &domain.HTTPError{StatusCode: resp.StatusCode, Body: body}
	}
}

func (c *Client) doJSON(ctx context.Context, req request, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return bytes.NewReader(data), nil
}

// readErrorBody keeps the response text verbatim as the error message.
func readErrorBody(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(raw))
}

// IsAuthError reports whether err means the user must log in again.
func IsAuthError(err error) bool {
	return errors.Is(err, domain.ErrAuth) || errors.Is(err, domain.ErrAuthExpired)
}
