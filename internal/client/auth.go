package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Domenick1991/wingquest/internal/domain"
)

// Login exchanges traveler credentials for a token and stores it in the
// session.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.TokenResponse, error) {
	form := url.Values{}
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)

	var token domain.TokenResponse
	err := c.doJSON(ctx, request{
		method:      http.MethodPost,
		path:        "/api/v1/auth/login",
		body:        strings.NewReader(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
	}, &token)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if token.Role == "" {
		token.Role = domain.RoleTraveler
	}
	if err := c.session.Login(ctx, token.AccessToken, token.Role); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &token, nil
}

// AdminLogin signs in to the back office. Agency accounts use the same
// endpoint; the backend reports the role.
func (c *Client) AdminLogin(ctx context.Context, creds domain.Credentials) (*domain.TokenResponse, error) {
	body, err := jsonBody(creds)
	if err != nil {
		return nil, err
	}

	var token domain.TokenResponse
	err = c.doJSON(ctx, request{
		method:      http.MethodPost,
		path:        "/api/v1/admin/login",
		body:        body,
		contentType: "application/json",
	}, &token)
	if err != nil {
		return nil, fmt.Errorf("admin login: %w", err)
	}
	if token.Role == "" {
		token.Role = domain.RoleAdmin
	}
	if err := c.session.Login(ctx, token.AccessToken, token.Role); err != nil {
		return nil, fmt.Errorf("admin login: %w", err)
	}
	return &token, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.session.Logout(ctx)
}

func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	err := c.doJSON(ctx, request{method: http.MethodGet, path: "/api/v1/users/me", protected: true}, &user)
	if err != nil {
		return nil, fmt.Errorf("get current user: %w", err)
	}
	return &user, nil
}
