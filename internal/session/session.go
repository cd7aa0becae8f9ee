// Package session is the explicit session context of one front end: the
// bearer token and role read from client storage at start and cleared on
// logout or when the backend rejects the token.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Domenick1991/wingquest/config"
	"github.com/Domenick1991/wingquest/internal/domain"
	"github.com/Domenick1991/wingquest/internal/storage"
)

type Session struct {
	store  storage.Storage
	keys   config.SessionConfig
	logger *slog.Logger

	mu    sync.RWMutex
	token string
	role  domain.Role
}

type Option func(*Session)

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

func New(store storage.Storage, keys config.SessionConfig, opts ...Option) *Session {
	if keys.TokenKey == "" {
		keys.TokenKey = "access_token"
	}
	if keys.RoleKey == "" {
		keys.RoleKey = "user_role"
	}
	s := &Session{store: store, keys: keys, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithToken returns a session that lives only in memory, used when a token
// arrives with a request instead of from client storage.
func WithToken(token string, role domain.Role) *Session {
	return &Session{
		store:  storage.NewMemoryStorage(),
		keys:   config.SessionConfig{TokenKey: "access_token", RoleKey: "user_role"},
		logger: slog.Default(),
		token:  token,
		role:   role,
	}
}

// Load reads the persisted token and role. Missing keys leave the session
// logged out.
func (s *Session) Load(ctx context.Context) error {
	token, err := s.store.Get(ctx, s.keys.TokenKey)
	if err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		return fmt.Errorf("load session token: %w", err)
	}
	role, err := s.store.Get(ctx, s.keys.RoleKey)
	if err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		return fmt.Errorf("load session role: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.role = domain.Role(role)
	return nil
}

func (s *Session) Login(ctx context.Context, token string, role domain.Role) error {
	if token == "" {
		return fmt.Errorf("%w: empty token", domain.ErrValidation)
	}
	if role == "" {
		role = domain.RoleTraveler
	}
	if err := s.store.Set(ctx, s.keys.TokenKey, token); err != nil {
		return fmt.Errorf("save session token: %w", err)
	}
	if err := s.store.Set(ctx, s.keys.RoleKey, string(role)); err != nil {
		return fmt.Errorf("save session role: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.role = role
	return nil
}

// Logout clears the in-memory state first so a storage failure never leaves
// a usable token behind.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.role = ""
	s.mu.Unlock()

	if err := s.store.Delete(ctx, s.keys.TokenKey); err != nil {
		return fmt.Errorf("clear session token: %w", err)
	}
	if err := s.store.Delete(ctx, s.keys.RoleKey); err != nil {
		return fmt.Errorf("clear session role: %w", err)
	}
	return nil
}

// Expire logs out after a 401 and returns the login route for the UI path
// the user was on. A storage failure is logged; the in-memory token is
// already gone.
func (s *Session) Expire(ctx context.Context, path string) string {
	if err := s.Logout(ctx); err != nil {
		s.logger.Warn("failed to clear expired session", "path", path, "error", err)
	}
	return LoginRoute(path)
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Role() domain.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

func LoginRoute(path string) string {
	switch {
	case strings.HasPrefix(path, "/agency"):
		return "/agency/login"
	case strings.HasPrefix(path, "/admin"):
		return "/admin/login"
	default:
		return "/"
	}
}
