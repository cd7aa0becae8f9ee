package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/wingquest/internal/domain"
	"github.com/Domenick1991/wingquest/internal/storage"
	"github.com/google/uuid"
)

const (
	DefaultConversationsKey = "conversations"
	UntitledConversation    = "Untitled conversation"
)

type ConversationUseCase interface {
	Create(ctx context.Context, title string) (*domain.Conversation, error)
	Get(ctx context.Context, id string) (*domain.Conversation, error)
	List(ctx context.Context) ([]domain.Conversation, error)
	Update(ctx context.Context, id string, patch domain.ConversationPatch) (*domain.Conversation, error)
	SaveMessages(ctx context.Context, id string, messages []domain.ChatMessage) error
	AppendMessage(ctx context.Context, id string, msg domain.ChatMessage) (*domain.ChatMessage, error)
	Rename(ctx context.Context, id, title string) (*domain.Conversation, error)
	TogglePin(ctx context.Context, id string) (*domain.Conversation, error)
	Delete(ctx context.Context, id string) error
}

var _ ConversationUseCase = (*ConversationStore)(nil)

// ConversationStore keeps the whole conversation list as one JSON array
// under a single storage key. Writes from other processes sharing the key
// are last-write-wins.
type ConversationStore struct {
	store  storage.Storage
	key    string
	logger *slog.Logger
	now    func() time.Time
	mu     *sync.Mutex
}

type StoreOption func(*ConversationStore)

func WithKey(key string) StoreOption {
	return func(s *ConversationStore) {
		if key != "" {
			s.key = key
		}
	}
}

func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *ConversationStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *ConversationStore) {
		s.now = now
	}
}

func NewConversationStore(store storage.Storage, opts ...StoreOption) *ConversationStore {
	s := &ConversationStore{
		store:  store,
		key:    DefaultConversationsKey,
		logger: slog.Default(),
		now:    time.Now,
		mu:     &sync.Mutex{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scoped returns a store over the same backend and lock with a different
// key, used to keep one list per user.
func (s *ConversationStore) Scoped(key string) *ConversationStore {
	return &ConversationStore{store: s.store, key: key, logger: s.logger, now: s.now, mu: s.mu}
}

// load reads the list. A missing or unreadable value is an empty list.
func (s *ConversationStore) load(ctx context.Context) ([]domain.Conversation, error) {
	raw, err := s.store.Get(ctx, s.key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return []domain.Conversation{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load conversations: %w", err)
	}
	var convs []domain.Conversation
	if err := json.Unmarshal([]byte(raw), &convs); err != nil {
		s.logger.Warn("discarding unreadable conversation list", "key", s.key, "error", err)
		return []domain.Conversation{}, nil
	}
	return convs, nil
}

func (s *ConversationStore) save(ctx context.Context, convs []domain.Conversation) error {
	raw, err := json.Marshal(convs)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, s.key, string(raw)); err != nil {
		return fmt.Errorf("save conversations: %w", err)
	}
	return nil
}

func (s *ConversationStore) Create(ctx context.Context, title string) (*domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	convs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = UntitledConversation
	}
	now := s.now().UTC()
	conv := domain.Conversation{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []domain.ChatMessage{},
	}
	if err := s.save(ctx, append([]domain.Conversation{conv}, convs...)); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *ConversationStore) Get(ctx context.Context, id string) (*domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	convs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range convs {
		if convs[i].ID == id {
			return &convs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: conversation %s", domain.ErrNotFound, id)
}

// List returns pinned conversations first, then most recently updated.
func (s *ConversationStore) List(ctx context.Context) ([]domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	convs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(convs, func(i, j int) bool {
		if convs[i].Pinned != convs[j].Pinned {
			return convs[i].Pinned
		}
		return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
	})
	return convs, nil
}

func (s *ConversationStore) Update(ctx context.Context, id string, patch domain.ConversationPatch) (*domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(ctx, id, func(c *domain.Conversation) {
		applyPatch(c, patch)
	})
}

func (s *ConversationStore) updateLocked(ctx context.Context, id string, fn func(*domain.Conversation)) (*domain.Conversation, error) {
	convs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range convs {
		if convs[i].ID != id {
			continue
		}
		fn(&convs[i])
		convs[i].UpdatedAt = s.now().UTC()
		if err := s.save(ctx, convs); err != nil {
			return nil, err
		}
		updated := convs[i]
		return &updated, nil
	}
	return nil, fmt.Errorf("%w: conversation %s", domain.ErrNotFound, id)
}

func applyPatch(c *domain.Conversation, patch domain.ConversationPatch) {
	if patch.Title != nil {
		c.Title = *patch.Title
	}
	if patch.Pinned != nil {
		c.Pinned = *patch.Pinned
	}
	if patch.Messages != nil {
		c.Messages = append([]domain.ChatMessage(nil), (*patch.Messages)...)
	}
}

func (s *ConversationStore) SaveMessages(ctx context.Context, id string, messages []domain.ChatMessage) error {
	_, err := s.Update(ctx, id, domain.ConversationPatch{Messages: &messages})
	return err
}

// AppendMessage adds msg to the conversation, filling in a missing id or
// timestamp, and returns the stored message.
func (s *ConversationStore) AppendMessage(ctx context.Context, id string, msg domain.ChatMessage) (*domain.ChatMessage, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.updateLocked(ctx, id, func(c *domain.Conversation) {
		c.Messages = append(c.Messages, msg)
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *ConversationStore) Rename(ctx context.Context, id, title string) (*domain.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	return s.Update(ctx, id, domain.ConversationPatch{Title: &title})
}

func (s *ConversationStore) TogglePin(ctx context.Context, id string) (*domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(ctx, id, func(c *domain.Conversation) {
		c.Pinned = !c.Pinned
	})
}

// Delete removes the conversation; deleting an unknown id is not an error.
func (s *ConversationStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	convs, err := s.load(ctx)
	if err != nil {
		return err
	}
	kept := convs[:0]
	for _, c := range convs {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	return s.save(ctx, kept)
}
