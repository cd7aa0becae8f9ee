package domain

import "time"

type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	ID        string    `json:"id"`
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type Conversation struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Pinned    bool          `json:"pinned,omitempty"`
	Messages  []ChatMessage `json:"messages"`
}

// ConversationPatch is a partial update; nil fields are left untouched.
type ConversationPatch struct {
	Title    *string        `json:"title,omitempty"`
	Pinned   *bool          `json:"pinned,omitempty"`
	Messages *[]ChatMessage `json:"messages,omitempty"`
}
