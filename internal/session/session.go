// Package session provides in-memory conversation history with a rolling
// message window.
//
// Sessions are created lazily on first reference, mutated by every chat
// request, and never rejected: any non-empty string is a valid session ID.
// History is bounded per session; once the window is exceeded the oldest
// messages are dropped FIFO. The store itself is bounded too: above the
// configured session cap the least recently used session is evicted.
package session

import (
	"time"
)

// Role identifies the author of a message.
type Role string

// Valid message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single conversation message.
type Message struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is a point-in-time snapshot of one conversation. Messages is a
// defensive copy; mutating it does not affect the store.
type Session struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
