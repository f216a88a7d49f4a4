package domain

import "time"

// Role identifies who produced a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one transcript entry of a conversation.
type Turn struct {
	ID         string    `json:"id"`
	SessionKey string    `json:"session_key"`
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	Source     string    `json:"source,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
