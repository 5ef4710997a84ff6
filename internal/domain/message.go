package domain

import (
	"fmt"
	"time"
)

// MessageRole represents the sender of a message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Valid reports whether r is a known role
func (r MessageRole) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Label is the short speaker label used in prompts
func (r MessageRole) Label() string {
	if r == RoleUser {
		return "User"
	}
	return "AI"
}

// Message represents one turn of a session
type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Tokens    int         `json:"tokens"`
}

// NewMessage builds a message stamped with the current time
func NewMessage(role MessageRole, content string, tokens int) (Message, error) {
	if !role.Valid() {
		return Message{}, fmt.Errorf("invalid message role %q", role)
	}
	if tokens < 0 {
		tokens = 0
	}
	return Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Tokens:    tokens,
	}, nil
}
