package domain

import (
	"context"
	"time"
)

// Session represents one persisted conversation
type Session struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
	Messages       []Message `json:"messages"`
	ContextSummary string    `json:"context_summary"`
	TotalTokens    int       `json:"total_tokens"`
}

// SessionSummary is the listing view of a session
type SessionSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	MessageCount int       `json:"message_count"`
	TotalTokens  int       `json:"total_tokens"`
}

// SearchHit is a message matched by a full-text search
type SearchHit struct {
	SessionID string  `json:"session_id"`
	Message   Message `json:"message"`
}

// Summary returns the listing view of the session
func (s *Session) Summary() SessionSummary {
	return SessionSummary{
		ID:           s.ID,
		Name:         s.Name,
		CreatedAt:    s.CreatedAt,
		MessageCount: len(s.Messages),
		TotalTokens:  s.TotalTokens,
	}
}

// RecentMessages returns up to the last limit messages in chronological order.
// The returned slice aliases the session's storage and must not be modified.
func (s *Session) RecentMessages(limit int) []Message {
	if limit <= 0 || len(s.Messages) <= limit {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-limit:]
}

// RecountTokens recomputes TotalTokens from the messages and reports whether
// the stored counter disagreed.
func (s *Session) RecountTokens() bool {
	total := 0
	for _, m := range s.Messages {
		total += m.Tokens
	}
	changed := total != s.TotalTokens
	s.TotalTokens = total
	return changed
}

// SessionRepository defines the interface for session storage
type SessionRepository interface {
	Create(ctx context.Context, name string) (*Session, error)
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	AppendMessage(ctx context.Context, session *Session, role MessageRole, content string, tokens int) (*Message, error)
	UpdateSummary(ctx context.Context, session *Session, summary string) error
	ListAll(ctx context.Context) ([]SessionSummary, error)
	Search(ctx context.Context, query string) ([]SearchHit, error)
}
