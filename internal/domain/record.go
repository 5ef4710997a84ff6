package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const sessionIDLength = 8

// NewSessionID returns a short random identifier
func NewSessionID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:sessionIDLength]
}

// ValidSessionID reports whether id is safe to use as a record key
func ValidSessionID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// DefaultSessionName derives a label from the creation time
func DefaultSessionName(t time.Time) string {
	return "chat_" + t.Format("20060102_150405")
}

// flexTime accepts RFC 3339 as well as zone-less ISO 8601 timestamps
type flexTime struct {
	time.Time
}

var flexLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	for _, layout := range flexLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}

type sessionRecord struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	CreatedAt      flexTime        `json:"created_at"`
	Messages       []messageRecord `json:"messages"`
	ContextSummary string          `json:"context_summary"`
	TotalTokens    int             `json:"total_tokens"`
}

type messageRecord struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp flexTime    `json:"timestamp"`
	Tokens    int         `json:"tokens"`
}

// EncodeSession renders the on-disk form of a session
func EncodeSession(s *Session) ([]byte, error) {
	if s.Messages == nil {
		s.Messages = []Message{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeSession parses a record. Unknown fields are ignored and missing
// context_summary / total_tokens default to zero values. A record without an
// id is malformed.
func DecodeSession(data []byte) (*Session, error) {
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if rec.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrMalformedRecord)
	}

	s := &Session{
		ID:             rec.ID,
		Name:           rec.Name,
		CreatedAt:      rec.CreatedAt.Time,
		Messages:       make([]Message, 0, len(rec.Messages)),
		ContextSummary: rec.ContextSummary,
		TotalTokens:    rec.TotalTokens,
	}
	for _, m := range rec.Messages {
		tokens := m.Tokens
		if tokens < 0 {
			tokens = 0
		}
		s.Messages = append(s.Messages, Message{
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: m.Timestamp.Time,
			Tokens:    tokens,
		})
	}
	s.RecountTokens()
	return s, nil
}

// MatchMessages returns the messages of s whose content contains query,
// ignoring case, in chronological order
func MatchMessages(s *Session, query string) []SearchHit {
	if query == "" {
		return nil
	}
	needle := strings.ToLower(query)

	var hits []SearchHit
	for _, m := range s.Messages {
		if strings.Contains(strings.ToLower(m.Content), needle) {
			hits = append(hits, SearchHit{SessionID: s.ID, Message: m})
		}
	}
	return hits
}
