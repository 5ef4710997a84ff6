package ui

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Rrens/gemini-cli/internal/domain"
)

const timestampLayout = "2006-01-02 15:04:05"

// Timestamp formats t to second precision
func Timestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(timestampLayout)
}

// RoleName is the long speaker label used in listings
func RoleName(r domain.MessageRole) string {
	if r == domain.RoleUser {
		return "You"
	}
	return "AI"
}

// Clip shortens s to n runes, marking the cut with "..."
func Clip(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i] + "..."
		}
		count++
	}
	return s
}

// WriteHistory prints numbered messages clipped to width runes
func WriteHistory(w io.Writer, msgs []domain.Message, width int) {
	if len(msgs) == 0 {
		fmt.Fprintln(w, Warn("No messages yet"))
		return
	}

	fmt.Fprintln(w, Header(fmt.Sprintf("Last %d messages", len(msgs))))
	for i, m := range msgs {
		fmt.Fprintf(w, "%2d. [%s] %s: %s\n", i+1, Timestamp(m.Timestamp), RoleName(m.Role), Clip(m.Content, width))
	}
	fmt.Fprintln(w, Rule)
}

// WriteSearchHits prints at most limit hits for query
func WriteSearchHits(w io.Writer, query string, hits []domain.SearchHit, limit int) {
	if len(hits) == 0 {
		fmt.Fprintln(w, Warn(fmt.Sprintf("No messages containing '%s'", query)))
		return
	}

	fmt.Fprintln(w, Header(fmt.Sprintf("Search results: '%s' (%d)", query, len(hits))))
	for i, h := range hits {
		if i == limit {
			break
		}
		fmt.Fprintf(w, "%2d. [%s] [%s] %s: %s\n",
			i+1, h.SessionID, Timestamp(h.Message.Timestamp), RoleName(h.Message.Role), Clip(h.Message.Content, 80))
	}
	fmt.Fprintln(w, Rule)
}

// WriteSessionTable prints one row per session
func WriteSessionTable(w io.Writer, sessions []domain.SessionSummary) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, Warn("No saved sessions"))
		return
	}

	fmt.Fprintln(w, Header("Sessions"))
	fmt.Fprintf(w, "%-10s %-24s %-20s %-8s %-8s\n", "ID", "NAME", "CREATED", "MSGS", "TOKENS")
	fmt.Fprintln(w, Rule)
	for _, s := range sessions {
		fmt.Fprintf(w, "%-10s %-24s %-20s %-8d %-8d\n", s.ID, Clip(s.Name, 21), Timestamp(s.CreatedAt), s.MessageCount, s.TotalTokens)
	}
}

// WriteSessionDetail prints session metadata, its summary and recent messages
func WriteSessionDetail(w io.Writer, s *domain.Session, recent []domain.Message) {
	fmt.Fprintln(w, Header("Session: "+s.Name))
	fmt.Fprintln(w, KV("ID", s.ID))
	fmt.Fprintln(w, KV("Created", Timestamp(s.CreatedAt)))
	fmt.Fprintln(w, KV("Messages", strconv.Itoa(len(s.Messages))))
	fmt.Fprintln(w, KV("Tokens", strconv.Itoa(s.TotalTokens)))
	if s.ContextSummary != "" {
		fmt.Fprintln(w, KV("Summary", s.ContextSummary))
	}
	if len(recent) > 0 {
		fmt.Fprintln(w)
		WriteHistory(w, recent, 150)
	}
}
