package llm

import (
	"fmt"
	"strings"

	"github.com/Rrens/gemini-cli/internal/domain"
)

// ContextOptions bounds the rendered context window
type ContextOptions struct {
	// RenderedTurns is the maximum number of recent messages rendered
	RenderedTurns int
	// TurnChars is the per-message character budget
	TurnChars int
}

// DefaultContextOptions renders the last 3 turns at 100 characters each
var DefaultContextOptions = ContextOptions{RenderedTurns: 3, TurnChars: 100}

const (
	summaryLabel  = "Context summary: "
	recentHeader  = "Recent conversation"
	questionLabel = "Current question: "
)

// BuildContextBlock renders the running summary and the most recent messages
// into a block to prepend to a new prompt. It returns "" when there is
// nothing to render.
func BuildContextBlock(summary string, recent []domain.Message, opts ContextOptions) string {
	if opts.RenderedTurns <= 0 {
		opts.RenderedTurns = DefaultContextOptions.RenderedTurns
	}
	if opts.TurnChars <= 0 {
		opts.TurnChars = DefaultContextOptions.TurnChars
	}

	var b strings.Builder
	if summary != "" {
		b.WriteString(summaryLabel)
		b.WriteString(summary)
		b.WriteString("\n\n")
	}

	if len(recent) > opts.RenderedTurns {
		recent = recent[len(recent)-opts.RenderedTurns:]
	}
	if len(recent) > 0 {
		b.WriteString(recentHeader)
		b.WriteString("\n")
		for _, m := range recent {
			fmt.Fprintf(&b, "%s: %s\n", m.Role.Label(), Truncate(m.Content, opts.TurnChars))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// BuildContextPrompt prefixes prompt with the context block. Without any
// summary or history the prompt is returned unchanged.
func BuildContextPrompt(summary string, recent []domain.Message, prompt string, opts ContextOptions) string {
	block := BuildContextBlock(summary, recent, opts)
	if block == "" {
		return prompt
	}
	return block + questionLabel + prompt
}

// SummaryOptions bounds the summarization prompt
type SummaryOptions struct {
	Window    int
	TurnChars int
	MaxChars  int
}

// DefaultSummaryOptions summarizes the last 10 turns at 200 characters each
var DefaultSummaryOptions = SummaryOptions{Window: 10, TurnChars: 200, MaxChars: 100}

// BuildSummaryPrompt asks for a short summary of the last opts.Window messages
func BuildSummaryPrompt(messages []domain.Message, opts SummaryOptions) string {
	if opts.Window <= 0 {
		opts.Window = DefaultSummaryOptions.Window
	}
	if opts.TurnChars <= 0 {
		opts.TurnChars = DefaultSummaryOptions.TurnChars
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = DefaultSummaryOptions.MaxChars
	}

	if len(messages) > opts.Window {
		messages = messages[len(messages)-opts.Window:]
	}

	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role.Label(), truncateRunes(m.Content, opts.TurnChars)))
	}

	return fmt.Sprintf(`Write a concise context summary of the following conversation in at most %d characters, covering the main topics and key facts:

%s

Summary:`, opts.MaxChars, strings.Join(lines, "\n"))
}

// Truncate cuts s to at most n runes, appending "..." when it was cut
func Truncate(s string, n int) string {
	cut := truncateRunes(s, n)
	if len(cut) < len(s) {
		return cut + "..."
	}
	return s
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
