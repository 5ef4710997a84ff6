package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Rrens/gemini-cli/internal/domain"
	"github.com/Rrens/gemini-cli/internal/llm"
	"github.com/rs/zerolog/log"
)

// SummaryMode distinguishes user-requested from periodic summarization
type SummaryMode int

const (
	SummaryInteractive SummaryMode = iota
	SummaryAutomatic
)

func (m SummaryMode) String() string {
	if m == SummaryAutomatic {
		return "automatic"
	}
	return "interactive"
}

// SummarizerSettings controls when and how summaries are produced
type SummarizerSettings struct {
	// MinMessages is the shortest session worth summarizing
	MinMessages int
	Prompt      llm.SummaryOptions
}

// DefaultSummarizerSettings needs 5 messages and summarizes the last 10
var DefaultSummarizerSettings = SummarizerSettings{
	MinMessages: 5,
	Prompt:      llm.DefaultSummaryOptions,
}

// Summarizer condenses recent turns into the session's context summary
type Summarizer struct {
	repo     domain.SessionRepository
	provider llm.Provider
	model    string
	settings SummarizerSettings
	timeout  time.Duration
}

// NewSummarizer creates a summarizer that calls provider directly
func NewSummarizer(repo domain.SessionRepository, provider llm.Provider, model string, settings SummarizerSettings, timeout time.Duration) *Summarizer {
	return &Summarizer{
		repo:     repo,
		provider: provider,
		model:    model,
		settings: settings,
		timeout:  timeout,
	}
}

// Ready reports whether session has enough messages to summarize
func (s *Summarizer) Ready(session *domain.Session) bool {
	return len(session.Messages) >= s.settings.MinMessages
}

// Summarize replaces session.ContextSummary with a fresh summary of its most
// recent messages. The request carries no context window and appends nothing.
// On any failure the existing summary is left untouched.
func (s *Summarizer) Summarize(ctx context.Context, session *domain.Session, mode SummaryMode) (string, error) {
	logger := log.With().Str("session_id", session.ID).Stringer("mode", mode).Logger()

	if !s.Ready(session) {
		return "", fmt.Errorf("%w: have %d, need %d", domain.ErrTooFewMessages, len(session.Messages), s.settings.MinMessages)
	}

	prompt := llm.BuildSummaryPrompt(session.Messages, s.settings.Prompt)

	resp, err := callProvider(ctx, s.provider, s.model, prompt, s.timeout)
	if err != nil {
		logger.Error().Err(err).Msg("failed to generate context summary")
		return "", err
	}

	summary := strings.TrimSpace(resp.Text)
	if summary == "" {
		logger.Error().Msg("empty context summary")
		return "", fmt.Errorf("%w: empty summary", domain.ErrRemoteCall)
	}

	if err := s.repo.UpdateSummary(ctx, session, summary); err != nil {
		logger.Error().Err(err).Msg("failed to save context summary")
		return "", err
	}

	logger.Info().Int("length", len(summary)).Msg("updated context summary")
	return summary, nil
}
