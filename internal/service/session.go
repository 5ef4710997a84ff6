package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/gemini-cli/internal/domain"
	"github.com/Rrens/gemini-cli/internal/llm"
	"github.com/rs/zerolog/log"
)

// ContextSettings bounds the history sent alongside each prompt
type ContextSettings struct {
	// Window is how many recent messages are retrieved from the session
	Window int
	// Render bounds how many of those are rendered and how long each may be
	Render llm.ContextOptions
	// HistorySize is how many messages the history views show
	HistorySize int
}

// DefaultContextSettings retrieves 5 messages and renders the last 3
var DefaultContextSettings = ContextSettings{
	Window:      5,
	Render:      llm.DefaultContextOptions,
	HistorySize: 10,
}

// SessionService handles session lifecycle and prompt exchange
type SessionService struct {
	repo    domain.SessionRepository
	context ContextSettings
	timeout time.Duration
}

// NewSessionService creates a new session service. timeout bounds each remote call.
func NewSessionService(repo domain.SessionRepository, settings ContextSettings, timeout time.Duration) *SessionService {
	return &SessionService{
		repo:    repo,
		context: settings,
		timeout: timeout,
	}
}

// Repository returns the underlying store
func (s *SessionService) Repository() domain.SessionRepository {
	return s.repo
}

// Start resumes session id, or creates a new session named name. A missing
// id falls back to a new session; resumed reports which happened.
func (s *SessionService) Start(ctx context.Context, id, name string) (session *domain.Session, resumed bool, err error) {
	if id != "" {
		session, err = s.repo.Load(ctx, id)
		if err == nil {
			return session, true, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, false, err
		}
		log.Warn().Err(err).Str("session_id", id).Msg("session not found, creating a new one")
	}

	session, err = s.repo.Create(ctx, name)
	if err != nil {
		return nil, false, err
	}
	return session, false, nil
}

// Load returns the session with the given id
func (s *SessionService) Load(ctx context.Context, id string) (*domain.Session, error) {
	return s.repo.Load(ctx, id)
}

// Save persists the session as it is in memory
func (s *SessionService) Save(ctx context.Context, session *domain.Session) error {
	return s.repo.Save(ctx, session)
}

// List returns all sessions, most recent first
func (s *SessionService) List(ctx context.Context) ([]domain.SessionSummary, error) {
	return s.repo.ListAll(ctx)
}

// Search finds messages across all sessions
func (s *SessionService) Search(ctx context.Context, query string) ([]domain.SearchHit, error) {
	return s.repo.Search(ctx, query)
}

// History returns the messages shown by history views
func (s *SessionService) History(session *domain.Session) []domain.Message {
	return session.RecentMessages(s.context.HistorySize)
}

// BuildPrompt prefixes prompt with the session's context window
func (s *SessionService) BuildPrompt(session *domain.Session, prompt string) string {
	recent := session.RecentMessages(s.context.Window)
	return llm.BuildContextPrompt(session.ContextSummary, recent, prompt, s.context.Render)
}

// Exchange sends input to provider, optionally with the context window, and
// on success appends the user message and the reply to the session in one
// save. Nothing is appended when the remote call or the save fails.
func (s *SessionService) Exchange(ctx context.Context, provider llm.Provider, model string, session *domain.Session, input string, useContext bool) (*llm.Response, error) {
	prompt := input
	if useContext {
		prompt = s.BuildPrompt(session, input)
	}

	resp, err := s.complete(ctx, provider, model, prompt)
	if err != nil {
		return nil, err
	}

	question, err := domain.NewMessage(domain.RoleUser, input, resp.PromptTokens)
	if err != nil {
		return resp, err
	}
	reply, err := domain.NewMessage(domain.RoleAssistant, resp.Text, resp.CompletionTokens)
	if err != nil {
		return resp, err
	}
	if err := domain.AppendAllAndSave(ctx, s.repo, session, question, reply); err != nil {
		return resp, fmt.Errorf("failed to save exchange: %w", err)
	}
	return resp, nil
}

// Complete sends prompt as-is, without touching any session
func (s *SessionService) Complete(ctx context.Context, provider llm.Provider, model, prompt string) (*llm.Response, error) {
	return s.complete(ctx, provider, model, prompt)
}

func (s *SessionService) complete(ctx context.Context, provider llm.Provider, model, prompt string) (*llm.Response, error) {
	return callProvider(ctx, provider, model, prompt, s.timeout)
}

// callProvider bounds a remote call by timeout and tags failures as ErrRemoteCall
func callProvider(ctx context.Context, provider llm.Provider, model, prompt string, timeout time.Duration) (*llm.Response, error) {
	if model == "" {
		model = provider.DefaultModel()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := provider.Generate(ctx, prompt, model)
	if err != nil {
		if !errors.Is(err, domain.ErrRateLimited) {
			err = fmt.Errorf("%w: %w", domain.ErrRemoteCall, err)
		}
		return nil, err
	}

	log.Debug().
		Str("provider", provider.Name()).
		Str("model", model).
		Int64("latency_ms", resp.LatencyMs).
		Int("tokens", resp.PromptTokens+resp.CompletionTokens).
		Msg("completion received")
	return resp, nil
}
