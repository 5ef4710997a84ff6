package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Rrens/gemini-cli/internal/config"
	"github.com/Rrens/gemini-cli/internal/domain"
	"github.com/Rrens/gemini-cli/internal/llm"
	"github.com/Rrens/gemini-cli/internal/llm/gemini"
	"github.com/Rrens/gemini-cli/internal/llm/ollama"
	"github.com/Rrens/gemini-cli/internal/repository/file"
	redisrepo "github.com/Rrens/gemini-cli/internal/repository/redis"
	"github.com/Rrens/gemini-cli/internal/repository/sqlite"
	"github.com/Rrens/gemini-cli/internal/service"
	"github.com/rs/zerolog/log"
)

// App holds the dependencies shared by commands
type App struct {
	Config   *config.Config
	Repo     domain.SessionRepository
	Router   *llm.Router
	Sessions *service.SessionService

	// provider, when set, replaces router lookup
	provider llm.Provider
	limiter  *redisrepo.RateLimiter
	closers  []func() error
}

func newApp(ctx context.Context, cfg *config.Config, override llm.Provider) (*App, error) {
	repo, closeRepo, err := openRepository(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		Repo:     repo,
		Router:   newRouter(cfg.LLM),
		provider: override,
		Sessions: service.NewSessionService(repo, contextSettings(cfg.Context), cfg.LLM.Timeout),
	}
	if closeRepo != nil {
		app.closers = append(app.closers, closeRepo)
	}

	if cfg.RateLimit.Enabled {
		client, err := redisrepo.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr()).Msg("rate limiting disabled")
		} else {
			app.limiter = redisrepo.NewRateLimiter(client, cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
			app.closers = append(app.closers, client.Close)
		}
	}

	return app, nil
}

// Close releases storage and Redis connections
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			log.Warn().Err(err).Msg("failed to close resource")
		}
	}
}

// Provider returns the provider used for remote calls
func (a *App) Provider() (llm.Provider, error) {
	if a.provider != nil {
		return a.provider, nil
	}
	if err := a.Config.RequireAPIKey(); err != nil {
		return nil, err
	}

	p, err := a.Router.GetProvider(a.Config.LLM.Provider)
	if err != nil {
		return nil, err
	}
	if a.limiter != nil {
		return llm.WithRateLimit(p, a.limiter), nil
	}
	return p, nil
}

// Summarizer builds a summarizer bound to provider and model
func (a *App) Summarizer(provider llm.Provider, model string) *service.Summarizer {
	s := a.Config.Summary
	settings := service.SummarizerSettings{
		MinMessages: s.MinMessages,
		Prompt: llm.SummaryOptions{
			Window:    s.Window,
			TurnChars: s.TurnChars,
			MaxChars:  s.MaxChars,
		},
	}
	return service.NewSummarizer(a.Repo, provider, model, settings, a.Config.LLM.Timeout)
}

func openRepository(ctx context.Context, cfg config.StorageConfig) (domain.SessionRepository, func() error, error) {
	switch cfg.Driver {
	case "sqlite":
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("%w: create data directory: %v", domain.ErrStorage, err)
		}
		repo, err := sqlite.Open(ctx, cfg.SQLitePath())
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	default:
		repo, err := file.NewSessionRepository(cfg.SessionsDir())
		if err != nil {
			return nil, nil, err
		}
		return repo, nil, nil
	}
}

func newRouter(cfg config.LLMConfig) *llm.Router {
	router := llm.NewRouter(cfg.Provider)
	router.RegisterProvider(gemini.NewProvider(cfg.Gemini))
	router.RegisterProvider(ollama.NewProvider(cfg.Ollama))
	return router
}

func contextSettings(cfg config.ContextConfig) service.ContextSettings {
	return service.ContextSettings{
		Window: cfg.Window,
		Render: llm.ContextOptions{
			RenderedTurns: cfg.RenderedTurn,
			TurnChars:     cfg.TurnChars,
		},
		HistorySize: cfg.HistorySize,
	}
}

func latency(ms int64) string {
	return fmt.Sprintf("%.2fs", (time.Duration(ms) * time.Millisecond).Seconds())
}
