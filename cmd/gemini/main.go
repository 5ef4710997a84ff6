package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rrens/gemini-cli/internal/cli"
	"github.com/Rrens/gemini-cli/internal/config"
	"github.com/Rrens/gemini-cli/internal/domain"
	"github.com/Rrens/gemini-cli/internal/logger"
	"github.com/Rrens/gemini-cli/internal/ui"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file if present; real environment variables take precedence
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.Error("Failed to load configuration: "+err.Error()))
		os.Exit(1)
	}

	if err := logger.Setup(cfg.Logging); err != nil {
		fmt.Fprintln(os.Stderr, ui.Error(err.Error()))
		os.Exit(1)
	}

	if err := cfg.Proxy.Apply(); err != nil {
		log.Warn().Err(err).Msg("failed to apply proxy settings")
	} else if !cfg.Proxy.Empty() {
		log.Debug().Str("http", cfg.Proxy.HTTP).Str("https", cfg.Proxy.HTTPS).Msg("using proxy")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(cfg).ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, ui.Error(err.Error(), hints(err)...))
		os.Exit(1)
	}
}

func hints(err error) []string {
	switch {
	case errors.Is(err, config.ErrMissingAPIKey):
		return []string{"run: gemini setup", "or export GEMINI_API_KEY"}
	case errors.Is(err, domain.ErrNotFound):
		return []string{"list sessions with: gemini sessions"}
	case errors.Is(err, domain.ErrRateLimited):
		return []string{"wait for the rate limit window to reset"}
	}
	return nil
}
