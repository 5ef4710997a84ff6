// Package logger configures the global zerolog logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Rrens/gemini-cli/internal/config"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	rotationTime = 24 * time.Hour
	maxAge       = 7 * 24 * time.Hour
)

// Setup installs the global logger described by cfg. Console output goes to
// stderr so it never mixes with chat output on stdout.
func Setup(cfg config.LoggingConfig) error {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	w, err := writer(cfg, os.Stderr)
	if err != nil {
		return err
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return nil
}

func writer(cfg config.LoggingConfig, stderr io.Writer) (io.Writer, error) {
	var out io.Writer = stderr
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.Kitchen}
	}

	if cfg.File == "" {
		return out, nil
	}

	rl, err := rotatelogs.New(
		cfg.File+".%Y%m%d",
		rotatelogs.WithLinkName(cfg.File),
		rotatelogs.WithRotationTime(rotationTime),
		rotatelogs.WithMaxAge(maxAge),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	// The file always receives JSON lines regardless of console format
	return zerolog.MultiLevelWriter(out, rl), nil
}
