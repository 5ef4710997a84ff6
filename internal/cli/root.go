// Package cli wires the cobra command tree.
package cli

import (
	"github.com/Rrens/gemini-cli/internal/config"
	"github.com/Rrens/gemini-cli/internal/llm"
	"github.com/spf13/cobra"
)

type root struct {
	cfg      *config.Config
	provider llm.Provider
	envFile  string
}

// Option customizes the command tree
type Option func(*root)

// WithProvider routes every remote call to p instead of the configured provider
func WithProvider(p llm.Provider) Option {
	return func(r *root) { r.provider = p }
}

// WithEnvFile sets the file written by setup
func WithEnvFile(path string) Option {
	return func(r *root) { r.envFile = path }
}

// NewRootCommand builds the gemini command tree over cfg
func NewRootCommand(cfg *config.Config, opts ...Option) *cobra.Command {
	r := &root{cfg: cfg, envFile: ".env"}
	for _, opt := range opts {
		opt(r)
	}

	rootCmd := &cobra.Command{
		Use:           "gemini",
		Short:         "Gemini CLI with persistent multi-turn sessions",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringP("model", "m", "", "model to use (default from config)")

	rootCmd.AddCommand(r.newModelsCmd())
	rootCmd.AddCommand(r.newGenerateCmd())
	rootCmd.AddCommand(r.newChatCmd())
	rootCmd.AddCommand(r.newSessionsCmd())
	rootCmd.AddCommand(r.newSearchCmd())
	rootCmd.AddCommand(r.newShowCmd())
	rootCmd.AddCommand(r.newTestCmd())
	rootCmd.AddCommand(r.newSetupCmd())

	return rootCmd
}

func (r *root) app(cmd *cobra.Command) (*App, error) {
	return newApp(cmd.Context(), r.cfg, r.provider)
}

// model resolves --model, falling back to the configured model for the gemini provider
func (r *root) model(cmd *cobra.Command) string {
	if m, _ := cmd.Flags().GetString("model"); m != "" {
		return m
	}
	if r.provider == nil && r.cfg.LLM.Provider == "gemini" {
		return r.cfg.LLM.Gemini.Model
	}
	return ""
}
