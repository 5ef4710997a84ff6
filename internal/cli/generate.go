package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Rrens/gemini-cli/internal/config"
	"github.com/Rrens/gemini-cli/internal/domain"
	"github.com/Rrens/gemini-cli/internal/llm"
	"github.com/Rrens/gemini-cli/internal/ui"
	"github.com/spf13/cobra"
)

const (
	tempSessionName = "temp_generate"
	testPrompt      = "Hello, please respond with 'Connection successful!'"
)

func (r *root) newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models that support text generation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := r.app(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			provider, err := app.Provider()
			if err != nil {
				return err
			}

			models, err := provider.ListModels(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Header("Available models"))
			for _, m := range models {
				fmt.Fprintln(out, "  "+m)
			}
			return nil
		},
	}
}

func (r *root) newGenerateCmd() *cobra.Command {
	var (
		useContext bool
		sessionID  string
	)

	cmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Generate a single completion",
		Long:  "Generate a single completion. Without a prompt argument the prompt is read from stdin.",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := readPrompt(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			app, err := r.app(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			provider, err := app.Provider()
			if err != nil {
				return err
			}
			model := r.model(cmd)
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			var resp *llm.Response
			if useContext || sessionID != "" {
				session, err := generateSession(ctx, app, sessionID)
				if err != nil {
					return err
				}
				if resp, err = app.Sessions.Exchange(ctx, provider, model, session, prompt, true); err != nil {
					return err
				}
				fmt.Fprintln(out, ui.Dim("session: "+session.ID))
			} else if resp, err = app.Sessions.Complete(ctx, provider, model, prompt); err != nil {
				return err
			}

			fmt.Fprintln(out, resp.Text)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&useContext, "context", "c", false, "prefix the prompt with session context")
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "session to read context from and append to")
	return cmd
}

// generateSession loads sessionID, which must exist, or creates a scratch
// session when none is given
func generateSession(ctx context.Context, app *App, sessionID string) (*domain.Session, error) {
	if sessionID == "" {
		return app.Repo.Create(ctx, tempSessionName)
	}
	session, err := app.Sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s does not exist: %w", sessionID, err)
	}
	return session, nil
}

func readPrompt(in io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("no prompt given")
	}
	return prompt, nil
}

func (r *root) newTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Check that the API is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := r.app(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			provider, err := app.Provider()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Header("Connection test"))
			fmt.Fprintln(out, ui.KV("Provider", provider.Name()))
			fmt.Fprintln(out, ui.KV("Proxy", proxyLabel(app.Config.Proxy)))
			fmt.Fprintln(out, ui.KV("Default model", provider.DefaultModel()))

			resp, err := app.Sessions.Complete(cmd.Context(), provider, r.model(cmd), testPrompt)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, ui.Success("Connection OK"))
			fmt.Fprintln(out, ui.KV("Model", resp.Model))
			fmt.Fprintln(out, ui.KV("Latency", latency(resp.LatencyMs)))
			fmt.Fprintln(out, ui.KV("Reply", ui.Clip(resp.Text, 80)))
			return nil
		},
	}
}

func proxyLabel(p config.ProxyConfig) string {
	switch {
	case p.Empty():
		return "none"
	case p.HTTPS != "":
		return p.HTTPS
	default:
		return p.HTTP
	}
}
