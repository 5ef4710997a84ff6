package cli

import (
	"fmt"
	"io"

	"github.com/Rrens/gemini-cli/internal/domain"
	"github.com/Rrens/gemini-cli/internal/service"
	"github.com/Rrens/gemini-cli/internal/ui"
	"github.com/spf13/cobra"
)

const resumePreview = 4

func (r *root) newChatCmd() *cobra.Command {
	var (
		sessionID string
		name      string
		noContext bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start or resume an interactive chat session",
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

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			session, resumed, err := app.Sessions.Start(ctx, sessionID, name)
			if err != nil {
				return err
			}
			if sessionID != "" && !resumed {
				fmt.Fprintln(out, ui.Warn("Session "+sessionID+" not found, started a new one"))
			}
			writeBanner(out, session, resumed)

			model := r.model(cmd)
			conv := service.NewConversation(
				app.Sessions,
				app.Summarizer(provider, model),
				provider,
				session,
				service.ConversationOptions{
					Model:           model,
					UseContext:      !noContext,
					SummaryInterval: app.Config.Summary.Interval,
				},
				out,
			)
			return conv.Run(ctx, cmd.InOrStdin())
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "session id to resume")
	cmd.Flags().StringVarP(&name, "name", "n", "", "name for a new session")
	cmd.Flags().BoolVar(&noContext, "no-context", false, "send prompts without session context")
	return cmd
}

func writeBanner(w io.Writer, s *domain.Session, resumed bool) {
	if resumed {
		fmt.Fprintln(w, ui.Success("Resumed session: "+s.Name))
	} else {
		fmt.Fprintln(w, ui.Success("New session: "+s.Name))
	}
	fmt.Fprintln(w, ui.KV("ID", s.ID))
	fmt.Fprintln(w, ui.KV("Messages", fmt.Sprint(len(s.Messages))))
	if s.ContextSummary != "" {
		fmt.Fprintln(w, ui.KV("Summary", s.ContextSummary))
	}
	if resumed && len(s.Messages) > 0 {
		ui.WriteHistory(w, s.RecentMessages(resumePreview), 100)
	}
	fmt.Fprintln(w, ui.Dim("Commands: quit, clear, save, summary, history, /search <query>"))
}
