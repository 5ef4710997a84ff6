package cli

import (
	"strings"

	"github.com/Rrens/gemini-cli/internal/ui"
	"github.com/spf13/cobra"
)

const searchLimit = 20

func (r *root) newSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List saved sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := r.app(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			sessions, err := app.Sessions.List(cmd.Context())
			if err != nil {
				return err
			}
			ui.WriteSessionTable(cmd.OutOrStdout(), sessions)
			return nil
		},
	}
}

func (r *root) newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY",
		Short: "Search messages across all sessions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.app(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			query := strings.Join(args, " ")
			hits, err := app.Sessions.Search(cmd.Context(), query)
			if err != nil {
				return err
			}
			ui.WriteSearchHits(cmd.OutOrStdout(), query, hits, searchLimit)
			return nil
		},
	}
}

func (r *root) newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show SESSION_ID",
		Short: "Show a session with its recent messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.app(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			session, err := app.Sessions.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ui.WriteSessionDetail(cmd.OutOrStdout(), session, app.Sessions.History(session))
			return nil
		},
	}
}
