package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/Rrens/gemini-cli/internal/ui"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func (r *root) newSetupCmd() *cobra.Command {
	var (
		apiKey string
		proxy  string
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Write the API key and proxy settings to .env",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			if apiKey == "" {
				fmt.Fprint(out, "Gemini API key: ")
				scanner := bufio.NewScanner(cmd.InOrStdin())
				if scanner.Scan() {
					apiKey = strings.TrimSpace(scanner.Text())
				}
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("failed to read API key: %w", err)
				}
			}
			if apiKey == "" {
				return fmt.Errorf("no API key given")
			}

			env, err := godotenv.Read(r.envFile)
			if err != nil {
				if !errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("failed to read %s: %w", r.envFile, err)
				}
				env = map[string]string{}
			}

			env["GEMINI_API_KEY"] = apiKey
			if proxy != "" {
				env["HTTP_PROXY"] = proxy
				env["HTTPS_PROXY"] = proxy
			}

			if err := godotenv.Write(env, r.envFile); err != nil {
				return fmt.Errorf("failed to write %s: %w", r.envFile, err)
			}

			fmt.Fprintln(out, ui.Success("Saved settings to "+r.envFile))
			return nil
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "Gemini API key (prompted when omitted)")
	cmd.Flags().StringVar(&proxy, "proxy", "", "proxy URL for HTTP and HTTPS")
	return cmd
}
