package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkdesk-dev/inkdesk/internal/cli/auth"
	"github.com/inkdesk-dev/inkdesk/internal/cli/config"
	"github.com/inkdesk-dev/inkdesk/internal/cli/serverselect"
	"github.com/inkdesk-dev/inkdesk/internal/cli/userconfig"
)

// NewSelectServerCmd creates the select-server command
func NewSelectServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select-server [url-or-alias]",
		Short: "Select the server to use for commands",
		Long: `Select the server to use for commands.

If no param is provided, an interactive prompt will be shown.

Examples:
  $ inkdesk select-server                                  # Interactive selection
  $ inkdesk select-server https://inkdesk.example.com/api  # Select by URL
  $ inkdesk select-server production                       # Select by alias`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var urlOrAlias string
			if len(args) > 0 {
				urlOrAlias = args[0]
			}
			return runSelectServer(cmd, urlOrAlias)
		},
	}

	return cmd
}

// runSelectServer stores the choice in the user config; ResolveServer honours it
// until it is removed from inkdesk.json
func runSelectServer(cmd *cobra.Command, urlOrAlias string) error {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return fmt.Errorf("failed to load config: %w\nRun 'inkdesk init <url>' to create a configuration file", err)
	}

	var server *config.Server

	// By argument when given, interactively otherwise
	if urlOrAlias != "" {
		server, err = cfg.GetServerByURLOrAlias(urlOrAlias)
		if err != nil {
			return err
		}
	} else {
		server, err = serverselect.PromptServerSelection(cfg)
		if err != nil {
			return err
		}
	}

	if err := userconfig.SetSelectedServer(server.URL); err != nil {
		return fmt.Errorf("failed to save selected server: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Selected server: %s (%s)\n", server.Alias, server.URL)

	// Each server keeps its own token, so a switch may need a fresh login
	tokens := auth.NewKeyringStore(server.URL)
	if token, err := tokens.Get(); err == nil && token == "" {
		fmt.Fprintf(out, "Not logged in to %s yet. Run 'inkdesk login' to authenticate.\n", server.Alias)
	}
	return nil
}
