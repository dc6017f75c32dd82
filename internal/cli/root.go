package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/inkdesk-dev/inkdesk/internal/cli/commands"
	"github.com/inkdesk-dev/inkdesk/internal/cli/config"
	"github.com/inkdesk-dev/inkdesk/internal/logger"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the inkdesk command tree around g
func NewRootCmd(g *commands.Globals) *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:   "inkdesk",
		Short: "inkdesk - content operations console in your terminal",
		Long: `inkdesk CLI - browse and manage an inkdesk content platform.

Crawl sources, daily hotspots, material packs and generated articles are all
reachable from here with the same permissions as the web console.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.LoadEnv()
			if err != nil {
				return err
			}
			if logLevel != "" {
				env.LogLevel = logLevel
			}
			g.Env = env
			g.Log = logger.Init(env.LogLevel, env.LogFormat, cmd.ErrOrStderr())
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&g.Server, "server", "", "Server URL or alias from inkdesk.json")
	rootCmd.PersistentFlags().BoolVar(&g.NoKeyring, "no-keyring", false, "Keep the token in memory only")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "inkdesk version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewSelectServerCmd())
	rootCmd.AddCommand(commands.NewLoginCmd(g))
	rootCmd.AddCommand(commands.NewLogoutCmd(g))
	rootCmd.AddCommand(commands.NewWhoamiCmd(g))
	rootCmd.AddCommand(commands.NewOpenCmd(g))
	rootCmd.AddCommand(commands.NewDashCmd(g))
	rootCmd.AddCommand(commands.NewDataSourcesCmd(g))
	rootCmd.AddCommand(commands.NewArticlesCmd(g))
	rootCmd.AddCommand(commands.NewHotspotsCmd(g))
	rootCmd.AddCommand(commands.NewCrawlRecordsCmd(g))
	rootCmd.AddCommand(commands.NewPublishCmd(g))
	rootCmd.AddCommand(commands.NewMaterialsCmd(g))
	rootCmd.AddCommand(commands.NewUsersCmd(g))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCmd(&commands.Globals{}).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
