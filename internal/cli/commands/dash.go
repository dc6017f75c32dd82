package commands

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inkdesk-dev/inkdesk/internal/cli/router"
)

// NewOpenCmd creates the open command
func NewOpenCmd(g *Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "open <location>",
		Short: "Show any console page, e.g. /articles/42 or /daily-hotspots?day=2024-05-01",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.openApp(cmd)
			if err != nil {
				return err
			}
			return a.Navigate(cmd.Context(), args[0])
		},
	}
}

// NewDashCmd creates the dash command
func NewDashCmd(g *Globals) *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "dash [location]",
		Short: "Open the web console in browser",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			location := router.DefaultLanding
			if len(args) > 0 {
				location = args[0]
			}
			return runDash(cmd, g, location, printOnly)
		},
	}

	cmd.Flags().BoolVar(&printOnly, "print", false, "Only print the URL")

	return cmd
}

func runDash(cmd *cobra.Command, g *Globals, location string, printOnly bool) error {
	out := cmd.OutOrStdout()

	a, err := g.openApp(cmd)
	if err != nil {
		return err
	}

	loc, err := router.ParseLocation(location)
	if err != nil {
		return err
	}
	consoleURL := webConsoleURL(a.Server.URL) + loc.String()

	if printOnly {
		fmt.Fprintln(out, consoleURL)
		return nil
	}

	fmt.Fprintf(out, "Opening web console for %s (%s)...\n", a.Server.Alias, a.Server.URL)
	fmt.Fprintf(out, "URL: %s\n", consoleURL)

	if err := openBrowser(consoleURL); err != nil {
		return fmt.Errorf("failed to open browser: %w\nPlease visit: %s", err, consoleURL)
	}

	return nil
}

// webConsoleURL derives the console address from the API base, which is served under /api
func webConsoleURL(apiURL string) string {
	base := strings.TrimRight(apiURL, "/")
	return strings.TrimSuffix(base, "/api")
}

// openBrowser opens the URL in the default browser
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
