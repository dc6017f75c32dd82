package commands

import (
	"fmt"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/inkdesk-dev/inkdesk/internal/cli/client"
	"github.com/inkdesk-dev/inkdesk/internal/cli/router"
	"github.com/inkdesk-dev/inkdesk/internal/session"
)

// NewLoginCmd creates the login command
func NewLoginCmd(g *Globals) *cobra.Command {
	var username, password, redirect string
	var stay bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with an inkdesk server",
		Long: `Authenticate with an inkdesk server.

After a successful login the page given by --redirect (or the dashboard) is shown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, g, username, password, redirect, stay)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (or set INKDESK_USERNAME)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set INKDESK_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&redirect, "redirect", "", "Location to open after login, e.g. /articles/42")
	cmd.Flags().BoolVar(&stay, "no-open", false, "Do not open any page after login")

	return cmd
}

func runLogin(cmd *cobra.Command, g *Globals, username, password, redirect string, stay bool) error {
	out := cmd.OutOrStdout()
	env := g.env()

	// Check for environment variables (useful for CI/CD)
	if username == "" {
		username = env.Username
	}
	if password == "" {
		password = env.Password
	}

	if username == "" {
		return fmt.Errorf("username is required (use --username flag or INKDESK_USERNAME env var)")
	}

	a, err := g.openApp(cmd)
	if err != nil {
		return err
	}

	if password == "" {
		if term.IsTerminal(int(syscall.Stdin)) {
			fmt.Fprint(out, "Password: ")
			bytePassword, err := term.ReadPassword(int(syscall.Stdin))
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = string(bytePassword)
			fmt.Fprintln(out)
		} else {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or INKDESK_PASSWORD env var)")
		}
	}

	// A rejected login is shown on the login screen, not as an expired session
	a.Router.SetCurrent(router.LoginLocation(redirect))

	fmt.Fprintf(out, "Logging in to %s (%s)...\n", a.Server.Alias, a.Server.URL)

	user, err := a.Session.Login(cmd.Context(), client.LoginRequest{Username: username, Password: password})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Fprintln(out, "✓ Login successful!")
	fmt.Fprintf(out, "  User: %s\n", session.DisplayName(user))
	if session.IsAdmin(user) {
		fmt.Fprintln(out, "  Role: Admin")
	}

	if stay {
		return nil
	}

	fmt.Fprintln(out)
	return a.Navigate(cmd.Context(), router.PostLoginTarget(redirect))
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd(g *Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token for the selected server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.openApp(cmd)
			if err != nil {
				return err
			}
			if err := a.Session.Logout(); err != nil {
				return fmt.Errorf("failed to remove authentication token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Logged out of %s (%s)\n", a.Server.Alias, a.Server.URL)
			return nil
		},
	}
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(g *Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(cmd, g)
		},
	}
}

func runWhoami(cmd *cobra.Command, g *Globals) error {
	out := cmd.OutOrStdout()

	a, err := g.openApp(cmd)
	if err != nil {
		return err
	}

	user, err := a.Session.LoadProfile(cmd.Context(), false)
	if err != nil {
		return a.Call(err)
	}
	if user == nil {
		fmt.Fprintln(out, "Not logged in. Run 'inkdesk login' to authenticate.")
		return router.ErrLoginRequired
	}

	fmt.Fprintf(out, "Server:   %s (%s)\n", a.Server.Alias, a.Server.URL)
	fmt.Fprintf(out, "User:     %s\n", user.Username)
	fmt.Fprintf(out, "Name:     %s\n", session.DisplayName(user))
	if user.Email != nil {
		fmt.Fprintf(out, "Email:    %s\n", *user.Email)
	}
	fmt.Fprintf(out, "Role:     %s\n", user.Role)

	if token, err := a.Tokens.Get(); err == nil {
		if exp, ok := tokenExpiry(token); ok {
			fmt.Fprintf(out, "Expires:  %s\n", exp.Local().Format(time.RFC3339))
		}
	}

	return nil
}

// tokenExpiry reads the exp claim for display. The signature is not checked.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
