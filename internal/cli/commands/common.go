package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/inkdesk-dev/inkdesk/internal/cli/app"
	"github.com/inkdesk-dev/inkdesk/internal/cli/config"
)

// Globals carries root flags and environment to every command
type Globals struct {
	Server    string
	NoKeyring bool
	Env       *config.Env
	Log       zerolog.Logger

	// Options, when set, is used as the base for every App (tests inject stores here)
	Options *app.Options
}

// openApp builds the App for the selected server. This is common logic used by most commands.
func (g *Globals) openApp(cmd *cobra.Command) (*app.App, error) {
	opts := app.Options{}
	if g.Options != nil {
		opts = *g.Options
	}
	opts.Server = g.Server
	opts.NoKeyring = g.NoKeyring
	opts.Env = g.Env
	opts.Log = g.Log
	opts.Out = cmd.OutOrStdout()
	opts.Err = cmd.ErrOrStderr()

	return app.Open(opts)
}

func (g *Globals) env() *config.Env {
	if g.Env == nil {
		return &config.Env{}
	}
	return g.Env
}
