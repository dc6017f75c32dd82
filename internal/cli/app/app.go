// Package app wires one backend's token store, client, session and router together.
//
// Every command builds exactly one App and reaches the backend through it, so
// the session, the client and the guard all observe the same token.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/inkdesk-dev/inkdesk/internal/cli/auth"
	"github.com/inkdesk-dev/inkdesk/internal/cli/client"
	"github.com/inkdesk-dev/inkdesk/internal/cli/config"
	"github.com/inkdesk-dev/inkdesk/internal/cli/router"
	"github.com/inkdesk-dev/inkdesk/internal/cli/serverselect"
	"github.com/inkdesk-dev/inkdesk/internal/cli/userconfig"
	"github.com/inkdesk-dev/inkdesk/internal/cli/views"
	"github.com/inkdesk-dev/inkdesk/internal/session"
)

// EnvServerAlias names the server taken from INKDESK_API_BASE
const EnvServerAlias = "env"

// ErrRedirected is returned by Guarded when the guard sent the user elsewhere
var ErrRedirected = errors.New("navigation was redirected")

// Options configures New and Open. Zero values select the production defaults.
type Options struct {
	Server     string // URL or alias from --server
	NoKeyring  bool
	Env        *config.Env
	Out        io.Writer
	Err        io.Writer
	Log        zerolog.Logger
	Tokens     auth.TokenStore
	History    router.History
	HTTPClient *http.Client
}

// App holds the single instance of each client-side component for one server
type App struct {
	Server  config.Server
	Tokens  auth.TokenStore
	Client  *client.Client
	Session *session.Store
	Router  *router.Router
	Out     io.Writer
	Err     io.Writer

	log zerolog.Logger

	mu           sync.Mutex
	invalidation *client.Invalidation
}

// ResolveServer picks the backend: --server first, then INKDESK_API_BASE, then inkdesk.json
func ResolveServer(serverFlag string, env *config.Env) (*config.Server, error) {
	if serverFlag == "" && env != nil && env.APIBase != "" {
		return &config.Server{Alias: EnvServerAlias, URL: env.APIBase}, nil
	}

	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w\nRun 'inkdesk init <url>' to create a configuration file", err)
	}

	return serverselect.ResolveServer(cfg, serverFlag)
}

// Open resolves the server and builds the App for it
func Open(opts Options) (*App, error) {
	server, err := ResolveServer(opts.Server, opts.Env)
	if err != nil {
		return nil, err
	}
	return New(*server, opts), nil
}

// New builds the App for server
func New(server config.Server, opts Options) *App {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.Tokens == nil {
		if opts.NoKeyring {
			opts.Tokens = auth.NewMemoryStore()
		} else {
			opts.Tokens = auth.NewKeyringStore(server.URL)
		}
	}
	if opts.History == nil {
		opts.History = userconfig.NewHistory(server.URL)
	}

	a := &App{
		Server: server,
		Tokens: opts.Tokens,
		Out:    opts.Out,
		Err:    opts.Err,
		log:    opts.Log,
	}

	clientOpts := []client.Option{
		client.WithLogger(opts.Log.With().Str("component", "client").Logger()),
		client.WithLocation(func() string { return a.Router.Current() }),
		client.WithInvalidationHandler(a.invalidated),
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, client.WithHTTPClient(opts.HTTPClient))
	}
	if opts.Env != nil && opts.Env.Timeout > 0 {
		clientOpts = append(clientOpts, client.WithTimeout(opts.Env.Timeout))
	}
	a.Client = client.New(server.URL, opts.Tokens, clientOpts...)

	a.Session = session.NewStore(a.Client, opts.Tokens, opts.Log.With().Str("component", "session").Logger())

	table := router.NewTable(router.DefaultRoutes())
	guard := router.NewGuard(a.Session, table, opts.Log.With().Str("component", "guard").Logger())
	a.Router = router.New(table, guard,
		router.WithHistory(opts.History),
		router.WithLogger(opts.Log.With().Str("component", "router").Logger()),
		router.WithWarningHandler(func(msg string) {
			fmt.Fprintf(a.Err, "⚠ %s\n", msg)
		}),
	)

	views.New(a.Client, a.Out, opts.Log.With().Str("component", "views").Logger()).Register(a.Router)

	return a
}

func (a *App) invalidated(inv client.Invalidation) {
	a.mu.Lock()
	a.invalidation = &inv
	a.mu.Unlock()
	a.log.Debug().Str("redirect", inv.Redirect).Msg("Session invalidated")
}

// Invalidation returns the last session invalidation published by the client
func (a *App) Invalidation() (client.Invalidation, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.invalidation == nil {
		return client.Invalidation{}, false
	}
	return *a.invalidation, true
}

// Navigate renders location through the guard. A token rejected while a view
// was loading is reported as ErrLoginRequired with the login hint.
func (a *App) Navigate(ctx context.Context, location string) error {
	err := a.Router.Navigate(ctx, location)
	if client.IsUnauthorized(err) {
		return a.sessionExpired()
	}
	return err
}

// Guarded runs the guard for location without rendering it and returns the
// allowed request. When the guard redirects, the login view or the warning
// has already been shown and an error is returned.
func (a *App) Guarded(ctx context.Context, location string) (*router.Request, error) {
	want, err := router.ParseLocation(location)
	if err != nil {
		return nil, err
	}

	req, _, err := a.Router.Resolve(ctx, location)
	if err != nil {
		return nil, err
	}

	if req.Location.Path != want.Path {
		if req.Route.Path == router.LoginPath {
			return nil, a.Router.Render(ctx, req)
		}
		return nil, fmt.Errorf("%w to %s", ErrRedirected, req.Location.String())
	}
	return req, nil
}

// Call wraps a direct API call made after Guarded, translating a rejected token
func (a *App) Call(err error) error {
	if client.IsUnauthorized(err) {
		return a.sessionExpired()
	}
	return err
}

func (a *App) sessionExpired() error {
	hint := "inkdesk login"
	if inv, ok := a.Invalidation(); ok && inv.Intended != "" {
		hint = fmt.Sprintf("inkdesk login --redirect %s", inv.Intended)
	}
	fmt.Fprintf(a.Err, "Session expired. Run '%s' to sign in again.\n", hint)
	return router.ErrLoginRequired
}
