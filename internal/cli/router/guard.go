package router

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/inkdesk-dev/inkdesk/internal/cli/client"
	"github.com/inkdesk-dev/inkdesk/internal/session"
)

// ForbiddenWarning is shown when a role gate sends the user back
const ForbiddenWarning = "You do not have permission to access this page"

// Kind is the outcome of a guard check
type Kind int

const (
	// Allow lets the transition proceed
	Allow Kind = iota
	// Redirect sends an already signed-in user away from the login screen
	Redirect
	// RedirectLogin sends the user to log in, remembering where they were going
	RedirectLogin
	// RedirectWarn sends the user back with a warning; the session stays valid
	RedirectWarn
)

func (k Kind) String() string {
	switch k {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	case RedirectLogin:
		return "redirect-login"
	case RedirectWarn:
		return "redirect-warn"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Decision is what the guard decided for one transition.
// Target is empty for Allow. Intended is set for RedirectLogin.
type Decision struct {
	Kind     Kind
	Target   string
	Intended string
	Warning  string
	User     *client.User
}

// SessionLoader is the part of the session store the guard consults
type SessionLoader interface {
	LoadProfile(ctx context.Context, force bool) (*client.User, error)
	Logout() error
	HasToken() bool
}

// Guard decides every route transition. It keeps no state of its own.
type Guard struct {
	session SessionLoader
	table   *Table
	log     zerolog.Logger
}

// NewGuard creates a guard over the given session and route table
func NewGuard(sess SessionLoader, table *Table, log zerolog.Logger) *Guard {
	return &Guard{session: sess, table: table, log: log}
}

// Check evaluates the transition from the location `from` (may be empty) to `to`
func (g *Guard) Check(ctx context.Context, to Location, route *Route, from string) Decision {
	if route.Public {
		return g.checkPublic(ctx, to, route)
	}

	user, err := g.session.LoadProfile(ctx, false)
	if err != nil {
		g.log.Debug().Err(err).Str("to", to.String()).Msg("Profile load failed, redirecting to login")
		g.logout()
		return g.loginDecision(to)
	}
	if user == nil {
		return g.loginDecision(to)
	}

	if route.AdminOnly && !session.IsAdmin(user) {
		target := g.fallback(from, route)
		g.log.Info().
			Str("to", to.String()).
			Str("role", user.Role).
			Str("fallback", target).
			Msg("Route requires admin role")
		return Decision{Kind: RedirectWarn, Target: target, Warning: ForbiddenWarning, User: user}
	}

	return Decision{Kind: Allow, User: user}
}

func (g *Guard) checkPublic(ctx context.Context, to Location, route *Route) Decision {
	if route.Path != LoginPath || !g.session.HasToken() {
		return Decision{Kind: Allow}
	}

	user, err := g.session.LoadProfile(ctx, false)
	if err != nil {
		g.log.Debug().Err(err).Msg("Stored token rejected, showing login")
		g.logout()
		return Decision{Kind: Allow}
	}
	if user == nil {
		return Decision{Kind: Allow}
	}
	return Decision{Kind: Redirect, Target: PostLoginTarget(to.Query().Get("redirect")), User: user}
}

func (g *Guard) loginDecision(to Location) Decision {
	intended := to.String()
	return Decision{Kind: RedirectLogin, Target: LoginLocation(intended), Intended: intended}
}

// fallback picks where a role-gated user is sent back to. The previous location is
// only used when it would itself be allowed, so the user cannot bounce between two
// gated routes; anything else lands on DefaultLanding.
func (g *Guard) fallback(from string, denied *Route) string {
	if from == "" {
		return DefaultLanding
	}
	loc, err := ParseLocation(from)
	if err != nil || loc.Path == LoginPath {
		return DefaultLanding
	}
	prev, _, ok := g.table.Match(loc.Path)
	if !ok || prev == denied || prev.AdminOnly || prev.Redirect != "" {
		return DefaultLanding
	}
	return loc.String()
}

func (g *Guard) logout() {
	if err := g.session.Logout(); err != nil {
		g.log.Warn().Err(err).Msg("Failed to log out")
	}
}
