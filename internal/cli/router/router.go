package router

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/inkdesk-dev/inkdesk/internal/cli/client"
)

// maxHops bounds redirects within one navigation
const maxHops = 8

var (
	ErrNoRoute       = errors.New("no route matches location")
	ErrNoView        = errors.New("route has no view")
	ErrRedirectLoop  = errors.New("too many redirects")
	ErrLoginRequired = errors.New("login required")
)

// Request is what a view receives
type Request struct {
	Route    *Route
	Location Location
	Params   map[string]string
	User     *client.User
}

// View renders an allowed route
type View func(ctx context.Context, req *Request) error

// History remembers the last allowed location; it is the "previous route" for the guard
type History interface {
	Previous() string
	Record(location string) error
}

// MemoryHistory keeps history in process
type MemoryHistory struct {
	mu   sync.Mutex
	last string
}

func (h *MemoryHistory) Previous() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

func (h *MemoryHistory) Record(location string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = location
	return nil
}

// Router runs the guard on every navigation and renders the resulting view
type Router struct {
	table   *Table
	guard   *Guard
	history History
	views   map[string]View
	warn    func(string)
	log     zerolog.Logger

	mu      sync.RWMutex
	current string
}

// Option configures a Router
type Option func(*Router)

// WithWarningHandler receives user-visible warnings such as role shortfalls
func WithWarningHandler(fn func(string)) Option {
	return func(r *Router) {
		r.warn = fn
	}
}

// WithHistory replaces the in-memory history
func WithHistory(h History) Option {
	return func(r *Router) {
		r.history = h
	}
}

// WithLogger sets the logger
func WithLogger(log zerolog.Logger) Option {
	return func(r *Router) {
		r.log = log
	}
}

// New creates a router
func New(table *Table, guard *Guard, opts ...Option) *Router {
	r := &Router{
		table:   table,
		guard:   guard,
		history: &MemoryHistory{},
		views:   map[string]View{},
		warn:    func(string) {},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle binds a view to the route with the given name
func (r *Router) Handle(name string, view View) {
	r.views[name] = view
}

// Current returns the location being navigated to or displayed
func (r *Router) Current() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// SetCurrent records the displayed location without navigating, e.g. while a login form is shown
func (r *Router) SetCurrent(location string) {
	r.mu.Lock()
	r.current = location
	r.mu.Unlock()
}

// Resolve runs static redirects and the guard, following redirects, without rendering.
// It returns the final allowed location, its route and the guard decisions taken.
func (r *Router) Resolve(ctx context.Context, raw string) (*Request, []Decision, error) {
	loc, err := ParseLocation(raw)
	if err != nil {
		return nil, nil, err
	}

	var decisions []Decision
	for hop := 0; hop < maxHops; hop++ {
		route, params, ok := r.table.Match(loc.Path)
		if !ok {
			return nil, decisions, fmt.Errorf("%w: %s", ErrNoRoute, loc.Path)
		}

		if route.Redirect != "" {
			next, err := ParseLocation(route.Redirect)
			if err != nil {
				return nil, decisions, err
			}
			if next.RawQuery == "" {
				next.RawQuery = loc.RawQuery
			}
			loc = next
			continue
		}

		r.SetCurrent(loc.String())
		decision := r.guard.Check(ctx, loc, route, r.history.Previous())
		decisions = append(decisions, decision)

		r.log.Debug().
			Str("to", loc.String()).
			Str("decision", decision.Kind.String()).
			Str("target", decision.Target).
			Msg("Navigation")

		if decision.Kind == Allow {
			return &Request{Route: route, Location: loc, Params: params, User: decision.User}, decisions, nil
		}

		if decision.Warning != "" {
			r.warn(decision.Warning)
		}
		next, err := ParseLocation(decision.Target)
		if err != nil {
			return nil, decisions, err
		}
		loc = next
	}
	return nil, decisions, fmt.Errorf("%w while navigating to %s", ErrRedirectLoop, raw)
}

// Navigate resolves the location and renders the view of the route it lands on
func (r *Router) Navigate(ctx context.Context, raw string) error {
	req, _, err := r.Resolve(ctx, raw)
	if err != nil {
		return err
	}
	return r.Render(ctx, req)
}

// Render runs the view of an already resolved request
func (r *Router) Render(ctx context.Context, req *Request) error {
	view, ok := r.views[req.Route.Name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoView, req.Route.Name)
	}

	if !req.Route.Public {
		if err := r.history.Record(req.Location.String()); err != nil {
			r.log.Warn().Err(err).Msg("Failed to record navigation history")
		}
	}

	return view(ctx, req)
}
