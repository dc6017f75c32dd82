package router

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// LoginPath is the public login screen
	LoginPath = "/login"

	// DefaultLanding is where users land when there is nowhere better to go
	DefaultLanding = "/dashboard"
)

// Route is one entry of the route table
type Route struct {
	Path      string // pattern, ":name" segments match any value
	Name      string
	Public    bool
	AdminOnly bool
	Redirect  string // static redirect target, the route has no view
}

// DefaultRoutes mirrors the admin console's navigation
func DefaultRoutes() []Route {
	return []Route{
		{Path: "/", Name: "Root", Redirect: DefaultLanding},
		{Path: LoginPath, Name: "Login", Public: true},
		{Path: "/dashboard", Name: "Dashboard"},
		{Path: "/quickstart", Name: "QuickStart"},
		{Path: "/config-guide", Name: "ConfigGuide"},
		{Path: "/generate", Name: "Generate"},
		{Path: "/materials/packs", Name: "MaterialPacks"},
		{Path: "/materials/packs/:id", Name: "MaterialPackDetail"},
		{Path: "/crawl-records", Name: "CrawlRecords"},
		{Path: "/crawl-records/:id", Name: "CrawlRecordDetail"},
		{Path: "/daily-hotspots", Name: "DailyHotspots"},
		{Path: "/daily-hotspots/:id", Name: "DailyHotspotDetail"},
		{Path: "/datasources", Name: "DataSources"},
		{Path: "/prompt-templates", Name: "PromptTemplates"},
		{Path: "/api-keys", Name: "ApiKeys"},
		{Path: "/publish", Name: "Publish"},
		{Path: "/articles", Name: "Articles"},
		{Path: "/articles/:id", Name: "ArticleDetail"},
		{Path: "/articles/:id/edit", Name: "ArticleEdit"},
		{Path: "/users", Name: "Users", AdminOnly: true},
		{Path: "/roles", Name: "Roles", AdminOnly: true},
	}
}

// Table resolves paths to routes
type Table struct {
	routes []Route
}

// NewTable builds a table; earlier routes win on ambiguous matches
func NewTable(routes []Route) *Table {
	return &Table{routes: routes}
}

// Match finds the route for a path and extracts its parameters
func (t *Table) Match(path string) (*Route, map[string]string, bool) {
	segments := splitPath(path)
	for i := range t.routes {
		route := &t.routes[i]
		if params, ok := matchSegments(splitPath(route.Path), segments); ok {
			return route, params, true
		}
	}
	return nil, nil, false
}

// Lookup returns the route with the given name
func (t *Table) Lookup(name string) (*Route, bool) {
	for i := range t.routes {
		if t.routes[i].Name == name {
			return &t.routes[i], true
		}
	}
	return nil, false
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func matchSegments(pattern, segments []string) (map[string]string, bool) {
	if len(pattern) != len(segments) {
		return nil, false
	}
	params := map[string]string{}
	for i, p := range pattern {
		if strings.HasPrefix(p, ":") {
			if segments[i] == "" {
				return nil, false
			}
			value, err := url.PathUnescape(segments[i])
			if err != nil {
				return nil, false
			}
			params[p[1:]] = value
			continue
		}
		if p != segments[i] {
			return nil, false
		}
	}
	return params, true
}

// Location is a navigation target: path plus optional query and fragment.
// Path and Fragment keep their percent-encoding so String round-trips.
type Location struct {
	Path     string
	RawQuery string
	Fragment string
}

// ParseLocation parses an in-app location such as "/articles/42?tab=raw"
func ParseLocation(raw string) (Location, error) {
	if raw == "" {
		return Location{Path: "/"}, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("invalid location %q: %w", raw, err)
	}
	if u.Scheme != "" || u.Host != "" {
		return Location{}, fmt.Errorf("invalid location %q: must be an in-app path", raw)
	}
	path := u.EscapedPath()
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return Location{Path: path, RawQuery: u.RawQuery, Fragment: u.EscapedFragment()}, nil
}

// Query returns the parsed query parameters
func (l Location) Query() url.Values {
	values, _ := url.ParseQuery(l.RawQuery)
	return values
}

// String returns path+query+fragment
func (l Location) String() string {
	s := l.Path
	if l.RawQuery != "" {
		s += "?" + l.RawQuery
	}
	if l.Fragment != "" {
		s += "#" + l.Fragment
	}
	return s
}

// LoginLocation builds the login location that restores intended after login
func LoginLocation(intended string) string {
	if intended == "" {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{"redirect": {intended}}.Encode()
}

// PostLoginTarget returns where to go once logged in: the login location's
// redirect parameter when it is a usable in-app path, else DefaultLanding.
func PostLoginTarget(redirect string) string {
	if redirect == "" || !strings.HasPrefix(redirect, "/") || strings.HasPrefix(redirect, "//") {
		return DefaultLanding
	}
	loc, err := ParseLocation(redirect)
	if err != nil || loc.Path == LoginPath {
		return DefaultLanding
	}
	return loc.String()
}
