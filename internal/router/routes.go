package router

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/irvision/portal/internal/apipaths"
)

// Route is one entry of the route table
type Route struct {
	Path         string
	Name         string
	RequiresAuth bool   // only reachable with a session
	Redirect     string // static redirect, applied before the guard runs
}

// ErrRouteNotFound is returned when a path matches no route
var ErrRouteNotFound = errors.New("route not found")

// DefaultRoutes is the portal's route table
func DefaultRoutes() []Route {
	return []Route{
		{Path: apipaths.RouteRoot, Redirect: apipaths.RouteHome},
		{Path: apipaths.RouteLogin, Name: "login"},
		{Path: apipaths.RouteRegister, Name: "register"},
		{Path: apipaths.RouteHome, Name: "home", RequiresAuth: true},
		{Path: apipaths.RouteProfile, Name: "profile", RequiresAuth: true},
	}
}

// Table resolves paths to routes
type Table struct {
	routes map[string]Route
	order  []string
}

// NewTable validates routes and indexes them by path. Redirect targets must
// exist in the table.
func NewTable(routes []Route) (*Table, error) {
	t := &Table{routes: make(map[string]Route, len(routes))}
	for _, r := range routes {
		p := normalizePath(r.Path)
		if _, dup := t.routes[p]; dup {
			return nil, fmt.Errorf("duplicate route %q", p)
		}
		r.Path = p
		t.routes[p] = r
		t.order = append(t.order, p)
	}
	for _, r := range t.routes {
		if r.Redirect == "" {
			continue
		}
		if _, ok := t.routes[normalizePath(r.Redirect)]; !ok {
			return nil, fmt.Errorf("route %q redirects to unknown path %q", r.Path, r.Redirect)
		}
	}
	return t, nil
}

// Lookup finds the route for p. Query strings, fragments and trailing slashes are ignored.
func (t *Table) Lookup(p string) (Route, bool) {
	r, ok := t.routes[normalizePath(p)]
	return r, ok
}

// Routes returns the table in declaration order
func (t *Table) Routes() []Route {
	out := make([]Route, 0, len(t.order))
	for _, p := range t.order {
		out = append(out, t.routes[p])
	}
	return out
}

func normalizePath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
