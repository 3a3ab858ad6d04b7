package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/irvision/portal/internal/metrics"
)

// maxRedirects bounds static and guard redirects followed by one navigation
const maxRedirects = 8

// ErrRedirectLoop is returned when a navigation keeps being redirected
var ErrRedirectLoop = errors.New("too many redirects")

// ErrNoHistory is returned by Back when there is nothing to go back to
var ErrNoHistory = errors.New("no previous route")

// Router navigates between routes, running the guard before each entry and
// keeping a history of the routes actually entered
type Router struct {
	table  *Table
	guard  *Guard
	logger *slog.Logger

	mu      sync.Mutex
	history []Route
	after   []func(from, to Route)
}

// New creates a router over table guarded by guard
func New(table *Table, guard *Guard, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		table:  table,
		guard:  guard,
		logger: logger,
	}
}

// AfterEach registers fn to run after every completed navigation
func (r *Router) AfterEach(fn func(from, to Route)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.after = append(r.after, fn)
}

// Current returns the route last entered
func (r *Router) Current() (Route, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.history) == 0 {
		return Route{}, false
	}
	return r.history[len(r.history)-1], true
}

// Push navigates to path and returns the route finally entered, which differs
// from path when a redirect applied. On error the current route is unchanged.
func (r *Router) Push(ctx context.Context, path string) (Route, error) {
	to, err := r.resolve(ctx, path)
	if err != nil {
		return Route{}, err
	}
	r.enter(to, false)
	return to, nil
}

// Back navigates to the previous history entry. The guard runs again, so an
// entry that is no longer allowed redirects like any other navigation.
func (r *Router) Back(ctx context.Context) (Route, error) {
	r.mu.Lock()
	if len(r.history) < 2 {
		r.mu.Unlock()
		return Route{}, ErrNoHistory
	}
	prev := r.history[len(r.history)-2]
	r.mu.Unlock()

	to, err := r.resolve(ctx, prev.Path)
	if err != nil {
		return Route{}, err
	}
	r.enter(to, true)
	return to, nil
}

func (r *Router) resolve(ctx context.Context, path string) (Route, error) {
	requested := path
	for hops := 0; hops <= maxRedirects; hops++ {
		route, ok := r.table.Lookup(path)
		if !ok {
			metrics.RecordNavigation(metrics.NavigationNotFound)
			return Route{}, fmt.Errorf("%w: %s", ErrRouteNotFound, path)
		}
		if route.Redirect != "" {
			path = route.Redirect
			continue
		}

		decision, err := r.guard.BeforeEach(ctx, route)
		if err != nil {
			metrics.RecordNavigation(metrics.NavigationAbort)
			return Route{}, err
		}
		if !decision.Allowed() {
			metrics.RecordNavigation(metrics.NavigationRedirect)
			r.logger.DebugContext(ctx, "router: guard redirect",
				"from", route.Path,
				"to", decision.Redirect,
			)
			path = decision.Redirect
			continue
		}

		metrics.RecordNavigation(metrics.NavigationAllow)
		r.logger.DebugContext(ctx, "router: navigation allowed",
			"requested", requested,
			"route", route.Path,
		)
		return route, nil
	}

	metrics.RecordNavigation(metrics.NavigationAbort)
	return Route{}, fmt.Errorf("navigate to %s: %w", requested, ErrRedirectLoop)
}

func (r *Router) enter(to Route, back bool) {
	r.mu.Lock()
	var from Route
	if n := len(r.history); n > 0 {
		from = r.history[n-1]
	}
	if back && len(r.history) >= 2 {
		// drop the entry we came from and the one we returned to; to is appended below
		r.history = r.history[:len(r.history)-2]
	}
	r.history = append(r.history, to)
	hooks := append([]func(from, to Route){}, r.after...)
	r.mu.Unlock()

	for _, fn := range hooks {
		fn(from, to)
	}
}
