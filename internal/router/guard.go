package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/irvision/portal/internal/apipaths"
	"github.com/irvision/portal/internal/domain"
	"github.com/irvision/portal/internal/session"
)

// IndeterminatePolicy tells the guard what to do when the session could not
// be determined because the API was unreachable
type IndeterminatePolicy string

const (
	// PolicyAbort fails the navigation with the refresh error.
	PolicyAbort IndeterminatePolicy = "abort"
	// PolicyAnonymous treats the visitor as logged out.
	PolicyAnonymous IndeterminatePolicy = "anonymous"
)

// ErrSessionUnknown wraps the refresh failure that aborted a navigation
var ErrSessionUnknown = errors.New("session state unknown")

// ParsePolicy parses a policy name; empty means PolicyAbort
func ParsePolicy(s string) (IndeterminatePolicy, error) {
	switch IndeterminatePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyAbort:
		return PolicyAbort, nil
	case PolicyAnonymous:
		return PolicyAnonymous, nil
	default:
		return "", fmt.Errorf("unknown indeterminate policy %q (want %q or %q)", s, PolicyAbort, PolicyAnonymous)
	}
}

// SessionState is what the guard needs from the session store
type SessionState interface {
	EnsureKnown(ctx context.Context) session.RefreshResult
}

// Decision is the guard's verdict for one navigation. An empty Redirect allows it.
type Decision struct {
	Redirect string
}

// Allowed reports whether the navigation may proceed to the requested route
func (d Decision) Allowed() bool { return d.Redirect == "" }

// Guard decides, before every route entry, whether the route may be entered
type Guard struct {
	session SessionState
	policy  IndeterminatePolicy
	logger  *slog.Logger
}

// NewGuard creates a guard over the session store
func NewGuard(s SessionState, policy IndeterminatePolicy, logger *slog.Logger) *Guard {
	if policy == "" {
		policy = PolicyAbort
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{session: s, policy: policy, logger: logger}
}

// BeforeEach runs before entering to. When no user is known and no login,
// register or logout is in flight it first waits for a refresh (joining one
// already in flight), then:
//   - a route that requires auth without a user redirects to /login
//   - /login or /register with a user redirects to /home
//   - anything else is allowed
func (g *Guard) BeforeEach(ctx context.Context, to Route) (Decision, error) {
	res := g.session.EnsureKnown(ctx)
	user := res.User

	if res.Outcome == session.Indeterminate && user == nil {
		if g.policy == PolicyAbort {
			g.logger.WarnContext(ctx, "guard: session unknown, aborting navigation",
				"path", to.Path,
				"error", res.Err,
			)
			return Decision{}, fmt.Errorf("navigate to %s: %w: %w", to.Path, ErrSessionUnknown, res.Err)
		}
		g.logger.DebugContext(ctx, "guard: session unknown, treating as anonymous", "path", to.Path)
	}

	return decide(to, user), nil
}

func decide(to Route, user *domain.Identity) Decision {
	if to.RequiresAuth && user == nil {
		return Decision{Redirect: apipaths.RouteLogin}
	}
	if apipaths.IsAuthOnly(to.Path) && user != nil {
		return Decision{Redirect: apipaths.RouteHome}
	}
	return Decision{}
}
