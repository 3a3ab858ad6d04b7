package session

import (
	"context"

	"github.com/irvision/portal/internal/domain"
	"github.com/irvision/portal/internal/metrics"
)

// Outcome classifies what a refresh learned about the session
type Outcome int

const (
	// Indeterminate means the API could not be reached or answered garbage;
	// the stored user was left as it was.
	Indeterminate Outcome = iota
	// LoggedOut means the API confirmed there is no session.
	LoggedOut
	// LoggedIn means the API confirmed a session and returned its user.
	LoggedIn
)

func (o Outcome) String() string {
	switch o {
	case LoggedIn:
		return "logged_in"
	case LoggedOut:
		return "logged_out"
	default:
		return "indeterminate"
	}
}

// RefreshResult is what Refresh returns to every caller sharing a request
type RefreshResult struct {
	Outcome Outcome
	User    *domain.Identity // user after the refresh settled
	Err     error            // set when Outcome is Indeterminate

	// Superseded is set when a login, register or logout settled while the
	// request was in flight; Outcome then reflects that action, not the server's answer.
	Superseded bool
}

const refreshKey = "me"

// Refresh asks the API who is logged in and stores the answer.
//
// Refresh never returns an error directly: a failed request yields an
// Indeterminate result with Err set and leaves the stored user unchanged.
// If a refresh is already in flight, the caller waits for that one instead
// of issuing another request. The shared request is not canceled when one
// waiter's ctx is; a waiter whose ctx ends gets an Indeterminate result.
func (s *Store) Refresh(ctx context.Context) RefreshResult {
	ch := s.refreshes.DoChan(refreshKey, func() (interface{}, error) {
		return s.refresh(context.WithoutCancel(ctx)), nil
	})

	select {
	case r := <-ch:
		res := r.Val.(RefreshResult)
		if r.Shared {
			metrics.RecordSessionAction("refresh", metrics.ResultShared)
		}
		return res
	case <-ctx.Done():
		return RefreshResult{Outcome: Indeterminate, User: s.User(), Err: ctx.Err()}
	}
}

// EnsureKnown refreshes only when no user is stored, which is the state in
// which the session is not yet known. A stored user is trusted as is. While a
// login, register or logout is in flight no refresh is issued and the
// session is reported as it stands.
func (s *Store) EnsureKnown(ctx context.Context) RefreshResult {
	s.mu.RLock()
	user, acting := s.user, s.actions > 0
	s.mu.RUnlock()

	switch {
	case user != nil:
		return RefreshResult{Outcome: LoggedIn, User: user}
	case acting:
		return RefreshResult{Outcome: LoggedOut}
	}
	return s.Refresh(ctx)
}

func (s *Store) refresh(ctx context.Context) RefreshResult {
	s.begin(false)
	defer s.end(false)

	s.mu.RLock()
	startGen := s.gen
	s.mu.RUnlock()

	user, err := s.api.Me(ctx)
	if err != nil {
		metrics.RecordSessionAction("refresh", metrics.ResultError)
		s.logger.WarnContext(ctx, "session: refresh failed, keeping current state", "error", err)
		return RefreshResult{Outcome: Indeterminate, User: s.User(), Err: err}
	}
	metrics.RecordSessionAction("refresh", metrics.ResultOK)

	// A login, register or logout that finished while /me was in flight is
	// newer than this answer; keep its result.
	s.mu.Lock()
	stale := s.gen != startGen
	if !stale {
		s.user = user
	}
	current := s.user
	st := s.stateLocked()
	s.mu.Unlock()

	if stale {
		s.logger.DebugContext(ctx, "session: discarding stale refresh result")
	} else {
		s.notify(st)
		s.logger.DebugContext(ctx, "session: refreshed", "authenticated", current != nil)
	}

	if current == nil {
		return RefreshResult{Outcome: LoggedOut, Superseded: stale}
	}
	return RefreshResult{Outcome: LoggedIn, User: current, Superseded: stale}
}
