// Package revalidate periodically re-checks a logged-in session against the
// API so a session that expired server-side is noticed without waiting for
// the next navigation.
package revalidate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/irvision/portal/internal/domain"
	"github.com/irvision/portal/internal/session"
	"github.com/robfig/cron/v3"
)

// Session is the part of the session store the scheduler uses
type Session interface {
	User() *domain.Identity
	Refresh(ctx context.Context) session.RefreshResult
}

// Scheduler runs a session check on a cron schedule
type Scheduler struct {
	cron      *cron.Cron
	session   Session
	onExpired func(previous *domain.Identity)
	logger    *slog.Logger
}

// New creates a scheduler for spec (standard cron syntax or descriptors such
// as "@every 5m"). onExpired is called when a check finds that a previously
// logged-in user no longer has a session.
func New(spec string, s Session, onExpired func(previous *domain.Identity), logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sch := &Scheduler{
		cron:      cron.New(),
		session:   s,
		onExpired: onExpired,
		logger:    logger,
	}
	if _, err := sch.cron.AddFunc(spec, func() { sch.Check(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid revalidate schedule %q: %w", spec, err)
	}
	return sch, nil
}

// Start begins running checks in the background
func (s *Scheduler) Start() {
	s.logger.Info("session revalidation started", "entries", len(s.cron.Entries()))
	s.cron.Start()
}

// Stop stops the schedule and waits for a running check to finish or ctx to end
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// Check refreshes the session if a user is logged in. Anonymous sessions are
// left alone; the guard refreshes those on the next navigation. onExpired
// only runs when the server dropped the session, not after a local logout.
func (s *Scheduler) Check(ctx context.Context) session.Outcome {
	previous := s.session.User()
	if previous == nil {
		return session.LoggedOut
	}

	res := s.session.Refresh(ctx)
	switch {
	case res.Superseded:
		s.logger.DebugContext(ctx, "session changed during revalidation", "outcome", res.Outcome)
	case res.Outcome == session.LoggedOut:
		s.logger.InfoContext(ctx, "session expired on server", "username", previous.DisplayName())
		if s.onExpired != nil {
			s.onExpired(previous)
		}
	case res.Outcome == session.Indeterminate:
		s.logger.WarnContext(ctx, "session revalidation failed", "error", res.Err)
	}
	return res.Outcome
}
