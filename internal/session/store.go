// Package session holds the authentication state of the running portal and
// is the only place that performs session-affecting API calls.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/irvision/portal/internal/apiclient"
	"github.com/irvision/portal/internal/domain"
	"github.com/irvision/portal/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// API is the part of the auth API the store needs. *apiclient.Client implements it.
type API interface {
	Me(ctx context.Context) (*domain.Identity, error)
	Login(ctx context.Context, username, password string) (*apiclient.AuthResponse, error)
	Register(ctx context.Context, username, password string) (*apiclient.AuthResponse, error)
	Logout(ctx context.Context) error
}

// State is a snapshot of the session
type State struct {
	User    *domain.Identity
	Loading bool
}

// Authenticated reports whether a user is present
func (s State) Authenticated() bool { return s.User != nil }

// Store owns the session. Create one per process with NewStore and pass it
// to whatever needs it; the zero value is not usable.
type Store struct {
	api    API
	logger *slog.Logger

	mu       sync.RWMutex
	user     *domain.Identity
	inflight int
	actions  int    // login, register and logout requests in flight
	gen      uint64 // bumped by every login, register and logout

	refreshes singleflight.Group

	listenersMu  sync.Mutex
	listeners    map[int]func(State)
	nextListener int
}

// NewStore creates a store with no user and nothing in flight
func NewStore(api API, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		api:       api,
		logger:    logger,
		listeners: make(map[int]func(State)),
	}
}

// User returns the current identity, or nil when nobody is logged in
func (s *Store) User() *domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Loading reports whether a session-affecting request is in flight
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inflight > 0
}

// State returns a snapshot of user and loading
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

// Subscribe registers fn to be called with the new state after every change.
// fn runs on the goroutine that made the change and must not block.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.listenersMu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

// Login authenticates with the API. A rejection returns an error matching
// domain.ErrAuthenticationFailed that carries the server's message.
func (s *Store) Login(ctx context.Context, username, password string) error {
	return s.authenticate(ctx, "login", username, password, s.api.Login, domain.NewAuthenticationError)
}

// Register creates an account and logs in as it. A rejection returns an error
// matching domain.ErrRegistrationFailed.
func (s *Store) Register(ctx context.Context, username, password string) error {
	return s.authenticate(ctx, "register", username, password, s.api.Register, domain.NewRegistrationError)
}

type authCall func(ctx context.Context, username, password string) (*apiclient.AuthResponse, error)

func (s *Store) authenticate(ctx context.Context, action, username, password string, call authCall, reject func(string) error) error {
	s.begin(true)
	defer s.end(true)

	resp, err := call(ctx, username, password)
	if err != nil {
		metrics.RecordSessionAction(action, metrics.ResultError)
		return fmt.Errorf("%s: %w", action, err)
	}
	if !resp.OK {
		metrics.RecordSessionAction(action, metrics.ResultRejected)
		s.logger.InfoContext(ctx, "session: "+action+" rejected", "username", username, "msg", resp.Msg)
		return reject(resp.Msg)
	}
	if resp.User == nil {
		metrics.RecordSessionAction(action, metrics.ResultError)
		return fmt.Errorf("%s: %w", action, domain.WrapTransport(action, errors.New("response has ok=true but no user")))
	}

	s.setUser(resp.User)
	metrics.RecordSessionAction(action, metrics.ResultOK)
	s.logger.InfoContext(ctx, "session: "+action+" succeeded", "username", resp.User.DisplayName())
	return nil
}

// Logout ends the server session and clears the local one. The local user
// is cleared even when the request fails; the failure is still returned so
// the caller can report it.
func (s *Store) Logout(ctx context.Context) error {
	s.begin(true)
	defer s.end(true)

	err := s.api.Logout(ctx)
	s.setUser(nil)

	if err != nil {
		metrics.RecordSessionAction("logout", metrics.ResultError)
		s.logger.WarnContext(ctx, "session: logout request failed, local session cleared anyway", "error", err)
		return fmt.Errorf("logout: %w", err)
	}
	metrics.RecordSessionAction("logout", metrics.ResultOK)
	return nil
}

func (s *Store) stateLocked() State {
	return State{User: s.user, Loading: s.inflight > 0}
}

// begin and end bracket every session request; end must be deferred so
// loading is released on every exit path. action marks a login, register
// or logout as opposed to a refresh.
func (s *Store) begin(action bool) {
	s.mu.Lock()
	s.inflight++
	if action {
		s.actions++
	}
	st := s.stateLocked()
	s.mu.Unlock()
	metrics.SessionRequestsInFlight.Inc()
	s.notify(st)
}

func (s *Store) end(action bool) {
	s.mu.Lock()
	s.inflight--
	if action {
		s.actions--
	}
	st := s.stateLocked()
	s.mu.Unlock()
	metrics.SessionRequestsInFlight.Dec()
	s.notify(st)
}

func (s *Store) setUser(user *domain.Identity) {
	s.mu.Lock()
	s.user = user
	s.gen++
	st := s.stateLocked()
	s.mu.Unlock()
	s.notify(st)
}

func (s *Store) notify(st State) {
	s.listenersMu.Lock()
	fns := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}
