package router

import (
	"context"
	"errors"
	"testing"

	"github.com/irvision/portal/internal/domain"
	"github.com/irvision/portal/internal/logger"
	"github.com/irvision/portal/internal/session"
)

type stubSession struct {
	result session.RefreshResult
	calls  int
}

func (s *stubSession) EnsureKnown(context.Context) session.RefreshResult {
	s.calls++
	return s.result
}

var (
	alice = &domain.Identity{ID: "1", Username: "alice"}

	loginRoute    = Route{Path: "/login", Name: "login"}
	registerRoute = Route{Path: "/register", Name: "register"}
	homeRoute     = Route{Path: "/home", Name: "home", RequiresAuth: true}
	profileRoute  = Route{Path: "/profile", Name: "profile", RequiresAuth: true}
)

func TestGuard_BeforeEach(t *testing.T) {
	loggedIn := session.RefreshResult{Outcome: session.LoggedIn, User: alice}
	loggedOut := session.RefreshResult{Outcome: session.LoggedOut}

	tests := []struct {
		name         string
		result       session.RefreshResult
		to           Route
		wantRedirect string
	}{
		{name: "anonymous to protected", result: loggedOut, to: homeRoute, wantRedirect: "/login"},
		{name: "anonymous to profile", result: loggedOut, to: profileRoute, wantRedirect: "/login"},
		{name: "anonymous to login", result: loggedOut, to: loginRoute},
		{name: "anonymous to register", result: loggedOut, to: registerRoute},
		{name: "user to protected", result: loggedIn, to: profileRoute},
		{name: "user to login", result: loggedIn, to: loginRoute, wantRedirect: "/home"},
		{name: "user to register", result: loggedIn, to: registerRoute, wantRedirect: "/home"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubSession{result: tt.result}
			g := NewGuard(stub, PolicyAbort, logger.Discard())

			d, err := g.BeforeEach(context.Background(), tt.to)
			if err != nil {
				t.Fatalf("BeforeEach() error = %v", err)
			}
			if d.Redirect != tt.wantRedirect {
				t.Errorf("Redirect = %q, want %q", d.Redirect, tt.wantRedirect)
			}
			if d.Allowed() != (tt.wantRedirect == "") {
				t.Errorf("Allowed() = %v", d.Allowed())
			}
			if stub.calls != 1 {
				t.Errorf("EnsureKnown calls = %d, want 1", stub.calls)
			}
		})
	}
}

func TestGuard_IndeterminatePolicy(t *testing.T) {
	cause := domain.WrapTransport("GET /api/auth/me", errors.New("connection refused"))
	unknown := session.RefreshResult{Outcome: session.Indeterminate, Err: cause}

	t.Run("abort fails the navigation", func(t *testing.T) {
		g := NewGuard(&stubSession{result: unknown}, PolicyAbort, logger.Discard())
		_, err := g.BeforeEach(context.Background(), homeRoute)
		if !errors.Is(err, ErrSessionUnknown) {
			t.Errorf("error = %v, want ErrSessionUnknown", err)
		}
		if !errors.Is(err, cause) {
			t.Errorf("error = %v, want to wrap the refresh failure", err)
		}
	})

	t.Run("anonymous redirects protected routes to login", func(t *testing.T) {
		g := NewGuard(&stubSession{result: unknown}, PolicyAnonymous, logger.Discard())
		d, err := g.BeforeEach(context.Background(), homeRoute)
		if err != nil {
			t.Fatalf("BeforeEach() error = %v", err)
		}
		if d.Redirect != "/login" {
			t.Errorf("Redirect = %q, want /login", d.Redirect)
		}
	})

	t.Run("known user is kept even when refresh failed", func(t *testing.T) {
		res := session.RefreshResult{Outcome: session.Indeterminate, User: alice, Err: cause}
		g := NewGuard(&stubSession{result: res}, PolicyAbort, logger.Discard())
		d, err := g.BeforeEach(context.Background(), profileRoute)
		if err != nil {
			t.Fatalf("BeforeEach() error = %v", err)
		}
		if !d.Allowed() {
			t.Errorf("Redirect = %q, want allowed", d.Redirect)
		}
	})
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    IndeterminatePolicy
		wantErr bool
	}{
		{in: "", want: PolicyAbort},
		{in: "abort", want: PolicyAbort},
		{in: " Anonymous ", want: PolicyAnonymous},
		{in: "retry", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePolicy(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
