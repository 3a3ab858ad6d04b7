// Package shell is the terminal front end of the portal: it reads commands,
// drives the router and session store, and renders a text view for every
// route entered.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/irvision/portal/internal/apiclient"
	"github.com/irvision/portal/internal/apipaths"
	"github.com/irvision/portal/internal/domain"
	"github.com/irvision/portal/internal/router"
	"github.com/irvision/portal/internal/session"
)

// HistoryAPI loads the data behind the profile page
type HistoryAPI interface {
	History(ctx context.Context) (*apiclient.UsageHistory, error)
}

// Shell is an interactive session over one router and one session store
type Shell struct {
	store   *session.Store
	router  *router.Router
	history HistoryAPI
	logger  *slog.Logger

	outMu sync.Mutex
	out   io.Writer
}

// New creates a shell writing to out. Every route the router enters is
// rendered; the profile page is filled in from history.
func New(store *session.Store, r *router.Router, history HistoryAPI, out io.Writer, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Shell{
		store:   store,
		router:  r,
		history: history,
		logger:  logger,
		out:     out,
	}
	r.AfterEach(func(_, to router.Route) { s.render(to) })
	return s
}

// Run opens the start page and then executes commands from in until quit,
// end of input or ctx cancellation
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	s.printf("IR-vision portal. Type 'help' for commands.\n")
	s.navigate(ctx, apipaths.RouteRoot)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
		close(lines)
	}()

	for {
		s.prompt()
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			if quit := s.Exec(ctx, line); quit {
				return nil
			}
		}
	}
}

// Exec runs one command line and reports whether the shell should exit
func (s *Shell) Exec(ctx context.Context, line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "open", "go":
		if len(args) != 1 {
			s.printf("usage: open <path>\n")
			return false
		}
		s.navigate(ctx, args[0])
	case "login", "register":
		if len(args) != 2 {
			s.printf("usage: %s <username> <password>\n", cmd)
			return false
		}
		s.authenticate(ctx, cmd, args[0], args[1])
	case "logout":
		if err := s.store.Logout(ctx); err != nil {
			s.printf("warning: logout request failed, signed out locally (%v)\n", err)
		}
		s.navigate(ctx, apipaths.RouteLogin)
	case "whoami":
		st := s.store.State()
		switch {
		case st.Loading:
			s.printf("checking session...\n")
		case st.User == nil:
			s.printf("not logged in\n")
		default:
			s.printf("%s\n", st.User.DisplayName())
		}
	case "back":
		to, err := s.router.Back(ctx)
		if err != nil {
			s.reportNavError(err)
			return false
		}
		s.load(ctx, to)
	case "help", "?":
		s.printf("%s", helpText)
	case "quit", "exit":
		return true
	default:
		s.printf("unknown command %q, type 'help'\n", cmd)
	}
	return false
}

// SessionExpired is called when the session ended outside the shell's
// control; it re-runs the guard on the current page.
func (s *Shell) SessionExpired(ctx context.Context, previous *domain.Identity) {
	s.expired(ctx, previous)
	s.prompt()
}

func (s *Shell) expired(ctx context.Context, previous *domain.Identity) {
	s.printf("\nsession for %s has expired\n", previous.DisplayName())
	if cur, ok := s.router.Current(); ok {
		s.navigate(ctx, cur.Path)
	}
}

const helpText = `commands:
  open <path>                  go to a page (/home, /profile, /login, /register)
  login <username> <password>  sign in
  register <username> <password>
                               create an account and sign in
  logout                       sign out
  whoami                       show the signed-in user
  back                         return to the previous page
  help                         show this help
  quit                         exit
`

func (s *Shell) authenticate(ctx context.Context, cmd, username, password string) {
	var err error
	if cmd == "login" {
		err = s.store.Login(ctx, username, password)
	} else {
		err = s.store.Register(ctx, username, password)
	}
	if err != nil {
		if domain.IsRejection(err) {
			s.printf("%s\n", domain.UserMessage(err))
			return
		}
		s.logger.ErrorContext(ctx, "shell: "+cmd+" failed", "error", err)
		s.printf("%s failed: %v\n", cmd, err)
		return
	}
	s.navigate(ctx, apipaths.RouteHome)
}

func (s *Shell) navigate(ctx context.Context, path string) {
	to, err := s.router.Push(ctx, path)
	if err != nil {
		s.reportNavError(err)
		return
	}
	s.load(ctx, to)
}

// load fetches the data of a page after it was entered
func (s *Shell) load(ctx context.Context, to router.Route) {
	if to.Path != apipaths.RouteProfile || s.history == nil {
		return
	}

	h, err := s.history.History(ctx)
	switch {
	case err == nil:
		s.printf("%s", historyView(h))
	case domain.IsUnauthenticated(err):
		// the server dropped the session; confirm before sending the user away
		previous := s.store.User()
		res := s.store.Refresh(ctx)
		if res.Outcome == session.LoggedOut && !res.Superseded {
			s.expired(ctx, previous)
			return
		}
		s.printf("history unavailable: %s\n", domain.UserMessage(err))
	default:
		s.logger.ErrorContext(ctx, "shell: history failed", "error", err)
		s.printf("history unavailable: %v\n", err)
	}
}

func (s *Shell) reportNavError(err error) {
	switch {
	case errors.Is(err, router.ErrRouteNotFound):
		s.printf("no such page\n")
	case errors.Is(err, router.ErrSessionUnknown):
		s.printf("cannot reach the server to check your session: %v\n", err)
	case errors.Is(err, router.ErrNoHistory):
		s.printf("nothing to go back to\n")
	default:
		s.printf("navigation failed: %v\n", err)
	}
}

func (s *Shell) prompt() {
	path := "-"
	if cur, ok := s.router.Current(); ok {
		path = cur.Path
	}
	s.printf("portal:%s> ", path)
}

func (s *Shell) printf(format string, args ...interface{}) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}
