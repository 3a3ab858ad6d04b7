package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/irvision/portal/internal/apipaths"
	"github.com/irvision/portal/internal/apitest"
	"github.com/irvision/portal/internal/domain"
)

func TestClient_History(t *testing.T) {
	api := apitest.New()
	defer api.Close()
	api.AddUser("alice", "correct-horse")
	api.AddUser("bob", "battery-staple")

	now := time.Now()
	score := 0.87
	api.AddCase("alice", "case-old", now.AddDate(0, 0, -2), nil)
	api.AddCase("alice", "case-new", now, &score)
	api.AddCase("alice", "case-ancient", now.AddDate(0, 0, -30), nil)
	api.AddCase("bob", "case-bob", now, nil)

	c := newTestClient(t, api.URL)
	ctx := context.Background()
	if _, err := c.Login(ctx, "alice", "correct-horse"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	h, err := c.History(ctx)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if h.Username != "alice" {
		t.Errorf("Username = %q, want alice", h.Username)
	}

	wantCases := []string{"case-new", "case-old", "case-ancient"}
	if len(h.Cases) != len(wantCases) {
		t.Fatalf("Cases = %+v, want %v", h.Cases, wantCases)
	}
	for i, id := range wantCases {
		if h.Cases[i].CaseID != id {
			t.Errorf("Cases[%d] = %q, want %q", i, h.Cases[i].CaseID, id)
		}
	}
	if h.Cases[0].Result == nil || *h.Cases[0].Result != score {
		t.Errorf("Cases[0].Result = %v, want %v", h.Cases[0].Result, score)
	}
	if h.Cases[1].Result != nil {
		t.Errorf("Cases[1].Result = %v, want nil", *h.Cases[1].Result)
	}

	if len(h.RecentUsage) != 7 {
		t.Fatalf("RecentUsage has %d days, want 7", len(h.RecentUsage))
	}
	total := 0
	for _, d := range h.RecentUsage {
		total += d.Count
	}
	if total != 2 {
		t.Errorf("RecentUsage total = %d, want 2", total)
	}
	if last := h.RecentUsage[6]; last.Date != now.Format("2006-01-02") || last.Count != 1 {
		t.Errorf("RecentUsage[6] = %+v, want today with 1 case", last)
	}
}

func TestClient_HistoryErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantUnauth  bool
		wantMessage string
	}{
		{name: "not logged in", status: http.StatusUnauthorized, body: `{"ok":false,"msg":"未登录"}`, wantUnauth: true, wantMessage: "未登录"},
		{name: "401 without body", status: http.StatusUnauthorized, wantUnauth: true, wantMessage: domain.ErrUnauthenticated.Message},
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"boom"}`},
		{name: "ok false", status: http.StatusOK, body: `{"ok":false,"msg":"broken"}`},
		{name: "not json", status: http.StatusOK, body: `<html></html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != apipaths.UserHistory {
					t.Errorf("path = %q, want %q", r.URL.Path, apipaths.UserHistory)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv.URL).History(context.Background())
			if err == nil {
				t.Fatalf("History() error = nil")
			}
			if got := domain.IsUnauthenticated(err); got != tt.wantUnauth {
				t.Errorf("IsUnauthenticated(%v) = %v, want %v", err, got, tt.wantUnauth)
			}
			if tt.wantUnauth {
				if got := domain.UserMessage(err); got != tt.wantMessage {
					t.Errorf("UserMessage() = %q, want %q", got, tt.wantMessage)
				}
			} else if !domain.IsTransportError(err) {
				t.Errorf("History() error = %v, want transport error", err)
			}
		})
	}
}

func TestClient_HistoryAfterSessionExpiry(t *testing.T) {
	api := apitest.New()
	defer api.Close()
	api.AddUser("alice", "correct-horse")

	c := newTestClient(t, api.URL)
	ctx := context.Background()
	if _, err := c.Login(ctx, "alice", "correct-horse"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	api.ExpireSessions()

	if _, err := c.History(ctx); !domain.IsUnauthenticated(err) {
		t.Errorf("History() error = %v, want unauthenticated", err)
	}
}
