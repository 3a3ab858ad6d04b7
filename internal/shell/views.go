package shell

import (
	"fmt"
	"strings"

	"github.com/irvision/portal/internal/apiclient"
	"github.com/irvision/portal/internal/apipaths"
	"github.com/irvision/portal/internal/router"
)

func (s *Shell) render(to router.Route) {
	var b strings.Builder
	user := s.store.User()

	switch to.Path {
	case apipaths.RouteLogin:
		b.WriteString("== 登录 Login ==\n")
		b.WriteString("  login <username> <password>\n")
		b.WriteString("  no account? open /register\n")
	case apipaths.RouteRegister:
		b.WriteString("== 注册 Register ==\n")
		b.WriteString("  register <username> <password>   (password: at least 6 characters)\n")
		b.WriteString("  have an account? open /login\n")
	case apipaths.RouteHome:
		b.WriteString("== Home ==\n")
		b.WriteString("  welcome, " + user.DisplayName() + "\n")
		b.WriteString("  open /profile to see your account, logout to sign out\n")
	case apipaths.RouteProfile:
		b.WriteString("== Profile ==\n")
		if user != nil {
			if user.Username != "" {
				b.WriteString("  username: " + user.Username + "\n")
			}
			if user.ID != "" {
				b.WriteString("  id:       " + user.ID + "\n")
			}
			if len(user.Raw) > 0 {
				b.WriteString("  record:   " + string(user.Raw) + "\n")
			}
		}
	default:
		b.WriteString("== " + to.Path + " ==\n")
	}

	s.printf("\n%s", b.String())
}

func historyView(h *apiclient.UsageHistory) string {
	var b strings.Builder

	b.WriteString("  last 7 days:\n")
	for _, d := range h.RecentUsage {
		fmt.Fprintf(&b, "    %s  %3d %s\n", d.Date, d.Count, strings.Repeat("#", d.Count))
	}

	if len(h.Cases) == 0 {
		b.WriteString("  cases: none yet\n")
		return b.String()
	}
	fmt.Fprintf(&b, "  cases (%d):\n", len(h.Cases))
	for _, c := range h.Cases {
		result := "pending"
		if c.Result != nil {
			result = fmt.Sprintf("%.4g", *c.Result)
		}
		created := c.CreatedAt
		if created == "" {
			created = "-"
		}
		fmt.Fprintf(&b, "    %-24s %-19s %s\n", c.CaseID, created, result)
	}
	return b.String()
}
