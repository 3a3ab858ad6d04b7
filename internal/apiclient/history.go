package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/irvision/portal/internal/apipaths"
	"github.com/irvision/portal/internal/domain"
)

// DailyUsage is the number of cases created on one day
type DailyUsage struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// CaseSummary is one detection case owned by the user.
// Result is nil when the case has no numeric result yet.
type CaseSummary struct {
	CaseID    string   `json:"case_id"`
	CreatedAt string   `json:"created_at"`
	Result    *float64 `json:"result"`
}

// UsageHistory is the signed-in user's activity: per-day usage for the last
// seven days (oldest first) and every case, newest first.
type UsageHistory struct {
	OK          bool          `json:"ok"`
	Msg         string        `json:"msg,omitempty"`
	Username    string        `json:"username"`
	RecentUsage []DailyUsage  `json:"recent_usage"`
	Cases       []CaseSummary `json:"cases"`
}

// History fetches the signed-in user's usage history. A 401 is reported as
// domain.ErrUnauthenticated so callers can treat it as a lost session.
func (c *Client) History(ctx context.Context) (*UsageHistory, error) {
	op := http.MethodGet + " " + apipaths.UserHistory

	resp, err := c.do(ctx, http.MethodGet, apipaths.UserHistory, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		var body UsageHistory
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return nil, domain.NewUnauthenticatedError(body.Msg)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(http.MethodGet, apipaths.UserHistory, resp)
	}

	var body UsageHistory
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, domain.WrapTransport(op, fmt.Errorf("failed to decode response: %w", err))
	}
	if !body.OK {
		return nil, domain.WrapTransport(op, fmt.Errorf("server reported failure: %s", body.Msg))
	}
	return &body, nil
}
