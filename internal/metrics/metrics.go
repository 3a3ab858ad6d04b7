// Package metrics provides Prometheus instrumentation for the portal shell.
// It counts navigation decisions made by the router guard and the outcome of
// every session action.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Navigation outcomes
const (
	NavigationAllow    = "allow"
	NavigationRedirect = "redirect"
	NavigationAbort    = "abort"
	NavigationNotFound = "not_found"
)

// Session action results
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
	ResultShared   = "shared"
)

var (
	// NavigationsTotal counts guarded navigations, labeled by outcome:
	// "allow", "redirect", "abort" or "not_found".
	NavigationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_navigations_total",
		Help: "Total number of route navigations by outcome",
	}, []string{"outcome"})

	// SessionActionsTotal counts session actions, labeled by action
	// (refresh, login, register, logout) and result.
	SessionActionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_session_actions_total",
		Help: "Total number of session actions by action and result",
	}, []string{"action", "result"})

	// SessionRequestsInFlight tracks session-affecting API requests currently in flight.
	SessionRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "portal_session_requests_in_flight",
		Help: "Current number of in-flight session requests",
	})
)

func init() {
	prometheus.MustRegister(
		NavigationsTotal,
		SessionActionsTotal,
		SessionRequestsInFlight,
	)
}

// RecordNavigation increments the navigation counter for outcome.
func RecordNavigation(outcome string) {
	NavigationsTotal.WithLabelValues(outcome).Inc()
}

// RecordSessionAction increments the session action counter.
func RecordSessionAction(action, result string) {
	SessionActionsTotal.WithLabelValues(action, result).Inc()
}

// Handler returns an HTTP handler that serves the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
