package apiclient

import "strings"

const (
	// DefaultBaseOrigin is used when neither an override nor a page origin is known.
	DefaultBaseOrigin = "http://localhost:5001"

	devFrontendPort = ":5173"
	devBackendPort  = ":5001"
)

// ResolveBaseOrigin picks the API origin once at startup.
//
// An explicit override always wins. Without one, the page origin is reused
// with the development frontend port swapped for the backend port; this is a
// development convenience only and production deployments are expected to set
// the override. With no page origin at all the local default is returned.
func ResolveBaseOrigin(override, pageOrigin string) string {
	if o := strings.TrimSpace(override); o != "" {
		return strings.TrimRight(o, "/")
	}
	if o := strings.TrimSpace(pageOrigin); o != "" {
		return strings.TrimRight(strings.Replace(o, devFrontendPort, devBackendPort, 1), "/")
	}
	return DefaultBaseOrigin
}
