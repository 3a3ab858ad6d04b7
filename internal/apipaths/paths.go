package apipaths

// API endpoints consumed by the portal and the routes it exposes.
// Used by the api client, the router and the test fake.

const (
	AuthMe       = "/api/auth/me"
	AuthLogin    = "/api/auth/login"
	AuthRegister = "/api/auth/register"
	AuthLogout   = "/api/auth/logout"

	UserHistory = "/api/user/history"
)

const (
	RouteRoot     = "/"
	RouteLogin    = "/login"
	RouteRegister = "/register"
	RouteHome     = "/home"
	RouteProfile  = "/profile"
)

// IsAuthOnly reports whether path is a screen an authenticated user should not see.
func IsAuthOnly(path string) bool { return path == RouteLogin || path == RouteRegister }
