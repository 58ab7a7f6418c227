package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Login-domain routes
	RouteLogin               = "/login"
	RouteAuthLogin           = "/auth/login"
	RouteAuthLogout          = "/auth/logout"
	RouteAuthInitSession     = "/auth/init-session/{tenantID}"
	RouteAuthValidateSession = "/auth/validate-session"

	// Tenant-domain routes
	RouteTenantVerifyToken = "/tenant/verify-token/{token}"
	RouteTenantPing        = "/tenant/ping"
)
