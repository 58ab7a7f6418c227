package server

import (
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-tenant-bridge/internal/hostutil"
	"github.com/jrsteele09/go-tenant-bridge/sessions"
)

// loginSessionCookieName is the cookie of the shared login domain.
const loginSessionCookieName = "login_session_id"

// tenantSessionCookieFormat names the per-tenant session cookie. The
// tenant ID is part of the name so no two tenant domains ever share a
// cookie even behind a misconfigured proxy.
const tenantSessionCookieFormat = "tenant_session_%s"

// scopeForRequest selects the session space for a request from its host:
// the canonical login host gets the login scope, any other host gets the
// scope of the tenant named by its leftmost label.
func (s *Server) scopeForRequest(r *http.Request) sessions.Scope {
	if s.isLoginHost(r.Host) {
		return sessions.LoginScope
	}
	return sessions.TenantScope(hostutil.Subdomain(r.Host))
}

func (s *Server) isLoginHost(host string) bool {
	return hostutil.Hostname(host) == s.config.GetLoginHost()
}

func cookieNameForScope(scope sessions.Scope) string {
	if scope.IsTenant() {
		return fmt.Sprintf(tenantSessionCookieFormat, scope.TenantID())
	}
	return loginSessionCookieName
}

// sessionIDFromRequest reads the session cookie of the given scope.
// Returns "" when the cookie is absent.
func sessionIDFromRequest(r *http.Request, scope sessions.Scope) string {
	cookie, err := r.Cookie(cookieNameForScope(scope))
	if err != nil {
		return ""
	}
	return cookie.Value
}

// setSessionCookie binds sessionID to the scope's cookie. The Domain
// attribute is the exact request hostname, so a login-domain cookie is
// never presented to a tenant domain and vice versa.
func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, scope sessions.Scope, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieNameForScope(scope),
		Value:    sessionID,
		Path:     "/",
		Domain:   hostutil.Hostname(r.Host),
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.config.GetSessionMaxAge().Seconds()),
	})
}

// clearSessionCookie expires the scope's cookie immediately.
func (s *Server) clearSessionCookie(w http.ResponseWriter, r *http.Request, scope sessions.Scope) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieNameForScope(scope),
		Value:    "",
		Path:     "/",
		Domain:   hostutil.Hostname(r.Host),
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
