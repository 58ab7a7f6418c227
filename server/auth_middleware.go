package server

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-tenant-bridge/internal/hostutil"
	"github.com/jrsteele09/go-tenant-bridge/sessions"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyPrincipalID stores the authenticated principal ID
	ContextKeyPrincipalID ContextKey = "principal_id"
	// ContextKeyTenantID stores the effective tenant ID ("" on shared routes)
	ContextKeyTenantID ContextKey = "tenant_id"
	// ContextKeySession stores the resolved session record
	ContextKeySession ContextKey = "session"
)

// Unauthorized reasons surfaced to clients.
const (
	reasonNoSession        = "no_session"
	reasonNotAuthenticated = "not_authenticated"
	reasonInvalidHost      = "invalid_host"
	reasonSessionExpired   = "session_expired"
	reasonTenantMismatch   = "tenant_mismatch"
)

// RequireLoginSession guards login-domain routes. An unauthenticated
// request to a tenant-login-initiation route (one carrying a {tenantID}
// path parameter) is redirected to the login entry point with the tenant
// as a hint; any other unauthenticated request is rejected outright.
// Login-domain sessions carry no idle timeout: their lifetime is
// governed by cookie expiry alone.
func (s *Server) RequireLoginSession() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			sessionID := sessionIDFromRequest(r, sessions.LoginScope)
			var record sessions.Record
			if sessionID != "" {
				record, _ = s.repos.Sessions.Get(r.Context(), sessions.LoginScope, sessionID)
			}

			if !record.Authenticated() {
				if tenantID := r.PathValue("tenantID"); tenantID != "" {
					s.redirectToLogin(w, r, tenantID)
					return
				}
				writeUnauthorized(w, reasonNotAuthenticated)
				return
			}

			if !s.isLoginHost(r.Host) {
				writeUnauthorized(w, reasonInvalidHost)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyPrincipalID, record.PrincipalID)
			ctx = context.WithValue(ctx, ContextKeySession, record)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireTenantSession guards tenant-domain routes. It enforces the
// idle timeout, refreshes the session's activity timestamp on every
// authorized request, and verifies the session's tenant binding against
// the request host.
func (s *Server) RequireTenantSession() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			scope := s.scopeForRequest(r)

			sessionID := sessionIDFromRequest(r, scope)
			if sessionID == "" {
				writeUnauthorized(w, reasonNoSession)
				return
			}

			record, err := s.repos.Sessions.Get(r.Context(), scope, sessionID)
			if err != nil {
				writeUnauthorized(w, reasonNoSession)
				return
			}
			if !record.Authenticated() {
				writeUnauthorized(w, reasonNotAuthenticated)
				return
			}

			// Idle-timeout check. A missing lastActivity counts as zero
			// idle. Expiry destroys the session before the response goes
			// out; there is no retry from this state.
			now := s.nowTime()
			if !record.LastActivity.IsZero() && now.Sub(record.LastActivity) > s.config.GetTenantIdleTimeout() {
				if err := s.repos.Sessions.Destroy(r.Context(), scope, sessionID); err != nil {
					log.Err(err).Str("scope", string(scope)).Msg("failed to destroy idle-expired session")
					http.Error(w, `{"error":"internal_error"}`, http.StatusInternalServerError)
					return
				}
				s.clearSessionCookie(w, r, scope)
				writeUnauthorized(w, reasonSessionExpired)
				return
			}

			// Monotonic refresh on every authorized call, no-op pings
			// included.
			record.LastActivity = now
			if err := s.repos.Sessions.Set(r.Context(), scope, sessionID, record); err != nil {
				log.Err(err).Str("scope", string(scope)).Msg("failed to refresh session activity")
				http.Error(w, `{"error":"internal_error"}`, http.StatusInternalServerError)
				return
			}

			// Resolve the effective tenant. The canonical login host
			// carries shared routes and binds no tenant; every other
			// host must match the session's bound tenant exactly.
			tenantID := ""
			if !s.isLoginHost(r.Host) {
				if !hostutil.MatchesTenant(r.Host, record.TenantID) {
					writeUnauthorized(w, reasonTenantMismatch)
					return
				}
				tenantID = record.TenantID
			}

			ctx := context.WithValue(r.Context(), ContextKeyPrincipalID, record.PrincipalID)
			ctx = context.WithValue(ctx, ContextKeyTenantID, tenantID)
			ctx = context.WithValue(ctx, ContextKeySession, record)
			next(w, r.WithContext(ctx))
		}
	}
}

func (s *Server) redirectToLogin(w http.ResponseWriter, r *http.Request, tenantID string) {
	target := RouteLogin + "?tenant=" + url.QueryEscape(tenantID)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func writeUnauthorized(w http.ResponseWriter, reason string) {
	http.Error(w, `{"error":"unauthorized","reason":"`+reason+`"}`, http.StatusUnauthorized)
}
