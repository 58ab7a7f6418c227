package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-tenant-bridge/auth"
	"github.com/jrsteele09/go-tenant-bridge/handoff"
	"github.com/jrsteele09/go-tenant-bridge/internal/hostutil"
	"github.com/jrsteele09/go-tenant-bridge/sessions"
)

type loginRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

// LoginHandler authenticates credentials and establishes the
// login-domain session. Only served on the canonical login host.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.isLoginHost(r.Host) {
			writeUnauthorized(w, reasonInvalidHost)
			return
		}

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid_request"}`, http.StatusBadRequest)
			return
		}
		if req.Email == "" || req.Secret == "" {
			http.Error(w, `{"error":"invalid_request","error_description":"email and secret are required"}`, http.StatusBadRequest)
			return
		}

		// Reuse an existing cookie value so re-login overwrites the
		// session rather than orphaning it.
		sessionID := sessionIDFromRequest(r, sessions.LoginScope)
		if sessionID == "" {
			sessionID = uuid.New().String()
		}

		principal, err := s.auth.Login(r.Context(), sessionID, req.Email, req.Secret)
		if err != nil {
			s.writeAuthError(w, err)
			return
		}

		s.setSessionCookie(w, r, sessions.LoginScope, sessionID)
		writeJSON(w, http.StatusOK, map[string]interface{}{"principal": principal})
	}
}

// LogoutHandler destroys whichever session scope is active for the
// request host. Succeeds whether or not a session existed.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope := s.scopeForRequest(r)
		sessionID := sessionIDFromRequest(r, scope)

		if err := s.auth.Logout(r.Context(), scope, sessionID); err != nil {
			s.writeAuthError(w, err)
			return
		}

		s.clearSessionCookie(w, r, scope)
		writeJSON(w, http.StatusOK, map[string]interface{}{"message": "logged out"})
	}
}

// ValidateSessionHandler reports whether the request carries a live,
// bound session in its host's scope. Never an error, only valid=false.
func (s *Server) ValidateSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope := s.scopeForRequest(r)
		valid := false
		if sessionID := sessionIDFromRequest(r, scope); sessionID != "" {
			record, err := s.repos.Sessions.Get(r.Context(), scope, sessionID)
			valid = err == nil && record.Authenticated()
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"valid": valid})
	}
}

// InitSessionHandler starts a handoff: it issues a one-time token for
// the requested tenant and redirects to the tenant-domain verification
// URL. Runs behind RequireLoginSession.
func (s *Server) InitSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := r.PathValue("tenantID")
		record, ok := r.Context().Value(ContextKeySession).(sessions.Record)
		if !ok {
			writeUnauthorized(w, reasonNotAuthenticated)
			return
		}

		redirect, err := s.auth.InitiateHandoff(record, tenantID, getScheme(r), hostutil.Port(r.Host))
		if err != nil {
			s.writeAuthError(w, err)
			return
		}

		http.Redirect(w, r, redirect, http.StatusFound)
	}
}

// VerifyTokenHandler redeems a handoff token on a tenant host, sets the
// tenant-domain session cookie and redirects to the tenant root.
func (s *Server) VerifyTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.PathValue("token")

		sessionID := uuid.New().String()
		record, err := s.auth.RedeemHandoff(r.Context(), token, r.Host, sessionID)
		if err != nil {
			s.writeAuthError(w, err)
			return
		}

		s.setSessionCookie(w, r, sessions.TenantScope(record.TenantID), sessionID)
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

// PingHandler refreshes the tenant session (done by the guard) and
// returns the server timestamp. Runs behind RequireTenantSession.
func (s *Server) PingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"timestamp": s.nowTime().UnixMilli(),
		})
	}
}

// writeAuthError maps the auth error taxonomy onto HTTP statuses.
// Persistence failures are the only 5xx; everything else is a client
// authorization failure.
func (s *Server) writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		http.Error(w, `{"error":"invalid_credentials"}`, http.StatusUnauthorized)
	case errors.Is(err, auth.ErrUnauthorized):
		writeUnauthorized(w, reasonNotAuthenticated)
	case errors.Is(err, auth.ErrTenantNotGranted):
		http.Error(w, `{"error":"forbidden","reason":"tenant_not_granted"}`, http.StatusForbidden)
	case errors.Is(err, handoff.ErrTokenInvalid):
		http.Error(w, `{"error":"unauthorized","reason":"token_invalid"}`, http.StatusUnauthorized)
	case errors.Is(err, handoff.ErrTokenExpired):
		http.Error(w, `{"error":"unauthorized","reason":"token_expired"}`, http.StatusUnauthorized)
	case errors.Is(err, handoff.ErrTenantMismatch):
		writeUnauthorized(w, reasonTenantMismatch)
	case errors.Is(err, auth.ErrSessionPersistence):
		http.Error(w, `{"error":"session_persistence_failed"}`, http.StatusInternalServerError)
	default:
		log.Err(err).Msg("unexpected auth error")
		http.Error(w, `{"error":"internal_error"}`, http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("failed to encode response body")
	}
}
