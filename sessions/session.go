// Package sessions holds the dual-domain session model: one keyed
// session space for the shared login domain and one per tenant domain.
// A cookie scope never spans domains; each space expires independently.
package sessions

import (
	"strings"
	"time"
)

// Scope names one cookie-scoped session space.
type Scope string

// LoginScope is the session space of the shared login domain.
const LoginScope Scope = "login"

const tenantScopePrefix = "tenant:"

// TenantScope returns the session space of one tenant domain.
func TenantScope(tenantID string) Scope {
	return Scope(tenantScopePrefix + tenantID)
}

// TenantID returns the tenant a scope belongs to, or "" for the login
// scope.
func (s Scope) TenantID() string {
	if !s.IsTenant() {
		return ""
	}
	return strings.TrimPrefix(string(s), tenantScopePrefix)
}

// IsTenant reports whether the scope is a tenant-domain space.
func (s Scope) IsTenant() bool {
	return strings.HasPrefix(string(s), tenantScopePrefix)
}

// Record is the principal snapshot held in one session space.
//
// Login-scope records carry the tenant grant snapshot taken at login
// time; tenant-scope records carry the single tenant the session is
// bound to. LastActivity is refreshed by the tenant-domain guard on
// every authorized request and drives the idle timeout.
type Record struct {
	PrincipalID  string    `json:"principal_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	Tenants      []string  `json:"tenants,omitempty"`
	TenantID     string    `json:"tenant_id,omitempty"`
	LastActivity time.Time `json:"last_activity"`
}

// Authenticated reports whether a principal is bound to the record.
func (r Record) Authenticated() bool {
	return r.PrincipalID != ""
}
