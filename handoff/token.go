// Package handoff implements the one-time token store that bridges an
// authenticated login-domain session to a tenant-domain session. A token
// is the only legal path from a login session to a tenant session: it is
// bound to one (principal, tenant) pair, expires after a short TTL and is
// consumed by exactly one successful redemption.
package handoff

import "time"

// Token is a pending-handoff record. The Token string itself is an
// opaque value with at least 128 bits of entropy, so no collision check
// is performed on issuance.
type Token struct {
	Token       string
	PrincipalID string
	TenantID    string
	ExpiresAt   time.Time
}
