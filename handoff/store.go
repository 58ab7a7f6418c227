package handoff

// Store owns the lifecycle of pending-handoff tokens.
type Store interface {
	// Issue generates a cryptographically random token bound to
	// (principalID, tenantID) and stores it with the configured TTL.
	Issue(principalID, tenantID string) (string, error)

	// Redeem consumes a token. A missing token fails with
	// ErrTokenInvalid; an expired token is deleted and fails with
	// ErrTokenExpired; a host that is not the token's tenant domain
	// fails with ErrTenantMismatch without consuming the token. On
	// success the record is deleted and the bound pair returned.
	Redeem(token, requestHost string) (principalID, tenantID string, err error)

	// Sweep deletes all expired records.
	Sweep()
}
