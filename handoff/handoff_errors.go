package handoff

import "errors"

var (
	// ErrTokenInvalid is returned when a presented token is unknown,
	// including tokens already consumed by a previous redemption.
	ErrTokenInvalid = errors.New("handoff token invalid")

	// ErrTokenExpired is returned once for a token presented after its
	// expiry; the record is deleted, so any later presentation yields
	// ErrTokenInvalid.
	ErrTokenExpired = errors.New("handoff token expired")

	// ErrTenantMismatch is returned when the redeeming host does not
	// belong to the token's tenant. The record is kept so the client may
	// retry on the correct host within the TTL.
	ErrTenantMismatch = errors.New("handoff token tenant mismatch")
)
