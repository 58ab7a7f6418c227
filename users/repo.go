package users

// Repo is the user directory boundary. Credential records live outside
// this service; the bridging subsystem only resolves principals through
// this interface and never persists them.
type Repo interface {
	Upsert(user *User) error
	GetByEmail(email string) (*User, error)
	// GetByID resolves a principal scoped to a tenant. The lookup fails
	// when the principal does not hold a grant for tenantID, which
	// re-validates tenant membership at handoff redemption.
	GetByID(id, tenantID string) (*User, error)
}
