package auth

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// secret, so login failures never reveal which one it was.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized is returned when an operation requires an
	// authenticated login session and none is bound.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTenantNotGranted is returned when a principal requests a
	// handoff to a tenant it holds no grant for.
	ErrTenantNotGranted = errors.New("tenant not granted")

	// ErrSessionPersistence is returned when a session write could not
	// be confirmed by the backing store.
	ErrSessionPersistence = errors.New("session persistence failed")
)
