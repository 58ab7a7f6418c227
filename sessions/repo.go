package sessions

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no session exists for (scope, sessionID).
var ErrNotFound = errors.New("session not found")

// Repo is the durable session store, keyed by cookie scope and session
// ID. Set must not return before the write is acknowledged by the
// backing store: the guards rely on read-your-writes within a session.
type Repo interface {
	Get(ctx context.Context, scope Scope, sessionID string) (Record, error)
	Set(ctx context.Context, scope Scope, sessionID string, record Record) error
	Destroy(ctx context.Context, scope Scope, sessionID string) error
}
