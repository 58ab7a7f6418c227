package sessions

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// InMemoryRepo is a thread-safe in-memory implementation of Repo.
type InMemoryRepo struct {
	mu       sync.RWMutex
	sessions map[Scope]map[string]Record // scope -> sessionID -> Record
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		sessions: make(map[Scope]map[string]Record),
	}
}

var _ Repo = (*InMemoryRepo)(nil)

func (r *InMemoryRepo) Get(_ context.Context, scope Scope, sessionID string) (Record, error) {
	if scope == "" || sessionID == "" {
		return Record{}, errors.New("scope and sessionID are required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	scoped, ok := r.sessions[scope]
	if !ok {
		return Record{}, ErrNotFound
	}
	record, ok := scoped[sessionID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return copyRecord(record), nil
}

func (r *InMemoryRepo) Set(_ context.Context, scope Scope, sessionID string, record Record) error {
	if scope == "" || sessionID == "" {
		return errors.New("scope and sessionID are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[scope]; !ok {
		r.sessions[scope] = make(map[string]Record)
	}
	r.sessions[scope][sessionID] = copyRecord(record)
	return nil
}

func (r *InMemoryRepo) Destroy(_ context.Context, scope Scope, sessionID string) error {
	if scope == "" || sessionID == "" {
		return errors.New("scope and sessionID are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	scoped, ok := r.sessions[scope]
	if !ok {
		return nil // Already doesn't exist, no error
	}
	delete(scoped, sessionID)

	// Clean up empty scope map
	if len(scoped) == 0 {
		delete(r.sessions, scope)
	}
	return nil
}

// copyRecord copies the record so callers never share the stored slice.
func copyRecord(record Record) Record {
	copied := record
	copied.Tenants = append([]string(nil), record.Tenants...)
	return copied
}
