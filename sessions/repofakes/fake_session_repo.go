package repofakes

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-tenant-bridge/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

// FakeSessionRepo is an in-memory sessions.Repo for tests. SetErr and
// DestroyErr, when set, are returned by the corresponding operation to
// exercise persistence-failure paths.
type FakeSessionRepo struct {
	lock       sync.RWMutex
	records    map[sessions.Scope]map[string]sessions.Record
	SetErr     error
	DestroyErr error
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		records: make(map[sessions.Scope]map[string]sessions.Record),
	}
}

func (sr *FakeSessionRepo) Get(_ context.Context, scope sessions.Scope, sessionID string) (sessions.Record, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	scoped, ok := sr.records[scope]
	if !ok {
		return sessions.Record{}, sessions.ErrNotFound
	}
	record, ok := scoped[sessionID]
	if !ok {
		return sessions.Record{}, sessions.ErrNotFound
	}
	return record, nil
}

func (sr *FakeSessionRepo) Set(_ context.Context, scope sessions.Scope, sessionID string, record sessions.Record) error {
	if sr.SetErr != nil {
		return sr.SetErr
	}

	sr.lock.Lock()
	defer sr.lock.Unlock()

	if _, ok := sr.records[scope]; !ok {
		sr.records[scope] = make(map[string]sessions.Record)
	}
	sr.records[scope][sessionID] = record
	return nil
}

func (sr *FakeSessionRepo) Destroy(_ context.Context, scope sessions.Scope, sessionID string) error {
	if sr.DestroyErr != nil {
		return sr.DestroyErr
	}

	sr.lock.Lock()
	defer sr.lock.Unlock()

	if scoped, ok := sr.records[scope]; ok {
		delete(scoped, sessionID)
	}
	return nil
}
