package users

import (
	"errors"
	"sync"
)

var (
	ErrUserNotFound = errors.New("user not found")
)

// InMemoryRepo is a thread-safe in-memory user directory, used for
// development and tests. Production deployments plug in their own
// directory behind the Repo interface.
type InMemoryRepo struct {
	mu      sync.RWMutex
	byEmail map[string]*User
	byID    map[string]*User
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		byEmail: make(map[string]*User),
		byID:    make(map[string]*User),
	}
}

var _ Repo = (*InMemoryRepo)(nil)

func (r *InMemoryRepo) Upsert(user *User) error {
	if user == nil {
		return errors.New("user cannot be nil")
	}
	if user.ID == "" || user.Email == "" {
		return errors.New("user ID and email are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copyUser(user)
	r.byEmail[user.Email] = stored
	r.byID[user.ID] = stored
	return nil
}

func (r *InMemoryRepo) GetByEmail(email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	return copyUser(user), nil
}

func (r *InMemoryRepo) GetByID(id, tenantID string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	if tenantID != "" && !user.HasTenant(tenantID) {
		return nil, ErrUserNotFound
	}
	return copyUser(user), nil
}

func copyUser(user *User) *User {
	copied := *user
	copied.Tenants = append([]string(nil), user.Tenants...)
	return &copied
}
