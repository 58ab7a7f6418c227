package tenants

import (
	"errors"
	"sort"
	"sync"
)

var ErrTenantNotFound = errors.New("tenant not found")

// InMemoryRepo is a thread-safe in-memory tenant registry.
type InMemoryRepo struct {
	mu      sync.RWMutex
	tenants map[string]*Tenant
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		tenants: make(map[string]*Tenant),
	}
}

var _ Repo = (*InMemoryRepo)(nil)

func (r *InMemoryRepo) Upsert(tenantData *Tenant) error {
	if tenantData == nil {
		return errors.New("tenant cannot be nil")
	}
	if tenantData.ID == "" {
		return errors.New("tenant ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *tenantData
	r.tenants[tenantData.ID] = &copied
	return nil
}

func (r *InMemoryRepo) Delete(tenantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tenants, tenantID)
	return nil
}

func (r *InMemoryRepo) Get(tenantID string) (*Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tenant, ok := r.tenants[tenantID]
	if !ok {
		return nil, ErrTenantNotFound
	}
	copied := *tenant
	return &copied, nil
}

func (r *InMemoryRepo) List(offset, limit int) ([]*Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.tenants))
	for id := range r.tenants {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if offset >= len(ids) {
		return nil, nil
	}
	ids = ids[offset:]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}

	list := make([]*Tenant, 0, len(ids))
	for _, id := range ids {
		copied := *r.tenants[id]
		list = append(list, &copied)
	}
	return list, nil
}
