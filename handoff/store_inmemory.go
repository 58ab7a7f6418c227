package handoff

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-tenant-bridge/internal/hostutil"
)

const tokenGenerationLength = 32 // 256 bits of entropy

// InMemoryStore is a thread-safe in-memory handoff token store.
type InMemoryStore struct {
	mu      sync.RWMutex
	tokens  map[string]Token
	ttl     time.Duration
	nowTime func() time.Time
}

// InMemoryStoreOption defines a function type to modify the InMemoryStore instance.
type InMemoryStoreOption func(*InMemoryStore)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) InMemoryStoreOption {
	return func(s *InMemoryStore) {
		s.nowTime = nowFunc
	}
}

func NewInMemoryStore(ttl time.Duration, options ...InMemoryStoreOption) *InMemoryStore {
	store := &InMemoryStore{
		tokens:  make(map[string]Token),
		ttl:     ttl,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(store)
	}
	return store
}

var _ Store = (*InMemoryStore)(nil)

func (s *InMemoryStore) Issue(principalID, tenantID string) (string, error) {
	if principalID == "" || tenantID == "" {
		return "", errors.New("[InMemoryStore.Issue] principalID and tenantID are required")
	}

	bytes := make([]byte, tokenGenerationLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", errors.Wrap(err, "[InMemoryStore.Issue] rand.Read")
	}
	token := base64.RawURLEncoding.EncodeToString(bytes)

	now := s.nowTime()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[token] = Token{
		Token:       token,
		PrincipalID: principalID,
		TenantID:    tenantID,
		ExpiresAt:   now.Add(s.ttl),
	}

	// Opportunistic housekeeping on every issuance.
	s.sweepLocked(now)

	return token, nil
}

func (s *InMemoryStore) Redeem(token, requestHost string) (string, string, error) {
	now := s.nowTime()

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.tokens[token]
	if !ok {
		return "", "", ErrTokenInvalid
	}

	if now.After(record.ExpiresAt) {
		delete(s.tokens, token)
		return "", "", ErrTokenExpired
	}

	if !hostutil.MatchesTenant(requestHost, record.TenantID) {
		// The record is kept: the client may retry on the correct host
		// while the token is still within its TTL.
		return "", "", ErrTenantMismatch
	}

	delete(s.tokens, token)
	return record.PrincipalID, record.TenantID, nil
}

// Sweep deletes expired records. Expired tokens are collected under a
// read lock so concurrent Issue/Redeem calls are not held up while the
// store is iterated; deletion re-checks expiry under the write lock.
func (s *InMemoryStore) Sweep() {
	now := s.nowTime()

	s.mu.RLock()
	var expired []string
	for token, record := range s.tokens {
		if now.After(record.ExpiresAt) {
			expired = append(expired, token)
		}
	}
	s.mu.RUnlock()

	if len(expired) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, token := range expired {
		if record, ok := s.tokens[token]; ok && now.After(record.ExpiresAt) {
			delete(s.tokens, token)
		}
	}
}

// StartSweeping runs the periodic sweep until ctx is cancelled. The
// sweeper is owned by the store: started once at process init and torn
// down with the process context.
func (s *InMemoryStore) StartSweeping(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
				log.Debug().Int("pending", s.Len()).Msg("handoff token sweep completed")
			}
		}
	}()
}

// Len returns the number of pending tokens.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

func (s *InMemoryStore) sweepLocked(now time.Time) {
	for token, record := range s.tokens {
		if now.After(record.ExpiresAt) {
			delete(s.tokens, token)
		}
	}
}
