package revocation

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/ptemanager/core/auth"
)

// memStore is a process-local revocation list, used when no REDIS_URL is set.
type memStore struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
}

var _ auth.Revocations = (*memStore)(nil) // interface compliance check

func NewMemStore() *memStore {
	return &memStore{revoked: make(map[string]time.Time)}
}

func (s *memStore) RevokeUser(_ context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[userID] = at
	return nil
}

func (s *memStore) RevokedAt(_ context.Context, userID string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at, ok := s.revoked[userID]
	return at, ok, nil
}
