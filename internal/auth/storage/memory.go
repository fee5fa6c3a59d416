package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements the Store interface using in-memory state.
// Suitable for single-instance deployments; revocations do not survive a
// restart, which matches token lifetimes of hours.
type MemoryStore struct {
	mu      sync.RWMutex
	revoked map[string]time.Time // token -> expiry
}

// NewMemoryStore creates a new memory store instance
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		revoked: make(map[string]time.Time),
	}
}

// Revoke marks a token as revoked for ttl.
func (s *MemoryStore) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.revoked[token] = time.Now().Add(ttl)

	// Opportunistic cleanup of expired entries.
	now := time.Now()
	for t, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, t)
		}
	}
	return nil
}

// IsRevoked reports whether the token has been revoked.
func (s *MemoryStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp, ok := s.revoked[token]
	if !ok {
		return false, nil
	}
	return time.Now().Before(exp), nil
}

// Close releases backend resources.
func (s *MemoryStore) Close() error {
	return nil
}
