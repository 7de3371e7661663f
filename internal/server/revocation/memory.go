package revocation

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps revocations in process memory. They are lost on
// restart, which re-enables logged-out refresh tokens until they expire.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]time.Time), now: time.Now}
}

func (s *MemoryStore) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	h := hashToken(token)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[h]; !ok {
		s.entries[h] = expiresAt
	}
	return nil
}

func (s *MemoryStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	h := hashToken(token)

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.entries[h]
	return ok, nil
}

func (s *MemoryStore) Sweep(ctx context.Context) (int64, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for h, exp := range s.entries {
		if !now.Before(exp) {
			delete(s.entries, h)
			n++
		}
	}
	return n, nil
}

// Len returns the number of tracked tokens.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
