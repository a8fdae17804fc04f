package memory

import (
	"context"
	"sync"
	"time"

	"solana-curve-maker/internal/storage"
)

// CooldownStore is an in-memory implementation of storage.CooldownStore.
type CooldownStore struct {
	mu   sync.RWMutex
	last map[string]time.Time
}

// NewCooldownStore creates a new in-memory cooldown store.
func NewCooldownStore() *CooldownStore {
	return &CooldownStore{last: make(map[string]time.Time)}
}

// LastTrade returns the time of the last forwarded trade, false if none.
func (s *CooldownStore) LastTrade(_ context.Context, mint string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.last[mint]
	return t, ok, nil
}

// MarkTrade records a trade forwarded at t.
func (s *CooldownStore) MarkTrade(_ context.Context, mint string, t time.Time) error {
	if mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.last[mint] = t
	return nil
}

var _ storage.CooldownStore = (*CooldownStore)(nil)
