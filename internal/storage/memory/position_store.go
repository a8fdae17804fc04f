package memory

import (
	"context"
	"sync"

	"solana-curve-maker/internal/domain"
	"solana-curve-maker/internal/storage"
)

// PositionStore is an in-memory implementation of storage.PositionStore.
type PositionStore struct {
	mu   sync.RWMutex
	data map[string]domain.Position // keyed by mint
}

// NewPositionStore creates a new in-memory position store.
func NewPositionStore() *PositionStore {
	return &PositionStore{
		data: make(map[string]domain.Position),
	}
}

// Get returns the stored position. Returns ErrNotFound if none was saved.
func (s *PositionStore) Get(_ context.Context, mint string) (*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.data[mint]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &p, nil
}

// Save replaces the stored position for p.Mint.
func (s *PositionStore) Save(_ context.Context, p *domain.Position) error {
	if p == nil || p.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[p.Mint] = *p
	return nil
}

var _ storage.PositionStore = (*PositionStore)(nil)
