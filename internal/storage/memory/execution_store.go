package memory

import (
	"context"
	"sort"
	"sync"

	"solana-curve-maker/internal/domain"
	"solana-curve-maker/internal/storage"
)

// ExecutionStore is an in-memory implementation of storage.ExecutionStore.
type ExecutionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ExecutionRecord // keyed by execution_id
}

// NewExecutionStore creates a new in-memory execution store.
func NewExecutionStore() *ExecutionStore {
	return &ExecutionStore{
		data: make(map[string]*domain.ExecutionRecord),
	}
}

// Insert adds a new record. Returns ErrDuplicateKey if execution_id exists.
func (s *ExecutionStore) Insert(_ context.Context, r *domain.ExecutionRecord) error {
	if r == nil || r.ExecutionID == "" || r.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ExecutionID]; exists {
		return storage.ErrDuplicateKey
	}

	rec := *r
	s.data[r.ExecutionID] = &rec
	return nil
}

// GetByMint retrieves up to limit records for a mint, newest first.
func (s *ExecutionStore) GetByMint(_ context.Context, mint string, limit int) ([]*domain.ExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ExecutionRecord
	for _, r := range s.data {
		if r.Mint == mint {
			rec := *r
			result = append(result, &rec)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].ExecutedAtMs != result[j].ExecutedAtMs {
			return result[i].ExecutedAtMs > result[j].ExecutedAtMs
		}
		return result[i].ExecutionID < result[j].ExecutionID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

var _ storage.ExecutionStore = (*ExecutionStore)(nil)
