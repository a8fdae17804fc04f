package memory

import (
	"context"
	"sort"
	"sync"

	"solana-curve-maker/internal/domain"
	"solana-curve-maker/internal/storage"
)

// CandleStore is an in-memory implementation of storage.CandleStore.
type CandleStore struct {
	mu   sync.RWMutex
	data map[string]map[int64]domain.Candle // mint -> timestamp_ms -> candle
}

// NewCandleStore creates a new in-memory candle store.
func NewCandleStore() *CandleStore {
	return &CandleStore{
		data: make(map[string]map[int64]domain.Candle),
	}
}

// Upsert writes candles keyed by (mint, timestamp_ms).
func (s *CandleStore) Upsert(_ context.Context, mint string, candles []domain.Candle) error {
	if mint == "" {
		return storage.ErrInvalidInput
	}
	if len(candles) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bars, ok := s.data[mint]
	if !ok {
		bars = make(map[int64]domain.Candle)
		s.data[mint] = bars
	}
	for _, c := range candles {
		bars[c.TimestampMs] = c
	}
	return nil
}

// GetRange retrieves candles with timestamp in [start, end], ordered ASC.
func (s *CandleStore) GetRange(_ context.Context, mint string, start, end int64) ([]domain.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Candle
	for ts, c := range s.data[mint] {
		if ts >= start && ts <= end {
			result = append(result, c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})
	return result, nil
}

var _ storage.CandleStore = (*CandleStore)(nil)
