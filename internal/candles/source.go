package candles

import (
	"context"
	"fmt"
	"sync"
	"time"

	"solana-curve-maker/internal/domain"
	"solana-curve-maker/internal/storage"
)

// LiveCandles exposes bars that are still being built.
type LiveCandles interface {
	OpenCandle(mint string) (domain.Candle, bool)
	FirstTrade(mint string) (int64, bool)
}

// StoreSource serves candles at any timeframe from stored base bars plus
// the live open bar.
type StoreSource struct {
	store storage.CandleStore
	live  LiveCandles
	now   func() time.Time

	mu     sync.Mutex
	launch map[string]time.Time
}

// NewStoreSource creates a StoreSource. live may be nil.
func NewStoreSource(store storage.CandleStore, live LiveCandles) *StoreSource {
	return &StoreSource{
		store:  store,
		live:   live,
		now:    time.Now,
		launch: make(map[string]time.Time),
	}
}

// Candles returns up to limit bars of tf, ascending, ending with the current bar.
func (s *StoreSource) Candles(ctx context.Context, mint string, tf domain.Timeframe, limit int) ([]domain.Candle, error) {
	tfMs := tf.Duration().Milliseconds()
	if tfMs <= 0 {
		return nil, fmt.Errorf("unsupported timeframe %q", tf)
	}
	if limit <= 0 || limit > domain.MaxCandleWindow {
		limit = domain.MaxCandleWindow
	}

	end := s.now().UnixMilli()
	start := (end/tfMs)*tfMs - int64(limit-1)*tfMs

	base, err := s.store.GetRange(ctx, mint, start, end)
	if err != nil {
		return nil, fmt.Errorf("load candles: %w", err)
	}

	if s.live != nil {
		if open, ok := s.live.OpenCandle(mint); ok && open.TimestampMs >= start {
			n := len(base)
			switch {
			case n == 0 || open.TimestampMs > base[n-1].TimestampMs:
				base = append(base, open)
			case open.TimestampMs == base[n-1].TimestampMs:
				base[n-1] = open
			}
		}
	}

	bars := Resample(base, tf)
	if len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars, nil
}

// LaunchTime returns when the first trade for mint was seen, false if never.
func (s *StoreSource) LaunchTime(ctx context.Context, mint string) (time.Time, bool, error) {
	s.mu.Lock()
	t, ok := s.launch[mint]
	s.mu.Unlock()
	if ok {
		return t, true, nil
	}

	var firstMs int64 = -1
	stored, err := s.store.GetRange(ctx, mint, 0, s.now().UnixMilli())
	if err != nil {
		return time.Time{}, false, fmt.Errorf("load first candle: %w", err)
	}
	if len(stored) > 0 {
		firstMs = stored[0].TimestampMs
	}
	if s.live != nil {
		if ms, ok := s.live.FirstTrade(mint); ok && (firstMs < 0 || ms < firstMs) {
			firstMs = ms
		}
	}
	if firstMs < 0 {
		return time.Time{}, false, nil
	}

	t = time.UnixMilli(firstMs)
	s.mu.Lock()
	s.launch[mint] = t
	s.mu.Unlock()
	return t, true, nil
}
