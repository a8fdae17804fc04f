package candles

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"solana-curve-maker/internal/domain"
	"solana-curve-maker/internal/storage"
)

// Aggregator folds trades into base-interval candles per mint. The open bar
// lives in memory and is written to the store when the next bar starts.
// Empty intervals between trades become flat zero-volume bars.
type Aggregator struct {
	mu       sync.Mutex
	store    storage.CandleStore
	logger   *zap.Logger
	interval int64 // ms
	open     map[string]*domain.Candle
	pending  map[string][]domain.Candle // closed bars whose write failed
	first    map[string]int64           // first trade timestamp per mint
}

// NewAggregator creates an Aggregator writing closed bars to store.
func NewAggregator(store storage.CandleStore, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		store:    store,
		logger:   logger,
		interval: BaseInterval.Duration().Milliseconds(),
		open:     make(map[string]*domain.Candle),
		pending:  make(map[string][]domain.Candle),
		first:    make(map[string]int64),
	}
}

// AddTrade applies one trade. Trades older than the open bar are dropped.
// A failed write of closed bars does not lose the trade; the bars are
// retried on the next roll or Flush.
func (a *Aggregator) AddTrade(ctx context.Context, ev domain.TradeEvent) error {
	price := ev.Price()
	if price <= 0 || ev.Mint == "" {
		return nil
	}
	start := (ev.TimestampMs / a.interval) * a.interval

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.first[ev.Mint]; !ok {
		a.first[ev.Mint] = ev.TimestampMs
	}

	bar := a.open[ev.Mint]
	switch {
	case bar == nil:
		bar = &domain.Candle{TimestampMs: start, Open: price, High: price, Low: price, Close: price}
		a.open[ev.Mint] = bar
	case start < bar.TimestampMs:
		a.logger.Debug("late trade dropped",
			zap.String("mint", ev.Mint),
			zap.String("signature", ev.Signature),
			zap.Int64("bar_ms", bar.TimestampMs),
			zap.Int64("trade_ms", ev.TimestampMs),
		)
		return nil
	case start > bar.TimestampMs:
		closed := append(a.pending[ev.Mint], a.rollLocked(*bar, start)...)
		if err := a.store.Upsert(ctx, ev.Mint, closed); err != nil {
			if len(closed) > domain.MaxCandleWindow {
				closed = closed[len(closed)-domain.MaxCandleWindow:]
			}
			a.pending[ev.Mint] = closed
			a.logger.Warn("flush candles failed, will retry",
				zap.String("mint", ev.Mint),
				zap.Int("pending", len(closed)),
				zap.Error(err),
			)
		} else {
			delete(a.pending, ev.Mint)
		}
		bar = &domain.Candle{TimestampMs: start, Open: price, High: price, Low: price, Close: price}
		a.open[ev.Mint] = bar
	}

	if price > bar.High {
		bar.High = price
	}
	if price < bar.Low {
		bar.Low = price
	}
	bar.Close = price

	vol := ev.SolUI()
	bar.Volume += vol
	if ev.IsBuy {
		bar.BuyVolume += vol
	} else {
		bar.SellVolume += vol
	}
	return nil
}

// rollLocked returns the closed bar plus flat bars up to (excluding) next.
// Gap filling is capped at the candle window.
func (a *Aggregator) rollLocked(closed domain.Candle, next int64) []domain.Candle {
	out := []domain.Candle{closed}
	gap := (next-closed.TimestampMs)/a.interval - 1
	if gap > domain.MaxCandleWindow {
		gap = domain.MaxCandleWindow
	}
	for i := gap; i >= 1; i-- {
		ts := next - i*a.interval
		out = append(out, domain.Candle{
			TimestampMs: ts,
			Open:        closed.Close,
			High:        closed.Close,
			Low:         closed.Close,
			Close:       closed.Close,
		})
	}
	return out
}

// OpenCandle returns a copy of the in-progress bar for mint.
func (a *Aggregator) OpenCandle(mint string) (domain.Candle, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	bar, ok := a.open[mint]
	if !ok {
		return domain.Candle{}, false
	}
	return *bar, true
}

// FirstTrade returns the timestamp of the first trade seen for mint.
func (a *Aggregator) FirstTrade(mint string) (int64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ts, ok := a.first[mint]
	return ts, ok
}

// Flush writes all open bars to the store without closing them.
func (a *Aggregator) Flush(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for mint, bar := range a.open {
		bars := append(append([]domain.Candle(nil), a.pending[mint]...), *bar)
		if err := a.store.Upsert(ctx, mint, bars); err != nil {
			return fmt.Errorf("flush %s: %w", mint, err)
		}
		delete(a.pending, mint)
	}
	return nil
}
