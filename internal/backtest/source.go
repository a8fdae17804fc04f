package backtest

import (
	"context"
	"sort"
	"time"

	"solana-curve-maker/internal/candles"
	"solana-curve-maker/internal/domain"
)

// replaySource serves base candles as they would have looked at the
// simulated time: only bars that closed by now are visible.
type replaySource struct {
	base   []domain.Candle
	launch time.Time
	now    func() time.Time
}

func newReplaySource(base []domain.Candle, now func() time.Time) *replaySource {
	return &replaySource{
		base:   base,
		launch: time.UnixMilli(base[0].TimestampMs),
		now:    now,
	}
}

func (s *replaySource) Candles(_ context.Context, _ string, tf domain.Timeframe, limit int) ([]domain.Candle, error) {
	cut := s.now().UnixMilli() - candles.BaseInterval.Duration().Milliseconds()
	n := sort.Search(len(s.base), func(i int) bool { return s.base[i].TimestampMs > cut })
	out := candles.Resample(s.base[:n], tf)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *replaySource) LaunchTime(context.Context, string) (time.Time, bool, error) {
	return s.launch, true, nil
}

// replayCurve reports a fixed supply and completion flag. Reserves stay zero,
// so settlement quotes from the candle price.
type replayCurve struct {
	state domain.CurveState
}

func newReplayCurve(supplyUI float64, complete bool) replayCurve {
	return replayCurve{state: domain.CurveState{
		TokenTotalSupply: uint64(supplyUI * 1e6),
		Complete:         complete,
	}}
}

func (c replayCurve) Curve(context.Context, string) (domain.CurveState, error) {
	return c.state, nil
}
