package indicators

import (
	"errors"
	"time"

	"solana-curve-maker/internal/domain"
	"solana-curve-maker/internal/phase"
)

// Window sizes for MarketState.
const (
	MinCandles    = 5  // below this no state is built
	WarmupCandles = 21 // below this the state is flagged as warming up
)

// ErrInsufficientCandles is returned when fewer than MinCandles are available.
var ErrInsufficientCandles = errors.New("insufficient candles")

// StateInput carries the values MarketState takes from outside the candle window.
type StateInput struct {
	AgeMinutes      float64
	MarketCapUSD    float64
	BondingComplete bool
}

// BuildMarketState derives the full snapshot from an ascending candle window.
//
// Returns ErrInsufficientCandles below MinCandles. Between MinCandles and
// WarmupCandles the state is returned with Warmup set and the phase pinned to
// accumulation.
func BuildMarketState(candles []domain.Candle, tf domain.Timeframe, in StateInput) (domain.MarketState, error) {
	if len(candles) < MinCandles {
		return domain.MarketState{}, ErrInsufficientCandles
	}
	if len(candles) > domain.MaxCandleWindow {
		candles = candles[len(candles)-domain.MaxCandleWindow:]
	}

	closes := domain.Closes(candles)
	price := closes[len(closes)-1]

	n1m := barsFor(time.Minute, tf)
	n5m := barsFor(5*time.Minute, tf)

	s := domain.MarketState{
		Price:          price,
		PriceChange1m:  priceChange(closes, n1m),
		PriceChange5m:  priceChange(closes, n5m),
		PriceChange15m: priceChange(closes, barsFor(15*time.Minute, tf)),
		PriceChange1h:  priceChange(closes, barsFor(time.Hour, tf)),

		EMA9:  EMA(closes, 9),
		EMA21: EMA(closes, 21),
		EMA50: EMA(closes, 50),
		RSI14: RSI(closes, DefaultRSIPeriod),

		Cross: DetectEMACross(candles, DefaultCrossShort, DefaultCrossLong),

		AgeMinutes:      in.AgeMinutes,
		MarketCapUSD:    in.MarketCapUSD,
		BondingComplete: in.BondingComplete,
		Timeframe:       tf,
		CandleCount:     len(candles),
	}
	s.Volume1m, s.NetVolume1m = volumes(candles, n1m)
	s.Volume5m, s.NetVolume5m = volumes(candles, n5m)
	s.Fib = Fibonacci(FindHighLow(candles, DefaultFibLookback))

	if len(candles) < WarmupCandles {
		s.Warmup = true
		s.Phase = domain.PhaseAccumulation
		return s, nil
	}
	s.Phase = phase.Classify(s)
	return s, nil
}

// barsFor converts a wall-clock window into a candle count, at least one.
func barsFor(window time.Duration, tf domain.Timeframe) int {
	d := tf.Duration()
	if d <= 0 {
		return 1
	}
	n := int(window / d)
	if n < 1 {
		n = 1
	}
	return n
}

// priceChange returns the percent move from the close n bars back to the last close.
// The first close is the reference when the window is shorter than n.
func priceChange(closes []float64, n int) float64 {
	last := len(closes) - 1
	ref := last - n
	if ref < 0 {
		ref = 0
	}
	if closes[ref] == 0 {
		return 0
	}
	return (closes[last] - closes[ref]) / closes[ref] * 100
}

// volumes sums total and net volume over the last n candles.
func volumes(candles []domain.Candle, n int) (total, net float64) {
	start := len(candles) - n
	if start < 0 {
		start = 0
	}
	for _, c := range candles[start:] {
		total += c.Volume
		net += c.NetVolume()
	}
	return total, net
}
