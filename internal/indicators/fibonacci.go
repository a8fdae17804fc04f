package indicators

import "solana-curve-maker/internal/domain"

// DefaultFibLookback is the number of candles scanned for the swing high/low.
const DefaultFibLookback = 50

// Retracement ratios measured down from the swing high.
const (
	ratio236 = 0.236
	ratio382 = 0.382
	ratio500 = 0.5
	ratio618 = 0.618
	ratio786 = 0.786
)

// Fibonacci returns retracement levels between high and low.
// All levels collapse to the same value when high == low.
func Fibonacci(high, low float64) domain.FibLevels {
	diff := high - low
	return domain.FibLevels{
		High:   high,
		Low:    low,
		Fib236: high - diff*ratio236,
		Fib382: high - diff*ratio382,
		Fib500: high - diff*ratio500,
		Fib618: high - diff*ratio618,
		Fib786: high - diff*ratio786,
	}
}

// FindHighLow returns the max High and min Low over the last lookback candles.
// Returns (0, 0) for an empty window.
func FindHighLow(candles []domain.Candle, lookback int) (high, low float64) {
	if len(candles) == 0 || lookback <= 0 {
		return 0, 0
	}
	start := len(candles) - lookback
	if start < 0 {
		start = 0
	}
	high = candles[start].High
	low = candles[start].Low
	for _, c := range candles[start+1:] {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}
	return high, low
}
