// Package indicators derives technical indicators from candle windows.
// Every function is pure; short inputs degrade to neutral values instead of failing.
package indicators

import (
	"github.com/markcheno/go-talib"
)

// EMA returns the exponential moving average of prices for period.
//
// With fewer than period samples it returns the arithmetic mean of all samples
// (0 for an empty series). Otherwise the average is seeded with the simple mean
// of the first period values and advanced with ema = (p - ema) * 2/(period+1) + ema.
func EMA(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if period <= 0 || len(prices) < period {
		return mean(prices)
	}
	out := talib.Ema(prices, period)
	return out[len(out)-1]
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
