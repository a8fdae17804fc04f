// Package candles builds OHLCV bars from decoded trades and serves them
// at the resolution a cycle asks for.
package candles

import (
	"solana-curve-maker/internal/domain"
)

// BaseInterval is the resolution bars are stored at.
const BaseInterval = domain.Timeframe30s

// Resample folds ascending base candles into bars of tf.
//
// Interval alignment: floor(timestamp_ms / interval_ms) * interval_ms
// Per bar: open of the first candle, close of the last, max high, min low,
// summed volumes.
func Resample(base []domain.Candle, tf domain.Timeframe) []domain.Candle {
	intervalMs := tf.Duration().Milliseconds()
	if len(base) == 0 || intervalMs <= 0 {
		return nil
	}

	var out []domain.Candle
	for _, c := range base {
		start := (c.TimestampMs / intervalMs) * intervalMs

		if n := len(out); n > 0 && out[n-1].TimestampMs == start {
			bar := &out[n-1]
			if c.High > bar.High {
				bar.High = c.High
			}
			if c.Low < bar.Low {
				bar.Low = c.Low
			}
			bar.Close = c.Close
			bar.Volume += c.Volume
			bar.BuyVolume += c.BuyVolume
			bar.SellVolume += c.SellVolume
			continue
		}

		c.TimestampMs = start
		out = append(out, c)
	}
	return out
}
