package domain

import (
	"fmt"
	"time"
)

// Timeframe is a candle resolution.
type Timeframe string

const (
	Timeframe30s Timeframe = "30s"
	Timeframe1m  Timeframe = "1m"
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe1h  Timeframe = "1h"
)

// String returns the string representation of Timeframe.
func (tf Timeframe) String() string {
	return string(tf)
}

// IsValid checks if the timeframe is a supported resolution.
func (tf Timeframe) IsValid() bool {
	switch tf {
	case Timeframe30s, Timeframe1m, Timeframe5m, Timeframe15m, Timeframe1h:
		return true
	}
	return false
}

// Duration returns the bar length. Unknown timeframes return 0.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case Timeframe30s:
		return 30 * time.Second
	case Timeframe1m:
		return time.Minute
	case Timeframe5m:
		return 5 * time.Minute
	case Timeframe15m:
		return 15 * time.Minute
	case Timeframe1h:
		return time.Hour
	}
	return 0
}

// ParseTimeframe parses a timeframe string such as "5m".
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(s)
	if !tf.IsValid() {
		return "", fmt.Errorf("unknown timeframe %q", s)
	}
	return tf, nil
}

// TimeframeForAge picks the candle resolution for an asset of the given age.
// Young assets trade on short bars; older ones on longer bars.
func TimeframeForAge(age time.Duration) Timeframe {
	switch {
	case age < 15*time.Minute:
		return Timeframe30s
	case age < time.Hour:
		return Timeframe1m
	case age < 4*time.Hour:
		return Timeframe5m
	case age < 24*time.Hour:
		return Timeframe15m
	default:
		return Timeframe1h
	}
}
