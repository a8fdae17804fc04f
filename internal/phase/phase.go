// Package phase classifies a market snapshot into one of six phases.
package phase

import "solana-curve-maker/internal/domain"

// Classification thresholds.
const (
	euphoriaChange5m      = 20.0
	euphoriaNetVolume5m   = 1.0
	euphoriaRSI           = 70.0
	capitulationChange5m  = -20.0
	capitulationRSI       = 30.0
	trendChange15m        = 10.0
	distributionChange5m  = 5.0
	distributionChange15m = 15.0
)

// Rule is one named phase predicate.
type Rule struct {
	Phase domain.Phase
	Match func(s domain.MarketState) bool
}

// Rules are evaluated in order; the first match wins.
var Rules = []Rule{
	{Phase: domain.PhaseEuphoria, Match: isEuphoria},
	{Phase: domain.PhaseCapitulation, Match: isCapitulation},
	{Phase: domain.PhaseMarkup, Match: isMarkup},
	{Phase: domain.PhaseDecline, Match: isDecline},
	{Phase: domain.PhaseDistribution, Match: isDistribution},
}

// Classify returns the phase for s. Nothing is carried between calls.
func Classify(s domain.MarketState) domain.Phase {
	for _, r := range Rules {
		if r.Match(s) {
			return r.Phase
		}
	}
	return domain.PhaseAccumulation
}

func isEuphoria(s domain.MarketState) bool {
	return s.PriceChange5m > euphoriaChange5m &&
		s.NetVolume5m > euphoriaNetVolume5m &&
		s.RSI14 > euphoriaRSI
}

func isCapitulation(s domain.MarketState) bool {
	return s.PriceChange5m < capitulationChange5m && s.RSI14 < capitulationRSI
}

func isMarkup(s domain.MarketState) bool {
	return s.PriceChange15m > trendChange15m && s.Price > s.EMA9 && s.EMA9 > s.EMA21
}

func isDecline(s domain.MarketState) bool {
	return s.PriceChange15m < -trendChange15m && s.Price < s.EMA9 && s.EMA9 < s.EMA21
}

// Price stalling after a strong run while sellers dominate.
func isDistribution(s domain.MarketState) bool {
	return s.PriceChange5m < distributionChange5m &&
		s.PriceChange15m > distributionChange15m &&
		s.NetVolume5m < 0
}
