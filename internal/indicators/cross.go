package indicators

import "solana-curve-maker/internal/domain"

// Default EMA crossover periods.
const (
	DefaultCrossShort = 9
	DefaultCrossLong  = 21
)

// DetectEMACross compares short and long EMAs on the full window against the
// window without its last candle. Needs at least long+2 candles.
func DetectEMACross(candles []domain.Candle, short, long int) domain.EMACross {
	if len(candles) < long+2 {
		return domain.EMACross{}
	}
	closes := domain.Closes(candles)
	prev := closes[:len(closes)-1]

	curShort, curLong := EMA(closes, short), EMA(closes, long)
	prevShort, prevLong := EMA(prev, short), EMA(prev, long)

	return domain.EMACross{
		CrossUp:   prevShort <= prevLong && curShort > curLong,
		CrossDown: prevShort >= prevLong && curShort < curLong,
	}
}
