package indicators

// DefaultRSIPeriod is the RSI lookback used for MarketState.
const DefaultRSIPeriod = 14

// RSI returns the Wilder-smoothed relative strength index over prices.
//
// Returns 50 when fewer than period+1 samples exist or when the series never
// moves. Returns 100 when there are gains but no losses.
func RSI(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return 50
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		gain, loss := delta(prices[i-1], prices[i])
		avgGain += gain
		avgLoss += loss
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	p := float64(period)
	for i := period + 1; i < len(prices); i++ {
		gain, loss := delta(prices[i-1], prices[i])
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
	}

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

func delta(prev, cur float64) (gain, loss float64) {
	d := cur - prev
	if d > 0 {
		return d, 0
	}
	return 0, -d
}
