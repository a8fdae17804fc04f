package domain

// MaxCandleWindow bounds the candle window kept in memory per asset.
const MaxCandleWindow = 200

// Candle is one OHLCV bar. Volumes are quote (SOL) amounts.
// Candles are ordered ascending by TimestampMs and never mutated after creation.
type Candle struct {
	TimestampMs int64   // bar open time (ms)
	Open        float64 // first trade price
	High        float64
	Low         float64
	Close       float64 // last trade price
	Volume      float64 // total quote volume
	BuyVolume   float64 // quote volume on buys
	SellVolume  float64 // quote volume on sells
}

// NetVolume returns buy volume minus sell volume.
func (c Candle) NetVolume() float64 {
	return c.BuyVolume - c.SellVolume
}

// Closes extracts close prices in candle order.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}
