package domain

// Phase is the coarse market classification recomputed every cycle.
type Phase string

const (
	PhaseAccumulation Phase = "accumulation"
	PhaseMarkup       Phase = "markup"
	PhaseEuphoria     Phase = "euphoria"
	PhaseDistribution Phase = "distribution"
	PhaseDecline      Phase = "decline"
	PhaseCapitulation Phase = "capitulation"
)

// String returns the string representation of Phase.
func (p Phase) String() string {
	return string(p)
}

// FibLevels holds retracement levels between a swing high and low.
// Levels are ordered High >= Fib236 >= ... >= Fib786 >= Low.
type FibLevels struct {
	High   float64
	Low    float64
	Fib236 float64
	Fib382 float64
	Fib500 float64
	Fib618 float64
	Fib786 float64
}

// EMACross reports a short/long EMA crossover on the latest candle.
type EMACross struct {
	CrossUp   bool
	CrossDown bool
}

// MarketState is the derived snapshot the signal generator reads.
// Price changes are percentages; volumes are quote (SOL) amounts.
type MarketState struct {
	Price float64

	PriceChange1m  float64
	PriceChange5m  float64
	PriceChange15m float64
	PriceChange1h  float64

	Volume1m    float64
	Volume5m    float64
	NetVolume1m float64
	NetVolume5m float64

	EMA9  float64
	EMA21 float64
	EMA50 float64
	RSI14 float64

	Fib   FibLevels
	Cross EMACross
	Phase Phase

	AgeMinutes      float64
	MarketCapUSD    float64
	BondingComplete bool

	Timeframe   Timeframe
	CandleCount int
	// Warmup is set when the window is too short for the slow indicators.
	Warmup bool
}
