package domain

// ExecutionRecord is the audit row written for every forwarded settlement.
type ExecutionRecord struct {
	ExecutionID string // deterministic hash, see idhash.ComputeExecutionID
	Mint        string
	Action      Action
	Rule        string
	Confidence  float64

	Amount      float64 // SOL for buys, tokens for sells
	ExpectedOut float64 // tokens for buys, SOL for sells
	MinOut      float64 // slippage bound
	Price       float64 // market price when the signal fired

	Success   bool
	Signature string
	Error     string
	Paper     bool

	ExecutedAtMs int64
}

// TradeEvent is one decoded swap against the bonding curve.
type TradeEvent struct {
	Signature   string
	Slot        int64
	Mint        string
	User        string
	IsBuy       bool
	SolAmount   uint64 // lamports
	TokenAmount uint64 // raw token units
	TimestampMs int64

	VirtualSolReserves   uint64
	VirtualTokenReserves uint64
}

// SolUI returns the SOL amount in UI units.
func (e TradeEvent) SolUI() float64 {
	return float64(e.SolAmount) / 1e9
}

// TokenUI returns the token amount in UI units.
func (e TradeEvent) TokenUI() float64 {
	return float64(e.TokenAmount) / 1e6
}

// Price returns the executed SOL per token price, 0 for empty trades.
func (e TradeEvent) Price() float64 {
	if e.TokenAmount == 0 {
		return 0
	}
	return e.SolUI() / e.TokenUI()
}
