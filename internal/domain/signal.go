package domain

import "time"

// Action is what a signal asks the settlement layer to do.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// Urgency hints how aggressively a signal should be filled.
type Urgency string

const (
	UrgencyImmediate Urgency = "immediate"
	UrgencyLimit     Urgency = "limit"
	UrgencyWait      Urgency = "wait"
)

// TradeSignal is the single instruction produced per cycle.
// Amount is SOL for buys and tokens for sells.
type TradeSignal struct {
	Action        Action
	Amount        float64
	AmountPercent float64
	Urgency       Urgency
	Reason        string
	Confidence    float64 // 0..100, ordering weight only
	Rule          string  // name of the rule that fired

	TargetPrice *float64
	StopLoss    *float64

	CreatedAt time.Time
}

// IsActionable reports whether the signal asks for a trade.
func (s TradeSignal) IsActionable() bool {
	return s.Action != ActionHold && s.Amount > 0
}
