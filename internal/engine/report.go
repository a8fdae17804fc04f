package engine

import (
	"time"

	"solana-curve-maker/internal/domain"
	"solana-curve-maker/internal/settlement"
)

// Outcome is how a cycle ended.
type Outcome string

const (
	OutcomeSettled          Outcome = "settled"
	OutcomeFailed           Outcome = "settlement_failed"
	OutcomeHold             Outcome = "hold"
	OutcomeLowConfidence    Outcome = "low_confidence"
	OutcomeCooldown         Outcome = "cooldown"
	OutcomeWalletLimit      Outcome = "wallet_limit"
	OutcomeInsufficientData Outcome = "insufficient_data"
	OutcomeError            Outcome = "error"
)

// CycleReport summarises one cycle.
type CycleReport struct {
	Cycle     uint64
	Mint      string
	StartedAt time.Time
	Duration  time.Duration
	Timeframe domain.Timeframe

	State    domain.MarketState
	Position domain.Position
	Signal   domain.TradeSignal
	Result   *settlement.Result

	Outcome Outcome
	Error   string
}
