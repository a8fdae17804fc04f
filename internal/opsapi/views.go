package opsapi

import (
	"time"

	"solana-curve-maker/internal/domain"
	"solana-curve-maker/internal/engine"
)

// AssetStatus is the JSON view of one engine.
type AssetStatus struct {
	Mint      string     `json:"mint"`
	Running   bool       `json:"running"`
	LastCycle *CycleView `json:"last_cycle,omitempty"`
}

// CycleView is the JSON view of a cycle report.
type CycleView struct {
	Cycle      uint64    `json:"cycle"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
	Timeframe  string    `json:"timeframe"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`

	Phase        string  `json:"phase,omitempty"`
	Price        float64 `json:"price"`
	MarketCapUSD float64 `json:"market_cap_usd"`
	RSI14        float64 `json:"rsi14"`
	Warmup       bool    `json:"warmup"`

	Action     string  `json:"action,omitempty"`
	Rule       string  `json:"rule,omitempty"`
	Amount     float64 `json:"amount"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`

	HeldTokens        float64 `json:"held_tokens"`
	AverageEntryPrice float64 `json:"average_entry_price"`
	QuoteBalance      float64 `json:"quote_balance"`

	Signature string `json:"signature,omitempty"`
}

// ExecutionView is the JSON view of an execution record.
type ExecutionView struct {
	ExecutionID string    `json:"execution_id"`
	Action      string    `json:"action"`
	Rule        string    `json:"rule"`
	Confidence  float64   `json:"confidence"`
	Amount      float64   `json:"amount"`
	ExpectedOut float64   `json:"expected_out"`
	MinOut      float64   `json:"min_out"`
	Price       float64   `json:"price"`
	Success     bool      `json:"success"`
	Signature   string    `json:"signature,omitempty"`
	Error       string    `json:"error,omitempty"`
	Paper       bool      `json:"paper"`
	ExecutedAt  time.Time `json:"executed_at"`
}

func statusOf(e *engine.Engine) AssetStatus {
	st := AssetStatus{Mint: e.Mint(), Running: e.Running()}
	if rep := e.LastCycle(); rep != nil {
		v := cycleView(rep)
		st.LastCycle = &v
	}
	return st
}

func cycleView(r *engine.CycleReport) CycleView {
	v := CycleView{
		Cycle:      r.Cycle,
		StartedAt:  r.StartedAt.UTC(),
		DurationMs: r.Duration.Milliseconds(),
		Timeframe:  r.Timeframe.String(),
		Outcome:    string(r.Outcome),
		Error:      r.Error,

		Phase:        r.State.Phase.String(),
		Price:        r.State.Price,
		MarketCapUSD: r.State.MarketCapUSD,
		RSI14:        r.State.RSI14,
		Warmup:       r.State.Warmup,

		Action:     string(r.Signal.Action),
		Rule:       r.Signal.Rule,
		Amount:     r.Signal.Amount,
		Confidence: r.Signal.Confidence,
		Reason:     r.Signal.Reason,

		HeldTokens:        r.Position.HeldTokens,
		AverageEntryPrice: r.Position.AverageEntryPrice,
		QuoteBalance:      r.Position.QuoteBalance,
	}
	if r.Result != nil {
		v.Signature = r.Result.Signature
	}
	return v
}

func executionView(r *domain.ExecutionRecord) ExecutionView {
	return ExecutionView{
		ExecutionID: r.ExecutionID,
		Action:      string(r.Action),
		Rule:        r.Rule,
		Confidence:  r.Confidence,
		Amount:      r.Amount,
		ExpectedOut: r.ExpectedOut,
		MinOut:      r.MinOut,
		Price:       r.Price,
		Success:     r.Success,
		Signature:   r.Signature,
		Error:       r.Error,
		Paper:       r.Paper,
		ExecutedAt:  time.UnixMilli(r.ExecutedAtMs).UTC(),
	}
}
