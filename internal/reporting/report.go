package reporting

import (
	"time"

	"solana-curve-maker/internal/domain"
)

// Report summarizes the execution audit trail of one asset.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Mint        string

	Summary Summary

	// Per-rule breakdown (sorted by rule, action)
	Rules []RuleRow

	// Every execution, newest first
	Executions []ExecutionRow
}

// Summary aggregates all forwarded settlements.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Paper     int

	Buys  int
	Sells int

	// Successful settlements only
	SolSpent     float64 // buy inputs
	TokensBought float64 // buy expected outputs
	TokensSold   float64 // sell inputs
	SolReceived  float64 // sell expected outputs

	FirstMs int64 // Unix ms, 0 when empty
	LastMs  int64 // Unix ms, 0 when empty
}

// SuccessRate returns Succeeded/Total, 0 when nothing was forwarded.
func (s Summary) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Total)
}

// NetSol returns SOL received minus SOL spent.
func (s Summary) NetSol() float64 {
	return s.SolReceived - s.SolSpent
}

// RuleRow is one (rule, action) group.
type RuleRow struct {
	Rule           string
	Action         domain.Action
	Count          int
	Succeeded      int
	Amount         float64 // sum of successful amounts, SOL for buys, tokens for sells
	MeanConfidence float64
}

// ExecutionRow is one audit record flattened for rendering.
type ExecutionRow struct {
	ExecutionID string
	ExecutedAt  time.Time
	Action      domain.Action
	Rule        string
	Confidence  float64
	Amount      float64
	ExpectedOut float64
	MinOut      float64
	Price       float64
	Success     bool
	Paper       bool
	Signature   string
	Error       string
}
