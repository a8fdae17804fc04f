// Package verification checks that recorded trading activity is reproducible:
// stored execution rows against their own invariants, and backtest runs
// against each other.
package verification

import (
	"fmt"
	"math"

	"solana-curve-maker/internal/backtest"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-9

// FieldDivergence represents a mismatch between expected and actual values.
type FieldDivergence struct {
	Field    string      // field name
	Expected interface{} // recorded value
	Actual   interface{} // recomputed or replayed value
}

// VerificationResult contains the result of verifying a single item.
type VerificationResult struct {
	ID          string            // execution ID or trade index
	Match       bool              // true if all fields match
	Divergences []FieldDivergence // list of divergent fields
}

// VerificationReport contains results for batch verification.
type VerificationReport struct {
	Total     int                  // items verified
	Matched   int                  // items that matched exactly
	Divergent int                  // items with divergences
	Results   []VerificationResult // individual results

	// Run-level divergences not tied to a single item
	Divergences []FieldDivergence
}

// OK reports whether nothing diverged.
func (r *VerificationReport) OK() bool {
	return r.Divergent == 0 && len(r.Divergences) == 0
}

func (r *VerificationReport) add(id string, divs []FieldDivergence) {
	r.Total++
	res := VerificationResult{ID: id, Match: len(divs) == 0, Divergences: divs}
	if res.Match {
		r.Matched++
	} else {
		r.Divergent++
	}
	r.Results = append(r.Results, res)
}

// CompareTrades compares two backtest trades and returns divergences.
// Signatures are excluded since paper fills mint a fresh one per run.
func CompareTrades(expected, actual backtest.Trade) []FieldDivergence {
	var divergences []FieldDivergence

	if !expected.At.Equal(actual.At) {
		divergences = append(divergences, FieldDivergence{Field: "At", Expected: expected.At, Actual: actual.At})
	}
	if expected.Action != actual.Action {
		divergences = append(divergences, FieldDivergence{Field: "Action", Expected: expected.Action, Actual: actual.Action})
	}
	if expected.Rule != actual.Rule {
		divergences = append(divergences, FieldDivergence{Field: "Rule", Expected: expected.Rule, Actual: actual.Rule})
	}
	if !floatEquals(expected.Amount, actual.Amount) {
		divergences = append(divergences, FieldDivergence{Field: "Amount", Expected: expected.Amount, Actual: actual.Amount})
	}
	if !floatEquals(expected.Price, actual.Price) {
		divergences = append(divergences, FieldDivergence{Field: "Price", Expected: expected.Price, Actual: actual.Price})
	}

	return divergences
}

// CompareRuns verifies that two backtests over the same input agree trade
// by trade and on their final balances.
func CompareRuns(expected, actual *backtest.Results) *VerificationReport {
	report := &VerificationReport{}

	n := len(expected.Trades)
	if len(actual.Trades) != n {
		report.Divergences = append(report.Divergences, FieldDivergence{
			Field:    "TradeCount",
			Expected: len(expected.Trades),
			Actual:   len(actual.Trades),
		})
		if len(actual.Trades) < n {
			n = len(actual.Trades)
		}
	}

	for i := 0; i < n; i++ {
		report.add(fmt.Sprintf("trade-%d", i), CompareTrades(expected.Trades[i], actual.Trades[i]))
	}

	if expected.Cycles != actual.Cycles {
		report.Divergences = append(report.Divergences, FieldDivergence{Field: "Cycles", Expected: expected.Cycles, Actual: actual.Cycles})
	}
	if !floatEquals(expected.FinalQuote, actual.FinalQuote) {
		report.Divergences = append(report.Divergences, FieldDivergence{Field: "FinalQuote", Expected: expected.FinalQuote, Actual: actual.FinalQuote})
	}
	if !floatEquals(expected.FinalTokens, actual.FinalTokens) {
		report.Divergences = append(report.Divergences, FieldDivergence{Field: "FinalTokens", Expected: expected.FinalTokens, Actual: actual.FinalTokens})
	}

	return report
}

// floatEquals compares relative to magnitude; token counts run to 1e9.
func floatEquals(a, b float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= FloatTolerance*scale
}
