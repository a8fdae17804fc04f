package reporting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"solana-curve-maker/internal/domain"
	"solana-curve-maker/internal/storage"
)

// ErrNoMint is returned when Generate is called without a mint.
var ErrNoMint = errors.New("mint is required")

// Generator produces reports from the execution audit trail.
type Generator struct {
	executions storage.ExecutionStore
	now        func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(executions storage.ExecutionStore) *Generator {
	return &Generator{
		executions: executions,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds the report for mint from every stored execution.
func (g *Generator) Generate(ctx context.Context, mint string) (*Report, error) {
	if mint == "" {
		return nil, ErrNoMint
	}

	records, err := g.executions.GetByMint(ctx, mint, 0)
	if err != nil {
		return nil, fmt.Errorf("load executions for %s: %w", mint, err)
	}

	return &Report{
		GeneratedAt: g.now(),
		Mint:        mint,
		Summary:     summarize(records),
		Rules:       ruleRows(records),
		Executions:  executionRows(records),
	}, nil
}

func summarize(records []*domain.ExecutionRecord) Summary {
	var s Summary
	for _, r := range records {
		s.Total++
		if r.Paper {
			s.Paper++
		}
		switch r.Action {
		case domain.ActionBuy:
			s.Buys++
		case domain.ActionSell:
			s.Sells++
		}

		if s.FirstMs == 0 || r.ExecutedAtMs < s.FirstMs {
			s.FirstMs = r.ExecutedAtMs
		}
		if r.ExecutedAtMs > s.LastMs {
			s.LastMs = r.ExecutedAtMs
		}

		if !r.Success {
			s.Failed++
			continue
		}
		s.Succeeded++
		switch r.Action {
		case domain.ActionBuy:
			s.SolSpent += r.Amount
			s.TokensBought += r.ExpectedOut
		case domain.ActionSell:
			s.TokensSold += r.Amount
			s.SolReceived += r.ExpectedOut
		}
	}
	return s
}

type ruleKey struct {
	rule   string
	action domain.Action
}

func ruleRows(records []*domain.ExecutionRecord) []RuleRow {
	groups := make(map[ruleKey]*RuleRow)
	confidence := make(map[ruleKey]float64)

	for _, r := range records {
		k := ruleKey{rule: r.Rule, action: r.Action}
		row, ok := groups[k]
		if !ok {
			row = &RuleRow{Rule: r.Rule, Action: r.Action}
			groups[k] = row
		}
		row.Count++
		confidence[k] += r.Confidence
		if r.Success {
			row.Succeeded++
			row.Amount += r.Amount
		}
	}

	rows := make([]RuleRow, 0, len(groups))
	for k, row := range groups {
		row.MeanConfidence = confidence[k] / float64(row.Count)
		rows = append(rows, *row)
	}

	// Sort by (rule, action)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Rule != rows[j].Rule {
			return rows[i].Rule < rows[j].Rule
		}
		return rows[i].Action < rows[j].Action
	})
	return rows
}

// executionRows keeps the store's newest-first order.
func executionRows(records []*domain.ExecutionRecord) []ExecutionRow {
	rows := make([]ExecutionRow, len(records))
	for i, r := range records {
		rows[i] = ExecutionRow{
			ExecutionID: r.ExecutionID,
			ExecutedAt:  time.UnixMilli(r.ExecutedAtMs).UTC(),
			Action:      r.Action,
			Rule:        r.Rule,
			Confidence:  r.Confidence,
			Amount:      r.Amount,
			ExpectedOut: r.ExpectedOut,
			MinOut:      r.MinOut,
			Price:       r.Price,
			Success:     r.Success,
			Paper:       r.Paper,
			Signature:   r.Signature,
			Error:       r.Error,
		}
	}
	return rows
}
