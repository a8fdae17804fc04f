package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-curve-maker/internal/backtest"
	"solana-curve-maker/internal/domain"
	"solana-curve-maker/internal/idhash"
	"solana-curve-maker/internal/storage/memory"
)

func validRecord(id int64) *domain.ExecutionRecord {
	r := &domain.ExecutionRecord{
		Mint:         "mint1",
		Action:       domain.ActionBuy,
		Rule:         "fib_support",
		Amount:       0.5,
		ExpectedOut:  10000,
		MinOut:       9000,
		Success:      true,
		Signature:    "sig",
		ExecutedAtMs: id,
	}
	r.ExecutionID = idhash.ComputeExecutionID(r.Mint, r.Action, r.Rule, r.Amount, r.ExecutedAtMs)
	return r
}

func TestCheckExecution_Valid(t *testing.T) {
	assert.Empty(t, CheckExecution(validRecord(1000)))

	failed := validRecord(2000)
	failed.Success = false
	failed.Signature = ""
	failed.Error = "blockhash expired"
	assert.Empty(t, CheckExecution(failed))
}

func TestCheckExecution_Divergences(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *domain.ExecutionRecord)
		field  string
	}{
		{"tampered amount", func(r *domain.ExecutionRecord) { r.Amount = 5 }, "ExecutionID"},
		{"hold action", func(r *domain.ExecutionRecord) {
			r.Action = domain.ActionHold
			r.ExecutionID = idhash.ComputeExecutionID(r.Mint, r.Action, r.Rule, r.Amount, r.ExecutedAtMs)
		}, "Action"},
		{"min out above quote", func(r *domain.ExecutionRecord) { r.MinOut = 11000 }, "MinOut"},
		{"success without signature", func(r *domain.ExecutionRecord) { r.Signature = "" }, "Signature"},
		{"failure without error", func(r *domain.ExecutionRecord) { r.Success = false }, "Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecord(1000)
			tt.mutate(r)

			divs := CheckExecution(r)
			require.Len(t, divs, 1)
			assert.Equal(t, tt.field, divs[0].Field)
		})
	}
}

func TestAuditVerifier_VerifyMint(t *testing.T) {
	ctx := context.Background()
	store := memory.NewExecutionStore()

	require.NoError(t, store.Insert(ctx, validRecord(1000)))
	bad := validRecord(2000)
	bad.ExecutionID = "forged"
	require.NoError(t, store.Insert(ctx, bad))

	report, err := NewAuditVerifier(store).VerifyMint(ctx, "mint1")
	require.NoError(t, err)

	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Matched)
	assert.Equal(t, 1, report.Divergent)
	assert.False(t, report.OK())

	// newest first from the store
	assert.Equal(t, "forged", report.Results[0].ID)
	assert.False(t, report.Results[0].Match)
}

type brokenStore struct{}

func (brokenStore) Insert(context.Context, *domain.ExecutionRecord) error { return nil }

func (brokenStore) GetByMint(context.Context, string, int) ([]*domain.ExecutionRecord, error) {
	return nil, errors.New("connection reset")
}

func TestAuditVerifier_StoreError(t *testing.T) {
	_, err := NewAuditVerifier(brokenStore{}).VerifyMint(context.Background(), "mint1")
	assert.Error(t, err)
}

func sampleRun() *backtest.Results {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &backtest.Results{
		Cycles: 10,
		Trades: []backtest.Trade{
			{At: at, Action: domain.ActionBuy, Rule: "fib_support", Amount: 0.5, Price: 0.00005, Signature: "paper-a"},
			{At: at.Add(time.Minute), Action: domain.ActionSell, Rule: "take_profit", Amount: 5000, Price: 0.00007, Signature: "paper-b"},
		},
		FinalQuote:  9.85,
		FinalTokens: 5000,
	}
}

func TestCompareRuns_Identical(t *testing.T) {
	a, b := sampleRun(), sampleRun()
	b.Trades[0].Signature = "paper-other"

	report := CompareRuns(a, b)
	assert.True(t, report.OK(), "signatures must not count")
	assert.Equal(t, 2, report.Matched)
}

func TestCompareRuns_Diverges(t *testing.T) {
	a, b := sampleRun(), sampleRun()
	b.Trades[1].Price = 0.00008
	b.FinalQuote = 9.9

	report := CompareRuns(a, b)
	assert.False(t, report.OK())
	assert.Equal(t, 1, report.Divergent)
	require.Len(t, report.Results[1].Divergences, 1)
	assert.Equal(t, "Price", report.Results[1].Divergences[0].Field)
	require.Len(t, report.Divergences, 1)
	assert.Equal(t, "FinalQuote", report.Divergences[0].Field)
}

func TestCompareRuns_TradeCount(t *testing.T) {
	a, b := sampleRun(), sampleRun()
	b.Trades = b.Trades[:1]

	report := CompareRuns(a, b)
	assert.Equal(t, 1, report.Total)
	require.NotEmpty(t, report.Divergences)
	assert.Equal(t, "TradeCount", report.Divergences[0].Field)
}

func TestFloatEquals(t *testing.T) {
	if !floatEquals(1e9, 1e9+0.5) {
		t.Error("relative tolerance should absorb sub-unit noise on large values")
	}
	if floatEquals(0.001, 0.0011) {
		t.Error("small values must still be compared")
	}
}
