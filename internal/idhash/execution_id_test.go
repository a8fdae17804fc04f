package idhash

import (
	"testing"

	"solana-curve-maker/internal/domain"
)

func TestComputeExecutionID(t *testing.T) {
	tests := []struct {
		name   string
		mint   string
		action domain.Action
		rule   string
		amount float64
		atMs   int64
	}{
		{"buy", "MintA", domain.ActionBuy, "fib_golden_pocket", 0.5, 1700000000000},
		{"sell", "MintA", domain.ActionSell, "stop_loss", 125000, 1700000000000},
		{"zero amount", "MintB", domain.ActionBuy, "capitulation_buy", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeExecutionID(tt.mint, tt.action, tt.rule, tt.amount, tt.atMs)
			if len(got) != 64 {
				t.Errorf("ComputeExecutionID() length = %d, want 64", len(got))
			}

			got2 := ComputeExecutionID(tt.mint, tt.action, tt.rule, tt.amount, tt.atMs)
			if got != got2 {
				t.Errorf("ComputeExecutionID() not deterministic: %s != %s", got, got2)
			}
		})
	}
}

func TestComputeExecutionID_FieldsMatter(t *testing.T) {
	base := ComputeExecutionID("MintA", domain.ActionBuy, "ema21_support", 1, 1000)

	variants := map[string]string{
		"mint":   ComputeExecutionID("MintB", domain.ActionBuy, "ema21_support", 1, 1000),
		"action": ComputeExecutionID("MintA", domain.ActionSell, "ema21_support", 1, 1000),
		"rule":   ComputeExecutionID("MintA", domain.ActionBuy, "ema50_support", 1, 1000),
		"amount": ComputeExecutionID("MintA", domain.ActionBuy, "ema21_support", 2, 1000),
		"time":   ComputeExecutionID("MintA", domain.ActionBuy, "ema21_support", 1, 1001),
	}
	for field, id := range variants {
		if id == base {
			t.Errorf("changing %s did not change the id", field)
		}
	}
}

func TestComputeExecutionID_SubLamportNoise(t *testing.T) {
	a := ComputeExecutionID("MintA", domain.ActionBuy, "r", 0.1+0.2, 1000)
	b := ComputeExecutionID("MintA", domain.ActionBuy, "r", 0.3, 1000)
	if a != b {
		t.Errorf("expected float noise below 1e-9 to be ignored")
	}
}
