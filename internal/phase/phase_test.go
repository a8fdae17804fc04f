package phase

import (
	"testing"

	"solana-curve-maker/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		state domain.MarketState
		want  domain.Phase
	}{
		{
			name:  "euphoria",
			state: domain.MarketState{PriceChange5m: 25, NetVolume5m: 2, RSI14: 80},
			want:  domain.PhaseEuphoria,
		},
		{
			name:  "pump without net buying is not euphoria",
			state: domain.MarketState{PriceChange5m: 25, NetVolume5m: 0.5, RSI14: 80},
			want:  domain.PhaseAccumulation,
		},
		{
			name:  "capitulation",
			state: domain.MarketState{PriceChange5m: -30, RSI14: 20},
			want:  domain.PhaseCapitulation,
		},
		{
			name: "markup",
			state: domain.MarketState{
				PriceChange15m: 12, Price: 1.2, EMA9: 1.1, EMA21: 1.0, RSI14: 60,
			},
			want: domain.PhaseMarkup,
		},
		{
			name: "decline",
			state: domain.MarketState{
				PriceChange15m: -12, Price: 0.8, EMA9: 0.9, EMA21: 1.0, RSI14: 40,
			},
			want: domain.PhaseDecline,
		},
		{
			name: "distribution",
			state: domain.MarketState{
				PriceChange5m: 1, PriceChange15m: 20, NetVolume5m: -0.5,
				Price: 1.0, EMA9: 1.1, EMA21: 1.0,
			},
			want: domain.PhaseDistribution,
		},
		{
			name:  "flat market",
			state: domain.MarketState{Price: 1, EMA9: 1, EMA21: 1, RSI14: 50},
			want:  domain.PhaseAccumulation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.state); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestClassify_FirstMatchWins(t *testing.T) {
	// Satisfies both euphoria and markup; euphoria is checked first.
	s := domain.MarketState{
		PriceChange5m: 30, PriceChange15m: 40, NetVolume5m: 5, RSI14: 85,
		Price: 2, EMA9: 1.5, EMA21: 1.2,
	}
	if got := Classify(s); got != domain.PhaseEuphoria {
		t.Errorf("expected euphoria, got %s", got)
	}
}
