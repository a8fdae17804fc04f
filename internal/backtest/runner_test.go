package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"solana-curve-maker/internal/config"
	"solana-curve-maker/internal/domain"
	"solana-curve-maker/internal/engine"
	"solana-curve-maker/internal/signal"
)

const testMint = "MintBacktest"

var start = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

// risingCandles returns n base bars climbing 1% per bar from 1e-6 SOL.
func risingCandles(n int) []domain.Candle {
	out := make([]domain.Candle, n)
	for i := range out {
		p := 1e-6 * (1 + float64(i)*0.01)
		out[i] = domain.Candle{
			TimestampMs: start.Add(time.Duration(i) * 30 * time.Second).UnixMilli(),
			Open:        p, High: p, Low: p, Close: p,
			Volume: 2, BuyVolume: 1.5, SellVolume: 0.5,
		}
	}
	return out
}

func alwaysBuy() *signal.Generator {
	return signal.NewGenerator(signal.Rule{
		Name: "always_buy",
		Eval: func(e *signal.Evaluation) (domain.TradeSignal, bool) {
			return domain.TradeSignal{Action: domain.ActionBuy, Amount: 0.1, Confidence: 90}, true
		},
	})
}

func testProvider() *config.Provider {
	cfg := config.Default()
	cfg.Assets = []config.AssetConfig{{Mint: testMint, Enabled: true}}
	return config.NewStatic(cfg)
}

func TestRun_NoCandles(t *testing.T) {
	_, err := Run(context.Background(), Options{Mint: testMint, Config: testProvider(), QuoteBalance: 1})
	assert.ErrorIs(t, err, ErrNoCandles)
}

func TestRun_RespectsCooldownAndNoLookAhead(t *testing.T) {
	base := risingCandles(60)
	res, err := Run(context.Background(), Options{
		Mint:         testMint,
		Candles:      base,
		Config:       testProvider(),
		QuoteBalance: 10,
		SupplyUI:     1_000_000_000,
		Generator:    alwaysBuy(),
		Logger:       zap.NewNop(),
	})
	require.NoError(t, err)

	require.NotEmpty(t, res.Trades)
	assert.Greater(t, res.Outcomes[engine.OutcomeCooldown], 0)
	assert.Greater(t, res.Outcomes[engine.OutcomeInsufficientData]+res.Outcomes[engine.OutcomeHold], 0)

	for i := 1; i < len(res.Trades); i++ {
		gap := res.Trades[i].At.Sub(res.Trades[i-1].At)
		if gap < 60*time.Second {
			t.Errorf("trades %d and %d only %v apart", i-1, i, gap)
		}
	}

	for _, tr := range res.Trades {
		// The last visible bar closed at or before the trade time.
		idx := int(tr.At.Sub(start)/(30*time.Second)) - 1
		require.GreaterOrEqual(t, idx, 0)
		assert.InDelta(t, base[idx].Close, tr.Price, 1e-15, "trade at %s", tr.At)
	}

	spent := 0.1 * float64(len(res.Trades))
	assert.InDelta(t, 10-spent, res.FinalQuote, 1e-9)
	assert.Greater(t, res.FinalTokens, 0.0)
	// Buying into a steady climb ends above the fee drag.
	assert.Greater(t, res.ReturnPercent, 0.0)
}

func TestRun_HoldOnlyKeepsBalance(t *testing.T) {
	res, err := Run(context.Background(), Options{
		Mint:         testMint,
		Candles:      risingCandles(40),
		Config:       testProvider(),
		QuoteBalance: 3,
		SupplyUI:     1_000_000_000,
		Logger:       zap.NewNop(),
	})
	require.NoError(t, err)

	// The sell gate stays closed on an incomplete curve and nothing is held,
	// so only buy rules could fire; a steady climb has no pullback to buy.
	assert.Empty(t, res.Trades)
	assert.Equal(t, 3.0, res.FinalValue)
	assert.Zero(t, res.MaxDrawdownPercent)
}

func TestMaxDrawdownPercent(t *testing.T) {
	tests := []struct {
		name   string
		equity []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"monotonic", []float64{1, 2, 3}, 0},
		{"single dip", []float64{10, 8, 12, 9}, 25},
		{"deepest wins", []float64{10, 5, 20, 15}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, maxDrawdownPercent(tt.equity), 1e-9)
		})
	}
}
