// Package backtest replays stored candles through the execution loop with
// paper settlement and a simulated clock.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"solana-curve-maker/internal/candles"
	"solana-curve-maker/internal/config"
	"solana-curve-maker/internal/domain"
	"solana-curve-maker/internal/engine"
	"solana-curve-maker/internal/indicators"
	"solana-curve-maker/internal/settlement"
	"solana-curve-maker/internal/signal"
	"solana-curve-maker/internal/storage/memory"
)

// ErrNoCandles is returned when there is nothing to replay.
var ErrNoCandles = errors.New("backtest: no candles")

// Options for Run.
type Options struct {
	Mint    string
	Candles []domain.Candle // base resolution, ascending
	Config  *config.Provider

	QuoteBalance float64 // starting SOL
	SupplyUI     float64 // token supply for market cap and wallet limits
	Complete     bool    // treat the curve as completed so sell rules may fire

	Generator *signal.Generator
	Logger    *zap.Logger
}

// Trade is one settled order.
type Trade struct {
	At        time.Time
	Action    domain.Action
	Rule      string
	Amount    float64
	Price     float64
	Signature string
}

// Results holds backtest output.
type Results struct {
	Mint     string
	Cycles   int
	Outcomes map[engine.Outcome]int
	Trades   []Trade

	StartQuote  float64
	FinalQuote  float64
	FinalTokens float64
	FinalPrice  float64
	FinalValue  float64 // quote + tokens at FinalPrice

	ReturnPercent      float64
	MaxDrawdownPercent float64
}

// Run replays opts.Candles one tick at a time. The tick follows the
// engine's own interval for the timeframe each cycle selected.
func Run(ctx context.Context, opts Options) (*Results, error) {
	if len(opts.Candles) == 0 {
		return nil, ErrNoCandles
	}
	if opts.QuoteBalance <= 0 {
		return nil, fmt.Errorf("backtest: quote balance must be positive")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := opts.Config.Current()

	var clock time.Time
	now := func() time.Time { return clock }

	paper := settlement.NewPaperSubmitter(opts.QuoteBalance)
	executions := memory.NewExecutionStore()
	e, err := engine.New(engine.Options{
		Mint:       opts.Mint,
		Candles:    newReplaySource(opts.Candles, now),
		Accounts:   paper,
		Curve:      newReplayCurve(opts.SupplyUI, opts.Complete),
		Executor:   settlement.NewSettler(paper, cfg.Engine.SlippagePercent, logger),
		Config:     opts.Config,
		Positions:  memory.NewPositionStore(),
		Executions: executions,
		Cooldowns:  memory.NewCooldownStore(),
		Generator:  opts.Generator,
		Logger:     logger,
		Paper:      true,
		Clock:      now,
	})
	if err != nil {
		return nil, err
	}

	bar := candles.BaseInterval.Duration()
	first := time.UnixMilli(opts.Candles[0].TimestampMs)
	end := time.UnixMilli(opts.Candles[len(opts.Candles)-1].TimestampMs).Add(bar)
	clock = first.Add(time.Duration(indicators.MinCandles) * bar)

	res := &Results{
		Mint:       opts.Mint,
		Outcomes:   make(map[engine.Outcome]int),
		StartQuote: opts.QuoteBalance,
	}
	var equity []float64

	for !clock.After(end) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rep, err := e.RunCycle(ctx)
		if err != nil {
			return nil, fmt.Errorf("cycle at %s: %w", clock.Format(time.RFC3339), err)
		}
		res.Cycles++
		res.Outcomes[rep.Outcome]++

		if rep.Outcome == engine.OutcomeSettled && rep.Result != nil {
			res.Trades = append(res.Trades, Trade{
				At:        clock,
				Action:    rep.Signal.Action,
				Rule:      rep.Signal.Rule,
				Amount:    rep.Signal.Amount,
				Price:     rep.State.Price,
				Signature: rep.Result.Signature,
			})
		}
		if rep.State.Price > 0 {
			quote, tokens, _ := paper.Balances(ctx, opts.Mint)
			equity = append(equity, quote+tokens*rep.State.Price)
			res.FinalPrice = rep.State.Price
		}

		clock = clock.Add(engine.TickInterval(rep.Timeframe))
	}

	res.FinalQuote, res.FinalTokens, _ = paper.Balances(ctx, opts.Mint)
	res.FinalValue = res.FinalQuote + res.FinalTokens*res.FinalPrice
	res.ReturnPercent = (res.FinalValue - res.StartQuote) / res.StartQuote * 100
	res.MaxDrawdownPercent = maxDrawdownPercent(equity)

	logger.Info("backtest finished",
		zap.String("mint", opts.Mint),
		zap.Int("cycles", res.Cycles),
		zap.Int("trades", len(res.Trades)),
		zap.Float64("return_pct", res.ReturnPercent),
	)
	return res, nil
}

// maxDrawdownPercent is the worst peak-to-trough fall of the equity curve,
// as a percent of the peak.
func maxDrawdownPercent(equity []float64) float64 {
	peak, worst := 0.0, 0.0
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - v) / peak * 100; dd > worst {
			worst = dd
		}
	}
	return worst
}
