// Package engine runs the per-asset execution loop:
// candles → indicators → phase → signal → (gated) settlement.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"solana-curve-maker/internal/config"
	"solana-curve-maker/internal/domain"
	"solana-curve-maker/internal/idhash"
	"solana-curve-maker/internal/indicators"
	"solana-curve-maker/internal/observability"
	"solana-curve-maker/internal/settlement"
	"solana-curve-maker/internal/signal"
	"solana-curve-maker/internal/storage"
	"solana-curve-maker/internal/wallet"
)

// ErrCycleInFlight is returned when RunCycle is called while a cycle is running.
var ErrCycleInFlight = errors.New("cycle already in flight")

// CandleSource serves candle windows and the asset's launch time.
type CandleSource interface {
	Candles(ctx context.Context, mint string, tf domain.Timeframe, limit int) ([]domain.Candle, error)
	LaunchTime(ctx context.Context, mint string) (time.Time, bool, error)
}

// AccountSource reports the trading account's SOL and token balances.
type AccountSource interface {
	Balances(ctx context.Context, mint string) (quote, tokens float64, err error)
}

// CurveSource reads the bonding curve account.
type CurveSource interface {
	Curve(ctx context.Context, mint string) (domain.CurveState, error)
}

// Executor prices and submits a signal.
type Executor interface {
	Execute(ctx context.Context, mint string, sig domain.TradeSignal, q settlement.Quote) settlement.Result
}

// Options for creating an Engine.
type Options struct {
	Mint       string
	LaunchedAt time.Time // zero uses CandleSource.LaunchTime

	// Required collaborators
	Candles  CandleSource
	Accounts AccountSource
	Executor Executor
	Config   *config.Provider

	// Optional; nil disables market cap and the bonding-complete flag
	Curve CurveSource

	// Required stores
	Positions  storage.PositionStore
	Executions storage.ExecutionStore
	Cooldowns  storage.CooldownStore

	Generator *signal.Generator // nil uses the default rule table
	Metrics   *observability.Metrics
	Logger    *zap.Logger
	Paper     bool
	Clock     func() time.Time // nil uses time.Now
}

// Engine is the execution loop for one asset.
type Engine struct {
	mint       string
	launchedAt time.Time

	candles    CandleSource
	accounts   AccountSource
	curve      CurveSource
	executor   Executor
	cfg        *config.Provider
	positions  storage.PositionStore
	executions storage.ExecutionStore
	cooldowns  storage.CooldownStore
	generator  *signal.Generator
	metrics    *observability.Metrics
	logger     *zap.Logger
	paper      bool
	now        func() time.Time

	inFlight atomic.Bool
	cycles   atomic.Uint64
	last     atomic.Pointer[CycleReport]
}

// New creates an Engine.
func New(opts Options) (*Engine, error) {
	switch {
	case opts.Mint == "":
		return nil, errors.New("engine: mint is required")
	case opts.Candles == nil || opts.Accounts == nil || opts.Executor == nil || opts.Config == nil:
		return nil, errors.New("engine: candles, accounts, executor and config are required")
	case opts.Positions == nil || opts.Executions == nil || opts.Cooldowns == nil:
		return nil, errors.New("engine: position, execution and cooldown stores are required")
	}

	gen := opts.Generator
	if gen == nil {
		gen = signal.NewGenerator()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Engine{
		mint:       opts.Mint,
		launchedAt: opts.LaunchedAt,
		candles:    opts.Candles,
		accounts:   opts.Accounts,
		curve:      opts.Curve,
		executor:   opts.Executor,
		cfg:        opts.Config,
		positions:  opts.Positions,
		executions: opts.Executions,
		cooldowns:  opts.Cooldowns,
		generator:  gen,
		metrics:    opts.Metrics,
		logger:     logger.With(zap.String("mint", opts.Mint)),
		paper:      opts.Paper,
		now:        clock,
	}, nil
}

// Mint returns the traded asset.
func (e *Engine) Mint() string {
	return e.mint
}

// Running reports whether a cycle is in flight.
func (e *Engine) Running() bool {
	return e.inFlight.Load()
}

// LastCycle returns the report of the most recent cycle, nil before the first.
func (e *Engine) LastCycle() *CycleReport {
	return e.last.Load()
}

// Run executes cycles until ctx is cancelled. Cycle errors are logged and
// the loop continues.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine started", zap.Bool("paper", e.paper))
	defer e.logger.Info("engine stopped")

	for {
		rep, err := e.RunCycle(ctx)
		if err != nil && ctx.Err() == nil {
			e.logger.Warn("cycle failed", zap.Uint64("cycle", rep.Cycle), zap.Error(err))
		}

		timer := time.NewTimer(TickInterval(rep.Timeframe))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// TickInterval returns the pause between cycles for tf: half a bar below
// 5m, a third of a bar otherwise, never under 10s.
func TickInterval(tf domain.Timeframe) time.Duration {
	d := tf.Duration()
	if d <= 0 {
		d = domain.Timeframe30s.Duration()
	}
	if d < 5*time.Minute {
		d /= 2
	} else {
		d /= 3
	}
	if d < MinTickInterval {
		d = MinTickInterval
	}
	return d
}

// MinTickInterval bounds how often cycles run.
const MinTickInterval = 10 * time.Second

// RunCycle runs one cycle to completion. The returned report is always
// populated with what was reached before an error.
func (e *Engine) RunCycle(ctx context.Context) (CycleReport, error) {
	if !e.inFlight.CompareAndSwap(false, true) {
		return CycleReport{}, ErrCycleInFlight
	}
	defer e.inFlight.Store(false)

	rep := CycleReport{
		Cycle:     e.cycles.Add(1),
		Mint:      e.mint,
		StartedAt: e.now(),
		Timeframe: domain.Timeframe30s,
	}
	err := e.cycle(ctx, e.cfg.Current(), &rep)
	rep.Duration = e.now().Sub(rep.StartedAt)
	if err != nil {
		rep.Outcome = OutcomeError
		rep.Error = err.Error()
	}

	stored := rep
	e.last.Store(&stored)
	if e.metrics != nil {
		e.metrics.RecordCycle(e.mint, rep.Duration.Seconds(), rep.StartedAt.Unix())
		if rep.Outcome != OutcomeSettled && rep.Outcome != OutcomeFailed {
			e.metrics.RecordSkip(e.mint, string(rep.Outcome))
		}
	}
	return rep, err
}

func (e *Engine) cycle(ctx context.Context, cfg *config.Config, rep *CycleReport) error {
	logger := e.logger.With(zap.Uint64("cycle", rep.Cycle))
	now := rep.StartedAt

	if err := ctx.Err(); err != nil {
		return err
	}
	launch, err := e.launchTime(ctx, now)
	if err != nil {
		return err
	}
	age := now.Sub(launch)
	if age < 0 {
		age = 0
	}
	tf := domain.TimeframeForAge(age)
	rep.Timeframe = tf

	if err := ctx.Err(); err != nil {
		return err
	}
	candles, err := e.candles.Candles(ctx, e.mint, tf, domain.MaxCandleWindow)
	if err != nil {
		return fmt.Errorf("fetch candles: %w", err)
	}

	var curve *domain.CurveState
	if e.curve != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		cs, err := e.curve.Curve(ctx, e.mint)
		if err != nil {
			return fmt.Errorf("read curve: %w", err)
		}
		curve = &cs
	}

	in := indicators.StateInput{AgeMinutes: age.Minutes()}
	supply := 0.0
	if curve != nil {
		supply = curve.TotalSupplyUI()
		in.BondingComplete = curve.Complete
		if n := len(candles); n > 0 {
			in.MarketCapUSD = candles[n-1].Close * supply * cfg.Engine.SolPriceUSD
		}
	}

	state, err := indicators.BuildMarketState(candles, tf, in)
	if errors.Is(err, indicators.ErrInsufficientCandles) {
		rep.Outcome = OutcomeInsufficientData
		logger.Debug("skipping cycle", zap.String("reason", string(rep.Outcome)),
			zap.Int("candles", len(candles)), zap.String("timeframe", tf.String()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("build market state: %w", err)
	}
	rep.State = state

	if err := ctx.Err(); err != nil {
		return err
	}
	pos, err := e.refreshPosition(ctx, now)
	if err != nil {
		return err
	}
	rep.Position = *pos
	if e.metrics != nil {
		e.metrics.RecordMarket(e.mint, state.Phase.String(), state.Price, state.MarketCapUSD,
			pos.HeldTokens, pos.QuoteBalance)
	}

	sig := e.generator.Generate(signal.Input{
		State:    state,
		Config:   cfg.Strategy,
		CapRules: cfg.MarketCap,
		Position: *pos,
		Now:      now,
	})
	rep.Signal = sig
	if e.metrics != nil {
		e.metrics.RecordSignal(e.mint, string(sig.Action), sig.Rule, sig.Confidence)
	}

	logger = logger.With(
		zap.String("phase", state.Phase.String()),
		zap.String("action", string(sig.Action)),
		zap.String("rule", sig.Rule),
	)

	outcome, detail, err := e.gate(ctx, cfg, sig, state, *pos, supply, now)
	if err != nil {
		return err
	}
	if outcome != "" {
		rep.Outcome = outcome
		logger.Info("skipping execution",
			zap.String("reason", string(outcome)),
			zap.String("detail", detail),
			zap.Float64("confidence", sig.Confidence),
			zap.String("signal_reason", sig.Reason),
		)
		return nil
	}

	res := e.settle(ctx, sig, state, curve, pos, now, logger)
	rep.Result = &res
	if res.Success {
		rep.Outcome = OutcomeSettled
		rep.Position = *pos
	} else {
		rep.Outcome = OutcomeFailed
	}
	return nil
}

// launchTime resolves the asset's launch. Unknown launches count as now.
func (e *Engine) launchTime(ctx context.Context, now time.Time) (time.Time, error) {
	if !e.launchedAt.IsZero() {
		return e.launchedAt, nil
	}
	t, ok, err := e.candles.LaunchTime(ctx, e.mint)
	if err != nil {
		return time.Time{}, fmt.Errorf("launch time: %w", err)
	}
	if !ok {
		return now, nil
	}
	return t, nil
}

// refreshPosition merges on-chain balances into the stored position.
// The stored average entry survives; holdings follow the chain.
func (e *Engine) refreshPosition(ctx context.Context, now time.Time) (*domain.Position, error) {
	pos, err := e.positions.Get(ctx, e.mint)
	if errors.Is(err, storage.ErrNotFound) {
		pos = &domain.Position{Mint: e.mint}
	} else if err != nil {
		return nil, fmt.Errorf("load position: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	quote, tokens, err := e.accounts.Balances(ctx, e.mint)
	if err != nil {
		return nil, fmt.Errorf("fetch balances: %w", err)
	}
	pos.QuoteBalance = quote
	pos.HeldTokens = tokens
	if tokens <= 0 {
		pos.AverageEntryPrice = 0
	}
	if pos.UpdatedAt.IsZero() {
		pos.UpdatedAt = now
	}
	return pos, nil
}

// gate returns a non-empty outcome when the signal must not be forwarded.
func (e *Engine) gate(
	ctx context.Context,
	cfg *config.Config,
	sig domain.TradeSignal,
	state domain.MarketState,
	pos domain.Position,
	supply float64,
	now time.Time,
) (Outcome, string, error) {
	if !sig.IsActionable() {
		return OutcomeHold, sig.Reason, nil
	}
	if sig.Confidence < cfg.Engine.MinConfidence {
		return OutcomeLowConfidence,
			fmt.Sprintf("confidence %.0f below %.0f", sig.Confidence, cfg.Engine.MinConfidence), nil
	}

	last, ok, err := e.cooldowns.LastTrade(ctx, e.mint)
	if err != nil {
		return "", "", fmt.Errorf("read cooldown: %w", err)
	}
	if ok {
		if remaining := cfg.Engine.Cooldown() - now.Sub(last); remaining > 0 {
			return OutcomeCooldown, fmt.Sprintf("%s remaining", remaining.Round(time.Second)), nil
		}
	}

	if cfg.Engine.EnforceWalletLimits && sig.Action == domain.ActionBuy && supply > 0 {
		projected := pos.HeldTokens + sig.Amount/state.Price
		check := wallet.CheckWallet(projected, supply, state.Price, cfg.WalletLimits)
		if !check.WithinLimits {
			return OutcomeWalletLimit, fmt.Sprint(check.Warnings), nil
		}
	}
	return "", "", nil
}

// settle forwards sig and records the outcome. It runs detached from ctx so
// a stop request cannot abandon a submitted trade.
func (e *Engine) settle(
	ctx context.Context,
	sig domain.TradeSignal,
	state domain.MarketState,
	curve *domain.CurveState,
	pos *domain.Position,
	now time.Time,
	logger *zap.Logger,
) settlement.Result {
	sctx := context.WithoutCancel(ctx)

	res := e.executor.Execute(sctx, e.mint, sig, settlement.Quote{Price: state.Price, Curve: curve})
	done := e.now()

	if err := e.cooldowns.MarkTrade(sctx, e.mint, done); err != nil {
		logger.Error("failed to mark cooldown", zap.Error(err))
	}
	if e.metrics != nil {
		e.metrics.RecordSettlement(e.mint, string(sig.Action), res.Success, res.Duration.Seconds())
	}

	if res.Success {
		switch sig.Action {
		case domain.ActionBuy:
			pos.ApplyBuy(res.TokensDelta, -res.QuoteDelta, done)
		case domain.ActionSell:
			pos.ApplySell(-res.TokensDelta, res.QuoteDelta, done)
		}
		if err := e.positions.Save(sctx, pos); err != nil {
			logger.Error("failed to save position", zap.Error(err))
		}
		logger.Info("settled",
			zap.String("signature", res.Signature),
			zap.Float64("tokens_delta", res.TokensDelta),
			zap.Float64("quote_delta", res.QuoteDelta),
			zap.Float64("held_tokens", pos.HeldTokens),
		)
	} else {
		logger.Warn("settlement failed", zap.String("error", res.Error))
	}

	executedAt := now.UnixMilli()
	rec := &domain.ExecutionRecord{
		ExecutionID:  idhash.ComputeExecutionID(e.mint, sig.Action, sig.Rule, sig.Amount, executedAt),
		Mint:         e.mint,
		Action:       sig.Action,
		Rule:         sig.Rule,
		Confidence:   sig.Confidence,
		Amount:       sig.Amount,
		ExpectedOut:  res.Order.ExpectedOut,
		MinOut:       res.Order.MinOut,
		Price:        state.Price,
		Success:      res.Success,
		Signature:    res.Signature,
		Error:        res.Error,
		Paper:        e.paper,
		ExecutedAtMs: executedAt,
	}
	if err := e.executions.Insert(sctx, rec); err != nil {
		logger.Error("failed to record execution", zap.String("execution_id", rec.ExecutionID), zap.Error(err))
	}
	return res
}
