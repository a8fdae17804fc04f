package settlement

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"solana-curve-maker/internal/domain"
)

// Settlement errors.
var (
	ErrNotActionable = errors.New("signal is not actionable")
	ErrNoPrice       = errors.New("no price to quote against")
	ErrZeroOut       = errors.New("order rounds to zero output")
)

// DefaultSlippagePercent bounds the accepted output below the quote.
const DefaultSlippagePercent = 10.0

// Order is what a Submitter executes. Amount is SOL for buys and tokens for
// sells; the *Base fields are the same values in lamports or raw token units.
type Order struct {
	Mint            string
	Action          domain.Action
	Amount          float64
	AmountBase      uint64
	ExpectedOut     float64
	MinOut          float64
	MinOutBase      uint64
	SlippagePercent float64
}

// Receipt is a confirmed submission. Zero fill amounts mean the submitter
// could not observe the fill and the quote is used instead.
type Receipt struct {
	Signature string
	FilledIn  float64
	FilledOut float64
}

// Submitter executes an order and blocks until it is confirmed or failed.
type Submitter interface {
	Submit(ctx context.Context, o Order) (Receipt, error)
}

// Quote is the market snapshot an order is priced from.
type Quote struct {
	Price float64
	Curve *domain.CurveState // nil when reserves are unknown
}

// Result reports one settlement back to the execution loop.
type Result struct {
	Order       Order
	Success     bool
	Signature   string
	Error       string
	TokensDelta float64
	QuoteDelta  float64
	Duration    time.Duration
}

// Settler prices signals and forwards them to a Submitter.
type Settler struct {
	submitter Submitter
	slippage  float64
	logger    *zap.Logger
}

// NewSettler creates a Settler. slippagePercent <= 0 uses DefaultSlippagePercent.
func NewSettler(submitter Submitter, slippagePercent float64, logger *zap.Logger) *Settler {
	if slippagePercent <= 0 {
		slippagePercent = DefaultSlippagePercent
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Settler{submitter: submitter, slippage: slippagePercent, logger: logger}
}

// BuildOrder prices sig against q without submitting.
func (s *Settler) BuildOrder(mint string, sig domain.TradeSignal, q Quote) (Order, error) {
	if !sig.IsActionable() {
		return Order{}, ErrNotActionable
	}

	expected, err := expectedOut(sig.Action, sig.Amount, q)
	if err != nil {
		return Order{}, err
	}
	minOut := expected * (1 - s.slippage/100)

	inDecimals, outDecimals := int32(domain.SolDecimals), int32(domain.TokenDecimals)
	if sig.Action == domain.ActionSell {
		inDecimals, outDecimals = outDecimals, inDecimals
	}

	o := Order{
		Mint:            mint,
		Action:          sig.Action,
		Amount:          sig.Amount,
		AmountBase:      toBase(sig.Amount, inDecimals),
		ExpectedOut:     expected,
		MinOut:          minOut,
		MinOutBase:      toBase(minOut, outDecimals),
		SlippagePercent: s.slippage,
	}
	if o.AmountBase == 0 || toBase(expected, outDecimals) == 0 {
		return Order{}, ErrZeroOut
	}
	return o, nil
}

// Execute prices and submits sig. Failures are reported in the Result.
func (s *Settler) Execute(ctx context.Context, mint string, sig domain.TradeSignal, q Quote) Result {
	start := time.Now()

	o, err := s.BuildOrder(mint, sig, q)
	if err != nil {
		return Result{Order: o, Error: err.Error(), Duration: time.Since(start)}
	}

	logger := s.logger.With(
		zap.String("mint", mint),
		zap.String("action", string(o.Action)),
		zap.Float64("amount", o.Amount),
		zap.Float64("min_out", o.MinOut),
	)
	logger.Info("submitting order")

	receipt, err := s.submitter.Submit(ctx, o)
	res := Result{Order: o, Duration: time.Since(start)}
	if err != nil {
		// a sent but unconfirmed transaction keeps its signature for the audit row
		res.Signature = receipt.Signature
		res.Error = err.Error()
		logger.Warn("order failed", zap.String("signature", receipt.Signature), zap.Error(err), zap.Duration("took", res.Duration))
		return res
	}

	in, out := receipt.FilledIn, receipt.FilledOut
	if in <= 0 {
		in = o.Amount
	}
	if out <= 0 {
		out = o.ExpectedOut
	}
	res.Success = true
	res.Signature = receipt.Signature
	if o.Action == domain.ActionBuy {
		res.TokensDelta, res.QuoteDelta = out, -in
	} else {
		res.TokensDelta, res.QuoteDelta = -in, out
	}

	logger.Info("order confirmed",
		zap.String("signature", receipt.Signature),
		zap.Float64("filled_out", out),
		zap.Duration("took", res.Duration),
	)
	return res
}

// expectedOut quotes the counter amount from curve reserves, or from price
// once the curve has completed.
func expectedOut(action domain.Action, amount float64, q Quote) (float64, error) {
	if q.Curve != nil && !q.Curve.Complete && q.Curve.VirtualTokenReserves > 0 {
		r := ReservesOf(*q.Curve)
		if action == domain.ActionBuy {
			return TokensOut(amount, r.Sol, r.Token), nil
		}
		return SolOut(amount, r.Sol, r.Token), nil
	}

	if q.Price <= 0 {
		return 0, ErrNoPrice
	}
	switch action {
	case domain.ActionBuy:
		return amount / q.Price * (1 - FeeRate), nil
	case domain.ActionSell:
		return amount * q.Price * (1 - FeeRate), nil
	}
	return 0, fmt.Errorf("unknown action %q", action)
}

// toBase converts a UI amount to integer base units, rounding down.
func toBase(amount float64, decimals int32) uint64 {
	if amount <= 0 {
		return 0
	}
	return uint64(decimal.NewFromFloat(amount).Shift(decimals).Floor().IntPart())
}

// FromBase converts integer base units to a UI amount.
func FromBase(amount uint64, decimals int32) float64 {
	f, _ := decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -decimals).Float64()
	return f
}
