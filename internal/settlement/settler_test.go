package settlement

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"solana-curve-maker/internal/domain"
)

type fakeSubmitter struct {
	orders  []Order
	receipt Receipt
	err     error
}

func (f *fakeSubmitter) Submit(_ context.Context, o Order) (Receipt, error) {
	f.orders = append(f.orders, o)
	return f.receipt, f.err
}

func launchCurve() *domain.CurveState {
	return &domain.CurveState{
		VirtualSolReserves:   30_000_000_000,
		VirtualTokenReserves: 1_073_000_000_000_000,
		TokenTotalSupply:     1_000_000_000_000_000,
	}
}

func TestSettler_BuildOrder_FromCurve(t *testing.T) {
	s := NewSettler(&fakeSubmitter{}, 5, zap.NewNop())
	sig := domain.TradeSignal{Action: domain.ActionBuy, Amount: 1}

	o, err := s.BuildOrder("mint", sig, Quote{Curve: launchCurve()})
	require.NoError(t, err)

	want := TokensOut(1, 30, 1_073_000_000)
	assert.InDelta(t, want, o.ExpectedOut, 1e-3)
	assert.InDelta(t, want*0.95, o.MinOut, 1e-3)
	assert.Equal(t, uint64(1_000_000_000), o.AmountBase)
	assert.InDelta(t, o.MinOut*1e6, float64(o.MinOutBase), 1)
	assert.Equal(t, 5.0, o.SlippagePercent)
}

func TestSettler_BuildOrder_SellUsesTokenDecimals(t *testing.T) {
	s := NewSettler(&fakeSubmitter{}, 0, nil)
	sig := domain.TradeSignal{Action: domain.ActionSell, Amount: 1234.5678919}

	o, err := s.BuildOrder("mint", sig, Quote{Curve: launchCurve()})
	require.NoError(t, err)
	assert.Equal(t, uint64(1_234_567_891), o.AmountBase)
	assert.Equal(t, DefaultSlippagePercent, o.SlippagePercent)
	assert.InDelta(t, o.MinOut*1e9, float64(o.MinOutBase), 1)
}

func TestSettler_BuildOrder_CompleteCurveUsesPrice(t *testing.T) {
	s := NewSettler(&fakeSubmitter{}, 10, nil)
	curve := launchCurve()
	curve.Complete = true

	o, err := s.BuildOrder("mint", domain.TradeSignal{Action: domain.ActionSell, Amount: 1000}, Quote{Price: 0.001, Curve: curve})
	require.NoError(t, err)
	assert.InDelta(t, 1000*0.001*0.99, o.ExpectedOut, 1e-12)

	_, err = s.BuildOrder("mint", domain.TradeSignal{Action: domain.ActionBuy, Amount: 1}, Quote{Curve: curve})
	assert.ErrorIs(t, err, ErrNoPrice)
}

func TestSettler_BuildOrder_Rejects(t *testing.T) {
	s := NewSettler(&fakeSubmitter{}, 10, nil)

	_, err := s.BuildOrder("mint", domain.TradeSignal{Action: domain.ActionHold, Amount: 1}, Quote{Price: 1})
	assert.ErrorIs(t, err, ErrNotActionable)

	_, err = s.BuildOrder("mint", domain.TradeSignal{Action: domain.ActionBuy, Amount: 1e-12}, Quote{Price: 1})
	assert.ErrorIs(t, err, ErrZeroOut)
}

func TestSettler_Execute_Success(t *testing.T) {
	sub := &fakeSubmitter{receipt: Receipt{Signature: "sig", FilledIn: 1, FilledOut: 30_000_000}}
	s := NewSettler(sub, 10, nil)

	res := s.Execute(context.Background(), "mint", domain.TradeSignal{Action: domain.ActionBuy, Amount: 1}, Quote{Curve: launchCurve()})
	require.True(t, res.Success)
	assert.Equal(t, "sig", res.Signature)
	assert.Equal(t, 30_000_000.0, res.TokensDelta)
	assert.Equal(t, -1.0, res.QuoteDelta)
	require.Len(t, sub.orders, 1)
	assert.Equal(t, "mint", sub.orders[0].Mint)
}

func TestSettler_Execute_SellFallsBackToQuote(t *testing.T) {
	sub := &fakeSubmitter{receipt: Receipt{Signature: "sig"}}
	s := NewSettler(sub, 10, nil)

	res := s.Execute(context.Background(), "mint", domain.TradeSignal{Action: domain.ActionSell, Amount: 500}, Quote{Price: 0.01})
	require.True(t, res.Success)
	assert.Equal(t, -500.0, res.TokensDelta)
	assert.InDelta(t, 500*0.01*0.99, res.QuoteDelta, 1e-12)
}

func TestSettler_Execute_Failure(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("blockhash expired")}
	s := NewSettler(sub, 10, nil)

	res := s.Execute(context.Background(), "mint", domain.TradeSignal{Action: domain.ActionBuy, Amount: 1}, Quote{Price: 0.001})
	assert.False(t, res.Success)
	assert.Equal(t, "blockhash expired", res.Error)
	assert.Zero(t, res.TokensDelta)
	assert.Zero(t, res.QuoteDelta)

	res = s.Execute(context.Background(), "mint", domain.TradeSignal{Action: domain.ActionBuy, Amount: 1}, Quote{})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "no price")
	assert.Len(t, sub.orders, 1, "unpriced order must not be submitted")
}

func TestSettler_Execute_UnconfirmedKeepsSignature(t *testing.T) {
	sub := &fakeSubmitter{
		receipt: Receipt{Signature: "5xSent"},
		err:     fmt.Errorf("5xSent: %w", ErrConfirmTimeout),
	}
	s := NewSettler(sub, 10, nil)

	res := s.Execute(context.Background(), "mint", domain.TradeSignal{Action: domain.ActionBuy, Amount: 1}, Quote{Price: 0.001})
	assert.False(t, res.Success)
	assert.Equal(t, "5xSent", res.Signature)
	assert.Contains(t, res.Error, "not confirmed")
	assert.Zero(t, res.TokensDelta)
}

func TestBaseUnits(t *testing.T) {
	assert.Equal(t, uint64(1_500_000_000), toBase(1.5, 9))
	assert.Equal(t, uint64(0), toBase(-1, 9))
	assert.Equal(t, uint64(123), toBase(0.0001239, 6))
	assert.Equal(t, 1.5, FromBase(1_500_000_000, 9))
	assert.Equal(t, 0.000123, FromBase(123, 6))
}

func TestPaperSubmitter(t *testing.T) {
	p := NewPaperSubmitter(2)
	ctx := context.Background()

	r, err := p.Submit(ctx, Order{Mint: "m", Action: domain.ActionBuy, Amount: 1.5, ExpectedOut: 1000})
	require.NoError(t, err)
	assert.Contains(t, r.Signature, "paper-")
	assert.Equal(t, 1000.0, r.FilledOut)

	q, tok, _ := p.Balances(ctx, "m")
	assert.Equal(t, 0.5, q)
	assert.Equal(t, 1000.0, tok)

	_, err = p.Submit(ctx, Order{Mint: "m", Action: domain.ActionBuy, Amount: 1})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = p.Submit(ctx, Order{Mint: "m", Action: domain.ActionSell, Amount: 2000})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = p.Submit(ctx, Order{Mint: "m", Action: domain.ActionSell, Amount: 400, ExpectedOut: 0.6})
	require.NoError(t, err)
	q, tok, _ = p.Balances(ctx, "m")
	assert.InDelta(t, 1.1, q, 1e-12)
	assert.Equal(t, 600.0, tok)

	fills := p.Fills()
	require.Len(t, fills, 2)
	assert.NotEqual(t, fills[0].Signature, fills[1].Signature)
}
