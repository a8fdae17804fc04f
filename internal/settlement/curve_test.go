package settlement

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"solana-curve-maker/internal/domain"
)

// Launch reserves of a fresh pump.fun curve.
var launch = Reserves{Sol: 30, Token: 1_073_000_000}

func TestTokensOut(t *testing.T) {
	got := TokensOut(1, launch.Sol, launch.Token)
	want := launch.Token - launch.Sol*launch.Token/(launch.Sol+0.99)
	assert.InDelta(t, want, got, 1e-6)
	assert.Greater(t, got, 0.0)

	assert.Zero(t, TokensOut(0, launch.Sol, launch.Token))
	assert.Zero(t, TokensOut(-1, launch.Sol, launch.Token))
	assert.Zero(t, TokensOut(1, 0, launch.Token))
}

func TestSolOut(t *testing.T) {
	got := SolOut(1_000_000, launch.Sol, launch.Token)
	want := (launch.Sol - launch.Sol*launch.Token/(launch.Token+1_000_000)) * 0.99
	assert.InDelta(t, want, got, 1e-12)

	assert.Zero(t, SolOut(0, launch.Sol, launch.Token))
	assert.Zero(t, SolOut(5, launch.Sol, 0))
}

func TestRoundTripLosesValue(t *testing.T) {
	for _, solIn := range []float64{0.01, 1, 10, 50} {
		tokens, after := launch.Buy(solIn)
		back, _ := after.Sell(tokens)
		assert.Less(t, back, solIn, "round trip of %v SOL returned %v", solIn, back)
	}
}

func TestReserves_BuyMovesPriceUp(t *testing.T) {
	_, after := launch.Buy(5)
	assert.Greater(t, after.Price(), launch.Price())

	_, back := after.Sell(1_000_000)
	assert.Less(t, back.Price(), after.Price())
}

func TestReservesOf(t *testing.T) {
	r := ReservesOf(domain.CurveState{VirtualSolReserves: 30_000_000_000, VirtualTokenReserves: 1_073_000_000_000_000})
	assert.InDelta(t, 30.0, r.Sol, 1e-9)
	assert.InDelta(t, 1_073_000_000.0, r.Token, 1e-3)
	assert.Zero(t, Reserves{}.Price())
}
