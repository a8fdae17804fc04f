// Package settlement converts trade signals into bonding-curve orders and
// hands them to a submitter.
package settlement

import "solana-curve-maker/internal/domain"

// FeeRate is the curve's trading fee, charged on the SOL side.
const FeeRate = 0.01

// TokensOut returns tokens received for solIn against a constant-product curve:
// vTok - vSol*vTok/(vSol + solIn*(1-fee)). Inputs are UI units.
func TokensOut(solIn, vSol, vTok float64) float64 {
	if solIn <= 0 || vSol <= 0 || vTok <= 0 {
		return 0
	}
	k := vSol * vTok
	return vTok - k/(vSol+solIn*(1-FeeRate))
}

// SolOut returns SOL received for tokensIn: (vSol - vSol*vTok/(vTok + tokensIn))*(1-fee).
func SolOut(tokensIn, vSol, vTok float64) float64 {
	if tokensIn <= 0 || vSol <= 0 || vTok <= 0 {
		return 0
	}
	k := vSol * vTok
	return (vSol - k/(vTok+tokensIn)) * (1 - FeeRate)
}

// Reserves are virtual curve reserves in UI units.
type Reserves struct {
	Sol   float64
	Token float64
}

// ReservesOf converts an on-chain curve account to UI reserves.
func ReservesOf(c domain.CurveState) Reserves {
	return Reserves{
		Sol:   float64(c.VirtualSolReserves) / 1e9,
		Token: float64(c.VirtualTokenReserves) / 1e6,
	}
}

// Price returns SOL per token, 0 for an empty curve.
func (r Reserves) Price() float64 {
	if r.Token <= 0 {
		return 0
	}
	return r.Sol / r.Token
}

// Buy returns tokens out for solIn and the reserves after the trade.
// The fee leaves the curve.
func (r Reserves) Buy(solIn float64) (float64, Reserves) {
	out := TokensOut(solIn, r.Sol, r.Token)
	if out <= 0 {
		return 0, r
	}
	return out, Reserves{Sol: r.Sol + solIn*(1-FeeRate), Token: r.Token - out}
}

// Sell returns SOL out for tokensIn and the reserves after the trade.
func (r Reserves) Sell(tokensIn float64) (float64, Reserves) {
	out := SolOut(tokensIn, r.Sol, r.Token)
	if out <= 0 {
		return 0, r
	}
	gross := out / (1 - FeeRate)
	return out, Reserves{Sol: r.Sol - gross, Token: r.Token + tokensIn}
}
