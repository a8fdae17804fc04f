package domain

// CurveState is the on-chain bonding curve account in raw base units.
type CurveState struct {
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	RealSolReserves      uint64
	TokenTotalSupply     uint64
	Complete             bool
}

// Token and quote decimals for pump.fun style launches.
const (
	TokenDecimals = 6
	SolDecimals   = 9
)

// PriceSOL returns the spot price in SOL per UI token.
// Returns 0 when the curve has no token reserves.
func (c CurveState) PriceSOL() float64 {
	if c.VirtualTokenReserves == 0 {
		return 0
	}
	sol := float64(c.VirtualSolReserves) / 1e9
	tok := float64(c.VirtualTokenReserves) / 1e6
	return sol / tok
}

// TotalSupplyUI returns total token supply in UI units.
func (c CurveState) TotalSupplyUI() float64 {
	return float64(c.TokenTotalSupply) / 1e6
}
