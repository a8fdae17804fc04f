package domain

import "time"

// Position is the trading account's holding in one asset.
// It is only mutated after a confirmed settlement.
type Position struct {
	Mint              string
	HeldTokens        float64 // UI token units
	AverageEntryPrice float64 // SOL per token
	QuoteBalance      float64 // SOL
	UpdatedAt         time.Time
}

// PnLPercent returns unrealized profit in percent at price.
// Returns 0 when there is no entry price to compare against.
func (p Position) PnLPercent(price float64) float64 {
	if p.AverageEntryPrice <= 0 {
		return 0
	}
	return (price - p.AverageEntryPrice) / p.AverageEntryPrice * 100
}

// PositionValue returns the SOL value of held tokens at price.
func (p Position) PositionValue(price float64) float64 {
	return p.HeldTokens * price
}

// ApplyBuy records a confirmed buy of tokens for sol.
// The entry price becomes the size-weighted average.
func (p *Position) ApplyBuy(tokens, sol float64, at time.Time) {
	if tokens <= 0 {
		return
	}
	cost := p.HeldTokens*p.AverageEntryPrice + sol
	p.HeldTokens += tokens
	p.AverageEntryPrice = cost / p.HeldTokens
	p.QuoteBalance -= sol
	if p.QuoteBalance < 0 {
		p.QuoteBalance = 0
	}
	p.UpdatedAt = at
}

// ApplySell records a confirmed sell of tokens for sol.
func (p *Position) ApplySell(tokens, sol float64, at time.Time) {
	p.HeldTokens -= tokens
	if p.HeldTokens <= 0 {
		p.HeldTokens = 0
		p.AverageEntryPrice = 0
	}
	p.QuoteBalance += sol
	p.UpdatedAt = at
}
