// Package wallet checks holdings against anti-concentration limits and plans
// how many accounts a token amount must be spread across.
package wallet

import (
	"fmt"
	"math"

	"solana-curve-maker/internal/domain"
)

// underweightRatio is the share of the mean non-zero balance below which a
// wallet is reported as underweight.
const underweightRatio = 0.3

// Check is the result of CheckWallet.
type Check struct {
	SupplyPercent float64
	QuoteValue    float64
	Warnings      []string
	WithinLimits  bool
}

// CheckWallet compares one wallet's holding against limits.
// A zero totalSupply yields a 0 supply percent rather than an error.
func CheckWallet(heldTokens, totalSupply, priceInQuote float64, limits domain.WalletLimits) Check {
	c := Check{QuoteValue: heldTokens * priceInQuote}
	if totalSupply > 0 {
		c.SupplyPercent = heldTokens / totalSupply * 100
	}

	if c.SupplyPercent > limits.MaxSupplyPercentPerWallet {
		c.Warnings = append(c.Warnings, fmt.Sprintf(
			"holds %.2f%% of supply, limit %.2f%%", c.SupplyPercent, limits.MaxSupplyPercentPerWallet))
	}
	if c.QuoteValue > limits.MaxQuoteValuePerWallet {
		c.Warnings = append(c.Warnings, fmt.Sprintf(
			"holds %.4f SOL of value, limit %.4f SOL", c.QuoteValue, limits.MaxQuoteValuePerWallet))
	}
	c.WithinLimits = len(c.Warnings) == 0
	return c
}

// Plan is the result of PlanDistribution.
type Plan struct {
	PerWalletCap    float64
	WalletsNeeded   int
	TokensPerWallet float64
}

// PlanDistribution spreads total tokens across enough wallets that none exceeds
// the per-wallet supply cap, bounded to [MinWallets, MaxWallets].
func PlanDistribution(total, totalSupply float64, limits domain.WalletLimits) Plan {
	p := Plan{PerWalletCap: totalSupply * limits.MaxSupplyPercentPerWallet / 100}

	needed := limits.MinWallets
	if p.PerWalletCap > 0 {
		byCap := int(math.Ceil(total / p.PerWalletCap))
		if byCap > needed {
			needed = byCap
		}
	}
	if limits.MaxWallets > 0 && needed > limits.MaxWallets {
		needed = limits.MaxWallets
	}
	if needed < 1 {
		needed = 1
	}

	p.WalletsNeeded = needed
	p.TokensPerWallet = total / float64(needed)
	return p
}

// Rebalance is the result of NeedsRebalance. Indexes refer to the input slice.
type Rebalance struct {
	Overweight  []int
	Underweight []int
	Needed      bool
}

// NeedsRebalance flags wallets above the per-wallet cap and non-empty wallets
// far below the mean non-zero balance. Moving tokens is not done here.
func NeedsRebalance(balances []float64, totalSupply float64, limits domain.WalletLimits) Rebalance {
	var r Rebalance
	perWalletCap := totalSupply * limits.MaxSupplyPercentPerWallet / 100

	sum, nonZero := 0.0, 0
	for _, b := range balances {
		if b > 0 {
			sum += b
			nonZero++
		}
	}
	avg := 0.0
	if nonZero > 0 {
		avg = sum / float64(nonZero)
	}

	for i, b := range balances {
		switch {
		case b > perWalletCap:
			r.Overweight = append(r.Overweight, i)
		case b > 0 && b < avg*underweightRatio:
			r.Underweight = append(r.Underweight, i)
		}
	}
	r.Needed = len(r.Overweight) > 0 || len(r.Underweight) > 0
	return r
}
