package domain

import (
	"errors"
	"fmt"
)

// Configuration validation errors. Invalid values are rejected, never clamped.
var (
	ErrNonMonotonicThresholds = errors.New("market cap thresholds must be non-decreasing")
	ErrInvalidPercent         = errors.New("percent out of range")
	ErrInvalidWalletLimits    = errors.New("invalid wallet limits")
	ErrNegativeValue          = errors.New("value must not be negative")
)

// StrategyConfig holds the operator-tunable signal thresholds.
// Amounts are SOL, percents are 0..100.
type StrategyConfig struct {
	SellDuringEuphoria  bool    `mapstructure:"sell_during_euphoria"`
	EuphoriaSellPercent float64 `mapstructure:"euphoria_sell_percent"`
	MaxSellPerTrade     float64 `mapstructure:"max_sell_per_trade"`
	MaxBuyPerTrade      float64 `mapstructure:"max_buy_per_trade"`
	MinNetVolumeToSell  float64 `mapstructure:"min_net_volume_to_sell"`

	BuyAtFibLevels      bool    `mapstructure:"buy_at_fib_levels"`
	BuyAtEMASupport     bool    `mapstructure:"buy_at_ema_support"`
	BuyCapitulation     bool    `mapstructure:"buy_capitulation"`
	DipThresholdPercent float64 `mapstructure:"dip_threshold_percent"`
	MaxPositionPercent  float64 `mapstructure:"max_position_percent"`

	StopLossPercent   float64 `mapstructure:"stop_loss_percent"`
	TakeProfitPercent float64 `mapstructure:"take_profit_percent"`

	VolumeFarming     bool    `mapstructure:"volume_farming"`
	VolumeFarmPercent float64 `mapstructure:"volume_farm_percent"`
}

// DefaultStrategyConfig returns the shipped defaults.
func DefaultStrategyConfig() StrategyConfig {
	return StrategyConfig{
		SellDuringEuphoria:  true,
		EuphoriaSellPercent: 15,
		MaxSellPerTrade:     2,
		MaxBuyPerTrade:      1,
		MinNetVolumeToSell:  1,
		BuyAtFibLevels:      true,
		BuyAtEMASupport:     true,
		BuyCapitulation:     true,
		DipThresholdPercent: 10,
		MaxPositionPercent:  0,
		StopLossPercent:     50,
		TakeProfitPercent:   200,
		VolumeFarming:       false,
		VolumeFarmPercent:   5,
	}
}

// Validate checks the config for values the generator cannot work with.
func (c StrategyConfig) Validate() error {
	for name, v := range map[string]float64{
		"euphoria_sell_percent": c.EuphoriaSellPercent,
		"dip_threshold_percent": c.DipThresholdPercent,
		"max_position_percent":  c.MaxPositionPercent,
		"volume_farm_percent":   c.VolumeFarmPercent,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("%s=%v: %w", name, v, ErrInvalidPercent)
		}
	}
	for name, v := range map[string]float64{
		"max_sell_per_trade":     c.MaxSellPerTrade,
		"max_buy_per_trade":      c.MaxBuyPerTrade,
		"min_net_volume_to_sell": c.MinNetVolumeToSell,
		"stop_loss_percent":      c.StopLossPercent,
		"take_profit_percent":    c.TakeProfitPercent,
	} {
		if v < 0 {
			return fmt.Errorf("%s=%v: %w", name, v, ErrNegativeValue)
		}
	}
	return nil
}

// TierRule pairs a market cap threshold with a sell percent.
type TierRule struct {
	ThresholdUSD float64 `mapstructure:"threshold_usd"`
	SellPercent  float64 `mapstructure:"sell_percent"`
}

// MarketCapRules gate and scale selling by market cap.
type MarketCapRules struct {
	MinToSellUSD float64  `mapstructure:"min_to_sell_usd"`
	Light        TierRule `mapstructure:"light"`
	Medium       TierRule `mapstructure:"medium"`
	Heavy        TierRule `mapstructure:"heavy"`
}

// DefaultMarketCapRules returns the shipped tiers.
func DefaultMarketCapRules() MarketCapRules {
	return MarketCapRules{
		MinToSellUSD: 100_000,
		Light:        TierRule{ThresholdUSD: 250_000, SellPercent: 6},
		Medium:       TierRule{ThresholdUSD: 500_000, SellPercent: 10},
		Heavy:        TierRule{ThresholdUSD: 1_000_000, SellPercent: 14},
	}
}

// Validate requires MinToSell <= Light <= Medium <= Heavy and percents in 0..100.
func (r MarketCapRules) Validate() error {
	if r.MinToSellUSD < 0 {
		return fmt.Errorf("min_to_sell_usd=%v: %w", r.MinToSellUSD, ErrNegativeValue)
	}
	if r.MinToSellUSD > r.Light.ThresholdUSD ||
		r.Light.ThresholdUSD > r.Medium.ThresholdUSD ||
		r.Medium.ThresholdUSD > r.Heavy.ThresholdUSD {
		return fmt.Errorf("%v <= %v <= %v <= %v: %w",
			r.MinToSellUSD, r.Light.ThresholdUSD, r.Medium.ThresholdUSD, r.Heavy.ThresholdUSD,
			ErrNonMonotonicThresholds)
	}
	for name, t := range map[string]TierRule{"light": r.Light, "medium": r.Medium, "heavy": r.Heavy} {
		if t.SellPercent < 0 || t.SellPercent > 100 {
			return fmt.Errorf("%s.sell_percent=%v: %w", name, t.SellPercent, ErrInvalidPercent)
		}
	}
	return nil
}

// SellTier names the sell intensity band.
type SellTier string

const (
	SellTierNone   SellTier = "none"
	SellTierLight  SellTier = "light"
	SellTierMedium SellTier = "medium"
	SellTierHeavy  SellTier = "heavy"
)

// Tier resolves the sell tier and its percent for a market cap.
func (r MarketCapRules) Tier(marketCapUSD float64) (SellTier, float64) {
	switch {
	case marketCapUSD >= r.Heavy.ThresholdUSD:
		return SellTierHeavy, r.Heavy.SellPercent
	case marketCapUSD >= r.Medium.ThresholdUSD:
		return SellTierMedium, r.Medium.SellPercent
	case marketCapUSD >= r.Light.ThresholdUSD:
		return SellTierLight, r.Light.SellPercent
	default:
		return SellTierNone, 0
	}
}

// WalletLimits bound how much any single holding account may carry.
type WalletLimits struct {
	MaxSupplyPercentPerWallet float64 `mapstructure:"max_supply_percent_per_wallet"`
	MaxQuoteValuePerWallet    float64 `mapstructure:"max_quote_value_per_wallet"`
	MinWallets                int     `mapstructure:"min_wallets"`
	MaxWallets                int     `mapstructure:"max_wallets"`
}

// DefaultWalletLimits returns the shipped limits.
func DefaultWalletLimits() WalletLimits {
	return WalletLimits{
		MaxSupplyPercentPerWallet: 2,
		MaxQuoteValuePerWallet:    10,
		MinWallets:                10,
		MaxWallets:                50,
	}
}

// Validate rejects percents outside (0,100] and inverted wallet counts.
func (l WalletLimits) Validate() error {
	if l.MaxSupplyPercentPerWallet <= 0 || l.MaxSupplyPercentPerWallet > 100 {
		return fmt.Errorf("max_supply_percent_per_wallet=%v: %w", l.MaxSupplyPercentPerWallet, ErrInvalidWalletLimits)
	}
	if l.MaxQuoteValuePerWallet <= 0 {
		return fmt.Errorf("max_quote_value_per_wallet=%v: %w", l.MaxQuoteValuePerWallet, ErrInvalidWalletLimits)
	}
	if l.MinWallets < 1 || l.MinWallets > l.MaxWallets {
		return fmt.Errorf("min_wallets=%d max_wallets=%d: %w", l.MinWallets, l.MaxWallets, ErrInvalidWalletLimits)
	}
	return nil
}
