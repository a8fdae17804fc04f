// Package config loads the engine's YAML configuration through viper and
// keeps the active snapshot swappable at runtime.
package config

import (
	"errors"
	"fmt"
	"time"

	"solana-curve-maker/internal/domain"
	"solana-curve-maker/internal/keystore"
	"solana-curve-maker/internal/logging"
)

// Run modes.
const (
	ModePaper = "paper"
	ModeLive  = "live"
)

// Key sources.
const (
	KeySourceEnv   = "env"
	KeySourceVault = "vault"
)

// Validation errors.
var (
	ErrInvalidMode   = errors.New("invalid mode")
	ErrNoAssets      = errors.New("no enabled assets")
	ErrInvalidEngine = errors.New("invalid engine settings")
	ErrInvalidAsset  = errors.New("invalid asset")
)

// Config is the full engine configuration.
type Config struct {
	Mode         string                `mapstructure:"mode"`
	Logging      logging.Config        `mapstructure:"logging"`
	Solana       SolanaConfig          `mapstructure:"solana"`
	Wallet       WalletConfig          `mapstructure:"wallet"`
	TradeAPI     TradeAPIConfig        `mapstructure:"trade_api"`
	Paper        PaperConfig           `mapstructure:"paper"`
	Engine       EngineConfig          `mapstructure:"engine"`
	Strategy     domain.StrategyConfig `mapstructure:"strategy"`
	MarketCap    domain.MarketCapRules `mapstructure:"market_cap"`
	WalletLimits domain.WalletLimits   `mapstructure:"wallet_limits"`
	Assets       []AssetConfig         `mapstructure:"assets"`
	Storage      StorageConfig         `mapstructure:"storage"`
	OpsAPI       OpsAPIConfig          `mapstructure:"ops_api"`
}

// SolanaConfig holds RPC endpoints.
type SolanaConfig struct {
	RPCURL     string        `mapstructure:"rpc_url"`
	WSURL      string        `mapstructure:"ws_url"`
	Commitment string        `mapstructure:"commitment"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// WalletConfig names the trading account and where its key comes from.
type WalletConfig struct {
	Account   string               `mapstructure:"account"`
	KeySource string               `mapstructure:"key_source"`
	SecretEnv string               `mapstructure:"secret_env"`
	Vault     keystore.VaultConfig `mapstructure:"vault"`
}

// TradeAPIConfig configures the live transaction builder.
type TradeAPIConfig struct {
	Endpoint       string        `mapstructure:"endpoint"`
	PriorityFee    float64       `mapstructure:"priority_fee"`
	ConfirmTimeout time.Duration `mapstructure:"confirm_timeout"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
}

// PaperConfig seeds the paper wallet.
type PaperConfig struct {
	QuoteBalance float64 `mapstructure:"quote_balance"`
}

// EngineConfig holds execution loop gates.
type EngineConfig struct {
	MinConfidence       float64 `mapstructure:"min_confidence"`
	CooldownSeconds     int     `mapstructure:"cooldown_seconds"`
	SlippagePercent     float64 `mapstructure:"slippage_percent"`
	SolPriceUSD         float64 `mapstructure:"sol_price_usd"`
	EnforceWalletLimits bool    `mapstructure:"enforce_wallet_limits"`
}

// Cooldown returns the cooldown as a duration.
func (e EngineConfig) Cooldown() time.Duration {
	return time.Duration(e.CooldownSeconds) * time.Second
}

// AssetConfig is one traded bonding-curve asset.
type AssetConfig struct {
	Mint       string `mapstructure:"mint"`
	Enabled    bool   `mapstructure:"enabled"`
	LaunchedAt string `mapstructure:"launched_at"` // RFC3339, optional
}

// Launch parses LaunchedAt. Returns false when unset.
func (a AssetConfig) Launch() (time.Time, bool, error) {
	if a.LaunchedAt == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(time.RFC3339, a.LaunchedAt)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("launched_at %q: %w", a.LaunchedAt, err)
	}
	return t, true, nil
}

// StorageConfig selects persistence backends. Empty DSNs fall back to memory.
type StorageConfig struct {
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	ClickhouseDSN string `mapstructure:"clickhouse_dsn"`
	RedisURL      string `mapstructure:"redis_url"`
}

// OpsAPIConfig configures the status HTTP server.
type OpsAPIConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Default returns the shipped configuration without assets.
func Default() Config {
	return Config{
		Mode:    ModePaper,
		Logging: logging.Config{Level: "info", JSON: true},
		Solana: SolanaConfig{
			RPCURL:     "https://api.mainnet-beta.solana.com",
			WSURL:      "wss://api.mainnet-beta.solana.com",
			Commitment: "confirmed",
			Timeout:    30 * time.Second,
		},
		Wallet: WalletConfig{
			Account:   "main",
			KeySource: KeySourceEnv,
			SecretEnv: "MM_WALLET_SECRET",
		},
		TradeAPI: TradeAPIConfig{
			Endpoint:       "https://pumpportal.fun/api/trade-local",
			PriorityFee:    0.0005,
			ConfirmTimeout: 60 * time.Second,
			PollInterval:   2 * time.Second,
		},
		Paper: PaperConfig{QuoteBalance: 10},
		Engine: EngineConfig{
			MinConfidence:       60,
			CooldownSeconds:     60,
			SlippagePercent:     10,
			SolPriceUSD:         150,
			EnforceWalletLimits: true,
		},
		Strategy:     domain.DefaultStrategyConfig(),
		MarketCap:    domain.DefaultMarketCapRules(),
		WalletLimits: domain.DefaultWalletLimits(),
		OpsAPI:       OpsAPIConfig{Enabled: true, Addr: ":8080"},
	}
}

// EnabledAssets returns the assets the engine should trade.
func (c *Config) EnabledAssets() []AssetConfig {
	var out []AssetConfig
	for _, a := range c.Assets {
		if a.Enabled {
			out = append(out, a)
		}
	}
	return out
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Mode != ModePaper && c.Mode != ModeLive {
		return fmt.Errorf("mode %q: %w", c.Mode, ErrInvalidMode)
	}
	if err := c.Strategy.Validate(); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	if err := c.MarketCap.Validate(); err != nil {
		return fmt.Errorf("market_cap: %w", err)
	}
	if err := c.WalletLimits.Validate(); err != nil {
		return fmt.Errorf("wallet_limits: %w", err)
	}

	e := c.Engine
	switch {
	case e.MinConfidence < 0 || e.MinConfidence > 100:
		return fmt.Errorf("min_confidence=%v: %w", e.MinConfidence, ErrInvalidEngine)
	case e.CooldownSeconds < 0:
		return fmt.Errorf("cooldown_seconds=%d: %w", e.CooldownSeconds, ErrInvalidEngine)
	case e.SlippagePercent <= 0 || e.SlippagePercent >= 100:
		return fmt.Errorf("slippage_percent=%v: %w", e.SlippagePercent, ErrInvalidEngine)
	case e.SolPriceUSD <= 0:
		return fmt.Errorf("sol_price_usd=%v: %w", e.SolPriceUSD, ErrInvalidEngine)
	}

	assets := c.EnabledAssets()
	if len(assets) == 0 {
		return ErrNoAssets
	}
	seen := make(map[string]bool, len(assets))
	for _, a := range assets {
		if a.Mint == "" || seen[a.Mint] {
			return fmt.Errorf("mint %q: %w", a.Mint, ErrInvalidAsset)
		}
		seen[a.Mint] = true
		if _, _, err := a.Launch(); err != nil {
			return fmt.Errorf("%s: %w", err, ErrInvalidAsset)
		}
	}

	if c.Mode == ModeLive {
		if c.Wallet.Account == "" {
			return fmt.Errorf("live mode needs wallet.account: %w", ErrInvalidMode)
		}
		if c.Wallet.KeySource != KeySourceEnv && c.Wallet.KeySource != KeySourceVault {
			return fmt.Errorf("wallet.key_source %q: %w", c.Wallet.KeySource, ErrInvalidMode)
		}
	}
	return nil
}
