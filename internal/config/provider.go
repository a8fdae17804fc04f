package config

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// EnvPrefix prefixes environment overrides, e.g. MM_ENGINE_MIN_CONFIDENCE.
const EnvPrefix = "MM"

// Provider holds the active configuration snapshot. Readers take one
// snapshot per cycle with Current; reloads swap it atomically.
type Provider struct {
	v       *viper.Viper
	current atomic.Pointer[Config]

	mu        sync.Mutex
	listeners []func(*Config)
}

// Load reads and validates the file at path.
func Load(path string) (*Provider, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindSecrets(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	p := &Provider{v: v}
	cfg, err := p.decode()
	if err != nil {
		return nil, err
	}
	p.current.Store(cfg)
	return p, nil
}

// NewStatic wraps an already built configuration. Watch and Reload are no-ops.
func NewStatic(cfg Config) *Provider {
	p := &Provider{}
	p.current.Store(&cfg)
	return p
}

// bindSecrets makes secret keys overridable from the environment even when
// the file omits them.
func bindSecrets(v *viper.Viper) {
	for _, key := range []string{
		"wallet.vault.address",
		"wallet.vault.token",
		"storage.postgres_dsn",
		"storage.clickhouse_dsn",
		"storage.redis_url",
		"solana.rpc_url",
		"solana.ws_url",
	} {
		_ = v.BindEnv(key)
	}
}

func (p *Provider) decode() (*Config, error) {
	cfg := Default()
	if err := p.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// Current returns the active snapshot. Callers must not mutate it.
func (p *Provider) Current() *Config {
	return p.current.Load()
}

// OnChange registers fn to run after every accepted reload.
func (p *Provider) OnChange(fn func(*Config)) {
	p.mu.Lock()
	p.listeners = append(p.listeners, fn)
	p.mu.Unlock()
}

// Reload re-decodes the file. An invalid file leaves the active snapshot in place.
func (p *Provider) Reload() error {
	if p.v == nil {
		return nil
	}
	if err := p.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	cfg, err := p.decode()
	if err != nil {
		return err
	}
	p.current.Store(cfg)

	p.mu.Lock()
	listeners := append([]func(*Config){}, p.listeners...)
	p.mu.Unlock()
	for _, fn := range listeners {
		fn(cfg)
	}
	return nil
}

// Watch reloads on file changes.
func (p *Provider) Watch(logger *zap.Logger) {
	if p.v == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		if err := p.Reload(); err != nil {
			logger.Warn("config reload rejected, keeping previous",
				zap.String("file", e.Name), zap.Error(err))
			return
		}
		logger.Info("config reloaded", zap.String("file", e.Name))
	})
	p.v.WatchConfig()
}
