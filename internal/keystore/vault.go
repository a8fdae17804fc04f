package keystore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/vault/api"

	"solana-curve-maker/internal/solana"
)

// VaultConfig locates signing keys in a KV v2 engine.
// Secrets live at {MountPath}/data/{SecretPath}/{account} under Field.
type VaultConfig struct {
	Address    string `mapstructure:"address"`
	Token      string `mapstructure:"token"`
	MountPath  string `mapstructure:"mount_path"`
	SecretPath string `mapstructure:"secret_path"`
	Field      string `mapstructure:"field"`
}

func (c *VaultConfig) applyDefaults() {
	if c.MountPath == "" {
		c.MountPath = "secret"
	}
	if c.SecretPath == "" {
		c.SecretPath = "solana"
	}
	if c.Field == "" {
		c.Field = "secret_key"
	}
}

// VaultStore reads keypairs from Vault and caches them for the process lifetime.
type VaultStore struct {
	client *api.Client
	cfg    VaultConfig

	mu    sync.RWMutex
	cache map[string]solana.Keypair
}

// NewVaultStore creates a Vault-backed store.
func NewVaultStore(cfg VaultConfig) (*VaultStore, error) {
	cfg.applyDefaults()

	vcfg := api.DefaultConfig()
	if cfg.Address != "" {
		vcfg.Address = cfg.Address
	}
	client, err := api.NewClient(vcfg)
	if err != nil {
		return nil, fmt.Errorf("create vault client: %w", err)
	}
	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}

	return &VaultStore{
		client: client,
		cfg:    cfg,
		cache:  make(map[string]solana.Keypair),
	}, nil
}

func (s *VaultStore) secretPath(account string) string {
	return fmt.Sprintf("%s/data/%s/%s",
		strings.Trim(s.cfg.MountPath, "/"),
		strings.Trim(s.cfg.SecretPath, "/"),
		account,
	)
}

// Keypair returns the key for account, reading Vault on first use.
func (s *VaultStore) Keypair(ctx context.Context, account string) (solana.Keypair, error) {
	s.mu.RLock()
	kp, ok := s.cache[account]
	s.mu.RUnlock()
	if ok {
		return kp, nil
	}

	secret, err := s.client.Logical().ReadWithContext(ctx, s.secretPath(account))
	if err != nil {
		return solana.Keypair{}, fmt.Errorf("read vault secret: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return solana.Keypair{}, fmt.Errorf("account %s: %w", account, ErrKeyNotFound)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return solana.Keypair{}, fmt.Errorf("account %s: invalid secret format", account)
	}
	raw, _ := data[s.cfg.Field].(string)
	if raw == "" {
		return solana.Keypair{}, fmt.Errorf("account %s field %s: %w", account, s.cfg.Field, ErrKeyNotFound)
	}

	kp, err = solana.ParseKeypair(raw)
	if err != nil {
		return solana.Keypair{}, fmt.Errorf("account %s: %w", account, err)
	}

	s.mu.Lock()
	s.cache[account] = kp
	s.mu.Unlock()
	return kp, nil
}

var _ Store = (*VaultStore)(nil)
