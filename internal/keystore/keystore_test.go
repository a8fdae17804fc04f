package keystore

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSecret(seed byte) (string, ed25519.PublicKey) {
	s := make([]byte, ed25519.SeedSize)
	s[0] = seed
	priv := ed25519.NewKeyFromSeed(s)
	return base58.Encode(priv), priv.Public().(ed25519.PublicKey)
}

func TestMemoryStore(t *testing.T) {
	secret, pub := testSecret(1)
	store, err := NewMemoryStore(map[string]string{"main": secret})
	require.NoError(t, err)

	kp, err := store.Keypair(context.Background(), "main")
	require.NoError(t, err)
	assert.Equal(t, []byte(pub), kp.PublicKey().Bytes())

	_, err = store.Keypair(context.Background(), "other")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	pk, err := PublicKey(context.Background(), store, "main")
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey(), pk)

	_, err = NewMemoryStore(map[string]string{"bad": "not a key"})
	assert.Error(t, err)
}

func TestMemoryStore_ConcurrentReads(t *testing.T) {
	secret, _ := testSecret(2)
	store, err := NewMemoryStore(map[string]string{"main": secret})
	require.NoError(t, err)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				if _, err := store.Keypair(context.Background(), "main"); err != nil {
					t.Errorf("Keypair: %v", err)
					return
				}
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}

func TestVaultStore(t *testing.T) {
	secret, pub := testSecret(3)
	var reads atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Vault-Token") != "root" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		switch r.URL.Path {
		case "/v1/kv/data/maker/main":
			reads.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{
					"data":     map[string]any{"secret_key": secret},
					"metadata": map[string]any{"version": 1},
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	store, err := NewVaultStore(VaultConfig{
		Address:    srv.URL,
		Token:      "root",
		MountPath:  "kv",
		SecretPath: "maker",
	})
	require.NoError(t, err)

	ctx := context.Background()
	kp, err := store.Keypair(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, []byte(pub), kp.PublicKey().Bytes())

	_, err = store.Keypair(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, int32(1), reads.Load(), "second read must be served from cache")

	_, err = store.Keypair(ctx, "missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestVaultConfigDefaults(t *testing.T) {
	var cfg VaultConfig
	cfg.applyDefaults()
	assert.Equal(t, "secret", cfg.MountPath)
	assert.Equal(t, "solana", cfg.SecretPath)
	assert.Equal(t, "secret_key", cfg.Field)

	s := &VaultStore{cfg: cfg}
	assert.Equal(t, "secret/data/solana/main", s.secretPath("main"))
}
