// Package keystore holds the process-wide signing keys. Keys are loaded once
// and only read during trading cycles, so stores are safe for concurrent use.
package keystore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"solana-curve-maker/internal/solana"
)

// ErrKeyNotFound is returned when no key is configured for an account.
var ErrKeyNotFound = errors.New("signing key not found")

// Store returns signing keys by account name.
type Store interface {
	Keypair(ctx context.Context, account string) (solana.Keypair, error)
}

// MemoryStore keeps keypairs in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	keys map[string]solana.Keypair
}

// NewMemoryStore parses secrets (account -> base58 or JSON byte array).
func NewMemoryStore(secrets map[string]string) (*MemoryStore, error) {
	s := &MemoryStore{keys: make(map[string]solana.Keypair, len(secrets))}
	for account, secret := range secrets {
		if err := s.Put(account, secret); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Put parses and stores the secret for account.
func (s *MemoryStore) Put(account, secret string) error {
	kp, err := solana.ParseKeypair(secret)
	if err != nil {
		return fmt.Errorf("account %s: %w", account, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[account] = kp
	return nil
}

// Keypair returns the key for account.
func (s *MemoryStore) Keypair(_ context.Context, account string) (solana.Keypair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	kp, ok := s.keys[account]
	if !ok {
		return solana.Keypair{}, fmt.Errorf("account %s: %w", account, ErrKeyNotFound)
	}
	return kp, nil
}

// PublicKey returns the public key for account without exposing the secret.
func PublicKey(ctx context.Context, s Store, account string) (solana.PublicKey, error) {
	kp, err := s.Keypair(ctx, account)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return kp.PublicKey(), nil
}

var _ Store = (*MemoryStore)(nil)
