package solana

import (
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// PublicKeySize is the length of an account address.
const PublicKeySize = 32

// ErrInvalidKey is returned for malformed keys and addresses.
var ErrInvalidKey = errors.New("invalid key")

// PublicKey is a 32-byte account address.
type PublicKey [PublicKeySize]byte

// ParsePublicKey decodes a base58 address.
func ParsePublicKey(s string) (PublicKey, error) {
	var pk PublicKey
	b, err := base58.Decode(s)
	if err != nil {
		return pk, fmt.Errorf("decode %q: %w", s, ErrInvalidKey)
	}
	if len(b) != PublicKeySize {
		return pk, fmt.Errorf("address %q has %d bytes: %w", s, len(b), ErrInvalidKey)
	}
	copy(pk[:], b)
	return pk, nil
}

// MustPublicKey parses a known-good address and panics otherwise.
func MustPublicKey(s string) PublicKey {
	pk, err := ParsePublicKey(s)
	if err != nil {
		panic(err)
	}
	return pk
}

// String returns the base58 address.
func (pk PublicKey) String() string {
	return base58.Encode(pk[:])
}

// Keypair holds an ed25519 signing key. Its String never reveals the secret.
type Keypair struct {
	private ed25519.PrivateKey
}

// ParseKeypair accepts a base58 secret (64-byte keypair or 32-byte seed)
// or the JSON byte array written by solana-keygen.
func ParseKeypair(secret string) (Keypair, error) {
	secret = strings.TrimSpace(secret)
	var raw []byte
	if strings.HasPrefix(secret, "[") {
		var ints []int
		if err := json.Unmarshal([]byte(secret), &ints); err != nil {
			return Keypair{}, fmt.Errorf("keypair json: %w", ErrInvalidKey)
		}
		raw = make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return Keypair{}, fmt.Errorf("keypair json byte %d: %w", i, ErrInvalidKey)
			}
			raw[i] = byte(v)
		}
	} else {
		b, err := base58.Decode(secret)
		if err != nil {
			return Keypair{}, fmt.Errorf("keypair base58: %w", ErrInvalidKey)
		}
		raw = b
	}
	return KeypairFromBytes(raw)
}

// KeypairFromBytes builds a keypair from a 64-byte secret or a 32-byte seed.
func KeypairFromBytes(raw []byte) (Keypair, error) {
	switch len(raw) {
	case ed25519.PrivateKeySize:
		priv := ed25519.PrivateKey(append([]byte(nil), raw...))
		derived := ed25519.NewKeyFromSeed(priv.Seed())
		if !derived.Equal(priv) {
			return Keypair{}, fmt.Errorf("public half does not match seed: %w", ErrInvalidKey)
		}
		return Keypair{private: priv}, nil
	case ed25519.SeedSize:
		return Keypair{private: ed25519.NewKeyFromSeed(raw)}, nil
	default:
		return Keypair{}, fmt.Errorf("secret has %d bytes: %w", len(raw), ErrInvalidKey)
	}
}

// PublicKey returns the keypair's address.
func (k Keypair) PublicKey() PublicKey {
	var pk PublicKey
	if len(k.private) == ed25519.PrivateKeySize {
		copy(pk[:], k.private[ed25519.SeedSize:])
	}
	return pk
}

// Sign signs msg.
func (k Keypair) Sign(msg []byte) []byte {
	return ed25519.Sign(k.private, msg)
}

// IsZero reports whether the keypair is unset.
func (k Keypair) IsZero() bool {
	return len(k.private) == 0
}

// String returns the public address only.
func (k Keypair) String() string {
	return k.PublicKey().String()
}

// Bytes returns a copy of the address bytes.
func (pk PublicKey) Bytes() []byte {
	return append([]byte(nil), pk[:]...)
}
