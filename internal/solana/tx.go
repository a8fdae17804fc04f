package solana

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// SignatureSize is the length of an ed25519 transaction signature.
const SignatureSize = ed25519.SignatureSize

// Transaction signing errors.
var (
	ErrMalformedTransaction = errors.New("malformed transaction")
	ErrFeePayerMismatch     = errors.New("fee payer is not the signing key")
)

// SignTransaction fills the fee payer signature slot of a serialized legacy or
// versioned transaction built by a third party. The signing key must be the
// first account of the message. Returns the signed bytes and the transaction
// signature in base58.
func SignTransaction(raw []byte, kp Keypair) ([]byte, string, error) {
	if kp.IsZero() {
		return nil, "", fmt.Errorf("empty keypair: %w", ErrInvalidKey)
	}

	numSigs, n, err := decodeShortVec(raw)
	if err != nil {
		return nil, "", err
	}
	if numSigs == 0 {
		return nil, "", fmt.Errorf("no signature slots: %w", ErrMalformedTransaction)
	}
	msgStart := n + numSigs*SignatureSize
	if msgStart >= len(raw) {
		return nil, "", fmt.Errorf("truncated signatures: %w", ErrMalformedTransaction)
	}
	msg := raw[msgStart:]

	payer, err := feePayer(msg)
	if err != nil {
		return nil, "", err
	}
	if payer != kp.PublicKey() {
		return nil, "", fmt.Errorf("payer %s, key %s: %w", payer, kp.PublicKey(), ErrFeePayerMismatch)
	}

	signed := append([]byte(nil), raw...)
	sig := kp.Sign(msg)
	copy(signed[n:n+SignatureSize], sig)
	return signed, base58.Encode(sig), nil
}

// feePayer returns the first static account key of a message.
func feePayer(msg []byte) (PublicKey, error) {
	var pk PublicKey
	off := 0
	if len(msg) > 0 && msg[0]&0x80 != 0 {
		off = 1 // version prefix
	}
	off += 3 // header: required sigs, readonly signed, readonly unsigned
	if off >= len(msg) {
		return pk, fmt.Errorf("truncated header: %w", ErrMalformedTransaction)
	}
	numKeys, n, err := decodeShortVec(msg[off:])
	if err != nil {
		return pk, err
	}
	off += n
	if numKeys == 0 || off+PublicKeySize > len(msg) {
		return pk, fmt.Errorf("missing account keys: %w", ErrMalformedTransaction)
	}
	copy(pk[:], msg[off:off+PublicKeySize])
	return pk, nil
}

// decodeShortVec reads a compact-u16 length prefix.
func decodeShortVec(b []byte) (value, size int, err error) {
	for size < 3 {
		if size >= len(b) {
			return 0, 0, fmt.Errorf("truncated length prefix: %w", ErrMalformedTransaction)
		}
		c := b[size]
		value |= int(c&0x7f) << (7 * size)
		size++
		if c&0x80 == 0 {
			return value, size, nil
		}
	}
	return 0, 0, fmt.Errorf("length prefix too long: %w", ErrMalformedTransaction)
}

// encodeShortVec writes a compact-u16 length prefix.
func encodeShortVec(v int) []byte {
	var out []byte
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(out, c)
		}
		out = append(out, c|0x80)
	}
}
