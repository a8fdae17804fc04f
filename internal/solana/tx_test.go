package solana

import (
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildUnsignedTx serializes a minimal transaction paid by payer.
func buildUnsignedTx(payer PublicKey, versioned bool) []byte {
	var msg []byte
	if versioned {
		msg = append(msg, 0x80)
	}
	msg = append(msg, 1, 0, 1) // header
	msg = append(msg, encodeShortVec(2)...)
	msg = append(msg, payer[:]...)
	other := MustPublicKey(PumpProgramID)
	msg = append(msg, other[:]...)
	msg = append(msg, make([]byte, 32)...)  // recent blockhash
	msg = append(msg, encodeShortVec(0)...) // instructions
	if versioned {
		msg = append(msg, encodeShortVec(0)...) // address table lookups
	}

	tx := encodeShortVec(1)
	tx = append(tx, make([]byte, SignatureSize)...)
	return append(tx, msg...)
}

func TestSignTransaction(t *testing.T) {
	kp := testKeypair(t, 5)

	for _, versioned := range []bool{false, true} {
		raw := buildUnsignedTx(kp.PublicKey(), versioned)

		signed, sigB58, err := SignTransaction(raw, kp)
		require.NoError(t, err)
		require.Len(t, signed, len(raw))

		sig := signed[1 : 1+SignatureSize]
		msg := signed[1+SignatureSize:]
		assert.True(t, ed25519.Verify(ed25519.PublicKey(kp.PublicKey().Bytes()), msg, sig), "versioned=%v", versioned)
		assert.Equal(t, base58.Encode(sig), sigB58)
		assert.Equal(t, make([]byte, SignatureSize), raw[1:1+SignatureSize], "input left untouched")
	}
}

func TestSignTransaction_Errors(t *testing.T) {
	kp := testKeypair(t, 5)
	other := testKeypair(t, 6)

	_, _, err := SignTransaction(buildUnsignedTx(other.PublicKey(), false), kp)
	assert.ErrorIs(t, err, ErrFeePayerMismatch)

	_, _, err = SignTransaction([]byte{1, 2, 3}, kp)
	assert.ErrorIs(t, err, ErrMalformedTransaction)

	_, _, err = SignTransaction([]byte{0}, kp)
	assert.ErrorIs(t, err, ErrMalformedTransaction)

	_, _, err = SignTransaction(buildUnsignedTx(kp.PublicKey(), false), Keypair{})
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestShortVec(t *testing.T) {
	for _, v := range []int{0, 1, 127, 128, 300, 16383, 16384} {
		enc := encodeShortVec(v)
		got, n, err := decodeShortVec(enc)
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Equal(t, len(enc), n)
	}
}
