package solana

import (
	"crypto/sha256"
	"errors"

	"filippo.io/edwards25519"
)

// Well-known program ids.
const (
	PumpProgramID  = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
	TokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
)

const (
	maxSeeds      = 16
	maxSeedLength = 32
	pdaMarker     = "ProgramDerivedAddress"
)

// ErrNoViableBump is returned when every bump seed lands on the curve.
var ErrNoViableBump = errors.New("unable to find a viable program address bump seed")

// FindProgramAddress derives the off-curve address for seeds under program,
// trying bump seeds from 255 downwards.
func FindProgramAddress(seeds [][]byte, program PublicKey) (PublicKey, uint8, error) {
	if len(seeds) > maxSeeds-1 {
		return PublicKey{}, 0, errors.New("too many seeds")
	}
	for _, s := range seeds {
		if len(s) > maxSeedLength {
			return PublicKey{}, 0, errors.New("seed too long")
		}
	}

	for bump := 255; bump >= 0; bump-- {
		h := sha256.New()
		for _, s := range seeds {
			h.Write(s)
		}
		h.Write([]byte{byte(bump)})
		h.Write(program[:])
		h.Write([]byte(pdaMarker))

		var candidate PublicKey
		copy(candidate[:], h.Sum(nil))
		if !IsOnCurve(candidate) {
			return candidate, uint8(bump), nil
		}
	}
	return PublicKey{}, 0, ErrNoViableBump
}

// IsOnCurve reports whether pk decodes to a point on ed25519.
func IsOnCurve(pk PublicKey) bool {
	_, err := new(edwards25519.Point).SetBytes(pk[:])
	return err == nil
}

// BondingCurveAddress derives the pump bonding curve account for mint.
func BondingCurveAddress(mint PublicKey) (PublicKey, error) {
	addr, _, err := FindProgramAddress(
		[][]byte{[]byte("bonding-curve"), mint[:]},
		MustPublicKey(PumpProgramID),
	)
	return addr, err
}
