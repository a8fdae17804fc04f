package settlement

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"

	"solana-curve-maker/internal/domain"
	"solana-curve-maker/internal/solana"
)

// Curve account errors.
var (
	ErrCurveNotFound = errors.New("bonding curve account not found")
	ErrCurveLayout   = errors.New("unexpected bonding curve account layout")
)

// curveAccountLen covers the discriminator, five u64 fields and the complete flag.
const curveAccountLen = 8 + 5*8 + 1

var curveDiscriminator = func() [8]byte {
	sum := sha256.Sum256([]byte("account:BondingCurve"))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}()

// CurveReader loads bonding curve state over RPC.
type CurveReader struct {
	rpc solana.RPCClient
}

// NewCurveReader creates a CurveReader.
func NewCurveReader(rpc solana.RPCClient) *CurveReader {
	return &CurveReader{rpc: rpc}
}

// Curve returns the bonding curve state for mint.
func (r *CurveReader) Curve(ctx context.Context, mint string) (domain.CurveState, error) {
	mintKey, err := solana.ParsePublicKey(mint)
	if err != nil {
		return domain.CurveState{}, fmt.Errorf("parse mint: %w", err)
	}
	addr, err := solana.BondingCurveAddress(mintKey)
	if err != nil {
		return domain.CurveState{}, fmt.Errorf("derive curve address: %w", err)
	}

	info, err := r.rpc.GetAccountInfo(ctx, addr.String())
	if err != nil {
		return domain.CurveState{}, fmt.Errorf("get curve account: %w", err)
	}
	if info == nil {
		return domain.CurveState{}, fmt.Errorf("%s: %w", addr, ErrCurveNotFound)
	}

	data, err := base64.StdEncoding.DecodeString(info.Data)
	if err != nil {
		return domain.CurveState{}, fmt.Errorf("decode curve account: %w", err)
	}
	return DecodeCurveAccount(data)
}

// DecodeCurveAccount decodes raw bonding curve account data.
func DecodeCurveAccount(data []byte) (domain.CurveState, error) {
	if len(data) < curveAccountLen {
		return domain.CurveState{}, fmt.Errorf("length %d: %w", len(data), ErrCurveLayout)
	}
	if !bytes.Equal(data[:8], curveDiscriminator[:]) {
		return domain.CurveState{}, fmt.Errorf("discriminator mismatch: %w", ErrCurveLayout)
	}

	le := binary.LittleEndian
	return domain.CurveState{
		VirtualTokenReserves: le.Uint64(data[8:]),
		VirtualSolReserves:   le.Uint64(data[16:]),
		RealTokenReserves:    le.Uint64(data[24:]),
		RealSolReserves:      le.Uint64(data[32:]),
		TokenTotalSupply:     le.Uint64(data[40:]),
		Complete:             data[48] != 0,
	}, nil
}
