package settlement

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-curve-maker/internal/solana"
	"solana-curve-maker/internal/solana/stub"
)

func encodeCurveAccount(vTok, vSol, realTok, realSol, supply uint64, complete bool) []byte {
	data := make([]byte, curveAccountLen)
	copy(data, curveDiscriminator[:])
	le := binary.LittleEndian
	le.PutUint64(data[8:], vTok)
	le.PutUint64(data[16:], vSol)
	le.PutUint64(data[24:], realTok)
	le.PutUint64(data[32:], realSol)
	le.PutUint64(data[40:], supply)
	if complete {
		data[48] = 1
	}
	return data
}

func TestDecodeCurveAccount(t *testing.T) {
	raw := encodeCurveAccount(1_073_000_000_000_000, 30_000_000_000, 793_100_000_000_000, 0, 1_000_000_000_000_000, false)

	c, err := DecodeCurveAccount(raw)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_073_000_000_000_000), c.VirtualTokenReserves)
	assert.Equal(t, uint64(30_000_000_000), c.VirtualSolReserves)
	assert.Equal(t, uint64(793_100_000_000_000), c.RealTokenReserves)
	assert.Equal(t, uint64(1_000_000_000_000_000), c.TokenTotalSupply)
	assert.False(t, c.Complete)

	_, err = DecodeCurveAccount(raw[:40])
	assert.ErrorIs(t, err, ErrCurveLayout)

	raw[0] ^= 1
	_, err = DecodeCurveAccount(raw)
	assert.ErrorIs(t, err, ErrCurveLayout)
}

func TestCurveReader_Curve(t *testing.T) {
	rpc := stub.NewRPCClient()
	reader := NewCurveReader(rpc)
	mint := solana.MustPublicKey("So11111111111111111111111111111111111111112")

	_, err := reader.Curve(context.Background(), mint.String())
	assert.ErrorIs(t, err, ErrCurveNotFound)

	addr, err := solana.BondingCurveAddress(mint)
	require.NoError(t, err)
	rpc.Accounts[addr.String()] = &solana.AccountInfo{
		Data: base64.StdEncoding.EncodeToString(encodeCurveAccount(1, 2, 3, 4, 5, true)),
	}

	c, err := reader.Curve(context.Background(), mint.String())
	require.NoError(t, err)
	assert.True(t, c.Complete)
	assert.Equal(t, uint64(2), c.VirtualSolReserves)

	_, err = reader.Curve(context.Background(), "not-a-key")
	assert.Error(t, err)
}

func TestAccountReader_Balances(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.Balances["owner"] = 2_500_000_000
	rpc.TokenBalances[stub.TokenKey("owner", "mint")] = 1_234_000_000

	q, tok, err := NewAccountReader(rpc, "owner").Balances(context.Background(), "mint")
	require.NoError(t, err)
	assert.Equal(t, 2.5, q)
	assert.Equal(t, 1234.0, tok)
}
