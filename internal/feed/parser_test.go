package feed

import (
	"encoding/base64"
	"encoding/binary"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(b byte) []byte {
	k := make([]byte, 32)
	for i := range k {
		k[i] = b
	}
	return k
}

// encodeTradeEvent builds a raw TradeEvent payload.
func encodeTradeEvent(mint, user []byte, sol, tok uint64, isBuy bool, ts int64, vSol, vTok uint64) []byte {
	data := make([]byte, tradeEventLen)
	copy(data, tradeEventDiscriminator[:])
	copy(data[offMint:], mint)
	binary.LittleEndian.PutUint64(data[offSolAmount:], sol)
	binary.LittleEndian.PutUint64(data[offTokenAmount:], tok)
	if isBuy {
		data[offIsBuy] = 1
	}
	copy(data[offUser:], user)
	binary.LittleEndian.PutUint64(data[offTimestamp:], uint64(ts))
	binary.LittleEndian.PutUint64(data[offVirtualSol:], vSol)
	binary.LittleEndian.PutUint64(data[offVirtualTok:], vTok)
	return data
}

func programData(b []byte) string {
	return programDataPrefix + base64.StdEncoding.EncodeToString(b)
}

func TestDecodeTradeEvent(t *testing.T) {
	raw := encodeTradeEvent(key(1), key(2), 500_000_000, 17_000_000_000, true, 1700000000, 30_000_000_000, 1_000_000_000_000_000)

	ev, ok := DecodeTradeEvent(raw)
	require.True(t, ok)
	assert.Equal(t, base58.Encode(key(1)), ev.Mint)
	assert.Equal(t, base58.Encode(key(2)), ev.User)
	assert.True(t, ev.IsBuy)
	assert.Equal(t, uint64(500_000_000), ev.SolAmount)
	assert.Equal(t, uint64(17_000_000_000), ev.TokenAmount)
	assert.Equal(t, int64(1700000000000), ev.TimestampMs)
	assert.Equal(t, uint64(30_000_000_000), ev.VirtualSolReserves)
	assert.InDelta(t, 0.5/17000, ev.Price(), 1e-15)
}

func TestDecodeTradeEvent_Rejects(t *testing.T) {
	raw := encodeTradeEvent(key(1), key(2), 1, 1, false, 0, 0, 0)

	_, ok := DecodeTradeEvent(raw[:tradeEventLen-1])
	assert.False(t, ok, "truncated payload")

	other := append([]byte(nil), raw...)
	other[0] ^= 0xff
	_, ok = DecodeTradeEvent(other)
	assert.False(t, ok, "wrong discriminator")
}

func TestParseTradeEvents(t *testing.T) {
	buy := encodeTradeEvent(key(1), key(2), 100, 1000, true, 10, 1, 1)
	sell := encodeTradeEvent(key(1), key(3), 50, 600, false, 11, 1, 1)

	logs := []string{
		"Program 6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P invoke [1]",
		"Program log: Instruction: Buy",
		programData(buy),
		"Program data: !!!not-base64",
		programData([]byte("short")),
		programData(sell),
		"Program 6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P success",
	}

	events := ParseTradeEvents(logs, "sig1", 42)
	require.Len(t, events, 2)
	assert.True(t, events[0].IsBuy)
	assert.False(t, events[1].IsBuy)
	for _, ev := range events {
		assert.Equal(t, "sig1", ev.Signature)
		assert.Equal(t, int64(42), ev.Slot)
	}
}

func TestEventDiscriminator_Stable(t *testing.T) {
	// Known anchor tag for pump.fun TradeEvent.
	want := [8]byte{0xbd, 0xdb, 0x7f, 0xd3, 0x4e, 0xe6, 0x61, 0xee}
	assert.Equal(t, want, eventDiscriminator("TradeEvent"))
	assert.NotEqual(t, eventDiscriminator("TradeEvent"), eventDiscriminator("CreateEvent"))
}
