// Package feed turns pump.fun program logs into decoded trade events.
package feed

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"strings"

	"github.com/mr-tron/base58"

	"solana-curve-maker/internal/domain"
)

const programDataPrefix = "Program data: "

// TradeEvent payload layout after the 8-byte discriminator.
const (
	offMint        = 8
	offSolAmount   = 40
	offTokenAmount = 48
	offIsBuy       = 56
	offUser        = 57
	offTimestamp   = 89
	offVirtualSol  = 97
	offVirtualTok  = 105
	tradeEventLen  = 113
)

var tradeEventDiscriminator = eventDiscriminator("TradeEvent")

// eventDiscriminator is the anchor event tag: sha256("event:<Name>")[:8].
func eventDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("event:" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// ParseTradeEvents extracts every TradeEvent emitted in a transaction's logs,
// in log order. Lines that are not TradeEvents are skipped.
func ParseTradeEvents(logs []string, signature string, slot int64) []domain.TradeEvent {
	var events []domain.TradeEvent
	for _, line := range logs {
		payload, ok := strings.CutPrefix(line, programDataPrefix)
		if !ok {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
		if err != nil {
			continue
		}
		ev, ok := DecodeTradeEvent(data)
		if !ok {
			continue
		}
		ev.Signature = signature
		ev.Slot = slot
		events = append(events, ev)
	}
	return events
}

// DecodeTradeEvent decodes a raw event payload. Returns false when the
// discriminator does not match or the payload is truncated.
func DecodeTradeEvent(data []byte) (domain.TradeEvent, bool) {
	if len(data) < tradeEventLen || !bytes.Equal(data[:8], tradeEventDiscriminator[:]) {
		return domain.TradeEvent{}, false
	}

	le := binary.LittleEndian
	return domain.TradeEvent{
		Mint:                 base58.Encode(data[offMint : offMint+32]),
		SolAmount:            le.Uint64(data[offSolAmount:]),
		TokenAmount:          le.Uint64(data[offTokenAmount:]),
		IsBuy:                data[offIsBuy] != 0,
		User:                 base58.Encode(data[offUser : offUser+32]),
		TimestampMs:          int64(le.Uint64(data[offTimestamp:])) * 1000,
		VirtualSolReserves:   le.Uint64(data[offVirtualSol:]),
		VirtualTokenReserves: le.Uint64(data[offVirtualTok:]),
	}, true
}
