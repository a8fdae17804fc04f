package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"solana-curve-maker/internal/domain"
)

// ComputeExecutionID computes a deterministic execution_id using SHA256.
// Formula: SHA256(mint|action|rule|amount|executed_at_ms)
// amount is rendered with 9 decimals so float noise below a lamport is ignored.
// Returns hex-encoded hash (64 characters).
func ComputeExecutionID(
	mint string,
	action domain.Action,
	rule string,
	amount float64,
	executedAtMs int64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%.9f|%d",
		mint,
		string(action),
		rule,
		amount,
		executedAtMs,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
