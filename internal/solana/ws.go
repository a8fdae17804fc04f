package solana

import "context"

// WSClient streams transaction logs over the RPC websocket. The engine opens
// one logs subscription per traded mint and parses pump.fun trade events out
// of the "Program data:" lines.
type WSClient interface {
	SubscribeLogs(ctx context.Context, filter LogsFilter) (<-chan LogNotification, error)
	Close() error
}

// LogsFilter selects transactions for logsSubscribe. The RPC accepts a single
// address in "mentions"; an empty Mention subscribes to all transactions.
type LogsFilter struct {
	Mention string
}

// LogNotification is one transaction's log output.
type LogNotification struct {
	Signature string
	Slot      int64
	Logs      []string
	// Err is the transaction error as sent by the node, nil on success.
	Err interface{}
}

// Failed reports whether the transaction reverted. Reverted pump.fun
// transactions still carry trade event logs that must not be counted.
func (n LogNotification) Failed() bool {
	return n.Err != nil
}
