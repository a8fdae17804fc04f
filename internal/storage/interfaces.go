package storage

import (
	"context"
	"time"

	"solana-curve-maker/internal/domain"
)

// CandleStore persists base-resolution candles per asset.
type CandleStore interface {
	// Upsert writes candles keyed by (mint, timestamp_ms). A later write for
	// the same bar replaces the earlier one, since the open bar keeps changing.
	Upsert(ctx context.Context, mint string, candles []domain.Candle) error

	// GetRange retrieves candles with timestamp in [start, end] (inclusive), ordered ASC.
	GetRange(ctx context.Context, mint string, start, end int64) ([]domain.Candle, error)
}

// PositionStore persists the trading account's position per asset.
type PositionStore interface {
	// Get returns the stored position. Returns ErrNotFound if none was saved.
	Get(ctx context.Context, mint string) (*domain.Position, error)

	// Save replaces the stored position for p.Mint.
	Save(ctx context.Context, p *domain.Position) error
}

// ExecutionStore provides access to the execution audit trail.
type ExecutionStore interface {
	// Insert adds a new record. Returns ErrDuplicateKey if execution_id exists.
	Insert(ctx context.Context, r *domain.ExecutionRecord) error

	// GetByMint retrieves up to limit records for a mint, newest first.
	// limit <= 0 returns all records.
	GetByMint(ctx context.Context, mint string, limit int) ([]*domain.ExecutionRecord, error)
}

// CooldownStore tracks the last forwarded trade per asset.
type CooldownStore interface {
	// LastTrade returns the time of the last forwarded trade, false if none.
	LastTrade(ctx context.Context, mint string) (time.Time, bool, error)

	// MarkTrade records a trade forwarded at t.
	MarkTrade(ctx context.Context, mint string, t time.Time) error
}
