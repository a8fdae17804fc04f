package clickhouse

import (
	"context"
	"fmt"
	"time"

	"solana-curve-maker/internal/domain"
	"solana-curve-maker/internal/storage"
)

// CandleStore implements storage.CandleStore using ClickHouse.
// Rows live in a ReplacingMergeTree; reads use FINAL so the newest
// version of a rewritten bar wins.
type CandleStore struct {
	conn *Conn
	now  func() time.Time
}

// NewCandleStore creates a new CandleStore.
func NewCandleStore(conn *Conn) *CandleStore {
	return &CandleStore{conn: conn, now: time.Now}
}

// Compile-time interface check.
var _ storage.CandleStore = (*CandleStore)(nil)

// Upsert writes candles keyed by (mint, timestamp_ms).
func (s *CandleStore) Upsert(ctx context.Context, mint string, candles []domain.Candle) error {
	if mint == "" {
		return storage.ErrInvalidInput
	}
	if len(candles) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO candles (
			mint, timestamp_ms, open, high, low, close,
			volume, buy_volume, sell_volume, version
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	version := uint64(s.now().UnixNano())
	for _, c := range candles {
		err = batch.Append(
			mint, uint64(c.TimestampMs), c.Open, c.High, c.Low, c.Close,
			c.Volume, c.BuyVolume, c.SellVolume, version,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetRange retrieves candles with timestamp in [start, end], ordered ASC.
func (s *CandleStore) GetRange(ctx context.Context, mint string, start, end int64) ([]domain.Candle, error) {
	if start < 0 {
		start = 0
	}
	if end < start {
		return nil, nil
	}

	query := `
		SELECT timestamp_ms, open, high, low, close, volume, buy_volume, sell_volume
		FROM candles FINAL
		WHERE mint = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, mint, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query candles by range: %w", err)
	}
	defer rows.Close()

	return scanCandles(rows)
}

// scanCandles scans multiple rows.
func scanCandles(rows chRows) ([]domain.Candle, error) {
	var candles []domain.Candle

	for rows.Next() {
		var c domain.Candle
		var timestampMs uint64

		err := rows.Scan(
			&timestampMs, &c.Open, &c.High, &c.Low, &c.Close,
			&c.Volume, &c.BuyVolume, &c.SellVolume,
		)
		if err != nil {
			return nil, fmt.Errorf("scan candle row: %w", err)
		}

		c.TimestampMs = int64(timestampMs)
		candles = append(candles, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candle rows: %w", err)
	}

	return candles, nil
}
