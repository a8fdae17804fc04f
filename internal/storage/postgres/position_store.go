package postgres

import (
	"context"
	"fmt"
	"time"

	"solana-curve-maker/internal/domain"
	"solana-curve-maker/internal/storage"
)

// PositionStore implements storage.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *Pool
}

// NewPositionStore creates a new PositionStore.
func NewPositionStore(pool *Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PositionStore = (*PositionStore)(nil)

// Get returns the stored position. Returns ErrNotFound if none was saved.
func (s *PositionStore) Get(ctx context.Context, mint string) (*domain.Position, error) {
	query := `
		SELECT mint, held_tokens, average_entry_price, quote_balance, updated_at
		FROM positions
		WHERE mint = $1
	`

	var p domain.Position
	start := time.Now()
	err := s.pool.QueryRow(ctx, query, mint).Scan(
		&p.Mint, &p.HeldTokens, &p.AverageEntryPrice, &p.QuoteBalance, &p.UpdatedAt,
	)
	if isNotFoundError(err) {
		s.pool.observe("get_position", start, nil)
		return nil, storage.ErrNotFound
	}
	s.pool.observe("get_position", start, err)
	if err != nil {
		return nil, fmt.Errorf("get position: %w", err)
	}
	return &p, nil
}

// Save replaces the stored position for p.Mint.
func (s *PositionStore) Save(ctx context.Context, p *domain.Position) error {
	if p == nil || p.Mint == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO positions (mint, held_tokens, average_entry_price, quote_balance, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (mint) DO UPDATE SET
			held_tokens = EXCLUDED.held_tokens,
			average_entry_price = EXCLUDED.average_entry_price,
			quote_balance = EXCLUDED.quote_balance,
			updated_at = EXCLUDED.updated_at
	`

	start := time.Now()
	_, err := s.pool.Exec(ctx, query,
		p.Mint, p.HeldTokens, p.AverageEntryPrice, p.QuoteBalance, p.UpdatedAt,
	)
	s.pool.observe("save_position", start, err)
	if err != nil {
		return fmt.Errorf("save position: %w", err)
	}
	return nil
}
