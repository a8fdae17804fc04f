package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-curve-maker/internal/domain"
	"solana-curve-maker/internal/storage"
)

func TestPositionStore_SaveAndGet(t *testing.T) {
	pool, queries := setupTestDB(t)

	store := NewPositionStore(pool)
	ctx := context.Background()

	_, err := store.Get(ctx, "mintA")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	updated := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := &domain.Position{
		Mint:              "mintA",
		HeldTokens:        125000,
		AverageEntryPrice: 0.000012,
		QuoteBalance:      3.5,
		UpdatedAt:         updated,
	}
	require.NoError(t, store.Save(ctx, p))

	got, err := store.Get(ctx, "mintA")
	require.NoError(t, err)
	assert.Equal(t, 125000.0, got.HeldTokens)
	assert.Equal(t, 0.000012, got.AverageEntryPrice)
	assert.Equal(t, 3.5, got.QuoteBalance)
	assert.True(t, got.UpdatedAt.Equal(updated))

	p.HeldTokens = 0
	p.AverageEntryPrice = 0
	p.QuoteBalance = 4.9
	require.NoError(t, store.Save(ctx, p))

	got, err = store.Get(ctx, "mintA")
	require.NoError(t, err)
	assert.Zero(t, got.HeldTokens)
	assert.Equal(t, 4.9, got.QuoteBalance)

	// A missing row is not a query failure.
	assert.Equal(t, []string{
		"get_position", "save_position", "get_position", "save_position", "get_position",
	}, queries.operations())
}
