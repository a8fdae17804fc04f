package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"solana-curve-maker/internal/domain"
	"solana-curve-maker/internal/storage"
)

func TestPositionStore_SaveAndGet(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	if _, err := store.Get(ctx, "mintA"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	p := &domain.Position{
		Mint:              "mintA",
		HeldTokens:        1000,
		AverageEntryPrice: 0.00001,
		QuoteBalance:      5,
		UpdatedAt:         time.Unix(100, 0),
	}
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	p.HeldTokens = 1
	got, err := store.Get(ctx, "mintA")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.HeldTokens != 1000 {
		t.Errorf("HeldTokens: got %f, want 1000", got.HeldTokens)
	}

	p.HeldTokens = 500
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	got, _ = store.Get(ctx, "mintA")
	if got.HeldTokens != 500 {
		t.Errorf("HeldTokens after replace: got %f, want 500", got.HeldTokens)
	}
}

func TestPositionStore_InvalidInput(t *testing.T) {
	store := NewPositionStore()
	if err := store.Save(context.Background(), &domain.Position{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
