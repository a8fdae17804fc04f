package memory

import (
	"context"
	"testing"
	"time"
)

func TestCooldownStore(t *testing.T) {
	store := NewCooldownStore()
	ctx := context.Background()

	_, ok, err := store.LastTrade(ctx, "mintA")
	if err != nil || ok {
		t.Fatalf("expected no trade, got ok=%v err=%v", ok, err)
	}

	at := time.Unix(1700000000, 0)
	if err := store.MarkTrade(ctx, "mintA", at); err != nil {
		t.Fatalf("MarkTrade failed: %v", err)
	}

	got, ok, err := store.LastTrade(ctx, "mintA")
	if err != nil || !ok {
		t.Fatalf("expected trade, got ok=%v err=%v", ok, err)
	}
	if !got.Equal(at) {
		t.Errorf("LastTrade: got %v, want %v", got, at)
	}
}
