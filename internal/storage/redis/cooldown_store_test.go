package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) (*CooldownStore, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := NewClient(ctx, fmt.Sprintf("redis://%s:%s/0", host, port.Port()))
	require.NoError(t, err)

	cleanup := func() {
		client.Close()
		_ = container.Terminate(ctx)
	}
	return NewCooldownStore(client, time.Hour), cleanup
}

func TestCooldownStore_MarkAndLastTrade(t *testing.T) {
	store, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()

	_, ok, err := store.LastTrade(ctx, "mintA")
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.UnixMilli(1700000000123)
	require.NoError(t, store.MarkTrade(ctx, "mintA", at))

	got, ok, err := store.LastTrade(ctx, "mintA")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, got.Equal(at), "got %v want %v", got, at)

	_, ok, err = store.LastTrade(ctx, "mintB")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCooldownKey(t *testing.T) {
	assert.Equal(t, "maker:cooldown:abc", cooldownKey("abc"))
}
