// Package redis keeps per-asset trade cooldowns in Redis so restarts and
// sibling processes see the same last-trade time.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"solana-curve-maker/internal/storage"
)

// CooldownKeyPrefix prefixes cooldown keys. Format: maker:cooldown:{mint}
const CooldownKeyPrefix = "maker:cooldown"

// CooldownStore implements storage.CooldownStore using Redis.
type CooldownStore struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewClient parses a redis:// URL and verifies the connection.
func NewClient(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewCooldownStore creates a store whose keys expire after ttl.
// ttl <= 0 keeps keys forever.
func NewCooldownStore(client *goredis.Client, ttl time.Duration) *CooldownStore {
	return &CooldownStore{client: client, ttl: ttl}
}

// Compile-time interface check.
var _ storage.CooldownStore = (*CooldownStore)(nil)

func cooldownKey(mint string) string {
	return fmt.Sprintf("%s:%s", CooldownKeyPrefix, mint)
}

// LastTrade returns the time of the last forwarded trade, false if none.
func (s *CooldownStore) LastTrade(ctx context.Context, mint string) (time.Time, bool, error) {
	val, err := s.client.Get(ctx, cooldownKey(mint)).Result()
	if errors.Is(err, goredis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("get cooldown: %w", err)
	}

	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse cooldown %q: %w", val, err)
	}
	return time.UnixMilli(ms), true, nil
}

// MarkTrade records a trade forwarded at t.
func (s *CooldownStore) MarkTrade(ctx context.Context, mint string, t time.Time) error {
	if mint == "" {
		return storage.ErrInvalidInput
	}
	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, cooldownKey(mint), t.UnixMilli(), ttl).Err(); err != nil {
		return fmt.Errorf("set cooldown: %w", err)
	}
	return nil
}
