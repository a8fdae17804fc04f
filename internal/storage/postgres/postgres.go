package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QueryObserver receives the outcome of every store operation.
type QueryObserver func(operation string, took time.Duration, err error)

// PoolOption configures NewPool.
type PoolOption func(*poolOptions)

type poolOptions struct {
	maxConns int32
	observer QueryObserver
}

// WithMaxConns caps the pool size. The engine needs few connections: one
// position write and one audit insert per settlement.
func WithMaxConns(n int32) PoolOption {
	return func(o *poolOptions) { o.maxConns = n }
}

// WithQueryObserver reports store operations, e.g. to metrics.
func WithQueryObserver(fn QueryObserver) PoolOption {
	return func(o *poolOptions) { o.observer = fn }
}

// Pool is the pgx pool shared by the position and execution stores.
type Pool struct {
	*pgxpool.Pool
	observer QueryObserver
}

// NewPool connects, pings and returns the pool.
func NewPool(ctx context.Context, dsn string, opts ...PoolOption) (*Pool, error) {
	o := poolOptions{maxConns: 4}
	for _, opt := range opts {
		opt(&o)
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if o.maxConns > 0 {
		config.MaxConns = o.maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{Pool: pool, observer: o.observer}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() {
	p.Pool.Close()
}

// observe reports operation to the observer, if any.
func (p *Pool) observe(operation string, start time.Time, err error) {
	if p.observer != nil {
		p.observer(operation, time.Since(start), err)
	}
}

const pgErrUniqueViolation = "23505"

// isDuplicateKeyError reports a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}

func isNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
