package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-curve-maker/internal/domain"
	"solana-curve-maker/internal/storage"
)

// ExecutionStore implements storage.ExecutionStore using PostgreSQL.
type ExecutionStore struct {
	pool *Pool
}

// NewExecutionStore creates a new ExecutionStore.
func NewExecutionStore(pool *Pool) *ExecutionStore {
	return &ExecutionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ExecutionStore = (*ExecutionStore)(nil)

// Insert adds a new record. Returns ErrDuplicateKey if execution_id exists.
func (s *ExecutionStore) Insert(ctx context.Context, r *domain.ExecutionRecord) error {
	if r == nil || r.ExecutionID == "" || r.Mint == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO executions (
			execution_id, mint, action, rule, confidence,
			amount, expected_out, min_out, price,
			success, signature, error, paper, executed_at_ms
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13, $14
		)
	`

	start := time.Now()
	_, err := s.pool.Exec(ctx, query,
		r.ExecutionID, r.Mint, string(r.Action), r.Rule, r.Confidence,
		r.Amount, r.ExpectedOut, r.MinOut, r.Price,
		r.Success, nullString(r.Signature), nullString(r.Error), r.Paper, r.ExecutedAtMs,
	)
	s.pool.observe("insert_execution", start, err)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert execution: %w", err)
	}
	return nil
}

// GetByMint retrieves up to limit records for a mint, newest first.
func (s *ExecutionStore) GetByMint(ctx context.Context, mint string, limit int) ([]*domain.ExecutionRecord, error) {
	query := `
		SELECT
			execution_id, mint, action, rule, confidence,
			amount, expected_out, min_out, price,
			success, signature, error, paper, executed_at_ms
		FROM executions
		WHERE mint = $1
		ORDER BY executed_at_ms DESC, execution_id ASC
	`
	args := []any{mint}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	start := time.Now()
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		s.pool.observe("get_executions", start, err)
		return nil, fmt.Errorf("query executions by mint: %w", err)
	}
	defer rows.Close()

	result, err := scanExecutions(rows)
	s.pool.observe("get_executions", start, err)
	return result, err
}

// scanExecutions scans multiple rows into execution records.
func scanExecutions(rows pgx.Rows) ([]*domain.ExecutionRecord, error) {
	var result []*domain.ExecutionRecord
	for rows.Next() {
		var r domain.ExecutionRecord
		var action string
		var signature, errText *string

		err := rows.Scan(
			&r.ExecutionID, &r.Mint, &action, &r.Rule, &r.Confidence,
			&r.Amount, &r.ExpectedOut, &r.MinOut, &r.Price,
			&r.Success, &signature, &errText, &r.Paper, &r.ExecutedAtMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan execution row: %w", err)
		}

		r.Action = domain.Action(action)
		if signature != nil {
			r.Signature = *signature
		}
		if errText != nil {
			r.Error = *errText
		}
		result = append(result, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate execution rows: %w", err)
	}
	return result, nil
}

// nullString maps empty strings to SQL NULL.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
