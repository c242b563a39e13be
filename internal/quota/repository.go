package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const repositoryTimeout = 5 * time.Second

// Repository persists quota records in Postgres. All mutations are single
// conditional statements so concurrent requests for the same user serialize
// at the database instead of racing a read-then-write pair.
type Repository struct {
	pool         *pgxpool.Pool
	defaultLimit int64
}

// NewRepository constructs a quota repository with the limit applied to
// lazily created records.
func NewRepository(pool *pgxpool.Pool, defaultLimit int64) *Repository {
	return &Repository{pool: pool, defaultLimit: defaultLimit}
}

// Get returns the user's ledger record, creating it with zero usage and the
// default limit when missing.
func (r *Repository) Get(ctx context.Context, username string) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	if err := r.ensureRecord(ctx, username); err != nil {
		return Record{}, err
	}

	query := `
SELECT username, used_bytes, limit_bytes, updated_at
FROM quotas
WHERE username = $1;`

	var rec Record
	if err := r.pool.QueryRow(ctx, query, username).Scan(
		&rec.Username, &rec.UsedBytes, &rec.LimitBytes, &rec.UpdatedAt,
	); err != nil {
		return Record{}, fmt.Errorf("get quota: %w", err)
	}

	return rec, nil
}

// Reserve atomically adds delta to the user's usage, but only if the result
// stays within the limit. A zero-row update means the reservation was refused.
func (r *Repository) Reserve(ctx context.Context, username string, delta int64) error {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	if err := r.ensureRecord(ctx, username); err != nil {
		return err
	}

	query := `
UPDATE quotas
SET used_bytes = used_bytes + $2, updated_at = NOW()
WHERE username = $1 AND used_bytes + $2 <= limit_bytes;`

	tag, err := r.pool.Exec(ctx, query, username, delta)
	if err != nil {
		return fmt.Errorf("reserve quota: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrQuotaExceeded
	}
	return nil
}

// Adjust corrects usage by delta (positive or negative), flooring at zero.
// Used to reconcile the declared upload size with the provider-confirmed one.
func (r *Repository) Adjust(ctx context.Context, username string, delta int64) error {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
UPDATE quotas
SET used_bytes = GREATEST(used_bytes + $2, 0), updated_at = NOW()
WHERE username = $1;`

	if _, err := r.pool.Exec(ctx, query, username, delta); err != nil {
		return fmt.Errorf("adjust quota: %w", err)
	}
	return nil
}

// Release subtracts bytes from usage, flooring at zero.
func (r *Repository) Release(ctx context.Context, username string, bytes int64) error {
	if bytes < 0 {
		bytes = 0
	}
	return r.Adjust(ctx, username, -bytes)
}

func (r *Repository) ensureRecord(ctx context.Context, username string) error {
	if _, err := r.pool.Exec(ctx, `
INSERT INTO quotas (username, used_bytes, limit_bytes)
VALUES ($1, 0, $2)
ON CONFLICT (username) DO NOTHING;`, username, r.defaultLimit); err != nil {
		return fmt.Errorf("ensure quota record: %w", err)
	}
	return nil
}
