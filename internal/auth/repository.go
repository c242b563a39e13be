package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultQueryTimeout = 5 * time.Second

// registrationLockID serializes concurrent registrations so the account cap
// cannot be overshot by simultaneous inserts.
const registrationLockID = 7231

// Repository provides database access for account records.
type Repository struct {
	pool         *pgxpool.Pool
	maxUsers     int
	defaultLimit int64
}

// NewRepository constructs a Repository enforcing the given registration cap
// and initial quota limit.
func NewRepository(pool *pgxpool.Pool, maxUsers int, defaultLimit int64) *Repository {
	return &Repository{pool: pool, maxUsers: maxUsers, defaultLimit: defaultLimit}
}

// CreateAccount persists a new account together with its initial quota record.
// Both writes happen in one transaction; the cap check holds an advisory lock
// for the duration of the transaction.
func (r *Repository) CreateAccount(ctx context.Context, username, passwordHash string) (Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Account{}, fmt.Errorf("begin registration: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1);`, registrationLockID); err != nil {
		return Account{}, fmt.Errorf("lock registration: %w", err)
	}

	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM users;`).Scan(&count); err != nil {
		return Account{}, fmt.Errorf("count users: %w", err)
	}
	if count >= r.maxUsers {
		return Account{}, ErrCapacityExceeded
	}

	query := `
INSERT INTO users (username, password_hash)
VALUES ($1, $2)
RETURNING username, password_hash, created_at;`

	var account Account
	if err := tx.QueryRow(ctx, query, username, passwordHash).Scan(
		&account.Username, &account.PasswordHash, &account.CreatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return Account{}, ErrUsernameExists
		}
		return Account{}, fmt.Errorf("create account: %w", err)
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO quotas (username, used_bytes, limit_bytes)
VALUES ($1, 0, $2)
ON CONFLICT (username) DO NOTHING;`, username, r.defaultLimit); err != nil {
		return Account{}, fmt.Errorf("create quota record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Account{}, fmt.Errorf("commit registration: %w", err)
	}

	return account, nil
}

// FindAccount fetches an account by username.
func (r *Repository) FindAccount(ctx context.Context, username string) (Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
SELECT username, password_hash, created_at
FROM users
WHERE username = $1;`

	var account Account
	err := r.pool.QueryRow(ctx, query, username).Scan(
		&account.Username,
		&account.PasswordHash,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrUserNotFound
		}
		return Account{}, fmt.Errorf("find account: %w", err)
	}

	return account, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
