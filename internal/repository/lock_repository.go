package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropkit/coupondrop/internal/service"
)

// TxBeginner is the slice of the pool the lock repository needs.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// LockRepository serializes work per claimant using Postgres advisory locks,
// so the guarantee holds across every instance sharing the database, not just
// within one process.
type LockRepository struct {
	pool TxBeginner
}

// NewLockRepository creates a LockRepository over the given pool.
func NewLockRepository(pool *pgxpool.Pool) *LockRepository {
	return &LockRepository{pool: pool}
}

// NewLockRepositoryWithBeginner creates a LockRepository with a custom
// transaction beginner. Primarily used for testing.
func NewLockRepositoryWithBeginner(pool TxBeginner) *LockRepository {
	return &LockRepository{pool: pool}
}

// WithClaimantLock runs fn while holding a transaction-scoped advisory lock
// keyed on the claimant id. The lock is released when the transaction ends,
// on commit and rollback alike, so fn can never leak it. fn's own statements
// run outside the lock transaction; the transaction exists only to scope the
// lock's lifetime.
func (r *LockRepository) WithClaimantLock(ctx context.Context, claimantID string, fn func(context.Context) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return &service.StorageError{Op: "begin claimant lock", Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, claimantID); err != nil {
		return &service.StorageError{Op: "acquire claimant lock", Err: err}
	}

	if err := fn(ctx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return &service.StorageError{Op: "release claimant lock", Err: err}
	}
	return nil
}
