package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropkit/coupondrop/internal/service"
)

// mockLockTx stubs the three pgx.Tx methods the lock repository touches; the
// embedded interface covers the rest.
type mockLockTx struct {
	pgx.Tx
	execFn     func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	committed  bool
	rolledBack bool
}

func (m *mockLockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	if m.execFn != nil {
		return m.execFn(ctx, sql, arguments...)
	}
	return pgconn.NewCommandTag("SELECT 1"), nil
}

func (m *mockLockTx) Commit(ctx context.Context) error {
	m.committed = true
	return nil
}

func (m *mockLockTx) Rollback(ctx context.Context) error {
	m.rolledBack = true
	return nil
}

type mockLockBeginner struct {
	tx      *mockLockTx
	beginFn func(ctx context.Context) (pgx.Tx, error)
}

func (m *mockLockBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	if m.beginFn != nil {
		return m.beginFn(ctx)
	}
	return m.tx, nil
}

func TestLockRepository_AcquiresAdvisoryLockKeyedOnClaimant(t *testing.T) {
	var capturedSQL string
	var capturedArgs []any
	tx := &mockLockTx{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			capturedSQL = sql
			capturedArgs = arguments
			return pgconn.NewCommandTag("SELECT 1"), nil
		},
	}
	repo := NewLockRepositoryWithBeginner(&mockLockBeginner{tx: tx})

	var ran bool
	err := repo.WithClaimantLock(context.Background(), "1.2.3.4", func(ctx context.Context) error {
		ran = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, ran)
	assert.Contains(t, capturedSQL, "pg_advisory_xact_lock")
	assert.Equal(t, []any{"1.2.3.4"}, capturedArgs, "the lock key is the claimant id")
	assert.True(t, tx.committed, "commit releases the lock")
}

func TestLockRepository_FnErrorReleasesLockAndPassesThrough(t *testing.T) {
	tx := &mockLockTx{}
	repo := NewLockRepositoryWithBeginner(&mockLockBeginner{tx: tx})

	err := repo.WithClaimantLock(context.Background(), "1.2.3.4", func(ctx context.Context) error {
		return service.ErrNoInventory
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrNoInventory), "fn errors surface unwrapped")
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack, "rollback releases the lock when fn fails")
}

func TestLockRepository_BeginError(t *testing.T) {
	repo := NewLockRepositoryWithBeginner(&mockLockBeginner{
		beginFn: func(ctx context.Context) (pgx.Tx, error) {
			return nil, errors.New("connection refused")
		},
	})

	err := repo.WithClaimantLock(context.Background(), "1.2.3.4", func(ctx context.Context) error {
		t.Fatal("fn must not run without the lock")
		return nil
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrStorageUnavailable))
}

func TestLockRepository_AcquireError(t *testing.T) {
	tx := &mockLockTx{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, errors.New("connection reset")
		},
	}
	repo := NewLockRepositoryWithBeginner(&mockLockBeginner{tx: tx})

	err := repo.WithClaimantLock(context.Background(), "1.2.3.4", func(ctx context.Context) error {
		t.Fatal("fn must not run without the lock")
		return nil
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrStorageUnavailable))
	assert.True(t, tx.rolledBack)
}
