package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropkit/coupondrop/internal/model"
	"github.com/dropkit/coupondrop/internal/service"
)

func TestClaimRepository_Insert_Success(t *testing.T) {
	var capturedSQL string
	var capturedArgs []any
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			capturedSQL = sql
			capturedArgs = args
			return &mockRow{scanFn: func(dest ...any) error {
				*dest[0].(*int64) = 11
				return nil
			}}
		},
	}

	repo := NewClaimRepositoryWithPool(mock)
	ts := time.Now()
	rec := &model.ClaimRecord{
		ClaimantID: "1.2.3.4",
		CouponCode: "SAVE10",
		Status:     model.StatusApproved,
		Timestamp:  ts,
		DeviceInfo: "test-agent",
	}

	err := repo.Insert(context.Background(), rec)

	require.NoError(t, err)
	assert.Contains(t, capturedSQL, "INSERT INTO claims")
	assert.Equal(t, "1.2.3.4", capturedArgs[0])
	assert.Equal(t, "SAVE10", capturedArgs[1])
	assert.Equal(t, model.StatusApproved, capturedArgs[2])
	assert.Equal(t, ts, capturedArgs[3])
	assert.Equal(t, int64(11), rec.ID, "generated id is written back to the record")
}

func TestClaimRepository_Insert_Duplicate(t *testing.T) {
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFn: func(dest ...any) error {
				return &pgconn.PgError{Code: "23505"}
			}}
		},
	}

	repo := NewClaimRepositoryWithPool(mock)

	err := repo.Insert(context.Background(), &model.ClaimRecord{
		ClaimantID: "1.2.3.4",
		CouponCode: "SAVE10",
		Status:     model.StatusApproved,
		Timestamp:  time.Now(),
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrAlreadyClaimed),
		"the (claimant, code) unique constraint maps to the anomaly sentinel")
}

func TestClaimRepository_History_PagingAndOrder(t *testing.T) {
	var capturedSQL string
	var capturedArgs []any
	mock := &mockPool{
		queryFn: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			capturedSQL = sql
			capturedArgs = args
			return nil, errors.New("stop here")
		},
	}

	repo := NewClaimRepositoryWithPool(mock)

	_, err := repo.History(context.Background(), 3, 20)

	require.Error(t, err) // mock stops after capturing the query
	assert.Contains(t, capturedSQL, "ORDER BY ts DESC, id DESC",
		"newest first, ties broken by insertion order")
	assert.Equal(t, []any{20, 40}, capturedArgs, "page 3 with size 20 skips 40 rows")
}

func TestClaimRepository_History_DefaultsForBadPaging(t *testing.T) {
	var capturedArgs []any
	mock := &mockPool{
		queryFn: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			capturedArgs = args
			return nil, errors.New("stop here")
		},
	}

	repo := NewClaimRepositoryWithPool(mock)

	_, _ = repo.History(context.Background(), 0, -5)

	assert.Equal(t, []any{50, 0}, capturedArgs, "invalid paging falls back to page 1, size 50")
}

func TestClaimRepository_CountSince_InclusiveBoundary(t *testing.T) {
	var capturedSQL string
	var capturedArgs []any
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			capturedSQL = sql
			capturedArgs = args
			return &mockRow{scanFn: func(dest ...any) error {
				*dest[0].(*int64) = 7
				return nil
			}}
		},
	}

	repo := NewClaimRepositoryWithPool(mock)
	boundary := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	count, err := repo.CountSince(context.Background(), boundary)

	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assert.Contains(t, capturedSQL, "ts >= $1", "boundary timestamp counts inclusively")
	assert.Equal(t, []any{boundary}, capturedArgs)
}

func TestClaimRepository_LatestFor_Found(t *testing.T) {
	var capturedSQL string
	ts := time.Now()
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			capturedSQL = sql
			return &mockRow{scanFn: func(dest ...any) error {
				*dest[0].(*int64) = 3
				*dest[1].(*string) = "1.2.3.4"
				*dest[2].(*string) = "SAVE10"
				*dest[3].(*string) = model.StatusApproved
				*dest[4].(*time.Time) = ts
				*dest[5].(*string) = ""
				*dest[6].(*string) = ""
				*dest[7].(*string) = ""
				return nil
			}}
		},
	}

	repo := NewClaimRepositoryWithPool(mock)

	rec, err := repo.LatestFor(context.Background(), "1.2.3.4")

	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "SAVE10", rec.CouponCode)
	assert.Equal(t, ts, rec.Timestamp)
	assert.Contains(t, capturedSQL, "ORDER BY ts DESC, id DESC")
	assert.Contains(t, capturedSQL, "LIMIT 1")
}

func TestClaimRepository_LatestFor_FirstTimeClaimant(t *testing.T) {
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFn: func(dest ...any) error { return pgx.ErrNoRows }}
		},
	}

	repo := NewClaimRepositoryWithPool(mock)

	rec, err := repo.LatestFor(context.Background(), "9.9.9.9")

	require.NoError(t, err, "absence of a record is not an error")
	assert.Nil(t, rec)
}

func TestClaimRepository_CountTotal_StorageError(t *testing.T) {
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFn: func(dest ...any) error {
				return errors.New("connection reset")
			}}
		},
	}

	repo := NewClaimRepositoryWithPool(mock)

	_, err := repo.CountTotal(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrStorageUnavailable))
}
