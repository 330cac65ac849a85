package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropkit/coupondrop/internal/model"
	"github.com/dropkit/coupondrop/internal/service"
)

// ClaimRepository provides access to the append-only claim ledger.
// Rows are inserted by the allocator and never updated or deleted.
type ClaimRepository struct {
	pool PoolInterface
}

// NewClaimRepository creates a new ClaimRepository with the given pool.
func NewClaimRepository(pool *pgxpool.Pool) *ClaimRepository {
	return &ClaimRepository{pool: pool}
}

// NewClaimRepositoryWithPool creates a new ClaimRepository with a custom pool interface.
// This is primarily used for testing.
func NewClaimRepositoryWithPool(pool PoolInterface) *ClaimRepository {
	return &ClaimRepository{pool: pool}
}

const claimColumns = `id, claimant_id, coupon_code, status, ts, device_info, email, notes`

func scanClaim(row pgx.Row) (*model.ClaimRecord, error) {
	var rec model.ClaimRecord
	err := row.Scan(
		&rec.ID,
		&rec.ClaimantID,
		&rec.CouponCode,
		&rec.Status,
		&rec.Timestamp,
		&rec.DeviceInfo,
		&rec.Email,
		&rec.Notes,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Insert appends a claim record to the ledger.
// Returns service.ErrAlreadyClaimed if a record for the same
// (claimant, coupon code) pair already exists.
func (r *ClaimRepository) Insert(ctx context.Context, rec *model.ClaimRecord) error {
	query := `INSERT INTO claims (claimant_id, coupon_code, status, ts, device_info, email, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		rec.ClaimantID, rec.CouponCode, rec.Status, rec.Timestamp,
		rec.DeviceInfo, rec.Email, rec.Notes,
	).Scan(&rec.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return service.ErrAlreadyClaimed
		}
		return &service.StorageError{Op: "insert claim", Err: err}
	}
	return nil
}

// History returns one page of the ledger, newest first. Timestamp ties are
// broken by descending id so the read order is total.
// Pages are 1-based; out-of-range pages return an empty slice.
func (r *ClaimRepository) History(ctx context.Context, page, pageSize int) ([]model.ClaimRecord, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	query := `SELECT ` + claimColumns + ` FROM claims
		ORDER BY ts DESC, id DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, pageSize, offset)
	if err != nil {
		return nil, &service.StorageError{Op: "query claim history", Err: err}
	}
	defer rows.Close()

	records := []model.ClaimRecord{}
	for rows.Next() {
		rec, err := scanClaim(rows)
		if err != nil {
			return nil, &service.StorageError{Op: "scan claim row", Err: err}
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &service.StorageError{Op: "iterate claim rows", Err: err}
	}
	return records, nil
}

// CountSince counts claims with timestamp at or after the boundary (inclusive).
func (r *ClaimRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM claims WHERE ts >= $1`, since).Scan(&count)
	if err != nil {
		return 0, &service.StorageError{Op: "count claims since", Err: err}
	}
	return count, nil
}

// CountTotal counts all claims ever recorded.
func (r *ClaimRepository) CountTotal(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM claims`).Scan(&count)
	if err != nil {
		return 0, &service.StorageError{Op: "count claims", Err: err}
	}
	return count, nil
}

// LatestFor returns the most recent claim record for a claimant, or nil, nil
// if the claimant has never claimed.
func (r *ClaimRepository) LatestFor(ctx context.Context, claimantID string) (*model.ClaimRecord, error) {
	query := `SELECT ` + claimColumns + ` FROM claims
		WHERE claimant_id = $1
		ORDER BY ts DESC, id DESC
		LIMIT 1`

	rec, err := scanClaim(r.pool.QueryRow(ctx, query, claimantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, &service.StorageError{Op: "select latest claim", Err: err}
	}
	return rec, nil
}
