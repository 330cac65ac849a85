package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropkit/coupondrop/internal/model"
	"github.com/dropkit/coupondrop/internal/service"
	"github.com/dropkit/coupondrop/pkg/database"
)

// PoolInterface defines the database operations needed by repositories.
// This allows for easier testing with mocks.
type PoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// CouponRepository provides data access for the coupon pool using pgx.
type CouponRepository struct {
	pool PoolInterface
}

// NewCouponRepository creates a new CouponRepository with the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// NewCouponRepositoryWithPool creates a new CouponRepository with a custom pool interface.
// This is primarily used for testing.
func NewCouponRepositoryWithPool(pool PoolInterface) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// isUniqueViolation reports whether err is a Postgres unique-constraint error.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Insert adds a new coupon with the given (already normalized) code.
// Returns service.ErrDuplicateCode if the code already exists.
func (r *CouponRepository) Insert(ctx context.Context, code string) (*model.Coupon, error) {
	return insertCoupon(ctx, r.pool, code)
}

// InsertTx is Insert scoped to a caller-owned transaction, used by bulk
// creation so a duplicate anywhere rolls back the whole batch.
func (r *CouponRepository) InsertTx(ctx context.Context, tx database.TxQuerier, code string) (*model.Coupon, error) {
	return insertCoupon(ctx, tx, code)
}

func insertCoupon(ctx context.Context, q database.TxQuerier, code string) (*model.Coupon, error) {
	query := `INSERT INTO coupons (code) VALUES ($1)
		RETURNING id, code, active, claimed_by, claimed_at, created_at`

	var coupon model.Coupon
	err := q.QueryRow(ctx, query, code).Scan(
		&coupon.ID,
		&coupon.Code,
		&coupon.Active,
		&coupon.ClaimedBy,
		&coupon.ClaimedAt,
		&coupon.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, service.ErrDuplicateCode
		}
		return nil, &service.StorageError{Op: "insert coupon", Err: err}
	}
	return &coupon, nil
}

// List returns every coupon in the pool, newest first.
func (r *CouponRepository) List(ctx context.Context) ([]model.Coupon, error) {
	query := `SELECT id, code, active, claimed_by, claimed_at, created_at
		FROM coupons ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, &service.StorageError{Op: "list coupons", Err: err}
	}
	defer rows.Close()

	coupons := []model.Coupon{}
	for rows.Next() {
		var c model.Coupon
		if err := rows.Scan(&c.ID, &c.Code, &c.Active, &c.ClaimedBy, &c.ClaimedAt, &c.CreatedAt); err != nil {
			return nil, &service.StorageError{Op: "scan coupon row", Err: err}
		}
		coupons = append(coupons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &service.StorageError{Op: "iterate coupon rows", Err: err}
	}
	return coupons, nil
}

// SetActive flips a coupon's active flag. Claim state is untouched;
// deactivation only stops future allocation.
// Returns service.ErrCouponNotFound for an unknown id.
func (r *CouponRepository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE coupons SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return &service.StorageError{Op: "set coupon active", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return service.ErrCouponNotFound
	}
	return nil
}

// Delete removes a coupon from the pool. Claim ledger rows referencing its
// code are deliberately left alone; history outlives inventory.
// Returns service.ErrCouponNotFound for an unknown id.
func (r *CouponRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return &service.StorageError{Op: "delete coupon", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return service.ErrCouponNotFound
	}
	return nil
}

// NextAvailable returns the first active, unclaimed coupon in allocation
// order (ascending id, i.e. insertion order). Returns nil, nil when the pool
// has nothing left to give.
func (r *CouponRepository) NextAvailable(ctx context.Context) (*model.Coupon, error) {
	query := `SELECT id, code, active, claimed_by, claimed_at, created_at
		FROM coupons
		WHERE active AND claimed_by IS NULL
		ORDER BY id
		LIMIT 1`

	var coupon model.Coupon
	err := r.pool.QueryRow(ctx, query).Scan(
		&coupon.ID,
		&coupon.Code,
		&coupon.Active,
		&coupon.ClaimedBy,
		&coupon.ClaimedAt,
		&coupon.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, &service.StorageError{Op: "select next available coupon", Err: err}
	}
	return &coupon, nil
}

// Reserve transitions a coupon from unclaimed to claimed in a single
// conditional update. The WHERE clause re-checks claimed_by at write time, so
// when two requests race for the same coupon exactly one update matches a
// row. Returns false when the coupon was claimed (or deactivated) since the
// caller selected it.
func (r *CouponRepository) Reserve(ctx context.Context, id int64, claimantID string, at time.Time) (bool, error) {
	query := `UPDATE coupons SET claimed_by = $2, claimed_at = $3
		WHERE id = $1 AND active AND claimed_by IS NULL`

	tag, err := r.pool.Exec(ctx, query, id, claimantID, at)
	if err != nil {
		return false, &service.StorageError{Op: "reserve coupon", Err: err}
	}
	return tag.RowsAffected() == 1, nil
}
