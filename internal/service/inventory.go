package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropkit/coupondrop/internal/model"
	"github.com/dropkit/coupondrop/pkg/database"
)

// CouponStore defines the inventory operations on the coupon pool.
type CouponStore interface {
	Insert(ctx context.Context, code string) (*model.Coupon, error)
	InsertTx(ctx context.Context, tx database.TxQuerier, code string) (*model.Coupon, error)
	List(ctx context.Context) ([]model.Coupon, error)
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error
}

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// InventoryService provides admin CRUD over the coupon pool. None of its
// operations touch claim state or the ledger: deactivating or deleting a
// claimed coupon leaves its claim record exactly as it was.
type InventoryService struct {
	pool  TxBeginner
	store CouponStore
}

// NewInventoryService creates an InventoryService with the given pool and store.
func NewInventoryService(pool *pgxpool.Pool, store CouponStore) *InventoryService {
	return &InventoryService{pool: pool, store: store}
}

// NewInventoryServiceWithTxBeginner creates an InventoryService with a custom
// TxBeginner. Primarily used for testing.
func NewInventoryServiceWithTxBeginner(pool TxBeginner, store CouponStore) *InventoryService {
	return &InventoryService{pool: pool, store: store}
}

// Add normalizes and inserts a single coupon code.
// Returns ErrInvalidRequest for a blank code and ErrDuplicateCode when the
// normalized code already exists (" save10 " collides with "SAVE10").
func (s *InventoryService) Add(ctx context.Context, code string) (*model.Coupon, error) {
	normalized := model.NormalizeCode(code)
	if normalized == "" {
		return nil, ErrInvalidRequest
	}
	return s.store.Insert(ctx, normalized)
}

// BulkAdd inserts a batch of codes atomically: one duplicate (against the
// pool or within the batch) rolls the whole batch back.
func (s *InventoryService) BulkAdd(ctx context.Context, codes []string) ([]model.Coupon, error) {
	if len(codes) == 0 {
		return nil, ErrInvalidRequest
	}

	normalized := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		n := model.NormalizeCode(code)
		if n == "" {
			return nil, ErrInvalidRequest
		}
		if _, dup := seen[n]; dup {
			return nil, ErrDuplicateCode
		}
		seen[n] = struct{}{}
		normalized = append(normalized, n)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, &StorageError{Op: "begin bulk insert", Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	created := make([]model.Coupon, 0, len(normalized))
	for _, code := range normalized {
		coupon, err := s.store.InsertTx(ctx, tx, code)
		if err != nil {
			return nil, fmt.Errorf("bulk insert %q: %w", code, err)
		}
		created = append(created, *coupon)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, &StorageError{Op: "commit bulk insert", Err: err}
	}
	return created, nil
}

// List returns the full pool for the admin dashboard, newest first.
func (s *InventoryService) List(ctx context.Context) ([]model.Coupon, error) {
	return s.store.List(ctx)
}

// SetActive toggles whether a coupon may be selected by future allocations.
// Deactivating an already-claimed coupon is legal and changes nothing about
// the existing claim.
func (s *InventoryService) SetActive(ctx context.Context, id int64, active bool) error {
	return s.store.SetActive(ctx, id, active)
}

// Delete removes a coupon from the pool. Claim records referencing its code
// are preserved; history outlives inventory.
func (s *InventoryService) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}
