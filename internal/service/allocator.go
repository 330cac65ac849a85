package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dropkit/coupondrop/internal/model"
)

// maxAllocateAttempts bounds the reserve-retry loop. A request only loses a
// reservation race when another request succeeds on the same coupon, so the
// cap can bite only when contention exceeds the remaining pool, at which
// point NoInventory is the honest answer anyway.
const maxAllocateAttempts = 8

// CouponPool is the slice of the coupon store the allocator needs.
type CouponPool interface {
	NextAvailable(ctx context.Context) (*model.Coupon, error)
	Reserve(ctx context.Context, id int64, claimantID string, at time.Time) (bool, error)
}

// LedgerAppender records allocation outcomes.
type LedgerAppender interface {
	Insert(ctx context.Context, rec *model.ClaimRecord) error
}

// ClaimantSerializer runs fn while holding an exclusive per-claimant lock.
// Concurrent calls for the same claimant execute one at a time; distinct
// claimants never block each other.
type ClaimantSerializer interface {
	WithClaimantLock(ctx context.Context, claimantID string, fn func(context.Context) error) error
}

// ClaimMeta carries optional audit metadata captured at claim time.
type ClaimMeta struct {
	DeviceInfo string
	Email      string
}

// Allocator hands out exactly one coupon per eligible claimant. Coupons are
// consumed in insertion order (ascending id) so the pool drains
// deterministically and audits can reconstruct the sequence.
type Allocator struct {
	pool        CouponPool
	ledger      LedgerAppender
	eligibility *EligibilityChecker
	locks       ClaimantSerializer
	now         func() time.Time
}

// NewAllocator creates an Allocator. The eligibility checker is consulted on
// every call; the allocator never trusts the transport layer's own check.
func NewAllocator(pool CouponPool, ledger LedgerAppender, eligibility *EligibilityChecker, locks ClaimantSerializer) *Allocator {
	return &Allocator{pool: pool, ledger: ledger, eligibility: eligibility, locks: locks, now: time.Now}
}

// Allocate reserves one coupon for the claimant and appends the claim record.
//
// The whole attempt runs under a per-claimant lock: without it, two requests
// from the same claimant could both read an empty ledger, then reserve two
// different coupons — the (claimant, code) uniqueness constraint only catches
// duplicates of the same code. Serializing per claimant means the second
// request re-reads the ledger after the first has appended, and fails the
// cooldown check.
//
// The reservation is a conditional update on the coupon row; losing that race
// means another request claimed the same coupon first, so selection is
// retried against the drained pool. The conditional update is the unit of
// atomicity: a request cancelled before it commits leaves no partial state.
//
// Returns the claimed code, or:
//   - NotEligibleError when the claimant is inside the cooldown window
//   - ErrNoInventory when no active, unclaimed coupon remains
//   - ErrAlreadyClaimed when the ledger append hits the (claimant, code)
//     uniqueness constraint; the reservation is kept and the anomaly logged
func (a *Allocator) Allocate(ctx context.Context, claimantID string, meta ClaimMeta) (string, error) {
	var code string
	err := a.locks.WithClaimantLock(ctx, claimantID, func(ctx context.Context) error {
		var err error
		code, err = a.allocate(ctx, claimantID, meta)
		return err
	})
	return code, err
}

func (a *Allocator) allocate(ctx context.Context, claimantID string, meta ClaimMeta) (string, error) {
	// Re-derive eligibility here, under the claimant lock; the transport-level
	// check and this call are not one atomic step from the caller's point of
	// view.
	elig, err := a.eligibility.Check(ctx, claimantID)
	if err != nil {
		return "", fmt.Errorf("check eligibility: %w", err)
	}
	if !elig.CanClaim {
		return "", &NotEligibleError{RetryAfter: elig.RetryAfter, PriorCode: elig.PriorCode}
	}

	for attempt := 0; attempt < maxAllocateAttempts; attempt++ {
		coupon, err := a.pool.NextAvailable(ctx)
		if err != nil {
			return "", fmt.Errorf("select coupon: %w", err)
		}
		if coupon == nil {
			return "", ErrNoInventory
		}

		now := a.now()
		reserved, err := a.pool.Reserve(ctx, coupon.ID, claimantID, now)
		if err != nil {
			return "", fmt.Errorf("reserve coupon: %w", err)
		}
		if !reserved {
			// Lost the race; the pool shrank by one. Pick again.
			log.Debug().
				Int64("coupon_id", coupon.ID).
				Str("claimant_id", claimantID).
				Int("attempt", attempt+1).
				Msg("reservation race lost, retrying selection")
			continue
		}

		rec := &model.ClaimRecord{
			ClaimantID: claimantID,
			CouponCode: coupon.Code,
			Status:     model.StatusApproved,
			Timestamp:  now,
			DeviceInfo: meta.DeviceInfo,
			Email:      meta.Email,
		}
		if err := a.ledger.Insert(ctx, rec); err != nil {
			if errors.Is(err, ErrAlreadyClaimed) {
				// The coupon stays claimed. A duplicate (claimant, code) pair
				// should be impossible since each call reserves a distinct
				// coupon; reaching this means the ledger and pool disagree.
				log.Warn().
					Str("claimant_id", claimantID).
					Str("coupon_code", coupon.Code).
					Msg("ledger append hit uniqueness constraint after reservation")
				return "", ErrAlreadyClaimed
			}
			return "", fmt.Errorf("record claim: %w", err)
		}

		log.Info().
			Str("claimant_id", claimantID).
			Str("coupon_code", coupon.Code).
			Int("attempt", attempt+1).
			Msg("coupon allocated")
		return coupon.Code, nil
	}

	return "", ErrNoInventory
}
