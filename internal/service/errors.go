package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoInventory is returned when no active, unclaimed coupon remains
	ErrNoInventory = errors.New("no coupons left")

	// ErrNotEligible is returned when a claimant is still inside the cooldown window
	ErrNotEligible = errors.New("claimant not eligible yet")

	// ErrAlreadyClaimed marks a ledger append that hit the (claimant, code)
	// uniqueness constraint. The reservation it follows is kept; this is a
	// detected anomaly, not a normal outcome.
	ErrAlreadyClaimed = errors.New("claim already recorded for claimant and code")

	// ErrDuplicateCode is returned when adding a coupon whose normalized code already exists
	ErrDuplicateCode = errors.New("coupon code already exists")

	// ErrCouponNotFound is returned when a coupon id cannot be found
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrInvalidRequest is returned when request data is invalid or incomplete
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidCredentials is returned on a failed admin login
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrStorageUnavailable wraps transient storage failures (connection loss,
	// timeouts). Callers apply their own retry policy; the core does not.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// NotEligibleError reports a claim attempt inside the cooldown window. It
// matches ErrNotEligible under errors.Is and carries the retry hint for the
// transport layer.
type NotEligibleError struct {
	RetryAfter time.Duration
	PriorCode  string
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("claimant not eligible, retry after %s", e.RetryAfter)
}

func (e *NotEligibleError) Is(target error) bool { return target == ErrNotEligible }

// StorageError carries the operation name alongside the underlying driver
// error. It matches ErrStorageUnavailable under errors.Is so callers can
// branch on the kind without losing the cause chain.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorageUnavailable }
