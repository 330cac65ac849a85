package model

import (
	"strings"
	"time"
)

// Claim statuses. Allocation only ever produces StatusApproved; the other
// values are accepted on reads and reserved for a future moderation flow.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Coupon is a single claimable code in the pool.
// ClaimedBy and ClaimedAt are set together or not at all; once set, the
// coupon is permanently excluded from allocation.
type Coupon struct {
	ID        int64      `json:"id"`
	Code      string     `json:"code"`
	Active    bool       `json:"active"`
	ClaimedBy *string    `json:"claimed_by,omitempty"`
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Claimed reports whether the coupon has been allocated to a claimant.
func (c *Coupon) Claimed() bool {
	return c.ClaimedBy != nil
}

// NormalizeCode canonicalizes a coupon code: surrounding whitespace is
// stripped and the result is upper-cased. Uniqueness is enforced on the
// normalized form, so " save10 " and "SAVE10" are the same code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ClaimRecord is one entry in the append-only claim ledger. Records are
// written once by the allocator and never updated or deleted; they outlive
// the coupon they reference.
type ClaimRecord struct {
	ID         int64     `json:"id"`
	ClaimantID string    `json:"claimant_id"`
	CouponCode string    `json:"coupon_code"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	DeviceInfo string    `json:"device_info,omitempty"`
	Email      string    `json:"email,omitempty"`
	Notes      string    `json:"notes,omitempty"`
}

// Eligibility is the outcome of a cooldown check for one claimant.
type Eligibility struct {
	CanClaim   bool
	RetryAfter time.Duration // zero when CanClaim is true
	PriorCode  string        // last claimed code, informational only
}

// Settings are the admin-tunable knobs consumed by the eligibility checker.
type Settings struct {
	CooldownHours  int       `json:"cooldown_hours"`
	TrackingMethod string    `json:"tracking_method"` // "ip" or "cookie"
	UpdatedAt      time.Time `json:"updated_at"`
}

// Cooldown returns the effective cooldown window.
func (s Settings) Cooldown() time.Duration {
	return time.Duration(s.CooldownHours) * time.Hour
}

// CreateCouponRequest is the DTO for adding a single coupon.
type CreateCouponRequest struct {
	Code string `json:"code" validate:"required,notblank,max=255"`
}

// BulkCreateCouponRequest is the DTO for adding a batch of coupons.
type BulkCreateCouponRequest struct {
	Codes []string `json:"codes" validate:"required,min=1,max=1000,dive,notblank,max=255"`
}

// UpdateCouponRequest is the DTO for toggling a coupon's active flag.
type UpdateCouponRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// UpdateSettingsRequest is the DTO for changing claim settings.
type UpdateSettingsRequest struct {
	CooldownHours  *int   `json:"cooldown_hours" validate:"required,gte=1,lte=720"`
	TrackingMethod string `json:"tracking_method" validate:"required,oneof=ip cookie"`
}

// LoginRequest is the DTO for admin authentication.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=255"`
}

// ClaimResponse is returned to a visitor on a successful claim. Expiry is the
// cooldown in force at claim time, as a human-readable hint.
type ClaimResponse struct {
	Code   string `json:"code"`
	Expiry string `json:"expiry,omitempty"`
}

// EligibilityResponse is the public view of an eligibility check.
type EligibilityResponse struct {
	CanClaim          bool   `json:"can_claim"`
	RetryAfterSeconds int64  `json:"retry_after_seconds,omitempty"`
	PriorCode         string `json:"prior_code,omitempty"`
}

// ClaimStatsResponse summarizes ledger activity for the admin dashboard.
type ClaimStatsResponse struct {
	TotalClaims int64 `json:"totalClaims"`
	TodayClaims int64 `json:"todayClaims"`
}
