package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dropkit/coupondrop/internal/model"
)

// LatestClaimReader is the slice of the ledger the eligibility checker needs.
type LatestClaimReader interface {
	LatestFor(ctx context.Context, claimantID string) (*model.ClaimRecord, error)
}

// CooldownSource supplies the effective settings at evaluation time.
type CooldownSource interface {
	Current(ctx context.Context) (*model.Settings, error)
}

// EligibilityChecker decides whether a claimant may claim now. It is
// read-only: the authoritative enforcement happens in the allocator, which
// re-runs this check before reserving.
type EligibilityChecker struct {
	ledger   LatestClaimReader
	settings CooldownSource
	now      func() time.Time
}

// NewEligibilityChecker creates an EligibilityChecker over the given ledger
// and settings source.
func NewEligibilityChecker(ledger LatestClaimReader, settings CooldownSource) *EligibilityChecker {
	return &EligibilityChecker{ledger: ledger, settings: settings, now: time.Now}
}

// Check evaluates the cooldown for a claimant.
//
// The cooldown window is read from the settings source on every call, so a
// reconfigured window applies immediately to in-flight claimants; the window
// in effect when the prior claim was made is irrelevant. The boundary is
// inclusive: a claimant whose last claim was at T becomes eligible at exactly
// T+window.
func (e *EligibilityChecker) Check(ctx context.Context, claimantID string) (*model.Eligibility, error) {
	last, err := e.ledger.LatestFor(ctx, claimantID)
	if err != nil {
		return nil, fmt.Errorf("lookup latest claim: %w", err)
	}
	if last == nil {
		// First-time claimant.
		return &model.Eligibility{CanClaim: true}, nil
	}

	settings, err := e.settings.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve cooldown: %w", err)
	}

	window := settings.Cooldown()
	elapsed := e.now().Sub(last.Timestamp)
	if elapsed >= window {
		return &model.Eligibility{CanClaim: true, PriorCode: last.CouponCode}, nil
	}
	return &model.Eligibility{
		CanClaim:   false,
		RetryAfter: window - elapsed,
		PriorCode:  last.CouponCode,
	}, nil
}
