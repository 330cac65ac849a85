package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/dropkit/coupondrop/internal/metrics"
	"github.com/dropkit/coupondrop/internal/model"
	"github.com/dropkit/coupondrop/internal/service"
)

// AllocatorInterface defines the allocation entry point.
type AllocatorInterface interface {
	Allocate(ctx context.Context, claimantID string, meta service.ClaimMeta) (string, error)
}

// EligibilityInterface defines the read-only cooldown check.
type EligibilityInterface interface {
	Check(ctx context.Context, claimantID string) (*model.Eligibility, error)
}

// CooldownSettings supplies the effective claim settings for response hints.
type CooldownSettings interface {
	Current(ctx context.Context) (*model.Settings, error)
}

// ClaimHandler handles the public claim endpoints.
type ClaimHandler struct {
	allocator   AllocatorInterface
	eligibility EligibilityInterface
	settings    CooldownSettings
	metrics     *metrics.ClaimMetrics
}

// NewClaimHandler creates a ClaimHandler.
func NewClaimHandler(allocator AllocatorInterface, eligibility EligibilityInterface, settings CooldownSettings, m *metrics.ClaimMetrics) *ClaimHandler {
	return &ClaimHandler{allocator: allocator, eligibility: eligibility, settings: settings, metrics: m}
}

// ClaimantID resolves the claimant identity for a request: the X-Client-IP
// header when the frontend supplies one, otherwise the transport remote IP.
// This is the key for eligibility and the claim ledger.
func ClaimantID(c *fiber.Ctx) string {
	if ip := c.Get("X-Client-IP"); ip != "" {
		return ip
	}
	return c.IP()
}

// ClaimCoupon handles POST /api/claim. The allocator re-validates
// eligibility internally; any client-side "I haven't claimed" signal is
// advisory only.
func (h *ClaimHandler) ClaimCoupon(c *fiber.Ctx) error {
	claimantID := ClaimantID(c)
	meta := service.ClaimMeta{DeviceInfo: c.Get(fiber.HeaderUserAgent)}

	code, err := h.allocator.Allocate(c.Context(), claimantID, meta)
	if err != nil {
		var notEligible *service.NotEligibleError
		switch {
		case errors.As(err, &notEligible):
			h.metrics.Observe(metrics.OutcomeCooldown)
			retryAfter := ceilSeconds(notEligible.RetryAfter)
			c.Set(fiber.HeaderRetryAfter, strconv.FormatInt(retryAfter, 10))
			return c.Status(fiber.StatusTooManyRequests).JSON(model.EligibilityResponse{
				CanClaim:          false,
				RetryAfterSeconds: retryAfter,
				PriorCode:         notEligible.PriorCode,
			})
		case errors.Is(err, service.ErrNoInventory):
			h.metrics.Observe(metrics.OutcomeNoInventory)
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No coupons left"})
		case errors.Is(err, service.ErrAlreadyClaimed):
			h.metrics.Observe(metrics.OutcomeAnomaly)
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "claim already recorded"})
		case errors.Is(err, service.ErrStorageUnavailable):
			h.metrics.Observe(metrics.OutcomeError)
			log.Error().Err(err).Str("claimant_id", claimantID).Msg("storage unavailable during claim")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "service temporarily unavailable"})
		}
		h.metrics.Observe(metrics.OutcomeError)
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("claimant_id", claimantID).
			Msg("failed to claim coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	h.metrics.Observe(metrics.OutcomeAllocated)
	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("claimant_id", claimantID).
		Str("coupon_code", code).
		Msg("coupon claimed")

	resp := model.ClaimResponse{Code: code}
	// The expiry hint mirrors the cooldown in force right now; a settings
	// lookup failure only drops the hint, never the claim.
	if settings, err := h.settings.Current(c.Context()); err == nil {
		resp.Expiry = fmt.Sprintf("%dh", settings.CooldownHours)
	}
	return c.JSON(resp)
}

// Eligibility handles GET /api/claim/eligibility. Read-only; the result is a
// hint for the UI and is re-derived server-side on the actual claim.
func (h *ClaimHandler) Eligibility(c *fiber.Ctx) error {
	claimantID := ClaimantID(c)

	elig, err := h.eligibility.Check(c.Context(), claimantID)
	if err != nil {
		if errors.Is(err, service.ErrStorageUnavailable) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "service temporarily unavailable"})
		}
		log.Error().Err(err).Str("claimant_id", claimantID).Msg("failed to check eligibility")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	resp := model.EligibilityResponse{
		CanClaim:  elig.CanClaim,
		PriorCode: elig.PriorCode,
	}
	if !elig.CanClaim {
		resp.RetryAfterSeconds = ceilSeconds(elig.RetryAfter)
	}
	return c.JSON(resp)
}

// ceilSeconds rounds a duration up to whole seconds so a 1ms remainder still
// tells the client to wait.
func ceilSeconds(d time.Duration) int64 {
	return int64((d + time.Second - 1) / time.Second)
}
