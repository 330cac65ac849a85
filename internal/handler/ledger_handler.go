package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/dropkit/coupondrop/internal/model"
)

// LedgerServiceInterface defines the audit reads over the claim ledger.
type LedgerServiceInterface interface {
	History(ctx context.Context, page, pageSize int) ([]model.ClaimRecord, error)
	Stats(ctx context.Context) (*model.ClaimStatsResponse, error)
}

// LedgerHandler serves the admin claim-history endpoints.
type LedgerHandler struct {
	service LedgerServiceInterface
}

// NewLedgerHandler creates a LedgerHandler.
func NewLedgerHandler(svc LedgerServiceInterface) *LedgerHandler {
	return &LedgerHandler{service: svc}
}

// History handles GET /api/admin/claims?page=1&limit=50, newest first.
func (h *LedgerHandler) History(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 50)
	if limit > 500 {
		limit = 500
	}

	records, err := h.service.History(c.Context(), page, limit)
	if err != nil {
		log.Error().Err(err).Int("page", page).Msg("failed to load claim history")
		return storageStatus(c, err)
	}
	return c.JSON(records)
}

// Stats handles GET /api/admin/claims/stats.
func (h *LedgerHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to load claim stats")
		return storageStatus(c, err)
	}
	return c.JSON(stats)
}
