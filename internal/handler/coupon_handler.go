package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/dropkit/coupondrop/internal/model"
	"github.com/dropkit/coupondrop/internal/service"
)

// InventoryServiceInterface defines the admin inventory operations.
type InventoryServiceInterface interface {
	Add(ctx context.Context, code string) (*model.Coupon, error)
	BulkAdd(ctx context.Context, codes []string) ([]model.Coupon, error)
	List(ctx context.Context) ([]model.Coupon, error)
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error
}

// CouponHandler handles admin HTTP requests for coupon inventory.
type CouponHandler struct {
	service   InventoryServiceInterface
	validator *validator.Validate
}

// NewCouponHandler creates a CouponHandler with the given service and validator.
func NewCouponHandler(svc InventoryServiceInterface, v *validator.Validate) *CouponHandler {
	return &CouponHandler{service: svc, validator: v}
}

// ListCoupons handles GET /api/admin/coupons.
func (h *CouponHandler) ListCoupons(c *fiber.Ctx) error {
	coupons, err := h.service.List(c.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list coupons")
		return storageStatus(c, err)
	}
	return c.JSON(coupons)
}

// CreateCoupon handles POST /api/admin/coupons.
func (h *CouponHandler) CreateCoupon(c *fiber.Ctx) error {
	var req model.CreateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	coupon, err := h.service.Add(c.Context(), req.Code)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateCode) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Coupon code already exists"})
		}
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		log.Error().Err(err).Str("coupon_code", req.Code).Msg("failed to create coupon")
		return storageStatus(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Coupon added successfully",
		"coupon":  coupon,
	})
}

// BulkCreateCoupons handles POST /api/admin/coupons/bulk. The batch is
// all-or-nothing: one duplicate rolls everything back.
func (h *CouponHandler) BulkCreateCoupons(c *fiber.Ctx) error {
	var req model.BulkCreateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	coupons, err := h.service.BulkAdd(c.Context(), req.Codes)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateCode) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Coupon code already exists"})
		}
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		log.Error().Err(err).Int("batch_size", len(req.Codes)).Msg("failed to bulk create coupons")
		return storageStatus(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Coupons added successfully",
		"coupons": coupons,
	})
}

// UpdateCoupon handles PATCH /api/admin/coupons/:id to toggle the active
// flag. Toggling a claimed coupon is legal; it only gates future allocation.
func (h *CouponHandler) UpdateCoupon(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid coupon id"})
	}

	var req model.UpdateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	if err := h.service.SetActive(c.Context(), id, *req.IsActive); err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "coupon not found"})
		}
		log.Error().Err(err).Int64("coupon_id", id).Msg("failed to update coupon")
		return storageStatus(c, err)
	}

	return c.JSON(fiber.Map{"message": "Coupon updated"})
}

// DeleteCoupon handles DELETE /api/admin/coupons/:id. Claim history for the
// code survives the deletion.
func (h *CouponHandler) DeleteCoupon(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid coupon id"})
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "coupon not found"})
		}
		log.Error().Err(err).Int64("coupon_id", id).Msg("failed to delete coupon")
		return storageStatus(c, err)
	}

	return c.JSON(fiber.Map{"message": "Coupon deleted"})
}

func parseID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

// storageStatus maps storage-unavailable errors to 503 and everything else
// to 500.
func storageStatus(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrStorageUnavailable) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "service temporarily unavailable"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}
