package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/dropkit/coupondrop/internal/model"
	"github.com/dropkit/coupondrop/internal/service"
)

// SettingsServiceInterface defines the settings operations.
type SettingsServiceInterface interface {
	Current(ctx context.Context) (*model.Settings, error)
	Update(ctx context.Context, req *model.UpdateSettingsRequest) (*model.Settings, error)
}

// SettingsHandler serves the admin settings endpoints.
type SettingsHandler struct {
	service   SettingsServiceInterface
	validator *validator.Validate
}

// NewSettingsHandler creates a SettingsHandler.
func NewSettingsHandler(svc SettingsServiceInterface, v *validator.Validate) *SettingsHandler {
	return &SettingsHandler{service: svc, validator: v}
}

// GetSettings handles GET /api/admin/settings.
func (h *SettingsHandler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.service.Current(c.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to load settings")
		return storageStatus(c, err)
	}
	return c.JSON(settings)
}

// UpdateSettings handles PUT /api/admin/settings. The new cooldown applies to
// every eligibility evaluation from this moment on, including claimants whose
// window started under the old value.
func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	var req model.UpdateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	settings, err := h.service.Update(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		log.Error().Err(err).Msg("failed to update settings")
		return storageStatus(c, err)
	}

	log.Info().
		Int("cooldown_hours", settings.CooldownHours).
		Str("tracking_method", settings.TrackingMethod).
		Msg("settings updated")

	return c.JSON(fiber.Map{
		"message":  "Settings updated",
		"settings": settings,
	})
}
