package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/dropkit/coupondrop/internal/model"
	"github.com/dropkit/coupondrop/internal/service"
)

// AuthenticatorInterface defines the admin login operation.
type AuthenticatorInterface interface {
	Login(email, password string) (string, error)
}

// AuthHandler serves admin login and logout.
type AuthHandler struct {
	auth      AuthenticatorInterface
	validator *validator.Validate
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(auth AuthenticatorInterface, v *validator.Validate) *AuthHandler {
	return &AuthHandler{auth: auth, validator: v}
}

// Login handles POST /api/admin/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req model.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	token, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid credentials"})
		}
		log.Error().Err(err).Msg("failed to issue admin token")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().Str("email", req.Email).Msg("admin logged in")
	return c.JSON(fiber.Map{"token": token})
}

// Logout handles POST /api/admin/logout. Tokens are stateless, so this is an
// acknowledgement for the client to discard its copy.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}
