package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// localsClaimsKey stores verified claims on the request context.
const localsClaimsKey = "auth_claims"

// RequireAdmin returns a fiber middleware that rejects requests without a
// valid Bearer token carrying the admin role.
func RequireAdmin(issuer *TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authorization token required"})
		}

		claims, err := issuer.Verify(token)
		if err != nil {
			log.Debug().Err(err).Str("path", c.Path()).Msg("token verification failed")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "invalid or expired token"})
		}
		if claims.Role != RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "invalid admin privileges"})
		}

		c.Locals(localsClaimsKey, claims)
		return c.Next()
	}
}

// ClaimsFrom returns the verified claims stored by RequireAdmin, or nil when
// the request did not pass through it.
func ClaimsFrom(c *fiber.Ctx) *Claims {
	claims, _ := c.Locals(localsClaimsKey).(*Claims)
	return claims
}
