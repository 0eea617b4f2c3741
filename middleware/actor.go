package middleware

import (
	"delivery-ledger-backend/config"
	"delivery-ledger-backend/token"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// WithActor resolves the acting user from the access_token cookie and stores
// the identity in request locals for the audit trail. It never rejects:
// handlers that require an actor enforce that themselves.
func WithActor(maker token.Maker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := c.Cookies("access_token")
		if accessToken == "" {
			return c.Next()
		}

		payload, err := maker.VerifyToken(accessToken)
		if err != nil {
			config.Logger.Debug("Invalid access token encountered", zap.Error(err))
			return c.Next()
		}

		c.Locals("user_email", payload.Email)
		c.Locals("user_id", payload.UserID)
		c.Locals("user_role", payload.Role)
		return c.Next()
	}
}

// Protected rejects requests that did not authenticate. Apply after WithActor.
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Locals("user_email") == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Unauthorized",
				"error":   "Authentication required",
			})
		}
		return c.Next()
	}
}

// RequireRole limits a route to the named roles. Admin always passes.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(string)
		if role == "admin" {
			return c.Next()
		}
		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Forbidden",
			"error":   "Insufficient permissions",
		})
	}
}
