package controllers

import (
	"time"

	"delivery-ledger-backend/config"
	"delivery-ledger-backend/db/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// LogoutController invalidates the session by expiring the cookie. The token
// itself stays valid until expiry; there is no server-side revocation list.
func (uc *UserController) LogoutController(c *fiber.Ctx) error {
	actor := ""
	if tokenString := c.Cookies(accessTokenCookie); tokenString != "" {
		if payload, err := uc.TokenMaker.VerifyToken(tokenString); err == nil {
			actor = payload.Email
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     accessTokenCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})

	if actor != "" {
		if err := uc.AuditRepo.LogAudit(nil, &models.AuditLog{
			ActorEmail: actor,
			Action:     models.AuditActionLogout,
			TableName:  "users",
		}); err != nil {
			config.Logger.Warn("Failed to audit logout", zap.Error(err))
		}
	}

	return c.JSON(fiber.Map{
		"message": "Logout successful",
	})
}
