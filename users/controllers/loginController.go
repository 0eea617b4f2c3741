package controllers

import (
	"encoding/json"
	"time"

	"delivery-ledger-backend/config"
	"delivery-ledger-backend/db/models"
	"delivery-ledger-backend/users/repositories"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// LoginController authenticates by email and password and sets the access
// token as an HTTPOnly cookie, which is also what the websocket upgrade reads.
func (uc *UserController) LoginController(c *fiber.Ctx) error {
	type loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		config.Logger.Error("Error parsing login request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request",
			"error":   "Invalid request format.",
		})
	}

	user, err := uc.UserRepo.GetUserByEmail(req.Email)
	if err != nil || !repositories.CheckPasswordHash(req.Password, user.Password) {
		config.Logger.Warn("Login attempt failed", zap.String("email", req.Email))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Authentication failed",
			"error":   "Invalid email or password.",
		})
	}

	if !user.IsActive {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Account disabled",
			"error":   "This account has been deactivated.",
		})
	}

	accessToken, err := uc.TokenMaker.CreateToken(user.Email, user.ID, string(user.Role), uc.TokenDuration)
	if err != nil {
		config.Logger.Error("Failed to create access token", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Authentication failed",
			"error":   "Could not create session.",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     accessTokenCookie,
		Value:    accessToken,
		Expires:  time.Now().Add(uc.TokenDuration),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})

	if err := uc.UserRepo.TouchLastLogin(user.ID); err != nil {
		config.Logger.Warn("Failed to record last login", zap.String("email", user.Email), zap.Error(err))
	}

	diff, _ := json.Marshal(fiber.Map{"email": user.Email})
	if err := uc.AuditRepo.LogAudit(nil, &models.AuditLog{
		ActorEmail: user.Email,
		Action:     models.AuditActionLogin,
		TableName:  "users",
		RecordID:   user.ID.String(),
		Diff:       diff,
	}); err != nil {
		config.Logger.Warn("Failed to audit login", zap.Error(err))
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"data": fiber.Map{
			"user":  user,
			"token": accessToken,
		},
	})
}
