package controllers

import (
	"encoding/json"
	"strings"

	"delivery-ledger-backend/config"
	"delivery-ledger-backend/db/models"
	"delivery-ledger-backend/users/repositories"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UpdateUserController patches profile fields, role, active flag and password.
// Deactivation doubles as the delete operation; sessions already issued keep
// working until the token expires but login is refused.
func (uc *UserController) UpdateUserController(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	type updateUserRequest struct {
		FirstName *string      `json:"first_name"`
		LastName  *string      `json:"last_name"`
		Phone     *string      `json:"phone"`
		Role      *models.Role `json:"role"`
		IsActive  *bool        `json:"is_active"`
		Password  *string      `json:"password"`
		UpdatedBy string       `json:"updated_by"`
	}

	var req updateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request",
			"error":   err.Error(),
		})
	}

	user, err := uc.UserRepo.GetUserByID(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "User not found",
			"error":   err.Error(),
		})
	}

	fields := map[string]interface{}{}
	if req.FirstName != nil && strings.TrimSpace(*req.FirstName) != "" {
		fields["first_name"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil && strings.TrimSpace(*req.LastName) != "" {
		fields["last_name"] = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		fields["phone"] = req.Phone
	}
	if req.Role != nil {
		if !validRole(*req.Role) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown role"})
		}
		fields["role"] = *req.Role
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "password must be at least 8 characters",
			})
		}
		hashed, err := repositories.HashPassword(*req.Password)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Failed to update user",
				"error":   "Could not hash password.",
			})
		}
		fields["password"] = hashed
	}

	if len(fields) == 0 {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Nothing to update",
			"data":    user,
		})
	}

	if err := uc.UserRepo.UpdateUserFields(id, fields); err != nil {
		config.Logger.Error("Failed to update user", zap.String("user_id", id.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to update user",
			"error":   err.Error(),
		})
	}

	actor := req.UpdatedBy
	if actor == "" {
		actor = "system"
	}
	auditFields := map[string]interface{}{}
	for k, v := range fields {
		if k == "password" {
			auditFields[k] = "(changed)"
			continue
		}
		auditFields[k] = v
	}
	diff, _ := json.Marshal(auditFields)
	if err := uc.AuditRepo.LogAudit(nil, &models.AuditLog{
		ActorEmail: actor,
		Action:     models.AuditActionUpdate,
		TableName:  "users",
		RecordID:   id.String(),
		Diff:       diff,
	}); err != nil {
		config.Logger.Warn("Failed to audit user update", zap.Error(err))
	}

	updated, err := uc.UserRepo.GetUserByID(id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "User updated but reload failed",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "User updated",
		"data":    updated,
	})
}
