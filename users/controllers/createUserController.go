package controllers

import (
	"encoding/json"
	"strings"

	"delivery-ledger-backend/config"
	"delivery-ledger-backend/db/models"
	"delivery-ledger-backend/users/repositories"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func validRole(role models.Role) bool {
	switch role {
	case models.AdminRole, models.AccountantRole, models.SiteManagerRole:
		return true
	}
	return false
}

func (uc *UserController) CreateUserController(c *fiber.Ctx) error {
	type createUserRequest struct {
		FirstName string      `json:"first_name"`
		LastName  string      `json:"last_name"`
		Email     string      `json:"email"`
		Phone     *string     `json:"phone"`
		Password  string      `json:"password"`
		Role      models.Role `json:"role"`
		CreatedBy string      `json:"created_by"`
	}

	var req createUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request",
			"error":   err.Error(),
		})
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.FirstName == "" || req.LastName == "" || req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "first_name, last_name and email are required",
		})
	}
	if len(req.Password) < 8 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "password must be at least 8 characters",
		})
	}
	if req.Role == "" {
		req.Role = models.AccountantRole
	}
	if !validRole(req.Role) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown role",
		})
	}

	if _, err := uc.UserRepo.GetUserByEmail(req.Email); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "User already exists",
			"error":   "A user with that email already exists.",
		})
	} else if err != gorm.ErrRecordNotFound {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to check existing users",
			"error":   err.Error(),
		})
	}

	hashed, err := repositories.HashPassword(req.Password)
	if err != nil {
		config.Logger.Error("Failed to hash password", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to create user",
			"error":   "Could not hash password.",
		})
	}

	createdBy := req.CreatedBy
	if createdBy == "" {
		createdBy = "system"
	}

	user := &models.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  hashed,
		Role:      req.Role,
		IsActive:  true,
		CreatedBy: createdBy,
	}

	created, err := uc.UserRepo.CreateUser(user)
	if err != nil {
		config.Logger.Error("Failed to create user", zap.String("email", req.Email), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to create user",
			"error":   err.Error(),
		})
	}

	diff, _ := json.Marshal(fiber.Map{"email": created.Email, "role": created.Role})
	if err := uc.AuditRepo.LogAudit(nil, &models.AuditLog{
		ActorEmail: createdBy,
		Action:     models.AuditActionCreate,
		TableName:  "users",
		RecordID:   created.ID.String(),
		Diff:       diff,
	}); err != nil {
		config.Logger.Warn("Failed to audit user creation", zap.Error(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created",
		"data":    created,
	})
}
