package controllers

import (
	"errors"

	"delivery-ledger-backend/config"
	"delivery-ledger-backend/deliveries/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResolveConflictController applies a reviewer's decision to one pending
// conflict. Resolution is single-shot: a second attempt on the same conflict
// returns 409.
func (dc *DeliveryController) ResolveConflictController(c *fiber.Ctx) error {
	actor := actorEmail(c)
	if actor == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing user_email parameter",
		})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conflict id"})
	}

	var req services.ResolutionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request",
			"error":   err.Error(),
		})
	}

	conflict, err := dc.Resolver.ResolveConflict(c.Context(), id, req, actor)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrConflictAlreadyResolved):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Conflict already resolved",
				"error":   err.Error(),
			})
		case errors.Is(err, services.ErrUnknownResolutionAction):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Unknown resolution action",
				"error":   err.Error(),
			})
		default:
			config.Logger.Error("Conflict resolution failed",
				zap.String("conflict_id", id.String()),
				zap.Error(err),
			)
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"message": "Failed to resolve conflict",
				"error":   err.Error(),
			})
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Conflict resolved successfully",
		"data":    conflict,
	})
}
