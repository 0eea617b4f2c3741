package controllers

import (
	"delivery-ledger-backend/config"
	"delivery-ledger-backend/jobs"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RecomputeController re-runs the derivation rules. A single record is
// recomputed inline; supplier, date-range and id-list scopes are handed to
// the background workers because they can touch thousands of records.
func (dc *DeliveryController) RecomputeController(c *fiber.Ctx) error {
	actor := actorEmail(c)
	if actor == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing user_email parameter",
		})
	}

	var payload jobs.RecomputePayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request",
			"error":   err.Error(),
		})
	}
	payload.ActorEmail = actor

	switch payload.Scope {
	case jobs.ScopeRecord:
		if payload.RecordID == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "record_id is required for record scope"})
		}
		changed, err := dc.Recompute.RecomputeOne(c.Context(), *payload.RecordID, actor)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"message": "Recompute failed",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Record recomputed",
			"data":    fiber.Map{"changed": changed},
		})

	case jobs.ScopeSupplier:
		if payload.SupplierID == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "supplier_id is required for supplier scope"})
		}
	case jobs.ScopeDateRange:
		if payload.From == "" || payload.To == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "from and to are required for date_range scope"})
		}
	case jobs.ScopeIDs:
		if len(payload.IDs) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ids is required for ids scope"})
		}
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown recompute scope"})
	}

	task, err := jobs.NewRecomputeTask(payload)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to build recompute task",
			"error":   err.Error(),
		})
	}
	info, err := dc.AsynqClient.Enqueue(task)
	if err != nil {
		config.Logger.Error("Failed to enqueue recompute task", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to enqueue recompute",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Recompute queued",
		"data":    fiber.Map{"task_id": info.ID},
	})
}
