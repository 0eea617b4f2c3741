package controllers

import (
	"delivery-ledger-backend/config"
	"delivery-ledger-backend/jobs"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RunReportController queues a report for background rendering. Reports can
// take minutes (the statement renders through headless Chrome), so nothing is
// generated inline.
func (dc *DeliveryController) RunReportController(c *fiber.Ctx) error {
	actor := actorEmail(c)
	if actor == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing user_email parameter",
		})
	}

	var payload jobs.ReportPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request",
			"error":   err.Error(),
		})
	}
	payload.ActorEmail = actor

	switch payload.Kind {
	case jobs.ReportDeliveryRegister:
	case jobs.ReportConflictSummary:
	case jobs.ReportDeliveryStatement:
		if payload.SupplierID == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "supplier_id is required for delivery_statement"})
		}
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown report kind"})
	}

	task, err := jobs.NewReportTask(payload)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to build report task",
			"error":   err.Error(),
		})
	}
	info, err := dc.AsynqClient.Enqueue(task)
	if err != nil {
		config.Logger.Error("Failed to enqueue report task", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to enqueue report",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Report queued",
		"data":    fiber.Map{"task_id": info.ID},
	})
}
