package controllers

import (
	"delivery-ledger-backend/config"
	"delivery-ledger-backend/db/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DeleteDeliveryController soft-deletes a record. The voucher number becomes
// reusable because the unique index only covers live rows.
func (dc *DeliveryController) DeleteDeliveryController(c *fiber.Ctx) error {
	actor := actorEmail(c)
	if actor == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing user_email parameter",
		})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid delivery id"})
	}

	if err := dc.DeliveryRepo.SoftDeleteDelivery(id, actor); err != nil {
		config.Logger.Error("Failed to delete delivery",
			zap.String("delivery_id", id.String()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Failed to delete delivery",
			"error":   err.Error(),
		})
	}

	if err := dc.AuditRepo.LogAudit(nil, &models.AuditLog{
		ActorEmail: actor,
		Action:     models.AuditActionDelete,
		TableName:  "delivery_records",
		RecordID:   id.String(),
	}); err != nil {
		config.Logger.Warn("Failed to audit delivery deletion",
			zap.String("delivery_id", id.String()),
			zap.Error(err),
		)
	}

	if dc.BleveRepo != nil {
		if err := dc.BleveRepo.DeleteDelivery(id.String()); err != nil {
			config.Logger.Error("Error removing delivery from index",
				zap.Error(err),
				zap.String("deliveryID", id.String()),
			)
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Delivery deleted successfully",
	})
}
