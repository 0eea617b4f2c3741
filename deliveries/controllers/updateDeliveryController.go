package controllers

import (
	"encoding/json"
	"time"

	"delivery-ledger-backend/config"
	"delivery-ledger-backend/db/models"
	"delivery-ledger-backend/deliveries/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type updateDeliveryRequest struct {
	DeliveryDate  *string          `json:"delivery_date"`
	ContractorID  *uuid.UUID       `json:"contractor_id"`
	SupplierID    *uuid.UUID       `json:"supplier_id"`
	VehicleNumber *string          `json:"vehicle_number"`
	VoucherNumber *string          `json:"voucher_number"`
	Volume        *decimal.Decimal `json:"volume"`
	UnitLabel     *string          `json:"unit_label"`
	UnitPrice     *decimal.Decimal `json:"unit_price"`
	GrossValue    *decimal.Decimal `json:"gross_value"`
	Discount      *decimal.Decimal `json:"discount"`
	NetValue      *decimal.Decimal `json:"net_value"`
	Description   *string          `json:"description"`
}

// UpdateDeliveryController applies a partial update and then re-runs the
// derivation rules so the financial invariant holds after any edit.
func (dc *DeliveryController) UpdateDeliveryController(c *fiber.Ctx) error {
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

	existing, err := dc.DeliveryRepo.GetDeliveryByID(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Delivery not found",
			"error":   err.Error(),
		})
	}

	var req updateDeliveryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request",
			"error":   err.Error(),
		})
	}

	fields := map[string]interface{}{}

	if req.DeliveryDate != nil {
		normalized := services.NormalizeAs(*req.DeliveryDate, "date")
		if normalized.Kind != services.ValueDate {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Validation failed",
				"error":   "delivery_date must be a recognized date",
			})
		}
		parsed, err := time.Parse("2006-01-02", normalized.Date)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Validation failed",
				"error":   err.Error(),
			})
		}
		fields["delivery_date"] = parsed
	}
	if req.VoucherNumber != nil && *req.VoucherNumber != existing.VoucherNumber {
		if *req.VoucherNumber != "" {
			exists, err := dc.DeliveryRepo.VoucherExists(*req.VoucherNumber)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"message": "Failed to check voucher number",
					"error":   err.Error(),
				})
			}
			if exists {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"message":        "Duplicate voucher number",
					"error":          "A delivery with this voucher number already exists.",
					"voucher_number": *req.VoucherNumber,
				})
			}
		}
		fields["voucher_number"] = *req.VoucherNumber
	}
	if req.ContractorID != nil {
		fields["contractor_id"] = *req.ContractorID
	}
	if req.SupplierID != nil {
		fields["supplier_id"] = *req.SupplierID
	}
	if req.VehicleNumber != nil {
		fields["vehicle_number"] = *req.VehicleNumber
	}
	if req.Volume != nil {
		fields["volume"] = *req.Volume
	}
	if req.UnitLabel != nil {
		fields["unit_label"] = *req.UnitLabel
	}
	if req.UnitPrice != nil {
		fields["unit_price"] = *req.UnitPrice
	}
	if req.GrossValue != nil {
		fields["gross_value"] = *req.GrossValue
	}
	if req.Discount != nil {
		fields["discount"] = *req.Discount
	}
	if req.NetValue != nil {
		fields["net_value"] = *req.NetValue
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}

	if len(fields) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No fields to update"})
	}
	fields["updated_by"] = actor

	err = dc.DeliveryRepo.RunInTransaction(c.Context(), func(tx *gorm.DB) error {
		if err := dc.DeliveryRepo.UpdateDeliveryFields(tx, id, fields); err != nil {
			return err
		}
		diff, _ := json.Marshal(map[string]interface{}{
			"before": existing,
			"after":  fields,
		})
		return dc.AuditRepo.LogAudit(tx, &models.AuditLog{
			ActorEmail: actor,
			Action:     models.AuditActionUpdate,
			TableName:  "delivery_records",
			RecordID:   id.String(),
			Diff:       datatypes.JSON(diff),
		})
	})
	if err != nil {
		config.Logger.Error("Failed to update delivery",
			zap.String("delivery_id", id.String()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to update delivery",
			"error":   err.Error(),
		})
	}

	// Financial edits ripple into the derived fields.
	if req.Volume != nil || req.UnitPrice != nil || req.GrossValue != nil ||
		req.Discount != nil || req.NetValue != nil {
		if _, err := dc.Recompute.RecomputeOne(c.Context(), id, actor); err != nil {
			config.Logger.Error("Post-update recompute failed",
				zap.String("delivery_id", id.String()),
				zap.Error(err),
			)
		}
	}

	updated, err := dc.DeliveryRepo.GetDeliveryByID(id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Delivery updated but could not be reloaded",
			"error":   err.Error(),
		})
	}

	if dc.BleveRepo != nil {
		if err := dc.BleveRepo.UpdateDelivery(*updated); err != nil {
			config.Logger.Error("Error re-indexing delivery",
				zap.Error(err),
				zap.String("deliveryID", id.String()),
			)
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Delivery updated successfully",
		"data":    updated,
	})
}
