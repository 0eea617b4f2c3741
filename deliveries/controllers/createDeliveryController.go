package controllers

import (
	"time"

	"delivery-ledger-backend/config"
	"delivery-ledger-backend/db/models"
	"delivery-ledger-backend/deliveries/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type createDeliveryRequest struct {
	DeliveryDate   string           `json:"delivery_date"`
	ContractorID   *uuid.UUID       `json:"contractor_id"`
	SupplierID     *uuid.UUID       `json:"supplier_id"`
	ContractorName string           `json:"contractor_name"`
	SupplierName   string           `json:"supplier_name"`
	VehicleNumber  string           `json:"vehicle_number"`
	VoucherNumber  string           `json:"voucher_number"`
	Volume         *decimal.Decimal `json:"volume"`
	UnitLabel      string           `json:"unit_label"`
	UnitPrice      *decimal.Decimal `json:"unit_price"`
	GrossValue     *decimal.Decimal `json:"gross_value"`
	Discount       *decimal.Decimal `json:"discount"`
	NetValue       *decimal.Decimal `json:"net_value"`
	Description    string           `json:"description"`
}

// CreateDeliveryController is the direct write path. It runs the same
// persistence pipeline as an import row, so derived fields and the audit
// trail behave identically however a record enters the ledger.
func (dc *DeliveryController) CreateDeliveryController(c *fiber.Ctx) error {
	actor := actorEmail(c)
	if actor == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing user_email parameter",
		})
	}

	var req createDeliveryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request",
			"error":   err.Error(),
		})
	}

	normalized := services.NormalizeAs(req.DeliveryDate, "date")
	if normalized.Kind != services.ValueDate {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   "delivery_date is required and must be a recognized date",
		})
	}
	deliveryDate, err := time.Parse("2006-01-02", normalized.Date)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	if req.VoucherNumber != "" {
		exists, err := dc.DeliveryRepo.VoucherExists(req.VoucherNumber)
		if err != nil {
			config.Logger.Error("Voucher lookup failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Failed to check voucher number",
				"error":   err.Error(),
			})
		}
		if exists {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message":        "Duplicate voucher number",
				"error":          "A delivery with this voucher number already exists.",
				"voucher_number": req.VoucherNumber,
			})
		}
	}

	record := &models.DeliveryRecord{
		DeliveryDate:  deliveryDate,
		ContractorID:  req.ContractorID,
		SupplierID:    req.SupplierID,
		VehicleNumber: req.VehicleNumber,
		VoucherNumber: req.VoucherNumber,
		Volume:        req.Volume,
		UnitLabel:     req.UnitLabel,
		UnitPrice:     req.UnitPrice,
		GrossValue:    req.GrossValue,
		NetValue:      req.NetValue,
		Description:   req.Description,
	}
	if req.Discount != nil {
		record.Discount = *req.Discount
	}

	err = dc.DeliveryRepo.RunInTransaction(c.Context(), func(tx *gorm.DB) error {
		if record.ContractorID == nil && req.ContractorName != "" {
			contractor, err := dc.DeliveryRepo.FindOrCreateContractor(tx, req.ContractorName, actor)
			if err != nil {
				return err
			}
			record.ContractorID = &contractor.ID
		}
		if record.SupplierID == nil && req.SupplierName != "" {
			supplier, err := dc.DeliveryRepo.FindOrCreateSupplier(tx, req.SupplierName, actor)
			if err != nil {
				return err
			}
			record.SupplierID = &supplier.ID
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to resolve contractor or supplier",
			"error":   err.Error(),
		})
	}

	if err := dc.Importer.PersistDelivery(c.Context(), record, actor, models.AuditActionCreate); err != nil {
		config.Logger.Error("Failed to create delivery", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to create delivery",
			"error":   err.Error(),
		})
	}

	if dc.BleveRepo != nil {
		if err := dc.BleveRepo.IndexSingleDelivery(*record); err != nil {
			config.Logger.Error("Error indexing delivery",
				zap.Error(err),
				zap.String("deliveryID", record.ID.String()),
			)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Delivery created successfully",
		"data":    record,
	})
}
