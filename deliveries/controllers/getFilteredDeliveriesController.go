package controllers

import (
	"delivery-ledger-backend/config"
	"delivery-ledger-backend/utils/pagination"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (dc *DeliveryController) GetFilteredDeliveriesController(c *fiber.Ctx) error {
	params := pagination.ParsePaginationParams(c)
	if err := pagination.ValidatePaginationParams(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	offset := (params.Page - 1) * params.PageSize

	filters := make(map[string]string)
	for _, key := range []string{
		"contractor_id", "supplier_id", "vehicle_number", "voucher_number",
		"start_date", "end_date", "description",
	} {
		if value := cleanQueryParam(params.Filters[key]); value != "" {
			filters[key] = value
		}
	}

	deliveries, total, err := dc.DeliveryRepo.GetFilteredDeliveries(params.PageSize, offset, filters)
	if err != nil {
		config.Logger.Error("Failed to fetch filtered deliveries", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch filtered deliveries"})
	}

	return c.Status(fiber.StatusOK).JSON(pagination.NewPaginatedResponse(c, deliveries, total, params))
}

func (dc *DeliveryController) GetDeliveryController(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid delivery id"})
	}

	record, err := dc.DeliveryRepo.GetDeliveryByID(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Delivery not found",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Delivery retrieved successfully",
		"data":    record,
	})
}
