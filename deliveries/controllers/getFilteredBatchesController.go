package controllers

import (
	"delivery-ledger-backend/config"
	"delivery-ledger-backend/utils/pagination"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (dc *DeliveryController) GetFilteredBatchesController(c *fiber.Ctx) error {
	params := pagination.ParsePaginationParams(c)
	if err := pagination.ValidatePaginationParams(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	offset := (params.Page - 1) * params.PageSize

	filters := make(map[string]string)
	for _, key := range []string{"status", "created_by", "start_date", "end_date"} {
		if value := cleanQueryParam(params.Filters[key]); value != "" {
			filters[key] = value
		}
	}

	batches, total, err := dc.ImportRepo.GetFilteredBatches(params.PageSize, offset, filters)
	if err != nil {
		config.Logger.Error("Failed to fetch import batches", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch import batches"})
	}

	return c.Status(fiber.StatusOK).JSON(pagination.NewPaginatedResponse(c, batches, total, params))
}

// GetBatchController returns one batch together with its conflicts so the
// review screen loads in a single request.
func (dc *DeliveryController) GetBatchController(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid batch id"})
	}

	batch, err := dc.ImportRepo.GetBatchByID(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Import batch not found",
			"error":   err.Error(),
		})
	}

	conflicts, err := dc.ImportRepo.GetConflictsForBatch(id)
	if err != nil {
		config.Logger.Error("Failed to fetch batch conflicts",
			zap.String("batch_id", id.String()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch batch conflicts"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Import batch retrieved successfully",
		"data": fiber.Map{
			"batch":     batch,
			"conflicts": conflicts,
		},
	})
}
