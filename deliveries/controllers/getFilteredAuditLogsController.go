package controllers

import (
	"delivery-ledger-backend/config"
	"delivery-ledger-backend/utils/pagination"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func (dc *DeliveryController) GetFilteredAuditLogsController(c *fiber.Ctx) error {
	params := pagination.ParsePaginationParams(c)
	if err := pagination.ValidatePaginationParams(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	offset := (params.Page - 1) * params.PageSize

	filters := make(map[string]string)
	for _, key := range []string{"actor_email", "action", "table_name", "record_id", "start_date", "end_date"} {
		if value := cleanQueryParam(params.Filters[key]); value != "" {
			filters[key] = value
		}
	}

	logs, total, err := dc.AuditRepo.GetFilteredAuditLogs(params.PageSize, offset, filters)
	if err != nil {
		config.Logger.Error("Failed to fetch audit logs", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch audit logs"})
	}

	return c.Status(fiber.StatusOK).JSON(pagination.NewPaginatedResponse(c, logs, total, params))
}
