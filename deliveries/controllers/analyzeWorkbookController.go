package controllers

import (
	"io"

	"delivery-ledger-backend/config"
	"delivery-ledger-backend/deliveries/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AnalyzeWorkbookController inspects an uploaded workbook and returns, per
// sheet, the detected header row, a data preview and a suggested column
// mapping for the accountant to confirm before importing.
func (dc *DeliveryController) AnalyzeWorkbookController(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Missing workbook file",
			"error":   err.Error(),
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Failed to open uploaded file",
			"error":   err.Error(),
		})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to read uploaded file",
			"error":   err.Error(),
		})
	}

	analyses, err := services.AnalyzeWorkbook(data)
	if err != nil {
		config.Logger.Error("Workbook analysis failed",
			zap.String("file_name", fileHeader.Filename),
			zap.Error(err),
		)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "Could not read workbook",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Workbook analyzed successfully",
		"data": fiber.Map{
			"file_name": fileHeader.Filename,
			"sheets":    analyses,
		},
	})
}
