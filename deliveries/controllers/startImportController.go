package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"delivery-ledger-backend/config"
	"delivery-ledger-backend/db/models"
	"delivery-ledger-backend/deliveries/services"
	"delivery-ledger-backend/jobs"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// StartImportController accepts a workbook plus a confirmed column mapping
// and either processes it inline (mode=sync, small files) or stores the file
// and hands it to the background workers (default). Either way the caller
// gets the batch back for progress tracking.
func (dc *DeliveryController) StartImportController(c *fiber.Ctx) error {
	actor := actorEmail(c)
	if actor == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing user_email parameter",
		})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Missing workbook file",
			"error":   err.Error(),
		})
	}

	mappingJSON := c.FormValue("mapping")
	if mappingJSON == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Missing mapping form field",
			"error":   "a confirmed column mapping is required",
		})
	}

	var mapping services.ImportMapping
	if err := json.Unmarshal([]byte(mappingJSON), &mapping); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid mapping",
			"error":   err.Error(),
		})
	}
	if mapping.SheetName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid mapping",
			"error":   "sheet_name is required",
		})
	}
	if !hasRequiredDateColumn(mapping) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid mapping",
			"error":   "mapping must include a delivery_date column",
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

	batch := &models.ImportBatch{
		SourceFilename: fileHeader.Filename,
		Status:         models.ImportStatusPending,
		MappingConfig:  datatypes.JSON(mappingJSON),
		CreatedBy:      actor,
	}
	if err := dc.ImportRepo.CreateBatch(batch); err != nil {
		config.Logger.Error("Failed to create import batch", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to create import batch",
			"error":   err.Error(),
		})
	}

	if c.Query("mode") == "sync" {
		result, err := dc.Importer.ProcessImport(c.Context(), data, mapping, batch.ID, actor)
		if err != nil {
			config.Logger.Error("Synchronous import failed",
				zap.String("batch_id", batch.ID.String()),
				zap.Error(err),
			)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message":  "Import failed",
				"error":    err.Error(),
				"batch_id": batch.ID,
			})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Import completed",
			"data": fiber.Map{
				"batch_id": batch.ID,
				"result":   result,
			},
		})
	}

	// Background path: persist the workbook so a worker on another process
	// can read it, then enqueue.
	storedPath := filepath.Join(dc.UploadDir, fmt.Sprintf("%s.xlsx", batch.ID))
	if err := os.MkdirAll(dc.UploadDir, 0o755); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to prepare upload storage",
			"error":   err.Error(),
		})
	}
	if err := os.WriteFile(storedPath, data, 0o644); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to store workbook",
			"error":   err.Error(),
		})
	}

	task, err := jobs.NewImportBatchTask(jobs.ImportBatchPayload{
		BatchID:    batch.ID,
		FilePath:   storedPath,
		Mapping:    mapping,
		ActorEmail: actor,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to build import task",
			"error":   err.Error(),
		})
	}
	info, err := dc.AsynqClient.Enqueue(task)
	if err != nil {
		config.Logger.Error("Failed to enqueue import task",
			zap.String("batch_id", batch.ID.String()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to enqueue import",
			"error":   err.Error(),
		})
	}

	config.Logger.Info("Import batch enqueued",
		zap.String("batch_id", batch.ID.String()),
		zap.String("task_id", info.ID),
		zap.String("queue", info.Queue),
	)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Import queued",
		"data": fiber.Map{
			"batch_id": batch.ID,
			"task_id":  info.ID,
		},
	})
}

func hasRequiredDateColumn(mapping services.ImportMapping) bool {
	for _, col := range mapping.Columns {
		if col.Field == services.FieldDeliveryDate {
			return true
		}
	}
	return false
}
