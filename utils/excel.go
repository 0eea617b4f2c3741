package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"delivery-ledger-backend/config"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// EnsureDirectoryExists ensures the specified directory exists before file saving
func EnsureDirectoryExists(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating directory: %v", err)
		}
	}
	return nil
}

// GenerateExcel writes headers plus prebuilt rows into a dated workbook under
// ./public/files and returns the public path and the on-disk path.
func GenerateExcel(taskName string, headers []string, rows [][]interface{}) (string, string, error) {
	dirPath := "./public/files"
	if err := EnsureDirectoryExists(dirPath); err != nil {
		return "", "", err
	}

	f := excelize.NewFile()
	sheetName := "Sheet1"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", "", fmt.Errorf("error creating sheet: %v", err)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return "", "", err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return "", "", fmt.Errorf("error setting header %s: %v", header, err)
		}
	}

	for rowIdx, row := range rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return "", "", err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return "", "", fmt.Errorf("error setting cell %s: %v", cell, err)
			}
		}
	}

	f.SetActiveSheet(index)

	fileName := fmt.Sprintf("%s_%s.xlsx", taskName, time.Now().Format("2006-01-02_15-04-05"))
	relativeFilePath := filepath.Join(dirPath, fileName)
	publicPath := fmt.Sprintf("/public/files/%s", fileName)

	if err := f.SaveAs(relativeFilePath); err != nil {
		config.Logger.Error("Failed to save generated workbook",
			zap.String("path", relativeFilePath),
			zap.Error(err),
		)
		return "", "", err
	}

	config.Logger.Info("Workbook generated",
		zap.String("path", relativeFilePath),
		zap.Int("rows", len(rows)),
	)
	return publicPath, relativeFilePath, nil
}
