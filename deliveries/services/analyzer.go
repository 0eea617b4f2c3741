package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const previewRowLimit = 10

// PreviewRow is one normalized data row of the analysis preview, keyed by
// header label and tagged with its 1-based spreadsheet row number so a human
// can trace it back to conflicts later.
type PreviewRow struct {
	RowNumber int                    `json:"row_number"`
	Cells     map[string]interface{} `json:"cells"`
}

// SheetAnalysis is the analyzer's verdict on one sheet of the workbook.
type SheetAnalysis struct {
	SheetName      string          `json:"sheet_name"`
	HeaderRowIndex int             `json:"header_row_index"` // 0-based, as the processor consumes it
	RowCount       int             `json:"rows"`             // data rows after the header
	HasData        bool            `json:"has_data"`
	Columns        []ColumnMapping `json:"columns"`
	PreviewRows    []PreviewRow    `json:"preview_rows"`
}

// AnalyzeWorkbook reads workbook bytes and produces a per-sheet preview used
// by the caller to let a human confirm or edit the column mapping before
// committing an import. Corrupt workbook bytes surface as a single error
// with no partial analysis.
func AnalyzeWorkbook(data []byte) ([]SheetAnalysis, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var analyses []SheetAnalysis
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
		}
		analyses = append(analyses, analyzeSheet(sheetName, rows))
	}

	return analyses, nil
}

func analyzeSheet(sheetName string, rows [][]string) SheetAnalysis {
	headerIdx := findHeaderRow(rows)
	if headerIdx < 0 {
		// Sheet with no non-empty row: zero rows, no columns, no preview.
		return SheetAnalysis{SheetName: sheetName, HeaderRowIndex: -1}
	}

	header := rows[headerIdx]
	columns := make([]ColumnMapping, len(header))
	for i, label := range header {
		col := SuggestColumn(label)
		if strings.TrimSpace(label) == "" {
			// Unlabeled columns get a positional placeholder name.
			col.SourceColumn = fmt.Sprintf("column_%d", i+1)
		}
		columns[i] = col
	}

	dataRows := rows[headerIdx+1:]
	preview := make([]PreviewRow, 0, previewRowLimit)
	for i, row := range dataRows {
		if i >= previewRowLimit {
			break
		}
		cells := make(map[string]interface{}, len(columns))
		for c, col := range columns {
			raw := ""
			if c < len(row) {
				raw = row[c]
			}
			cells[col.SourceColumn] = Normalize(raw).Value()
		}
		preview = append(preview, PreviewRow{
			RowNumber: headerIdx + i + 2, // 1-based spreadsheet numbering
			Cells:     cells,
		})
	}

	return SheetAnalysis{
		SheetName:      sheetName,
		HeaderRowIndex: headerIdx,
		RowCount:       len(dataRows),
		HasData:        len(dataRows) > 0,
		Columns:        columns,
		PreviewRows:    preview,
	}
}

// findHeaderRow returns the index of the first row containing any non-empty
// cell, or -1 when the sheet is empty.
func findHeaderRow(rows [][]string) int {
	for i, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				return i
			}
		}
	}
	return -1
}
