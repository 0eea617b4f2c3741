package services

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, sheets map[string][][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestAnalyzeWorkbook_SuggestsMappingAndPreview(t *testing.T) {
	data := buildWorkbook(t, map[string][][]interface{}{
		"Deliveries": {
			{"Delivery Date", "Voucher No", "Volume", "Unit Price", "Supplier"},
			{"2024-03-15", "PX-001", "12.5", "100.00", "Alpha Materials"},
			{"2024-03-16", "PX-002", "3", "250.00", "Beta Supply"},
		},
	})

	analyses, err := AnalyzeWorkbook(data)
	require.NoError(t, err)
	require.Len(t, analyses, 1)

	sheet := analyses[0]
	assert.Equal(t, "Deliveries", sheet.SheetName)
	assert.Equal(t, 0, sheet.HeaderRowIndex)
	assert.Equal(t, 2, sheet.RowCount)
	assert.True(t, sheet.HasData)

	require.Len(t, sheet.Columns, 5)
	assert.Equal(t, FieldDeliveryDate, sheet.Columns[0].Field)
	assert.Equal(t, FieldVoucherNumber, sheet.Columns[1].Field)
	assert.Equal(t, FieldVolume, sheet.Columns[2].Field)
	assert.Equal(t, FieldUnitPrice, sheet.Columns[3].Field)
	assert.Equal(t, FieldSupplierName, sheet.Columns[4].Field)

	require.Len(t, sheet.PreviewRows, 2)
	assert.Equal(t, 2, sheet.PreviewRows[0].RowNumber)
	assert.Equal(t, "2024-03-15", sheet.PreviewRows[0].Cells["Delivery Date"])
}

func TestAnalyzeWorkbook_SkipsLeadingBlankRows(t *testing.T) {
	data := buildWorkbook(t, map[string][][]interface{}{
		"Data": {
			{"", "", ""},
			{"", "", ""},
			{"Date", "Voucher", "Amount"},
			{"2024-01-10", "A-1", "500"},
		},
	})

	analyses, err := AnalyzeWorkbook(data)
	require.NoError(t, err)
	require.Len(t, analyses, 1)

	sheet := analyses[0]
	assert.Equal(t, 2, sheet.HeaderRowIndex)
	assert.Equal(t, 1, sheet.RowCount)
	require.Len(t, sheet.PreviewRows, 1)
	assert.Equal(t, 4, sheet.PreviewRows[0].RowNumber)
}

func TestAnalyzeWorkbook_HeaderOnlySheet(t *testing.T) {
	data := buildWorkbook(t, map[string][][]interface{}{
		"Empty": {
			{"Date", "Voucher"},
		},
	})

	analyses, err := AnalyzeWorkbook(data)
	require.NoError(t, err)
	require.Len(t, analyses, 1)

	sheet := analyses[0]
	assert.Equal(t, 0, sheet.HeaderRowIndex)
	assert.Equal(t, 0, sheet.RowCount)
	assert.False(t, sheet.HasData)
	assert.Len(t, sheet.Columns, 2)
	assert.Empty(t, sheet.PreviewRows)
}

func TestAnalyzeWorkbook_PreviewCappedAtTen(t *testing.T) {
	rows := [][]interface{}{{"Date", "Amount"}}
	for i := 0; i < 25; i++ {
		rows = append(rows, []interface{}{"2024-01-01", "10"})
	}
	data := buildWorkbook(t, map[string][][]interface{}{"Big": rows})

	analyses, err := AnalyzeWorkbook(data)
	require.NoError(t, err)
	require.Len(t, analyses, 1)

	assert.Equal(t, 25, analyses[0].RowCount)
	assert.Len(t, analyses[0].PreviewRows, 10)
}

func TestAnalyzeWorkbook_CorruptBytes(t *testing.T) {
	_, err := AnalyzeWorkbook([]byte("this is not a workbook"))
	assert.Error(t, err)
}
