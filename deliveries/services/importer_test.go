package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"delivery-ledger-backend/db/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func standardMapping() ImportMapping {
	return ImportMapping{
		SheetName:      "Deliveries",
		HeaderRowIndex: 0,
		Columns: []ColumnMapping{
			{SourceColumn: "Date", Field: FieldDeliveryDate, ValueType: "date", Required: true},
			{SourceColumn: "Voucher", Field: FieldVoucherNumber, ValueType: "text"},
			{SourceColumn: "Volume", Field: FieldVolume, ValueType: "number"},
			{SourceColumn: "Unit Price", Field: FieldUnitPrice, ValueType: "number"},
			{SourceColumn: "Gross", Field: FieldGrossValue, ValueType: "number"},
			{SourceColumn: "Discount", Field: FieldDiscount, ValueType: "number"},
			{SourceColumn: "Net", Field: FieldNetValue, ValueType: "number"},
			{SourceColumn: "Supplier", Field: FieldSupplierName, ValueType: "text"},
		},
	}
}

func deliveriesWorkbook(t *testing.T, dataRows ...[]interface{}) []byte {
	t.Helper()
	rows := [][]interface{}{
		{"Date", "Voucher", "Volume", "Unit Price", "Gross", "Discount", "Net", "Supplier"},
	}
	rows = append(rows, dataRows...)
	return buildWorkbook(t, map[string][][]interface{}{"Deliveries": rows})
}

func newImportHarness() (*ImportService, *fakeDeliveryRepo, *fakeImportRepo, *fakeAuditRepo, *fakeProgress) {
	deliveryRepo := newFakeDeliveryRepo()
	importRepo := newFakeImportRepo()
	auditRepo := &fakeAuditRepo{}
	progress := &fakeProgress{}
	svc := NewImportService(deliveryRepo, importRepo, auditRepo, nil, progress, zap.NewNop())
	return svc, deliveryRepo, importRepo, auditRepo, progress
}

func TestProcessImport_ImportsValidRows(t *testing.T) {
	svc, deliveryRepo, importRepo, auditRepo, progress := newImportHarness()
	batchID := uuid.New()

	data := deliveriesWorkbook(t,
		[]interface{}{"2024-03-15", "PX-001", "12.5", "100.00", "", "0", "", "Alpha Materials"},
		[]interface{}{"16/03/2024", "PX-002", "3", "250.00", "", "50", "", "Beta Supply"},
	)

	result, err := svc.ProcessImport(context.Background(), data, standardMapping(), batchID, "user@site.test")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 0, result.Conflicts)
	assert.Equal(t, 0, result.Errors)

	require.Len(t, deliveryRepo.created, 2)
	first := deliveryRepo.created[0]
	assert.Equal(t, "PX-001", first.VoucherNumber)
	assert.Equal(t, "2024-03-15", first.DeliveryDate.Format("2006-01-02"))
	assert.Equal(t, 2, first.SourceRow)
	assert.Equal(t, "Deliveries", first.SourceSheet)
	assert.Equal(t, "user@site.test", first.CreatedBy)
	require.NotNil(t, first.SupplierID)

	// Derived fields: 12.5 × 100.00 = 1250.00 gross, minus 0 discount.
	require.NotNil(t, first.GrossValue)
	require.NotNil(t, first.NetValue)
	assert.Equal(t, "1250.00", first.GrossValue.StringFixed(2))
	assert.Equal(t, "1250.00", first.NetValue.StringFixed(2))

	second := deliveryRepo.created[1]
	require.NotNil(t, second.NetValue)
	assert.Equal(t, "700.00", second.NetValue.StringFixed(2))

	assert.Equal(t, models.ImportStatusCompleted, importRepo.statuses[batchID])
	require.NotNil(t, importRepo.finalized)
	assert.Equal(t, 2, importRepo.finalized.ImportedRows)

	// One import audit entry per accepted row.
	assert.Len(t, auditRepo.entries, 2)
	assert.Equal(t, models.AuditActionImport, auditRepo.entries[0].Action)

	// The terminal progress event carries the completed status.
	require.NotEmpty(t, progress.events)
	assert.Equal(t, string(models.ImportStatusCompleted), progress.events[len(progress.events)-1].status)
}

func TestProcessImport_SkipsBlankRows(t *testing.T) {
	svc, deliveryRepo, _, _, _ := newImportHarness()

	data := deliveriesWorkbook(t,
		[]interface{}{"2024-03-15", "PX-010", "1", "10", "", "0", "", "Alpha"},
		[]interface{}{"", "", "", "", "", "", "", ""},
		[]interface{}{"2024-03-16", "PX-011", "2", "10", "", "0", "", "Alpha"},
	)

	result, err := svc.ProcessImport(context.Background(), data, standardMapping(), uuid.New(), "user@site.test")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Imported)
	assert.Len(t, deliveryRepo.created, 2)
}

func TestProcessImport_MissingRequiredDate(t *testing.T) {
	svc, deliveryRepo, importRepo, _, _ := newImportHarness()

	data := deliveriesWorkbook(t,
		[]interface{}{"", "PX-020", "1", "10", "", "0", "", "Alpha"},
	)

	result, err := svc.ProcessImport(context.Background(), data, standardMapping(), uuid.New(), "user@site.test")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Conflicts)
	assert.Equal(t, 0, result.Imported)
	assert.Empty(t, deliveryRepo.created)

	require.Len(t, importRepo.conflicts, 1)
	conflict := importRepo.conflicts[0]
	assert.Equal(t, models.ConflictMissingRequired, conflict.Reason)
	assert.Equal(t, 2, conflict.RowIndex)
	assert.Contains(t, conflict.Detail, "Date")
}

func TestProcessImport_InvalidNumber(t *testing.T) {
	svc, _, importRepo, _, _ := newImportHarness()

	data := deliveriesWorkbook(t,
		[]interface{}{"2024-03-15", "PX-030", "lots", "10", "", "0", "", "Alpha"},
	)

	result, err := svc.ProcessImport(context.Background(), data, standardMapping(), uuid.New(), "user@site.test")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Conflicts)
	require.Len(t, importRepo.conflicts, 1)
	assert.Equal(t, models.ConflictInvalidData, importRepo.conflicts[0].Reason)
	assert.Contains(t, importRepo.conflicts[0].Detail, "lots")
}

func TestProcessImport_DuplicateVoucher(t *testing.T) {
	svc, deliveryRepo, importRepo, _, _ := newImportHarness()
	deliveryRepo.vouchers["PX-040"] = true

	data := deliveriesWorkbook(t,
		[]interface{}{"2024-03-15", "PX-040", "1", "10", "", "0", "", "Alpha"},
	)

	result, err := svc.ProcessImport(context.Background(), data, standardMapping(), uuid.New(), "user@site.test")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Conflicts)
	assert.Equal(t, 0, result.Imported)
	require.Len(t, importRepo.conflicts, 1)
	assert.Equal(t, models.ConflictDuplicateVoucher, importRepo.conflicts[0].Reason)
}

func TestProcessImport_DuplicateWithinSameBatch(t *testing.T) {
	svc, deliveryRepo, importRepo, _, _ := newImportHarness()

	data := deliveriesWorkbook(t,
		[]interface{}{"2024-03-15", "PX-050", "1", "10", "", "0", "", "Alpha"},
		[]interface{}{"2024-03-16", "PX-050", "2", "10", "", "0", "", "Alpha"},
	)

	result, err := svc.ProcessImport(context.Background(), data, standardMapping(), uuid.New(), "user@site.test")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Conflicts)
	assert.Len(t, deliveryRepo.created, 1)
	require.Len(t, importRepo.conflicts, 1)
	assert.Equal(t, models.ConflictDuplicateVoucher, importRepo.conflicts[0].Reason)
}

func TestProcessImport_VolumeMismatch(t *testing.T) {
	svc, _, importRepo, _, _ := newImportHarness()

	// Stated gross 999 disagrees with 10 × 50 = 500 by far more than a cent.
	data := deliveriesWorkbook(t,
		[]interface{}{"2024-03-15", "PX-060", "10", "50", "999", "0", "", "Alpha"},
	)

	result, err := svc.ProcessImport(context.Background(), data, standardMapping(), uuid.New(), "user@site.test")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Conflicts)
	require.Len(t, importRepo.conflicts, 1)
	assert.Equal(t, models.ConflictMismatchVolume, importRepo.conflicts[0].Reason)
}

func TestProcessImport_WithinToleranceAccepted(t *testing.T) {
	svc, deliveryRepo, _, _, _ := newImportHarness()

	// 3.333 × 2.22 = 7.399 ≈ 7.40; a stated 7.40 is within one cent.
	data := deliveriesWorkbook(t,
		[]interface{}{"2024-03-15", "PX-070", "3.333", "2.22", "7.40", "0", "", "Alpha"},
	)

	result, err := svc.ProcessImport(context.Background(), data, standardMapping(), uuid.New(), "user@site.test")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 0, result.Conflicts)
	require.Len(t, deliveryRepo.created, 1)
}

func TestProcessImport_FormulaError(t *testing.T) {
	svc, _, importRepo, _, _ := newImportHarness()

	// Stated net 400 disagrees with gross 500 − discount 50 = 450.
	data := deliveriesWorkbook(t,
		[]interface{}{"2024-03-15", "PX-080", "", "", "500", "50", "400", "Alpha"},
	)

	result, err := svc.ProcessImport(context.Background(), data, standardMapping(), uuid.New(), "user@site.test")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Conflicts)
	require.Len(t, importRepo.conflicts, 1)
	assert.Equal(t, models.ConflictFormulaError, importRepo.conflicts[0].Reason)
}

func TestProcessImport_AllConflictBatchStillCompletes(t *testing.T) {
	svc, _, importRepo, _, _ := newImportHarness()
	batchID := uuid.New()

	data := deliveriesWorkbook(t,
		[]interface{}{"", "PX-090", "1", "10", "", "0", "", "Alpha"},
		[]interface{}{"", "PX-091", "1", "10", "", "0", "", "Alpha"},
	)

	result, err := svc.ProcessImport(context.Background(), data, standardMapping(), batchID, "user@site.test")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Conflicts)
	assert.Equal(t, 0, result.Imported)
	// A batch full of conflicts is a completed batch, not a failed one.
	assert.Equal(t, models.ImportStatusCompleted, importRepo.statuses[batchID])
}

func TestProcessImport_UniqueViolationDowngradedToDuplicate(t *testing.T) {
	svc, deliveryRepo, importRepo, _, _ := newImportHarness()
	deliveryRepo.createErr = errors.New(`ERROR: duplicate key value violates unique constraint "idx_delivery_voucher" (SQLSTATE 23505)`)

	data := deliveriesWorkbook(t,
		[]interface{}{"2024-03-15", "PX-100", "1", "10", "", "0", "", "Alpha"},
	)

	result, err := svc.ProcessImport(context.Background(), data, standardMapping(), uuid.New(), "user@site.test")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Conflicts)
	// A race caught by the unique index is a data conflict, not an error.
	assert.Equal(t, 0, result.Errors)
	require.Len(t, importRepo.conflicts, 1)
	assert.Equal(t, models.ConflictDuplicateVoucher, importRepo.conflicts[0].Reason)
}

func TestProcessImport_UnexpectedPersistErrorCountsAsError(t *testing.T) {
	svc, deliveryRepo, importRepo, _, _ := newImportHarness()
	deliveryRepo.createErr = errors.New("connection reset by peer")

	data := deliveriesWorkbook(t,
		[]interface{}{"2024-03-15", "PX-110", "1", "10", "", "0", "", "Alpha"},
	)

	result, err := svc.ProcessImport(context.Background(), data, standardMapping(), uuid.New(), "user@site.test")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Conflicts)
	assert.Equal(t, 1, result.Errors)
	require.Len(t, importRepo.conflicts, 1)
	assert.Equal(t, models.ConflictInvalidData, importRepo.conflicts[0].Reason)
}

func TestProcessImport_ConflictedRowsStillReportProgress(t *testing.T) {
	svc, _, _, _, progress := newImportHarness()

	// Every row is missing the required date, so none is imported, yet the
	// interval progress event must still fire.
	var rows [][]interface{}
	for i := 0; i < progressInterval; i++ {
		rows = append(rows, []interface{}{"", fmt.Sprintf("PX-%03d", i), "1", "10", "", "0", "", "Alpha"})
	}
	data := deliveriesWorkbook(t, rows...)

	result, err := svc.ProcessImport(context.Background(), data, standardMapping(), uuid.New(), "user@site.test")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
	assert.Equal(t, progressInterval, result.Conflicts)

	require.Len(t, progress.events, 2)
	assert.Equal(t, string(models.ImportStatusProcessing), progress.events[0].status)
	assert.Equal(t, progressInterval, progress.events[0].processed)
	assert.Equal(t, string(models.ImportStatusCompleted), progress.events[1].status)
}

func TestProcessImport_CorruptWorkbookFailsBatch(t *testing.T) {
	svc, _, importRepo, _, _ := newImportHarness()
	batchID := uuid.New()

	_, err := svc.ProcessImport(context.Background(), []byte("garbage"), standardMapping(), batchID, "user@site.test")
	require.Error(t, err)
	assert.Equal(t, models.ImportStatusFailed, importRepo.statuses[batchID])
	assert.NotEmpty(t, importRepo.failedMsg)
}

func TestProcessImport_CancelledContext(t *testing.T) {
	svc, _, importRepo, _, _ := newImportHarness()
	batchID := uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	data := deliveriesWorkbook(t,
		[]interface{}{"2024-03-15", "PX-120", "1", "10", "", "0", "", "Alpha"},
	)

	_, err := svc.ProcessImport(ctx, data, standardMapping(), batchID, "user@site.test")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, models.ImportStatusFailed, importRepo.statuses[batchID])
}

func TestProcessImport_ConflictKeepsRawRowSnapshot(t *testing.T) {
	svc, _, importRepo, _, _ := newImportHarness()

	data := deliveriesWorkbook(t,
		[]interface{}{"", "PX-130", "1", "10", "", "0", "", "Alpha"},
	)

	_, err := svc.ProcessImport(context.Background(), data, standardMapping(), uuid.New(), "user@site.test")
	require.NoError(t, err)

	require.Len(t, importRepo.conflicts, 1)
	raw := string(importRepo.conflicts[0].RowData)
	assert.Contains(t, raw, "PX-130")
	assert.Contains(t, raw, "Alpha")
}
