package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"delivery-ledger-backend/db/models"
	"delivery-ledger-backend/deliveries/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const progressInterval = 25

// reconciliationTolerance is the largest gap (one cent) allowed between a
// value stated in the spreadsheet and the value the formulas derive before
// the row is flagged instead of imported.
var reconciliationTolerance = decimal.NewFromFloat(0.01)

// ImportMapping is the confirmed column mapping the processor runs with.
type ImportMapping struct {
	SheetName      string          `json:"sheet_name"`
	HeaderRowIndex int             `json:"header_row_index"`
	Columns        []ColumnMapping `json:"columns"`
}

// ImportResult carries the aggregate counters of one processed batch.
// Conflicts are rejected rows with a recorded reason; Errors counts the
// subset caused by unexpected failures rather than data problems.
type ImportResult struct {
	Total     int `json:"total"`
	Imported  int `json:"imported"`
	Conflicts int `json:"conflicts"`
	Errors    int `json:"errors"`
}

// ProgressPublisher receives periodic row-progress updates; the websocket hub
// implements it. A nil publisher disables progress events.
type ProgressPublisher interface {
	PublishImportProgress(batchID uuid.UUID, processed, total int, status string)
}

// FixSuggester drafts a human-readable suggested fix for a conflict. Optional;
// a failure never blocks conflict recording.
type FixSuggester interface {
	SuggestFix(ctx context.Context, reason models.ConflictReason, detail string, rowData map[string]string) (string, error)
}

type ImportService struct {
	deliveryRepo repositories.DeliveryRepository
	importRepo   repositories.ImportRepository
	auditRepo    repositories.AuditRepository
	suggester    FixSuggester
	progress     ProgressPublisher
	logger       *zap.Logger
}

func NewImportService(
	deliveryRepo repositories.DeliveryRepository,
	importRepo repositories.ImportRepository,
	auditRepo repositories.AuditRepository,
	suggester FixSuggester,
	progress ProgressPublisher,
	logger *zap.Logger,
) *ImportService {
	return &ImportService{
		deliveryRepo: deliveryRepo,
		importRepo:   importRepo,
		auditRepo:    auditRepo,
		suggester:    suggester,
		progress:     progress,
		logger:       logger,
	}
}

// mappedRow is the working form of one data row after the confirmed mapping
// has been applied.
type mappedRow struct {
	record          models.DeliveryRecord
	contractorName  string
	supplierName    string
	missingRequired []string
	badValues       []string
	hasDiscount     bool
}

// ProcessImport iterates the data rows of one sheet in spreadsheet order,
// persisting accepted rows and recording every rejected row as a conflict. A
// single bad row never aborts the batch; only a storage layer that cannot
// even record conflicts does.
func (s *ImportService) ProcessImport(ctx context.Context, data []byte, mapping ImportMapping, batchID uuid.UUID, actorEmail string) (*ImportResult, error) {
	if err := s.importRepo.MarkBatchProcessing(batchID); err != nil {
		return nil, fmt.Errorf("failed to mark batch processing: %w", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, s.failBatch(batchID, fmt.Errorf("failed to open workbook: %w", err))
	}
	defer f.Close()

	rows, err := f.GetRows(mapping.SheetName)
	if err != nil {
		return nil, s.failBatch(batchID, fmt.Errorf("failed to read sheet %q: %w", mapping.SheetName, err))
	}

	result := &ImportResult{}
	dataRowCount := len(rows) - mapping.HeaderRowIndex - 1
	if dataRowCount < 0 {
		dataRowCount = 0
	}

	for i := mapping.HeaderRowIndex + 1; i < len(rows); i++ {
		// Cancellation takes effect at the row boundary, never mid-row.
		if ctx.Err() != nil {
			return nil, s.failBatch(batchID, fmt.Errorf("import cancelled: %w", ctx.Err()))
		}

		rowNumber := i + 1 // 1-based, as it appeared in the spreadsheet
		row := rows[i]
		if isBlankRow(row) {
			continue
		}
		result.Total++

		if err := s.processRow(ctx, batchID, mapping, row, rowNumber, actorEmail, result); err != nil {
			return nil, s.failBatch(batchID, err)
		}

		// Interim progress counts every examined row, conflicted or not.
		if s.progress != nil && result.Total%progressInterval == 0 {
			s.progress.PublishImportProgress(batchID, result.Total, dataRowCount, string(models.ImportStatusProcessing))
		}
	}

	status := models.ImportStatusCompleted
	if err := s.importRepo.FinalizeBatch(batchID, status, result.Total, result.Imported, result.Conflicts, result.Errors, nil); err != nil {
		return nil, fmt.Errorf("failed to finalize batch: %w", err)
	}
	if s.progress != nil {
		s.progress.PublishImportProgress(batchID, result.Total, dataRowCount, string(status))
	}

	s.logger.Info("import batch processed",
		zap.String("batch_id", batchID.String()),
		zap.Int("total", result.Total),
		zap.Int("imported", result.Imported),
		zap.Int("conflicts", result.Conflicts),
		zap.Int("errors", result.Errors),
	)
	return result, nil
}

// processRow takes one counted data row to its outcome: imported, conflicted
// or errored. A returned error means the conflict store itself failed, which
// is fatal for the batch.
func (s *ImportService) processRow(ctx context.Context, batchID uuid.UUID, mapping ImportMapping, row []string, rowNumber int, actorEmail string, result *ImportResult) error {
	rawRow := snapshotRow(mapping.Columns, row)
	mapped := s.applyMapping(mapping, row, rowNumber, actorEmail)

	if len(mapped.missingRequired) > 0 {
		detail := fmt.Sprintf("required columns empty: %s", strings.Join(mapped.missingRequired, ", "))
		if err := s.recordConflict(ctx, batchID, rowNumber, models.ConflictMissingRequired, detail, rawRow); err != nil {
			return err
		}
		result.Conflicts++
		return nil
	}

	if len(mapped.badValues) > 0 {
		detail := fmt.Sprintf("unparseable values: %s", strings.Join(mapped.badValues, ", "))
		if err := s.recordConflict(ctx, batchID, rowNumber, models.ConflictInvalidData, detail, rawRow); err != nil {
			return err
		}
		result.Conflicts++
		return nil
	}

	if reason, detail := reconcileStatedValues(&mapped.record); reason != "" {
		if err := s.recordConflict(ctx, batchID, rowNumber, reason, detail, rawRow); err != nil {
			return err
		}
		result.Conflicts++
		return nil
	}

	// Duplicate check against everything already persisted, including
	// earlier rows of this same batch.
	if mapped.record.VoucherNumber != "" {
		exists, err := s.deliveryRepo.VoucherExists(mapped.record.VoucherNumber)
		if err != nil {
			return fmt.Errorf("duplicate check failed: %w", err)
		}
		if exists {
			detail := fmt.Sprintf("voucher number '%s' already exists", mapped.record.VoucherNumber)
			if err := s.recordConflict(ctx, batchID, rowNumber, models.ConflictDuplicateVoucher, detail, rawRow); err != nil {
				return err
			}
			result.Conflicts++
			return nil
		}
	}

	if err := s.persistMappedRow(ctx, mapped, actorEmail); err != nil {
		reason := models.ConflictInvalidData
		if isUniqueViolation(err) {
			// The partial unique index caught a voucher race the
			// read-then-write check missed.
			reason = models.ConflictDuplicateVoucher
		} else {
			result.Errors++
		}
		s.logger.Warn("row persistence failed",
			zap.String("batch_id", batchID.String()),
			zap.Int("row", rowNumber),
			zap.Error(err),
		)
		if cErr := s.recordConflict(ctx, batchID, rowNumber, reason, err.Error(), rawRow); cErr != nil {
			return cErr
		}
		result.Conflicts++
		return nil
	}

	result.Imported++
	return nil
}

// applyMapping normalizes each mapped cell with the column's chosen rule and
// assigns it to the target field. Unknown columns are skipped.
func (s *ImportService) applyMapping(mapping ImportMapping, row []string, rowNumber int, actorEmail string) *mappedRow {
	mapped := &mappedRow{
		record: models.DeliveryRecord{
			SourceSheet: mapping.SheetName,
			SourceRow:   rowNumber,
			CreatedBy:   actorEmail,
		},
	}

	for c, col := range mapping.Columns {
		if !col.IsMapped() {
			continue
		}
		raw := ""
		if c < len(row) {
			raw = row[c]
		}
		value := NormalizeAs(raw, col.ValueType)
		if value.IsEmpty() {
			if col.Required {
				mapped.missingRequired = append(mapped.missingRequired, col.SourceColumn)
			}
			continue
		}
		s.assignField(mapped, col, value)
	}

	return mapped
}

func (s *ImportService) assignField(mapped *mappedRow, col ColumnMapping, value NormalizedValue) {
	rec := &mapped.record
	switch col.Field {
	case FieldDeliveryDate:
		if value.Kind != ValueDate {
			mapped.badValues = append(mapped.badValues, fmt.Sprintf("%s: '%s' is not a recognized date", col.SourceColumn, value.Text))
			return
		}
		t, err := time.Parse("2006-01-02", value.Date)
		if err != nil {
			mapped.badValues = append(mapped.badValues, fmt.Sprintf("%s: %v", col.SourceColumn, err))
			return
		}
		rec.DeliveryDate = t
	case FieldVoucherNumber:
		rec.VoucherNumber = valueAsText(value)
	case FieldVehicleNumber:
		rec.VehicleNumber = valueAsText(value)
	case FieldUnitLabel:
		rec.UnitLabel = valueAsText(value)
	case FieldDescription:
		rec.Description = valueAsText(value)
	case FieldContractorName:
		mapped.contractorName = valueAsText(value)
	case FieldSupplierName:
		mapped.supplierName = valueAsText(value)
	case FieldVolume:
		if num, ok := valueAsNumber(value); ok {
			rec.Volume = num
		} else {
			mapped.badValues = append(mapped.badValues, fmt.Sprintf("%s: '%s' is not a number", col.SourceColumn, value.Text))
		}
	case FieldUnitPrice:
		if num, ok := valueAsNumber(value); ok {
			rec.UnitPrice = num
		} else {
			mapped.badValues = append(mapped.badValues, fmt.Sprintf("%s: '%s' is not a number", col.SourceColumn, value.Text))
		}
	case FieldGrossValue:
		if num, ok := valueAsNumber(value); ok {
			rec.GrossValue = num
		} else {
			mapped.badValues = append(mapped.badValues, fmt.Sprintf("%s: '%s' is not a number", col.SourceColumn, value.Text))
		}
	case FieldNetValue:
		if num, ok := valueAsNumber(value); ok {
			rec.NetValue = num
		} else {
			mapped.badValues = append(mapped.badValues, fmt.Sprintf("%s: '%s' is not a number", col.SourceColumn, value.Text))
		}
	case FieldDiscount:
		if num, ok := valueAsNumber(value); ok {
			rec.Discount = *num
			mapped.hasDiscount = true
		} else {
			mapped.badValues = append(mapped.badValues, fmt.Sprintf("%s: '%s' is not a number", col.SourceColumn, value.Text))
		}
	}
}

// reconcileStatedValues cross-checks the financial figures the spreadsheet
// states against what the formulas derive. Material disagreement flags the
// row instead of silently overwriting the accountant's numbers.
func reconcileStatedValues(rec *models.DeliveryRecord) (models.ConflictReason, string) {
	if rec.Volume != nil && rec.UnitPrice != nil && rec.GrossValue != nil {
		computed := rec.Volume.Round(volumePlaces).Mul(rec.UnitPrice.Round(moneyPlaces)).Round(moneyPlaces)
		if computed.Sub(rec.GrossValue.Round(moneyPlaces)).Abs().GreaterThan(reconciliationTolerance) {
			return models.ConflictMismatchVolume,
				fmt.Sprintf("gross value %s disagrees with volume × unit price = %s", rec.GrossValue, computed)
		}
	}
	if rec.GrossValue != nil && rec.NetValue != nil {
		computed := rec.GrossValue.Round(moneyPlaces).Sub(rec.Discount.Round(moneyPlaces)).Round(moneyPlaces)
		if computed.Sub(rec.NetValue.Round(moneyPlaces)).Abs().GreaterThan(reconciliationTolerance) {
			return models.ConflictFormulaError,
				fmt.Sprintf("net value %s disagrees with gross − discount = %s", rec.NetValue, computed)
		}
	}
	return "", ""
}

// persistMappedRow resolves name references and runs the row's insert,
// derived-field recompute and audit entry inside one transaction.
func (s *ImportService) persistMappedRow(ctx context.Context, mapped *mappedRow, actorEmail string) error {
	return s.deliveryRepo.RunInTransaction(ctx, func(tx *gorm.DB) error {
		if mapped.contractorName != "" {
			contractor, err := s.deliveryRepo.FindOrCreateContractor(tx, mapped.contractorName, actorEmail)
			if err != nil {
				return fmt.Errorf("contractor lookup failed: %w", err)
			}
			mapped.record.ContractorID = &contractor.ID
		}
		if mapped.supplierName != "" {
			supplier, err := s.deliveryRepo.FindOrCreateSupplier(tx, mapped.supplierName, actorEmail)
			if err != nil {
				return fmt.Errorf("supplier lookup failed: %w", err)
			}
			mapped.record.SupplierID = &supplier.ID
		}
		return s.persistDelivery(tx, &mapped.record, actorEmail, models.AuditActionImport)
	})
}

// PersistDelivery inserts a delivery record, recomputes its derived fields
// and writes the audit entry, all in one transaction. Shared by the import
// processor, conflict resolution and the direct API write path so the
// derived-field computation exists exactly once.
func (s *ImportService) PersistDelivery(ctx context.Context, record *models.DeliveryRecord, actorEmail string, action models.AuditAction) error {
	return s.deliveryRepo.RunInTransaction(ctx, func(tx *gorm.DB) error {
		return s.persistDelivery(tx, record, actorEmail, action)
	})
}

func (s *ImportService) persistDelivery(tx *gorm.DB, record *models.DeliveryRecord, actorEmail string, action models.AuditAction) error {
	if err := s.deliveryRepo.CreateDelivery(tx, record); err != nil {
		return err
	}

	// The two-step write is intentional: derived-field computation is the
	// same for direct API writes and bulk import, so it lives in the
	// calculator and is invoked after every insert.
	discount := record.Discount
	result := CalculateDerivedFields(CalcInput{
		Volume:     record.Volume,
		UnitPrice:  record.UnitPrice,
		GrossValue: record.GrossValue,
		Discount:   &discount,
		NetValue:   record.NetValue,
	})
	if result.HasChanges() {
		fields := map[string]interface{}{}
		if result.GrossValue != nil {
			fields["gross_value"] = *result.GrossValue
			record.GrossValue = result.GrossValue
		}
		if result.NetValue != nil {
			fields["net_value"] = *result.NetValue
			record.NetValue = result.NetValue
		}
		if err := s.deliveryRepo.UpdateDeliveryFields(tx, record.ID, fields); err != nil {
			return err
		}
	}

	diff, _ := json.Marshal(map[string]interface{}{"after": record})
	return s.auditRepo.LogAudit(tx, &models.AuditLog{
		ActorEmail: actorEmail,
		Action:     action,
		TableName:  "delivery_records",
		RecordID:   record.ID.String(),
		Diff:       datatypes.JSON(diff),
	})
}

// recordConflict persists one rejected row. Failure here means the storage
// layer cannot even record rejections, which is fatal for the batch.
func (s *ImportService) recordConflict(ctx context.Context, batchID uuid.UUID, rowNumber int, reason models.ConflictReason, detail string, rawRow map[string]string) error {
	rowJSON, _ := json.Marshal(rawRow)
	conflict := &models.ImportConflict{
		BatchID:  batchID,
		RowIndex: rowNumber,
		Reason:   reason,
		Detail:   detail,
		RowData:  datatypes.JSON(rowJSON),
	}

	if s.suggester != nil {
		if fix, err := s.suggester.SuggestFix(ctx, reason, detail, rawRow); err == nil && fix != "" {
			conflict.SuggestedFix = &fix
		} else if err != nil {
			s.logger.Warn("suggested-fix generation failed", zap.Error(err))
		}
	}

	if err := s.importRepo.LogConflict(conflict); err != nil {
		return fmt.Errorf("failed to record conflict for row %d: %w", rowNumber, err)
	}
	return nil
}

func (s *ImportService) failBatch(batchID uuid.UUID, cause error) error {
	if err := s.importRepo.MarkBatchFailed(batchID, cause.Error()); err != nil {
		s.logger.Error("failed to mark batch failed",
			zap.String("batch_id", batchID.String()),
			zap.Error(err),
		)
	}
	if s.progress != nil {
		s.progress.PublishImportProgress(batchID, 0, 0, string(models.ImportStatusFailed))
	}
	return cause
}

func snapshotRow(columns []ColumnMapping, row []string) map[string]string {
	snapshot := make(map[string]string, len(columns))
	for c, col := range columns {
		raw := ""
		if c < len(row) {
			raw = row[c]
		}
		snapshot[col.SourceColumn] = raw
	}
	return snapshot
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func valueAsText(v NormalizedValue) string {
	switch v.Kind {
	case ValueText:
		return v.Text
	case ValueDate:
		return v.Date
	case ValueNumber:
		return v.Number.String()
	default:
		return ""
	}
}

func valueAsNumber(v NormalizedValue) (*decimal.Decimal, bool) {
	if v.Kind != ValueNumber {
		return nil, false
	}
	num := v.Number
	return &num, true
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "23505")
}
