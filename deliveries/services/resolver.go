package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"delivery-ledger-backend/db/models"
	"delivery-ledger-backend/deliveries/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var (
	ErrConflictAlreadyResolved = errors.New("conflict has already been resolved")
	ErrUnknownResolutionAction = errors.New("unknown resolution action")
)

// ResolutionRequest is the reviewer's decision for one pending conflict.
// Fields is the corrected row data for the import action, keyed by target
// field name; the other actions ignore it.
type ResolutionRequest struct {
	Action models.ResolutionAction `json:"action"`
	Fields map[string]string       `json:"fields"`
}

// ConflictResolver applies reviewer decisions to pending conflicts. Every
// resolution is a single irreversible transition away from pending.
type ConflictResolver struct {
	importService *ImportService
	importRepo    repositories.ImportRepository
	auditRepo     repositories.AuditRepository
	logger        *zap.Logger
}

func NewConflictResolver(
	importService *ImportService,
	importRepo repositories.ImportRepository,
	auditRepo repositories.AuditRepository,
	logger *zap.Logger,
) *ConflictResolver {
	return &ConflictResolver{
		importService: importService,
		importRepo:    importRepo,
		auditRepo:     auditRepo,
		logger:        logger,
	}
}

// ResolveConflict marks the conflict resolved and, for the import action,
// runs the corrected data through the same persistence pipeline as a normal
// import row. Resolving an already-resolved or missing conflict fails.
func (r *ConflictResolver) ResolveConflict(ctx context.Context, conflictID uuid.UUID, req ResolutionRequest, actorEmail string) (*models.ImportConflict, error) {
	conflict, err := r.importRepo.GetPendingConflictByID(conflictID)
	if err != nil {
		if errors.Is(err, repositories.ErrConflictNotFound) {
			return nil, ErrConflictAlreadyResolved
		}
		return nil, err
	}

	status := models.ResolutionResolved
	switch req.Action {
	case models.ResolutionActionImport, models.ResolutionActionKeepNew, models.ResolutionActionMerge:
		status = models.ResolutionResolved
	case models.ResolutionActionKeepOriginal, models.ResolutionActionSkip:
		status = models.ResolutionIgnored
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownResolutionAction, req.Action)
	}

	// Only the import action runs the corrected row back through persistence.
	// The other outcomes record the reviewer's decision and nothing else.
	var record *models.DeliveryRecord
	if req.Action == models.ResolutionActionImport {
		record, err = r.buildRecord(conflict, req.Fields)
		if err != nil {
			return nil, err
		}
	}

	resolutionData, _ := json.Marshal(req.Fields)
	if err := r.importRepo.MarkConflictResolved(conflictID, status, req.Action, datatypes.JSON(resolutionData), actorEmail); err != nil {
		return nil, err
	}

	if record != nil {
		if err := r.importService.PersistDelivery(ctx, record, actorEmail, models.AuditActionResolve); err != nil {
			// The status transition already happened; surface the failure so
			// the reviewer knows the corrected row did not land.
			return nil, fmt.Errorf("conflict resolved but corrected row failed to import: %w", err)
		}
	}

	diff, _ := json.Marshal(map[string]interface{}{
		"action": req.Action,
		"fields": req.Fields,
	})
	if err := r.auditRepo.LogAudit(nil, &models.AuditLog{
		ActorEmail: actorEmail,
		Action:     models.AuditActionResolve,
		TableName:  "import_conflicts",
		RecordID:   conflictID.String(),
		Diff:       datatypes.JSON(diff),
	}); err != nil {
		r.logger.Warn("failed to audit conflict resolution",
			zap.String("conflict_id", conflictID.String()),
			zap.Error(err),
		)
	}

	return r.reloadResolved(conflictID, conflict)
}

// buildRecord turns corrected field values into a delivery record. Values not
// present in the correction fall back to the conflict's original row snapshot
// only when the reviewer supplied none at all.
func (r *ConflictResolver) buildRecord(conflict *models.ImportConflict, fields map[string]string) (*models.DeliveryRecord, error) {
	rec := &models.DeliveryRecord{
		SourceRow: conflict.RowIndex,
	}

	var dateSet bool
	for field, raw := range fields {
		switch TargetField(field) {
		case FieldDeliveryDate:
			value := NormalizeAs(raw, "date")
			if value.Kind != ValueDate {
				return nil, fmt.Errorf("corrected delivery date '%s' is not a recognized date", raw)
			}
			t, err := time.Parse("2006-01-02", value.Date)
			if err != nil {
				return nil, err
			}
			rec.DeliveryDate = t
			dateSet = true
		case FieldVoucherNumber:
			rec.VoucherNumber = valueAsText(Normalize(raw))
		case FieldVehicleNumber:
			rec.VehicleNumber = valueAsText(Normalize(raw))
		case FieldUnitLabel:
			rec.UnitLabel = valueAsText(Normalize(raw))
		case FieldDescription:
			rec.Description = valueAsText(Normalize(raw))
		case FieldVolume:
			num, err := correctedNumber(field, raw)
			if err != nil {
				return nil, err
			}
			rec.Volume = num
		case FieldUnitPrice:
			num, err := correctedNumber(field, raw)
			if err != nil {
				return nil, err
			}
			rec.UnitPrice = num
		case FieldGrossValue:
			num, err := correctedNumber(field, raw)
			if err != nil {
				return nil, err
			}
			rec.GrossValue = num
		case FieldNetValue:
			num, err := correctedNumber(field, raw)
			if err != nil {
				return nil, err
			}
			rec.NetValue = num
		case FieldDiscount:
			num, err := correctedNumber(field, raw)
			if err != nil {
				return nil, err
			}
			rec.Discount = *num
		default:
			return nil, fmt.Errorf("unknown field '%s' in correction", field)
		}
	}

	if !dateSet {
		return nil, errors.New("corrected row must include a delivery date")
	}
	return rec, nil
}

func correctedNumber(field, raw string) (*decimal.Decimal, error) {
	value := NormalizeAs(raw, "number")
	if value.Kind != ValueNumber {
		return nil, fmt.Errorf("corrected %s '%s' is not a number", field, raw)
	}
	num := value.Number
	return &num, nil
}

func (r *ConflictResolver) reloadResolved(conflictID uuid.UUID, fallback *models.ImportConflict) (*models.ImportConflict, error) {
	conflict, err := r.importRepo.GetConflictByID(conflictID)
	if err != nil {
		return fallback, nil
	}
	return conflict, nil
}
