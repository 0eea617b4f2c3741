package services

import (
	"context"
	"encoding/json"
	"time"

	"delivery-ledger-backend/db/models"
	"delivery-ledger-backend/deliveries/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RecomputeResult summarizes one recompute sweep. Touched counts records
// whose stored values actually changed; Skipped counts records that failed
// individually and were left as they were.
type RecomputeResult struct {
	Examined int `json:"examined"`
	Touched  int `json:"touched"`
	Skipped  int `json:"skipped"`
}

// RecomputeService re-runs the derivation rules over stored records, used
// after unit price corrections, resolution merges and the nightly sweep.
// Best-effort: one bad record never aborts the sweep.
type RecomputeService struct {
	deliveryRepo repositories.DeliveryRepository
	auditRepo    repositories.AuditRepository
	logger       *zap.Logger
}

func NewRecomputeService(
	deliveryRepo repositories.DeliveryRepository,
	auditRepo repositories.AuditRepository,
	logger *zap.Logger,
) *RecomputeService {
	return &RecomputeService{
		deliveryRepo: deliveryRepo,
		auditRepo:    auditRepo,
		logger:       logger,
	}
}

// RecomputeOne recomputes a single record, reporting whether anything changed.
func (s *RecomputeService) RecomputeOne(ctx context.Context, id uuid.UUID, actorEmail string) (bool, error) {
	record, err := s.deliveryRepo.GetDeliveryByID(id)
	if err != nil {
		return false, err
	}
	return s.recomputeRecord(ctx, record, actorEmail)
}

// RecomputeDateRange sweeps every record whose delivery date falls in
// [from, to] inclusive.
func (s *RecomputeService) RecomputeDateRange(ctx context.Context, from, to time.Time, actorEmail string) (*RecomputeResult, error) {
	records, err := s.deliveryRepo.GetDeliveriesByDateRange(from, to)
	if err != nil {
		return nil, err
	}
	return s.sweep(ctx, records, actorEmail)
}

// RecomputeBySupplier sweeps every record of one supplier, the usual follow-up
// to a supplier-wide unit price correction.
func (s *RecomputeService) RecomputeBySupplier(ctx context.Context, supplierID uuid.UUID, actorEmail string) (*RecomputeResult, error) {
	records, err := s.deliveryRepo.GetDeliveriesBySupplier(supplierID)
	if err != nil {
		return nil, err
	}
	return s.sweep(ctx, records, actorEmail)
}

// RecomputeByIDs sweeps an explicit set of records.
func (s *RecomputeService) RecomputeByIDs(ctx context.Context, ids []uuid.UUID, actorEmail string) (*RecomputeResult, error) {
	records, err := s.deliveryRepo.GetDeliveriesByIDs(ids)
	if err != nil {
		return nil, err
	}
	return s.sweep(ctx, records, actorEmail)
}

func (s *RecomputeService) sweep(ctx context.Context, records []models.DeliveryRecord, actorEmail string) (*RecomputeResult, error) {
	result := &RecomputeResult{}
	for i := range records {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		result.Examined++
		changed, err := s.recomputeRecord(ctx, &records[i], actorEmail)
		if err != nil {
			result.Skipped++
			s.logger.Warn("recompute skipped record",
				zap.String("record_id", records[i].ID.String()),
				zap.Error(err),
			)
			continue
		}
		if changed {
			result.Touched++
		}
	}
	s.logger.Info("recompute sweep finished",
		zap.Int("examined", result.Examined),
		zap.Int("touched", result.Touched),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (s *RecomputeService) recomputeRecord(ctx context.Context, record *models.DeliveryRecord, actorEmail string) (bool, error) {
	discount := record.Discount
	calc := CalculateDerivedFields(CalcInput{
		Volume:     record.Volume,
		UnitPrice:  record.UnitPrice,
		GrossValue: record.GrossValue,
		Discount:   &discount,
		NetValue:   record.NetValue,
	})

	fields := map[string]interface{}{}
	before := map[string]interface{}{}
	if calc.GrossValue != nil && (record.GrossValue == nil || !record.GrossValue.Equal(*calc.GrossValue)) {
		before["gross_value"] = record.GrossValue
		fields["gross_value"] = *calc.GrossValue
	}
	if calc.NetValue != nil && (record.NetValue == nil || !record.NetValue.Equal(*calc.NetValue)) {
		before["net_value"] = record.NetValue
		fields["net_value"] = *calc.NetValue
	}
	if len(fields) == 0 {
		return false, nil
	}
	fields["updated_by"] = actorEmail

	err := s.deliveryRepo.RunInTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.deliveryRepo.UpdateDeliveryFields(tx, record.ID, fields); err != nil {
			return err
		}
		diff, _ := json.Marshal(map[string]interface{}{"before": before, "after": fields})
		return s.auditRepo.LogAudit(tx, &models.AuditLog{
			ActorEmail: actorEmail,
			Action:     models.AuditActionUpdate,
			TableName:  "delivery_records",
			RecordID:   record.ID.String(),
			Diff:       datatypes.JSON(diff),
		})
	})
	if err != nil {
		return false, err
	}

	if calc.GrossValue != nil {
		record.GrossValue = calc.GrossValue
	}
	if calc.NetValue != nil {
		record.NetValue = calc.NetValue
	}
	return true, nil
}
