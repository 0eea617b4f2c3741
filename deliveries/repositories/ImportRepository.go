package repositories

import (
	"errors"
	"fmt"
	"time"

	"delivery-ledger-backend/db/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrConflictNotFound is returned when a conflict is absent or already
// resolved; resolution actions are not idempotent, so a second resolve is an
// error rather than a silent no-op.
var ErrConflictNotFound = errors.New("import conflict not found or already resolved")

type ImportRepository interface {
	CreateBatch(batch *models.ImportBatch) error
	MarkBatchProcessing(id uuid.UUID) error
	FinalizeBatch(id uuid.UUID, status models.ImportStatus, total, imported, conflicts, errs int, errMsg *string) error
	MarkBatchFailed(id uuid.UUID, errMsg string) error
	GetBatchByID(id uuid.UUID) (*models.ImportBatch, error)
	GetFilteredBatches(pageSize int, offset int, filters map[string]string) ([]models.ImportBatch, int64, error)
	LogConflict(conflict *models.ImportConflict) error
	GetConflictByID(id uuid.UUID) (*models.ImportConflict, error)
	GetPendingConflictByID(id uuid.UUID) (*models.ImportConflict, error)
	MarkConflictResolved(id uuid.UUID, status models.ResolutionStatus, action models.ResolutionAction, data datatypes.JSON, resolvedBy string) error
	GetFilteredConflicts(pageSize int, offset int, filters map[string]string) ([]models.ImportConflict, int64, error)
	GetConflictsForBatch(batchID uuid.UUID) ([]models.ImportConflict, error)
}

type importRepository struct {
	db *gorm.DB
}

func NewImportRepository(db *gorm.DB) ImportRepository {
	return &importRepository{
		db: db,
	}
}

func (r *importRepository) CreateBatch(batch *models.ImportBatch) error {
	return r.db.Create(batch).Error
}

func (r *importRepository) MarkBatchProcessing(id uuid.UUID) error {
	return r.db.Model(&models.ImportBatch{}).
		Where("id = ? AND status IN ?", id, []models.ImportStatus{models.ImportStatusPending, models.ImportStatusProcessing}).
		Update("status", models.ImportStatusProcessing).Error
}

// FinalizeBatch writes the aggregate counters and the terminal status in one
// update. The status guard keeps the terminal transition single-shot.
func (r *importRepository) FinalizeBatch(id uuid.UUID, status models.ImportStatus, total, imported, conflicts, errs int, errMsg *string) error {
	result := r.db.Model(&models.ImportBatch{}).
		Where("id = ? AND status NOT IN ?", id, []models.ImportStatus{models.ImportStatusCompleted, models.ImportStatusFailed}).
		Updates(map[string]interface{}{
			"status":        status,
			"total_rows":    total,
			"imported_rows": imported,
			"conflict_rows": conflicts,
			"error_rows":    errs,
			"error_message": errMsg,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("import batch '%s' not found or already finalized", id)
	}
	return nil
}

func (r *importRepository) MarkBatchFailed(id uuid.UUID, errMsg string) error {
	return r.db.Model(&models.ImportBatch{}).
		Where("id = ? AND status NOT IN ?", id, []models.ImportStatus{models.ImportStatusCompleted, models.ImportStatusFailed}).
		Updates(map[string]interface{}{
			"status":        models.ImportStatusFailed,
			"error_message": errMsg,
		}).Error
}

func (r *importRepository) GetBatchByID(id uuid.UUID) (*models.ImportBatch, error) {
	var batch models.ImportBatch
	err := r.db.First(&batch, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("import batch '%s' not found", id)
		}
		return nil, err
	}
	return &batch, nil
}

func (r *importRepository) GetFilteredBatches(pageSize int, offset int, filters map[string]string) ([]models.ImportBatch, int64, error) {
	var batches []models.ImportBatch
	var total int64

	db := r.db.Model(&models.ImportBatch{})

	for key, value := range filters {
		switch key {
		case "status":
			db = db.Where("status = ?", value)
		case "created_by":
			db = db.Where("created_by ILIKE ?", "%"+value+"%")
		case "filename":
			db = db.Where("source_filename ILIKE ?", "%"+value+"%")
		case "start_date":
			db = db.Where("Date(created_at) >= ?", value)
		case "end_date":
			db = db.Where("Date(created_at) <= ?", value)
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Limit(pageSize).Offset(offset).Order("created_at DESC").Find(&batches).Error; err != nil {
		return nil, 0, err
	}

	return batches, total, nil
}

func (r *importRepository) LogConflict(conflict *models.ImportConflict) error {
	return r.db.Create(conflict).Error
}

func (r *importRepository) GetConflictByID(id uuid.UUID) (*models.ImportConflict, error) {
	var conflict models.ImportConflict
	err := r.db.First(&conflict, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConflictNotFound
		}
		return nil, err
	}
	return &conflict, nil
}

// GetPendingConflictByID loads a conflict for resolution. Missing or already
// resolved conflicts both surface as ErrConflictNotFound.
func (r *importRepository) GetPendingConflictByID(id uuid.UUID) (*models.ImportConflict, error) {
	var conflict models.ImportConflict
	err := r.db.First(&conflict, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConflictNotFound
		}
		return nil, err
	}
	if conflict.Resolution != models.ResolutionPending {
		return nil, ErrConflictNotFound
	}
	return &conflict, nil
}

func (r *importRepository) MarkConflictResolved(id uuid.UUID, status models.ResolutionStatus, action models.ResolutionAction, data datatypes.JSON, resolvedBy string) error {
	now := time.Now()
	result := r.db.Model(&models.ImportConflict{}).
		Where("id = ? AND resolution = ?", id, models.ResolutionPending).
		Updates(map[string]interface{}{
			"resolution":        status,
			"resolution_action": action,
			"resolution_data":   data,
			"resolved_by":       resolvedBy,
			"resolved_at":       &now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConflictNotFound
	}
	return nil
}

func (r *importRepository) GetFilteredConflicts(pageSize int, offset int, filters map[string]string) ([]models.ImportConflict, int64, error) {
	var conflicts []models.ImportConflict
	var total int64

	db := r.db.Model(&models.ImportConflict{})

	for key, value := range filters {
		switch key {
		case "batch_id":
			db = db.Where("batch_id = ?", value)
		case "reason":
			db = db.Where("reason = ?", value)
		case "resolution":
			db = db.Where("resolution = ?", value)
		case "resolved_by":
			db = db.Where("resolved_by ILIKE ?", "%"+value+"%")
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Limit(pageSize).Offset(offset).Order("created_at DESC, row_index ASC").Find(&conflicts).Error; err != nil {
		return nil, 0, err
	}

	return conflicts, total, nil
}

func (r *importRepository) GetConflictsForBatch(batchID uuid.UUID) ([]models.ImportConflict, error) {
	var conflicts []models.ImportConflict
	err := r.db.Where("batch_id = ?", batchID).Order("row_index ASC").Find(&conflicts).Error
	return conflicts, err
}
