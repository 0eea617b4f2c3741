package repositories

import (
	"delivery-ledger-backend/db/models"

	"gorm.io/gorm"
)

type AuditRepository interface {
	LogAudit(tx *gorm.DB, entry *models.AuditLog) error
	GetFilteredAuditLogs(pageSize int, offset int, filters map[string]string) ([]models.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{
		db: db,
	}
}

// LogAudit writes one audit entry, joining the caller's transaction when one
// is passed so a rolled-back write never leaves a stray audit row.
func (r *auditRepository) LogAudit(tx *gorm.DB, entry *models.AuditLog) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(entry).Error
}

func (r *auditRepository) GetFilteredAuditLogs(pageSize int, offset int, filters map[string]string) ([]models.AuditLog, int64, error) {
	var logs []models.AuditLog
	var total int64

	db := r.db.Model(&models.AuditLog{})

	for key, value := range filters {
		switch key {
		case "actor_email":
			db = db.Where("actor_email ILIKE ?", "%"+value+"%")
		case "action":
			db = db.Where("action = ?", value)
		case "table_name":
			db = db.Where("table_name = ?", value)
		case "record_id":
			db = db.Where("record_id = ?", value)
		case "start_date":
			db = db.Where("Date(created_at) >= ?", value)
		case "end_date":
			db = db.Where("Date(created_at) <= ?", value)
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Limit(pageSize).Offset(offset).Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
