package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"delivery-ledger-backend/db/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeliveryRepository interface {
	CreateDelivery(tx *gorm.DB, delivery *models.DeliveryRecord) error
	UpdateDeliveryFields(tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
	GetDeliveryByID(id uuid.UUID) (*models.DeliveryRecord, error)
	VoucherExists(voucherNumber string) (bool, error)
	GetFilteredDeliveries(pageSize int, offset int, filters map[string]string) ([]models.DeliveryRecord, int64, error)
	SoftDeleteDelivery(id uuid.UUID, deletedBy string) error
	GetDeliveriesByDateRange(from, to time.Time) ([]models.DeliveryRecord, error)
	GetDeliveriesBySupplier(supplierID uuid.UUID) ([]models.DeliveryRecord, error)
	GetDeliveriesByIDs(ids []uuid.UUID) ([]models.DeliveryRecord, error)
	FindOrCreateContractor(tx *gorm.DB, name string, createdBy string) (*models.Contractor, error)
	FindOrCreateSupplier(tx *gorm.DB, name string, createdBy string) (*models.Supplier, error)
	GetAllDeliveries() ([]models.DeliveryRecord, error)
	GetAllSuppliers() ([]models.Supplier, error)
	GetAllContractors() ([]models.Contractor, error)
	RunInTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type deliveryRepository struct {
	db *gorm.DB
}

func NewDeliveryRepository(db *gorm.DB) DeliveryRepository {
	return &deliveryRepository{
		db: db,
	}
}

// RunInTransaction wraps one row's validate-then-write sequence in a single
// storage transaction, so a duplicate check cannot race a concurrent insert
// of the same voucher from another batch.
func (r *deliveryRepository) RunInTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *deliveryRepository) CreateDelivery(tx *gorm.DB, delivery *models.DeliveryRecord) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(delivery).Error
}

func (r *deliveryRepository) UpdateDeliveryFields(tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Model(&models.DeliveryRecord{}).Where("id = ?", id).Updates(fields).Error
}

func (r *deliveryRepository) GetDeliveryByID(id uuid.UUID) (*models.DeliveryRecord, error) {
	var delivery models.DeliveryRecord
	err := r.db.Preload("Contractor").Preload("Supplier").First(&delivery, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("delivery record '%s' not found", id)
		}
		return nil, err
	}
	return &delivery, nil
}

func (r *deliveryRepository) VoucherExists(voucherNumber string) (bool, error) {
	if voucherNumber == "" {
		return false, nil
	}
	var count int64
	err := r.db.Model(&models.DeliveryRecord{}).
		Where("voucher_number = ?", voucherNumber).
		Count(&count).Error
	return count > 0, err
}

// GetFilteredDeliveries retrieves delivery records with filtering and pagination
func (r *deliveryRepository) GetFilteredDeliveries(pageSize int, offset int, filters map[string]string) ([]models.DeliveryRecord, int64, error) {
	var deliveries []models.DeliveryRecord
	var total int64

	db := r.db.Model(&models.DeliveryRecord{})

	for key, value := range filters {
		switch key {
		case "start_date":
			db = db.Where("delivery_date >= ?", value)
		case "end_date":
			db = db.Where("delivery_date <= ?", value)
		case "supplier_id":
			db = db.Where("supplier_id = ?", value)
		case "contractor_id":
			db = db.Where("contractor_id = ?", value)
		case "voucher_number":
			db = db.Where("voucher_number ILIKE ?", "%"+value+"%")
		case "vehicle_number":
			db = db.Where("vehicle_number ILIKE ?", "%"+value+"%")
		case "description":
			db = db.Where("description ILIKE ?", "%"+value+"%")
		case "created_by":
			db = db.Where("created_by ILIKE ?", "%"+value+"%")
		case "source_sheet":
			db = db.Where("source_sheet = ?", value)
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Contractor").Preload("Supplier").
		Limit(pageSize).Offset(offset).
		Order("delivery_date DESC, created_at DESC").
		Find(&deliveries).Error; err != nil {
		return nil, 0, err
	}

	return deliveries, total, nil
}

// SoftDeleteDelivery marks a record deleted; delivery rows are never
// physically removed.
func (r *deliveryRepository) SoftDeleteDelivery(id uuid.UUID, deletedBy string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.DeliveryRecord{}).
			Where("id = ?", id).
			Update("updated_by", deletedBy)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("delivery record '%s' not found", id)
		}
		return tx.Delete(&models.DeliveryRecord{}, "id = ?", id).Error
	})
}

func (r *deliveryRepository) GetDeliveriesByDateRange(from, to time.Time) ([]models.DeliveryRecord, error) {
	var deliveries []models.DeliveryRecord
	err := r.db.Preload("Contractor").Preload("Supplier").
		Where("delivery_date >= ? AND delivery_date <= ?", from, to).
		Order("delivery_date ASC").
		Find(&deliveries).Error
	return deliveries, err
}

func (r *deliveryRepository) GetDeliveriesBySupplier(supplierID uuid.UUID) ([]models.DeliveryRecord, error) {
	var deliveries []models.DeliveryRecord
	err := r.db.Preload("Contractor").Preload("Supplier").
		Where("supplier_id = ?", supplierID).
		Order("delivery_date ASC").
		Find(&deliveries).Error
	return deliveries, err
}

func (r *deliveryRepository) GetDeliveriesByIDs(ids []uuid.UUID) ([]models.DeliveryRecord, error) {
	var deliveries []models.DeliveryRecord
	err := r.db.Where("id IN ?", ids).Find(&deliveries).Error
	return deliveries, err
}

func (r *deliveryRepository) FindOrCreateContractor(tx *gorm.DB, name string, createdBy string) (*models.Contractor, error) {
	if tx == nil {
		tx = r.db
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("contractor name is empty")
	}
	var contractor models.Contractor
	err := tx.Where("name = ?", name).
		Attrs(models.Contractor{Name: name, CreatedBy: createdBy}).
		FirstOrCreate(&contractor).Error
	if err != nil {
		return nil, err
	}
	return &contractor, nil
}

func (r *deliveryRepository) FindOrCreateSupplier(tx *gorm.DB, name string, createdBy string) (*models.Supplier, error) {
	if tx == nil {
		tx = r.db
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("supplier name is empty")
	}
	var supplier models.Supplier
	err := tx.Where("name = ?", name).
		Attrs(models.Supplier{Name: name, CreatedBy: createdBy}).
		FirstOrCreate(&supplier).Error
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

// Fetch-all queries used by the startup search reindex.

func (r *deliveryRepository) GetAllDeliveries() ([]models.DeliveryRecord, error) {
	var deliveries []models.DeliveryRecord
	err := r.db.Preload("Contractor").Preload("Supplier").Find(&deliveries).Error
	return deliveries, err
}

func (r *deliveryRepository) GetAllSuppliers() ([]models.Supplier, error) {
	var suppliers []models.Supplier
	err := r.db.Find(&suppliers).Error
	return suppliers, err
}

func (r *deliveryRepository) GetAllContractors() ([]models.Contractor, error) {
	var contractors []models.Contractor
	err := r.db.Find(&contractors).Error
	return contractors, err
}
