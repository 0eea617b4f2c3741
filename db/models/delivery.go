package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Contractor represents a contracting company receiving deliveries on site
type Contractor struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;" json:"id"`
	Name      string         `gorm:"unique;not null;index" json:"name"`
	Phone     *string        `json:"phone"`
	Address   *string        `json:"address"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedBy string         `gorm:"not null" json:"created_by"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Supplier represents a material supplier issuing delivery vouchers
type Supplier struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;" json:"id"`
	Name      string         `gorm:"unique;not null;index" json:"name"`
	Phone     *string        `json:"phone"`
	Address   *string        `json:"address"`
	TaxCode   *string        `gorm:"index" json:"tax_code"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedBy string         `gorm:"not null" json:"created_by"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// DeliveryRecord represents one construction-delivery transaction line.
// The financial invariant net_value == round(gross_value - discount, 2) is
// maintained by the recompute service, not by the database.
type DeliveryRecord struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	DeliveryDate time.Time `gorm:"type:date;not null;index" json:"delivery_date"`

	ContractorID *uuid.UUID `gorm:"type:uuid;index" json:"contractor_id"`
	SupplierID   *uuid.UUID `gorm:"type:uuid;index" json:"supplier_id"`

	VehicleNumber string `gorm:"index" json:"vehicle_number"`
	// VoucherNumber is the supplier's voucher reference and serves as the
	// natural dedup key when present. The partial unique index backs the
	// importer's duplicate check under concurrent batches.
	VoucherNumber string `gorm:"index:idx_delivery_voucher,unique,where:voucher_number <> '' AND deleted_at IS NULL" json:"voucher_number"`

	Volume     *decimal.Decimal `gorm:"type:decimal(12,3)" json:"volume"`
	UnitLabel  string           `json:"unit_label"`
	UnitPrice  *decimal.Decimal `gorm:"type:decimal(14,2)" json:"unit_price"`
	GrossValue *decimal.Decimal `gorm:"type:decimal(14,2)" json:"gross_value"`
	Discount   decimal.Decimal  `gorm:"type:decimal(14,2);default:0" json:"discount"`
	NetValue   *decimal.Decimal `gorm:"type:decimal(14,2)" json:"net_value"`

	Description string `gorm:"type:text" json:"description"`

	// Traceability back to the origin spreadsheet
	SourceSheet string `json:"source_sheet"`
	SourceRow   int    `json:"source_row"` // 1-based, as it appeared in the file

	Contractor *Contractor `gorm:"foreignKey:ContractorID" json:"contractor,omitempty"`
	Supplier   *Supplier   `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`

	CreatedBy string         `gorm:"not null" json:"created_by"`
	UpdatedBy *string        `json:"updated_by"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hooks
func (c *Contractor) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (s *Supplier) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (d *DeliveryRecord) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
