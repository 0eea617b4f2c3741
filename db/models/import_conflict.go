package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ConflictReason string

const (
	ConflictDuplicateVoucher ConflictReason = "duplicate_voucher"
	ConflictMismatchVolume   ConflictReason = "mismatch_volume"
	ConflictMissingRequired  ConflictReason = "missing_required"
	ConflictInvalidData      ConflictReason = "invalid_data"
	ConflictFormulaError     ConflictReason = "formula_error"
)

type ResolutionStatus string

const (
	ResolutionPending  ResolutionStatus = "pending"
	ResolutionResolved ResolutionStatus = "resolved"
	ResolutionIgnored  ResolutionStatus = "ignored"
)

type ResolutionAction string

const (
	ResolutionActionImport       ResolutionAction = "import"
	ResolutionActionKeepOriginal ResolutionAction = "keep_original"
	ResolutionActionKeepNew      ResolutionAction = "keep_new"
	ResolutionActionMerge        ResolutionAction = "merge"
	ResolutionActionSkip         ResolutionAction = "skip"
)

// ImportConflict represents one rejected spreadsheet row. Created only by the
// import processor; its resolution status moves away from pending exactly once.
type ImportConflict struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	BatchID uuid.UUID `gorm:"type:uuid;not null;index" json:"batch_id"`

	RowIndex int            `gorm:"not null" json:"row_index"` // 1-based spreadsheet row
	Reason   ConflictReason `gorm:"type:varchar(30);not null;index" json:"reason"`
	Detail   string         `gorm:"type:text" json:"detail"`

	// RowData is the raw row snapshot keyed by source column label, kept so a
	// human can re-enter the data during resolution.
	RowData      datatypes.JSON `json:"row_data"`
	SuggestedFix *string        `gorm:"type:text" json:"suggested_fix"`

	Resolution       ResolutionStatus  `gorm:"type:varchar(20);default:'pending';index" json:"resolution"`
	ResolutionAction *ResolutionAction `gorm:"type:varchar(20)" json:"resolution_action"`
	ResolutionData   datatypes.JSON    `json:"resolution_data"`
	ResolvedBy       *string           `json:"resolved_by"`
	ResolvedAt       *time.Time        `json:"resolved_at"`

	Batch *ImportBatch `gorm:"foreignKey:BatchID" json:"batch,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *ImportConflict) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
