package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ImportStatus string

const (
	ImportStatusPending    ImportStatus = "pending"
	ImportStatusProcessing ImportStatus = "processing"
	ImportStatusCompleted  ImportStatus = "completed"
	ImportStatusFailed     ImportStatus = "failed"
)

// ImportBatch represents one file-import attempt. The status transitions to a
// terminal value exactly once, when the processor finishes iterating all rows.
type ImportBatch struct {
	ID             uuid.UUID    `gorm:"type:uuid;primary_key;" json:"id"`
	SourceFilename string       `gorm:"not null" json:"source_filename"`
	Status         ImportStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`

	TotalRows     int `gorm:"default:0" json:"total_rows"`
	ImportedRows  int `gorm:"default:0" json:"imported_rows"`
	ConflictRows  int `gorm:"default:0" json:"conflict_rows"`
	ErrorRows     int `gorm:"default:0" json:"error_rows"`

	// MappingConfig is the confirmed column mapping the processor ran with,
	// serialized so reporting tooling can reconstruct how the file was read.
	MappingConfig datatypes.JSON `json:"mapping_config"`

	ErrorMessage *string `gorm:"type:text" json:"error_message"`

	Conflicts []ImportConflict `gorm:"foreignKey:BatchID" json:"conflicts,omitempty"`

	CreatedBy string    `gorm:"not null" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (b *ImportBatch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
