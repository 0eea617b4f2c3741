package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditAction string

const (
	AuditActionCreate  AuditAction = "create"
	AuditActionUpdate  AuditAction = "update"
	AuditActionDelete  AuditAction = "delete"
	AuditActionImport  AuditAction = "import"
	AuditActionResolve AuditAction = "resolve"
	AuditActionLogin   AuditAction = "login"
	AuditActionLogout  AuditAction = "logout"
)

// AuditLog captures who did what to which record. Delivery create/update/delete
// and user login/logout each produce one entry.
type AuditLog struct {
	ID         uuid.UUID   `gorm:"type:uuid;primary_key;" json:"id"`
	ActorEmail string      `gorm:"not null;index" json:"actor_email"`
	Action     AuditAction `gorm:"type:varchar(20);not null;index" json:"action"`
	TableName  string      `gorm:"not null;index" json:"table_name"`
	RecordID   string      `gorm:"index" json:"record_id"`

	// Diff holds the serialized before/after snapshot of the change.
	Diff datatypes.JSON `json:"diff"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
