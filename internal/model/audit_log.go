package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records who did what to which entity. Writes are best-effort;
// a failed audit write never fails the operation that triggered it.
type AuditLog struct {
	ID         uint           `gorm:"primarykey" json:"id"`
	ActorID    *uint          `json:"actor_id,omitempty" gorm:"index"` // nil for system operations
	Action     string         `json:"action" gorm:"not null"`
	EntityType string         `json:"entity_type" gorm:"not null;index"`
	EntityID   uint           `json:"entity_id" gorm:"not null;index"`
	Details    datatypes.JSON `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
