package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Notification is the history of messages sent to viewing surfaces.
type Notification struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ContextID string         `gorm:"type:varchar(255);not null;index:idx_surface_notifications_context_created,priority:1" json:"context_id"`
	Kind      string         `gorm:"type:varchar(32);not null;index:idx_surface_notifications_kind" json:"kind"`
	State     string         `gorm:"type:varchar(32);not null" json:"state"`
	Payload   datatypes.JSON `gorm:"type:jsonb" json:"payload,omitempty"`
	Delivered bool           `gorm:"default:false" json:"delivered"`
	CreatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP;index:idx_surface_notifications_context_created,priority:2" json:"created_at"`
}

func (Notification) TableName() string {
	return "surface_notifications"
}
