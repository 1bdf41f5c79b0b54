package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	NotificationPrepareFallback NotificationKind = "PREPARE_FALLBACK"
	NotificationDisplayFallback NotificationKind = "DISPLAY_FALLBACK"
	NotificationSignalRestored  NotificationKind = "SIGNAL_RESTORED"
)

// SurfaceNotification is a message for the viewing surface. An empty
// ContextID addresses every connected surface.
type SurfaceNotification struct {
	ID        uuid.UUID        `json:"id"`
	ContextID string           `json:"context_id"`
	Kind      NotificationKind `json:"kind"`
	State     SystemState      `json:"state"`
	Payload   json.RawMessage  `json:"payload,omitempty"`
	Delivered bool             `json:"delivered"`
	CreatedAt time.Time        `json:"created_at"`
}
