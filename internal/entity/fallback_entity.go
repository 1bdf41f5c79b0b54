package entity

import (
	"encoding/json"
	"time"
)

// FallbackArtifact is a previously produced lightweight substitute for a
// content stream, keyed by (PlatformTag, ContentID).
type FallbackArtifact struct {
	PlatformTag     string          `json:"platform_tag"`
	ContentID       string          `json:"content_id"`
	PositionSeconds float64         `json:"position_seconds"`
	Payload         json.RawMessage `json:"payload"`
	CachedAt        time.Time       `json:"cached_at"`
}
