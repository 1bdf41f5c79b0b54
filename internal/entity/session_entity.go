package entity

import "time"

// Session is the per-viewing-context memory.
type Session struct {
	ContextID       string          `json:"context_id"`
	ContentID       string          `json:"content_id"`
	PlatformTag     string          `json:"platform_tag"`
	PositionSeconds float64         `json:"position_seconds"`
	DurationSeconds float64         `json:"duration_seconds"`
	Title           string          `json:"title,omitempty"`
	URL             string          `json:"url,omitempty"`
	LastMovement    *MovementSample `json:"last_movement,omitempty"`
	LastUpdated     time.Time       `json:"last_updated"`
}

// SessionMetadata is a partial update. Zero values are left untouched.
type SessionMetadata struct {
	ContentID       string
	PlatformTag     string
	PositionSeconds *float64
	DurationSeconds *float64
	Title           string
	URL             string
}

// HasContent reports whether fallback pre-generation can target this session.
func (s *Session) HasContent() bool {
	return s != nil && s.ContentID != ""
}
