package dto

import (
	"time"

	"network-orchestrator-be/internal/entity"
	"network-orchestrator-be/pkg/events"
)

type TelemetryRequest struct {
	EffectiveType string     `json:"effective_type" validate:"omitempty,oneof=slow-2g 2g 3g 4g unknown"`
	DownlinkMbps  *float64   `json:"downlink_mbps" validate:"required,gte=0"`
	RTTMs         int        `json:"rtt_ms" validate:"gte=0"`
	SaveData      bool       `json:"save_data"`
	ContextID     string     `json:"context_id" validate:"required,max=128"`
	Timestamp     *time.Time `json:"timestamp"`
}

func (r TelemetryRequest) ToEvent() events.NetworkTelemetry {
	ev := events.NetworkTelemetry{
		EffectiveType: r.EffectiveType,
		DownlinkMbps:  *r.DownlinkMbps,
		RTTMs:         r.RTTMs,
		SaveData:      r.SaveData,
		ContextID:     r.ContextID,
	}
	if r.Timestamp != nil {
		ev.Timestamp = *r.Timestamp
	}
	return ev
}

type MovementRequest struct {
	VelocityKmh float64    `json:"velocity_kmh" validate:"gte=0,lte=1000"`
	Latitude    float64    `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64    `json:"longitude" validate:"gte=-180,lte=180"`
	ContextID   string     `json:"context_id" validate:"required,max=128"`
	Timestamp   *time.Time `json:"timestamp"`
}

func (r MovementRequest) ToEvent() events.MovementSample {
	ev := events.MovementSample{
		VelocityKmh: r.VelocityKmh,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		ContextID:   r.ContextID,
	}
	if r.Timestamp != nil {
		ev.Timestamp = *r.Timestamp
	}
	return ev
}

type MovementResponse struct {
	PollingIntervalMs int64 `json:"polling_interval_ms"`
}

type MetadataRequest struct {
	ContentID       string   `json:"content_id" validate:"max=256"`
	PlatformTag     string   `json:"platform_tag" validate:"max=64"`
	DurationSeconds *float64 `json:"duration_seconds" validate:"omitempty,gte=0"`
	PositionSeconds *float64 `json:"position_seconds" validate:"omitempty,gte=0"`
	Title           string   `json:"title"`
	URL             string   `json:"url" validate:"omitempty,url"`
	ContextID       string   `json:"context_id" validate:"required,max=128"`
}

func (r MetadataRequest) ToEvent() events.ViewingMetadata {
	return events.ViewingMetadata{
		ContentID:       r.ContentID,
		PlatformTag:     r.PlatformTag,
		DurationSeconds: r.DurationSeconds,
		PositionSeconds: r.PositionSeconds,
		Title:           r.Title,
		URL:             r.URL,
		ContextID:       r.ContextID,
	}
}

// ContextRequest is the body of restoration and panic signals.
type ContextRequest struct {
	ContextID string `json:"context_id" validate:"required,max=128"`
	Reason    string `json:"reason"`
}

type FallbackRequest struct {
	ContentID       string  `json:"content_id" validate:"required,max=256"`
	PlatformTag     string  `json:"platform_tag" validate:"required,max=64"`
	PositionSeconds float64 `json:"position_seconds" validate:"gte=0"`
}

func (r FallbackRequest) ToEvent() events.FallbackRequest {
	return events.FallbackRequest{
		ContentID:       r.ContentID,
		PlatformTag:     r.PlatformTag,
		PositionSeconds: r.PositionSeconds,
	}
}

type FallbackResponse struct {
	Artifact entity.FallbackArtifact `json:"artifact"`
}

type ClearCacheResponse struct {
	Cleared int `json:"cleared"`
}

type AcceptedResponse struct {
	State string `json:"state"`
}
