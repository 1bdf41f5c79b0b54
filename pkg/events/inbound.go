// Package events defines what flows over the orchestrator's buses: the closed
// set of inbound events and the outbound notifications.
package events

import (
	"errors"
	"time"
)

var ErrUnknownEvent = errors.New("unknown event kind")

type Kind string

const (
	KindTelemetry       Kind = "telemetry"
	KindMovement        Kind = "movement"
	KindMetadata        Kind = "metadata"
	KindRestoration     Kind = "restoration"
	KindFallbackRequest Kind = "fallback_request"
	KindTeardown        Kind = "teardown"
	KindPanic           Kind = "panic"
)

// Kinds lists every inbound kind.
var Kinds = []Kind{
	KindTelemetry,
	KindMovement,
	KindMetadata,
	KindRestoration,
	KindFallbackRequest,
	KindTeardown,
	KindPanic,
}

// Inbound is implemented only by the types in this file.
type Inbound interface {
	Kind() Kind
	sealed()
}

type NetworkTelemetry struct {
	EffectiveType string    `json:"effective_type" msgpack:"effective_type"`
	DownlinkMbps  float64   `json:"downlink_mbps" msgpack:"downlink_mbps"`
	RTTMs         int       `json:"rtt_ms" msgpack:"rtt_ms"`
	SaveData      bool      `json:"save_data" msgpack:"save_data"`
	ContextID     string    `json:"context_id" msgpack:"context_id"`
	Timestamp     time.Time `json:"timestamp,omitempty" msgpack:"timestamp"`
}

type MovementSample struct {
	VelocityKmh float64   `json:"velocity_kmh" msgpack:"velocity_kmh"`
	Latitude    float64   `json:"latitude" msgpack:"latitude"`
	Longitude   float64   `json:"longitude" msgpack:"longitude"`
	ContextID   string    `json:"context_id" msgpack:"context_id"`
	Timestamp   time.Time `json:"timestamp,omitempty" msgpack:"timestamp"`
}

// ViewingMetadata is a partial session update; nil numbers are left as is.
type ViewingMetadata struct {
	ContentID       string   `json:"content_id" msgpack:"content_id"`
	PlatformTag     string   `json:"platform_tag" msgpack:"platform_tag"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty" msgpack:"duration_seconds"`
	PositionSeconds *float64 `json:"position_seconds,omitempty" msgpack:"position_seconds"`
	Title           string   `json:"title,omitempty" msgpack:"title"`
	URL             string   `json:"url,omitempty" msgpack:"url"`
	ContextID       string   `json:"context_id" msgpack:"context_id"`
}

type RestorationSignal struct {
	ContextID string `json:"context_id" msgpack:"context_id"`
}

type FallbackRequest struct {
	ContentID       string  `json:"content_id" msgpack:"content_id"`
	PlatformTag     string  `json:"platform_tag" msgpack:"platform_tag"`
	PositionSeconds float64 `json:"position_seconds" msgpack:"position_seconds"`
}

type ContextTornDown struct {
	ContextID string `json:"context_id" msgpack:"context_id"`
}

// PanicSignal reports that the viewing surface is already buffering.
type PanicSignal struct {
	ContextID string `json:"context_id" msgpack:"context_id"`
	Reason    string `json:"reason,omitempty" msgpack:"reason"`
}

func (NetworkTelemetry) Kind() Kind  { return KindTelemetry }
func (MovementSample) Kind() Kind    { return KindMovement }
func (ViewingMetadata) Kind() Kind   { return KindMetadata }
func (RestorationSignal) Kind() Kind { return KindRestoration }
func (FallbackRequest) Kind() Kind   { return KindFallbackRequest }
func (ContextTornDown) Kind() Kind   { return KindTeardown }
func (PanicSignal) Kind() Kind       { return KindPanic }

func (NetworkTelemetry) sealed()  {}
func (MovementSample) sealed()    {}
func (ViewingMetadata) sealed()   {}
func (RestorationSignal) sealed() {}
func (FallbackRequest) sealed()   {}
func (ContextTornDown) sealed()   {}
func (PanicSignal) sealed()       {}

// New returns a zero value of the event type for kind.
func New(kind Kind) (Inbound, error) {
	switch kind {
	case KindTelemetry:
		return &NetworkTelemetry{}, nil
	case KindMovement:
		return &MovementSample{}, nil
	case KindMetadata:
		return &ViewingMetadata{}, nil
	case KindRestoration:
		return &RestorationSignal{}, nil
	case KindFallbackRequest:
		return &FallbackRequest{}, nil
	case KindTeardown:
		return &ContextTornDown{}, nil
	case KindPanic:
		return &PanicSignal{}, nil
	default:
		return nil, ErrUnknownEvent
	}
}
