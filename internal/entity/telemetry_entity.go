package entity

import "time"

// EffectiveType mirrors the Network Information API connection classes.
type EffectiveType string

const (
	EffectiveTypeSlow2G  EffectiveType = "slow-2g"
	EffectiveType2G      EffectiveType = "2g"
	EffectiveType3G      EffectiveType = "3g"
	EffectiveType4G      EffectiveType = "4g"
	EffectiveTypeUnknown EffectiveType = "unknown"
)

// NormalizeEffectiveType maps unrecognised values to EffectiveTypeUnknown.
func NormalizeEffectiveType(s string) EffectiveType {
	switch t := EffectiveType(s); t {
	case EffectiveTypeSlow2G, EffectiveType2G, EffectiveType3G, EffectiveType4G:
		return t
	case "slow2g":
		return EffectiveTypeSlow2G
	}
	return EffectiveTypeUnknown
}

// TelemetrySample is one network-quality reading. Immutable once recorded.
type TelemetrySample struct {
	Timestamp       time.Time     `json:"timestamp" msgpack:"timestamp"`
	EffectiveType   EffectiveType `json:"effective_type" msgpack:"effective_type"`
	DownlinkMbps    float64       `json:"downlink_mbps" msgpack:"downlink_mbps"`
	RTTMs           int           `json:"rtt_ms" msgpack:"rtt_ms"`
	SaveData        bool          `json:"save_data" msgpack:"save_data"`
	SourceContextID string        `json:"source_context_id" msgpack:"source_context_id"`
}

// MovementSample is a GPS-derived speed reading.
type MovementSample struct {
	Timestamp   time.Time `json:"timestamp" msgpack:"timestamp"`
	VelocityKmh float64   `json:"velocity_kmh" msgpack:"velocity_kmh"`
	Latitude    float64   `json:"latitude" msgpack:"latitude"`
	Longitude   float64   `json:"longitude" msgpack:"longitude"`
	ContextID   string    `json:"context_id" msgpack:"context_id"`
}
