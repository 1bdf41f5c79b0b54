package entity

import "time"

const (
	ModelHeuristic = "heuristic"
	ModelPanic     = "panic"
)

// Reasoning is the diagnostic record attached to every Prediction.
type Reasoning struct {
	Model           string                 `json:"model"`
	SampleCount     int                    `json:"sample_count"`
	DownlinkTrend   float64                `json:"downlink_trend"`
	RTTTrend        float64                `json:"rtt_trend"`
	CurrentDownlink float64                `json:"current_downlink"`
	Signals         []string               `json:"signals,omitempty"`
	Details         map[string]interface{} `json:"details,omitempty"`
}

// Prediction is produced fresh on every telemetry ingestion and never persisted.
type Prediction struct {
	DropPredicted  bool      `json:"drop_predicted"`
	Confidence     float64   `json:"confidence"`
	HorizonSeconds int       `json:"horizon_seconds"`
	Reasoning      Reasoning `json:"reasoning"`
}

// BackendHealth tracks the remote predictor's availability.
type BackendHealth struct {
	Available     bool      `json:"available"`
	LastCheckedAt time.Time `json:"last_checked_at"`
}
