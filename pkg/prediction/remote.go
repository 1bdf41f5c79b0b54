package prediction

import (
	"context"
	"errors"
	"time"

	"network-orchestrator-be/internal/entity"
)

// ErrMalformedResponse is returned when a remote predictor answers with a
// result outside the Prediction contract.
var ErrMalformedResponse = errors.New("malformed predictor response")

// SampleRecord is the predictor-agnostic shape sent to remote predictors.
type SampleRecord struct {
	Timestamp     float64 `json:"timestamp"`
	EffectiveType string  `json:"effective_type"`
	DownlinkMbps  float64 `json:"downlink_mbps"`
	RTTMs         int     `json:"rtt_ms"`
	SaveData      bool    `json:"save_data"`
}

// RemotePredictor is a drop-in replacement for the heuristic.
type RemotePredictor interface {
	// Name identifies the predictor in Reasoning.Model.
	Name() string
	Predict(ctx context.Context, samples []SampleRecord) (entity.Prediction, error)
	// Health returns nil when the predictor can serve requests.
	Health(ctx context.Context) error
}

// ToRecords converts samples to the remote record shape.
func ToRecords(samples []entity.TelemetrySample) []SampleRecord {
	records := make([]SampleRecord, len(samples))
	for i, s := range samples {
		records[i] = SampleRecord{
			Timestamp:     float64(s.Timestamp.UnixNano()) / float64(time.Second),
			EffectiveType: string(s.EffectiveType),
			DownlinkMbps:  s.DownlinkMbps,
			RTTMs:         s.RTTMs,
			SaveData:      s.SaveData,
		}
	}
	return records
}

// validate enforces the Prediction contract on remote output.
func validate(p entity.Prediction) error {
	if p.Confidence < 0 || p.Confidence > 1 {
		return ErrMalformedResponse
	}
	if p.HorizonSeconds <= 0 {
		return ErrMalformedResponse
	}
	return nil
}
