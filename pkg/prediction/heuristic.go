package prediction

import (
	"math"

	"network-orchestrator-be/internal/entity"
)

// Signal weights. They sum to exactly 1.0.
const (
	WeightLowThroughput      = 0.4
	WeightDroppingThroughput = 0.3
	WeightRisingLatency      = 0.3

	DroppingDownlinkTrend = -0.3
	RisingRTTTrend        = 0.5
)

const (
	SignalLowThroughput      = "low_throughput"
	SignalDroppingThroughput = "dropping_throughput"
	SignalRisingLatency      = "rising_latency"
)

// Trend is the relative change between the first and last value.
// It is 0 for fewer than two values or when the first value is 0.
func Trend(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	first := values[0]
	if first == 0 {
		return 0
	}
	return (values[len(values)-1] - first) / first
}

// Heuristic scores the trend window with three additive boolean signals.
type Heuristic struct {
	cfg Config
}

func NewHeuristic(cfg Config) *Heuristic {
	return &Heuristic{cfg: cfg.withDefaults()}
}

// Evaluate scores window (oldest first). latest supplies the current downlink.
func (h *Heuristic) Evaluate(latest entity.TelemetrySample, window []entity.TelemetrySample) entity.Prediction {
	downlinks := make([]float64, len(window))
	rtts := make([]float64, len(window))
	for i, s := range window {
		downlinks[i] = s.DownlinkMbps
		rtts[i] = float64(s.RTTMs)
	}

	downlinkTrend := Trend(downlinks)
	rttTrend := Trend(rtts)
	current := latest.DownlinkMbps

	confidence := 0.0
	var signals []string
	if current < h.cfg.LowDownlinkMbps {
		confidence += WeightLowThroughput
		signals = append(signals, SignalLowThroughput)
	}
	if downlinkTrend < DroppingDownlinkTrend {
		confidence += WeightDroppingThroughput
		signals = append(signals, SignalDroppingThroughput)
	}
	if rttTrend > RisingRTTTrend {
		confidence += WeightRisingLatency
		signals = append(signals, SignalRisingLatency)
	}
	confidence = math.Min(confidence, 1.0)

	return entity.Prediction{
		DropPredicted:  confidence > h.cfg.Threshold,
		Confidence:     confidence,
		HorizonSeconds: h.cfg.HorizonSeconds,
		Reasoning: entity.Reasoning{
			Model:           entity.ModelHeuristic,
			SampleCount:     len(window),
			DownlinkTrend:   downlinkTrend,
			RTTTrend:        rttTrend,
			CurrentDownlink: current,
			Signals:         signals,
		},
	}
}

// Insufficient is the defined no-prediction result for short histories.
func (h *Heuristic) Insufficient(sampleCount int) entity.Prediction {
	return entity.Prediction{
		DropPredicted:  false,
		Confidence:     0,
		HorizonSeconds: h.cfg.HorizonSeconds,
		Reasoning: entity.Reasoning{
			Model:       entity.ModelHeuristic,
			SampleCount: sampleCount,
			Details:     map[string]interface{}{"insufficient_data": true},
		},
	}
}
