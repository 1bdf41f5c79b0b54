package prediction

import (
	"context"
	"testing"
	"time"

	"network-orchestrator-be/internal/entity"
	"network-orchestrator-be/internal/pkg/logger"
	"network-orchestrator-be/pkg/history"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrend(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{name: "empty", values: nil, want: 0},
		{name: "single value", values: []float64{42}, want: 0},
		{name: "zero first", values: []float64{0, 7}, want: 0},
		{name: "halving", values: []float64{10, 5}, want: -0.5},
		{name: "doubling", values: []float64{10, 20}, want: 1.0},
		{name: "only endpoints matter", values: []float64{10, 1000, -3, 15}, want: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Trend(tt.values))
		})
	}
}

func samplesFrom(downlink []float64, rtt []int) []entity.TelemetrySample {
	out := make([]entity.TelemetrySample, len(downlink))
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := range downlink {
		out[i] = entity.TelemetrySample{
			Timestamp:       base.Add(time.Duration(i) * time.Second),
			EffectiveType:   entity.EffectiveType4G,
			DownlinkMbps:    downlink[i],
			RTTMs:           rtt[i],
			SourceContextID: "tab-1",
		}
	}
	return out
}

func historyOf(samples []entity.TelemetrySample) *history.History {
	h := history.New(history.DefaultCapacity)
	for _, s := range samples {
		h.Record(s)
	}
	return h
}

var (
	scenarioDownlink = []float64{2.0, 1.8, 1.5, 1.2, 0.9, 0.6, 0.4, 0.3, 0.2, 0.1}
	scenarioRTT      = []int{50, 60, 70, 90, 120, 150, 200, 260, 330, 400}
)

func TestHeuristic_DropScenario(t *testing.T) {
	samples := samplesFrom(scenarioDownlink, scenarioRTT)
	h := NewHeuristic(DefaultConfig())

	p := h.Evaluate(samples[len(samples)-1], samples)

	assert.InDelta(t, -0.95, p.Reasoning.DownlinkTrend, 1e-9)
	assert.InDelta(t, 7.0, p.Reasoning.RTTTrend, 1e-9)
	assert.Equal(t, 0.1, p.Reasoning.CurrentDownlink)
	assert.Equal(t, 1.0, p.Confidence)
	assert.True(t, p.DropPredicted)
	assert.Equal(t, 5, p.HorizonSeconds)
	assert.Equal(t, entity.ModelHeuristic, p.Reasoning.Model)
	assert.ElementsMatch(t, []string{SignalLowThroughput, SignalDroppingThroughput, SignalRisingLatency}, p.Reasoning.Signals)
}

func TestHeuristic_ConfidenceMonotonic(t *testing.T) {
	h := NewHeuristic(DefaultConfig())

	flatDown := []float64{2, 2, 2, 2, 2, 2, 2, 2, 2, 2}
	fallingDown := []float64{2, 2, 2, 2, 2, 2, 2, 2, 2, 1}
	flatRTT := []int{50, 50, 50, 50, 50, 50, 50, 50, 50, 50}
	risingRTT := []int{50, 50, 50, 50, 50, 50, 50, 50, 50, 100}

	cases := []struct {
		name     string
		down     []float64
		rtt      []int
		current  float64
		want     float64
		wantDrop bool
	}{
		{name: "no signals", down: flatDown, rtt: flatRTT, current: 2, want: 0},
		{name: "low throughput only", down: flatDown, rtt: flatRTT, current: 0.3, want: 0.4},
		{name: "low + dropping", down: fallingDown, rtt: flatRTT, current: 0.3, want: 0.7},
		{name: "all three", down: fallingDown, rtt: risingRTT, current: 0.3, want: 1.0, wantDrop: true},
		{name: "dropping + rising", down: fallingDown, rtt: risingRTT, current: 1, want: 0.6},
	}

	prev := -1.0
	for _, tc := range cases[:4] {
		samples := samplesFrom(tc.down, tc.rtt)
		latest := samples[len(samples)-1]
		latest.DownlinkMbps = tc.current
		p := h.Evaluate(latest, samples)
		assert.GreaterOrEqual(t, p.Confidence, prev, tc.name)
		prev = p.Confidence
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			samples := samplesFrom(tc.down, tc.rtt)
			latest := samples[len(samples)-1]
			latest.DownlinkMbps = tc.current

			p := h.Evaluate(latest, samples)
			assert.InDelta(t, tc.want, p.Confidence, 1e-9)
			assert.Equal(t, tc.wantDrop, p.DropPredicted)
		})
	}
}

func TestEngine_NoPredictionFloor(t *testing.T) {
	engine := NewEngine(DefaultConfig(), nil, nil, logger.NewNopLogger(), nil)

	// Terrible readings, but only 9 of them.
	samples := samplesFrom(
		[]float64{2, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.05},
		[]int{10, 900, 900, 900, 900, 900, 900, 900, 900},
	)
	h := history.New(history.DefaultCapacity)
	for i, s := range samples {
		h.Record(s)
		p := engine.Predict(context.Background(), s, h)
		require.False(t, p.DropPredicted, "sample %d", i)
		require.Equal(t, 0.0, p.Confidence, "sample %d", i)
	}
}

func TestEngine_ScenarioThroughHistory(t *testing.T) {
	engine := NewEngine(DefaultConfig(), nil, nil, logger.NewNopLogger(), nil)
	samples := samplesFrom(scenarioDownlink, scenarioRTT)
	h := historyOf(samples)

	p := engine.Predict(context.Background(), samples[len(samples)-1], h)

	assert.True(t, p.DropPredicted)
	assert.Equal(t, 1.0, p.Confidence)
	assert.Equal(t, 10, p.Reasoning.SampleCount)
}

func TestEngine_UsesOnlyLastTenSamples(t *testing.T) {
	engine := NewEngine(DefaultConfig(), nil, nil, logger.NewNopLogger(), nil)

	// 5 healthy samples with a high first downlink, then the scenario.
	older := samplesFrom([]float64{50, 50, 50, 50, 50}, []int{5, 5, 5, 5, 5})
	samples := append(older, samplesFrom(scenarioDownlink, scenarioRTT)...)
	h := historyOf(samples)

	p := engine.Predict(context.Background(), samples[len(samples)-1], h)
	assert.InDelta(t, -0.95, p.Reasoning.DownlinkTrend, 1e-9)
	assert.InDelta(t, 7.0, p.Reasoning.RTTTrend, 1e-9)
}
