package prediction

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"network-orchestrator-be/internal/entity"
	"network-orchestrator-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	mu        sync.Mutex
	name      string
	result    entity.Prediction
	err       error
	healthErr error
	delay     time.Duration
	calls     int
	lastBatch []SampleRecord
}

func (f *fakeRemote) Name() string { return f.name }

func (f *fakeRemote) Predict(ctx context.Context, samples []SampleRecord) (entity.Prediction, error) {
	f.mu.Lock()
	f.calls++
	f.lastBatch = samples
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return entity.Prediction{}, ctx.Err()
		}
	}
	return f.result, f.err
}

func (f *fakeRemote) Health(ctx context.Context) error { return f.healthErr }

func (f *fakeRemote) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newEngineWithRemote(t *testing.T, remote *fakeRemote) *Engine {
	t.Helper()
	log := logger.NewNopLogger()
	cfg := DefaultConfig()
	cfg.RemoteTimeout = 50 * time.Millisecond
	health := NewHealthMonitor(remote, time.Hour, time.Second, log, nil)
	health.Check(context.Background())
	return NewEngine(cfg, remote, health, log, nil)
}

func scenarioHistory() (entity.TelemetrySample, Window) {
	older := samplesFrom(
		[]float64{3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3},
		[]int{40, 40, 40, 40, 40, 40, 40, 40, 40, 40, 40, 40},
	)
	samples := append(older, samplesFrom(scenarioDownlink, scenarioRTT)...)
	return samples[len(samples)-1], historyOf(samples)
}

func TestEngine_DelegatesToHealthyRemote(t *testing.T) {
	remote := &fakeRemote{
		name:   "lstm-v1",
		result: entity.Prediction{DropPredicted: false, Confidence: 0.2, HorizonSeconds: 5},
	}
	engine := newEngineWithRemote(t, remote)
	latest, w := scenarioHistory()

	p := engine.Predict(context.Background(), latest, w)

	assert.Equal(t, 1, remote.callCount())
	assert.Len(t, remote.lastBatch, 20, "remote receives the last 20 samples")
	assert.Equal(t, "lstm-v1", p.Reasoning.Model)
	assert.False(t, p.DropPredicted)
	assert.Equal(t, 0.2, p.Confidence)
}

func TestEngine_RemoteFailureIsTransparent(t *testing.T) {
	latest, w := scenarioHistory()
	pure := NewEngine(DefaultConfig(), nil, nil, logger.NewNopLogger(), nil).Predict(context.Background(), latest, w)

	failures := map[string]*fakeRemote{
		"error":     {name: "lstm-v1", err: errors.New("boom")},
		"timeout":   {name: "lstm-v1", delay: time.Second, result: entity.Prediction{Confidence: 0.1, HorizonSeconds: 5}},
		"malformed": {name: "lstm-v1", result: entity.Prediction{Confidence: 3.5, HorizonSeconds: 5}},
		"no horizon": {name: "lstm-v1", result: entity.Prediction{Confidence: 0.5}},
	}

	for name, remote := range failures {
		t.Run(name, func(t *testing.T) {
			engine := newEngineWithRemote(t, remote)

			got := engine.Predict(context.Background(), latest, w)

			assert.Equal(t, 1, remote.callCount())
			assert.Equal(t, entity.ModelHeuristic, got.Reasoning.Model)
			assert.Equal(t, pure, got)
		})
	}
}

func TestEngine_SkipsUnhealthyRemote(t *testing.T) {
	remote := &fakeRemote{name: "lstm-v1", healthErr: errors.New("down")}
	engine := newEngineWithRemote(t, remote)
	latest, w := scenarioHistory()

	p := engine.Predict(context.Background(), latest, w)

	assert.Equal(t, 0, remote.callCount())
	assert.Equal(t, entity.ModelHeuristic, p.Reasoning.Model)
	assert.False(t, engine.BackendHealth().Available)
}

func TestEngine_InsufficientDataBypassesRemote(t *testing.T) {
	remote := &fakeRemote{name: "lstm-v1", result: entity.Prediction{DropPredicted: true, Confidence: 1, HorizonSeconds: 5}}
	engine := newEngineWithRemote(t, remote)
	samples := samplesFrom([]float64{1, 1, 1}, []int{1, 1, 1})

	p := engine.Predict(context.Background(), samples[2], historyOf(samples))

	require.Equal(t, 0, remote.callCount())
	assert.False(t, p.DropPredicted)
	assert.Equal(t, 0.0, p.Confidence)
}

func TestHealthMonitor_TracksTransitions(t *testing.T) {
	remote := &fakeRemote{name: "lstm-v1"}
	monitor := NewHealthMonitor(remote, time.Hour, time.Second, logger.NewNopLogger(), nil)
	fixed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	monitor.now = func() time.Time { return fixed }

	assert.False(t, monitor.Available(), "unknown until first check")

	h := monitor.Check(context.Background())
	assert.True(t, h.Available)
	assert.Equal(t, fixed, h.LastCheckedAt)

	remote.healthErr = errors.New("connection refused")
	assert.False(t, monitor.Check(context.Background()).Available)
	assert.False(t, monitor.Available())
}

func TestHealthMonitor_RunStopsWithContext(t *testing.T) {
	remote := &fakeRemote{name: "lstm-v1"}
	monitor := NewHealthMonitor(remote, 10*time.Millisecond, time.Second, logger.NewNopLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		monitor.Run(ctx)
		close(done)
	}()

	require.Eventually(t, monitor.Available, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
