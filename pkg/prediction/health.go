package prediction

import (
	"context"
	"sync"
	"time"

	"network-orchestrator-be/internal/entity"
	"network-orchestrator-be/internal/pkg/logger"
	"network-orchestrator-be/pkg/metrics"
)

// DefaultHealthInterval is how often the remote predictor is re-probed.
const DefaultHealthInterval = 5 * time.Minute

// HealthMonitor owns BackendHealth for one remote predictor.
type HealthMonitor struct {
	remote   RemotePredictor
	interval time.Duration
	timeout  time.Duration
	logger   logger.ILogger
	metrics  *metrics.Metrics
	now      func() time.Time

	mu      sync.RWMutex
	health  entity.BackendHealth
	checked bool
}

func NewHealthMonitor(remote RemotePredictor, interval, timeout time.Duration, log logger.ILogger, m *metrics.Metrics) *HealthMonitor {
	if interval <= 0 {
		interval = DefaultHealthInterval
	}
	if timeout <= 0 {
		timeout = DefaultConfig().RemoteTimeout
	}
	return &HealthMonitor{
		remote:   remote,
		interval: interval,
		timeout:  timeout,
		logger:   log,
		metrics:  m,
		now:      time.Now,
	}
}

// Check probes the predictor once and records the outcome. Transitions
// between available and unavailable are logged.
func (h *HealthMonitor) Check(ctx context.Context) entity.BackendHealth {
	probeCtx, cancel := context.WithTimeout(ctx, h.timeout)
	err := h.remote.Health(probeCtx)
	cancel()

	next := entity.BackendHealth{Available: err == nil, LastCheckedAt: h.now()}

	h.mu.Lock()
	prev := h.health
	first := !h.checked
	h.health = next
	h.checked = true
	h.mu.Unlock()

	h.metrics.ObservePredictorHealth(next.Available)

	if first || prev.Available != next.Available {
		details := map[string]interface{}{"predictor": h.remote.Name(), "available": next.Available}
		if err != nil {
			details["error"] = err.Error()
			h.logger.Warn("PredictionEngine", "Remote predictor unavailable", details)
		} else {
			h.logger.Info("PredictionEngine", "Remote predictor available", details)
		}
	}
	return next
}

// Available reports the latest recorded result.
func (h *HealthMonitor) Available() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.health.Available
}

func (h *HealthMonitor) Health() entity.BackendHealth {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.health
}

// Run checks immediately and then every interval until ctx is done.
func (h *HealthMonitor) Run(ctx context.Context) {
	h.Check(ctx)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}
