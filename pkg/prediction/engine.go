// Package prediction turns recent telemetry into a signal-drop forecast.
//
// The trend heuristic is the full prediction contract. A RemotePredictor can
// be plugged in; whenever it is unhealthy, slow or returns garbage the engine
// falls back to the heuristic without surfacing an error.
package prediction

import (
	"context"

	"network-orchestrator-be/internal/entity"
	"network-orchestrator-be/internal/pkg/logger"
	"network-orchestrator-be/pkg/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Window is the read side of the sample history.
type Window interface {
	Len() int
	Recent(n int) []entity.TelemetrySample
}

type Engine struct {
	cfg       Config
	heuristic *Heuristic
	remote    RemotePredictor
	health    *HealthMonitor
	logger    logger.ILogger
	metrics   *metrics.Metrics
}

// NewEngine builds an engine. remote and health may be nil for a
// heuristic-only engine.
func NewEngine(cfg Config, remote RemotePredictor, health *HealthMonitor, log logger.ILogger, m *metrics.Metrics) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{
		cfg:       cfg,
		heuristic: NewHeuristic(cfg),
		remote:    remote,
		health:    health,
		logger:    log,
		metrics:   m,
	}
}

// Predict never fails: remote errors degrade to the heuristic.
func (e *Engine) Predict(ctx context.Context, latest entity.TelemetrySample, w Window) entity.Prediction {
	ctx, span := otel.Tracer("sanchar/prediction").Start(ctx, "prediction.Predict")
	defer span.End()

	n := w.Len()
	if n < e.cfg.MinSamples {
		span.SetAttributes(attribute.Bool("insufficient_data", true))
		return e.heuristic.Insufficient(n)
	}

	if e.remoteReady() {
		if p, ok := e.predictRemote(ctx, w); ok {
			e.record(span, p)
			return p
		}
	}

	p := e.heuristic.Evaluate(latest, w.Recent(e.cfg.TrendWindow))
	e.record(span, p)
	return p
}

func (e *Engine) remoteReady() bool {
	return e.remote != nil && e.health != nil && e.health.Available()
}

func (e *Engine) predictRemote(ctx context.Context, w Window) (entity.Prediction, bool) {
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.RemoteTimeout)
	defer cancel()

	records := ToRecords(w.Recent(e.cfg.RemoteWindow))
	p, err := e.remote.Predict(callCtx, records)
	if err == nil {
		err = validate(p)
	}
	if err != nil {
		e.logger.Warn("PredictionEngine", "Remote prediction failed, using heuristic", map[string]interface{}{
			"predictor": e.remote.Name(),
			"error":     err.Error(),
		})
		return entity.Prediction{}, false
	}

	p.Reasoning.Model = e.remote.Name()
	return p, true
}

func (e *Engine) record(span trace.Span, p entity.Prediction) {
	span.SetAttributes(
		attribute.String("model", p.Reasoning.Model),
		attribute.Float64("confidence", p.Confidence),
		attribute.Bool("drop_predicted", p.DropPredicted),
	)
	e.metrics.ObservePrediction(p.Reasoning.Model, p.DropPredicted)
}

// BackendHealth is the zero value when no remote predictor is configured.
func (e *Engine) BackendHealth() entity.BackendHealth {
	if e.health == nil {
		return entity.BackendHealth{}
	}
	return e.health.Health()
}
