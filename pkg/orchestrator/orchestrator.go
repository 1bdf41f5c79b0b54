// Package orchestrator drives the Passive / Warning / ActiveFallback state
// machine. Events are handled one at a time from a single inbox; side effects
// are surface notifications, fallback pre-generation and persistence.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"network-orchestrator-be/internal/entity"
	"network-orchestrator-be/internal/pkg/logger"
	"network-orchestrator-be/pkg/events"
	"network-orchestrator-be/pkg/fallback"
	"network-orchestrator-be/pkg/history"
	"network-orchestrator-be/pkg/metrics"
	"network-orchestrator-be/pkg/prediction"
	"network-orchestrator-be/pkg/session"
	"network-orchestrator-be/pkg/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var ErrDeliveryFailed = errors.New("notification delivery failed")

// Notifier delivers a notification to the viewing surface. Failures wrap
// ErrDeliveryFailed.
type Notifier interface {
	Notify(ctx context.Context, n entity.SurfaceNotification) error
}

// Publisher announces state transitions on the event bus.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Predictor interface {
	Predict(ctx context.Context, latest entity.TelemetrySample, w prediction.Window) entity.Prediction
	BackendHealth() entity.BackendHealth
}

// IntervalController owns the sampling cadence.
type IntervalController interface {
	OnMovementSample(velocityKmh float64) time.Duration
	Interval() time.Duration
}

type Config struct {
	// CriticalDownlinkMbps confirms a predicted drop while in Warning.
	CriticalDownlinkMbps float64
	HistoryFlushInterval time.Duration
	PrewarmTimeout       time.Duration
	HorizonSeconds       int
}

func DefaultConfig() Config {
	return Config{
		CriticalDownlinkMbps: 0.15,
		HistoryFlushInterval: 10 * time.Second,
		PrewarmTimeout:       60 * time.Second,
		HorizonSeconds:       5,
	}
}

type Dependencies struct {
	History   *history.History
	Predictor Predictor
	Polling   IntervalController
	Sessions  *session.Store
	Fallback  *fallback.Cache
	Notifier  Notifier
	// Publisher is optional.
	Publisher Publisher
	Store     store.Store
	Logger    logger.ILogger
	Metrics   *metrics.Metrics
}

// Status is a read-only view for the API.
type Status struct {
	State          entity.SystemState   `json:"state"`
	IntervalMs     int64                `json:"polling_interval_ms"`
	HistoryLength  int                  `json:"history_length"`
	BackendHealth  entity.BackendHealth `json:"backend_health"`
	LastPrediction *entity.Prediction   `json:"last_prediction,omitempty"`
	Sessions       int                  `json:"sessions"`
	FallbackCache  fallback.Stats       `json:"fallback_cache"`
}

type Orchestrator struct {
	cfg Config
	Dependencies

	state State
	now   func() time.Time

	mu             sync.RWMutex
	lastPrediction *entity.Prediction

	prewarm sync.WaitGroup

	// bgCtx parents pre-generation; Close cancels it.
	bgCtx    context.Context
	cancelBg context.CancelFunc
}

func New(cfg Config, deps Dependencies) *Orchestrator {
	d := DefaultConfig()
	if cfg.CriticalDownlinkMbps <= 0 {
		cfg.CriticalDownlinkMbps = d.CriticalDownlinkMbps
	}
	if cfg.HistoryFlushInterval <= 0 {
		cfg.HistoryFlushInterval = d.HistoryFlushInterval
	}
	if cfg.PrewarmTimeout <= 0 {
		cfg.PrewarmTimeout = d.PrewarmTimeout
	}
	if cfg.HorizonSeconds <= 0 {
		cfg.HorizonSeconds = d.HorizonSeconds
	}
	o := &Orchestrator{cfg: cfg, Dependencies: deps, now: time.Now}
	o.bgCtx, o.cancelBg = context.WithCancel(context.Background())
	return o
}

func (o *Orchestrator) State() entity.SystemState {
	return o.state.Current()
}

func (o *Orchestrator) Status() Status {
	st := Status{
		State:         o.state.Current(),
		IntervalMs:    o.Polling.Interval().Milliseconds(),
		HistoryLength: o.History.Len(),
		BackendHealth: o.Predictor.BackendHealth(),
		Sessions:      len(o.Sessions.List()),
		FallbackCache: o.Fallback.Stats(),
	}
	o.mu.RLock()
	if o.lastPrediction != nil {
		p := *o.lastPrediction
		st.LastPrediction = &p
	}
	o.mu.RUnlock()
	return st
}

// Handle processes one inbound event. Callers must not invoke it
// concurrently; the inbox consumer is the only production caller.
func (o *Orchestrator) Handle(ctx context.Context, ev events.Inbound) error {
	ctx, span := otel.Tracer("sanchar/orchestrator").Start(ctx, "orchestrator.Handle")
	defer span.End()
	if ev != nil {
		span.SetAttributes(attribute.String("event.kind", string(ev.Kind())))
	}

	switch e := ev.(type) {
	case events.NetworkTelemetry:
		o.onTelemetry(ctx, e)
	case events.MovementSample:
		o.onMovement(ctx, e)
	case events.ViewingMetadata:
		o.onMetadata(ctx, e)
	case events.RestorationSignal:
		o.onRestoration(ctx, e)
	case events.FallbackRequest:
		if _, err := o.RequestFallback(ctx, e); err != nil {
			return err
		}
	case events.ContextTornDown:
		o.onTeardown(ctx, e)
	case events.PanicSignal:
		o.onPanic(ctx, e)
	default:
		return fmt.Errorf("%w: %T", events.ErrUnknownEvent, ev)
	}
	return nil
}

// RequestFallback is the synchronous, cache-first artifact lookup.
func (o *Orchestrator) RequestFallback(ctx context.Context, req events.FallbackRequest) (entity.FallbackArtifact, error) {
	return o.Fallback.GetOrProduce(ctx, req.PlatformTag, req.ContentID, req.PositionSeconds)
}

func (o *Orchestrator) onTelemetry(ctx context.Context, e events.NetworkTelemetry) {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = o.now()
	}
	sample := entity.TelemetrySample{
		Timestamp:       ts,
		EffectiveType:   entity.NormalizeEffectiveType(e.EffectiveType),
		DownlinkMbps:    e.DownlinkMbps,
		RTTMs:           e.RTTMs,
		SaveData:        e.SaveData,
		SourceContextID: e.ContextID,
	}
	o.History.Record(sample)
	o.Metrics.ObserveHistoryLength(o.History.Len())

	p := o.Predictor.Predict(ctx, sample, o.History)
	o.mu.Lock()
	o.lastPrediction = &p
	o.mu.Unlock()

	switch o.state.Current() {
	case entity.StatePassive:
		if p.DropPredicted {
			o.enterWarning(ctx, e.ContextID, p, "prediction")
		}
	case entity.StateWarning:
		if o.confirmsDegradation(sample) {
			o.enterActiveFallback(ctx, e.ContextID, "degradation_confirmed")
		}
	case entity.StateActiveFallback:
	}
}

// confirmsDegradation is true for samples that show the predicted drop has
// actually happened.
func (o *Orchestrator) confirmsDegradation(s entity.TelemetrySample) bool {
	switch s.EffectiveType {
	case entity.EffectiveTypeSlow2G, entity.EffectiveType2G:
		return true
	}
	return s.DownlinkMbps < o.cfg.CriticalDownlinkMbps
}

func (o *Orchestrator) onMovement(ctx context.Context, e events.MovementSample) {
	interval := o.Polling.OnMovementSample(e.VelocityKmh)

	if e.ContextID == "" {
		return
	}
	ts := e.Timestamp
	if ts.IsZero() {
		ts = o.now()
	}
	_, err := o.Sessions.RecordMovement(ctx, e.ContextID, entity.MovementSample{
		Timestamp:   ts,
		VelocityKmh: e.VelocityKmh,
		Latitude:    e.Latitude,
		Longitude:   e.Longitude,
		ContextID:   e.ContextID,
	})
	if err != nil {
		o.Logger.Warn("Orchestrator", "Failed to persist movement", map[string]interface{}{
			"context_id":  e.ContextID,
			"interval_ms": interval.Milliseconds(),
			"error":       err.Error(),
		})
	}
}

func (o *Orchestrator) onMetadata(ctx context.Context, e events.ViewingMetadata) {
	sess, err := o.Sessions.UpsertMetadata(ctx, e.ContextID, entity.SessionMetadata{
		ContentID:       e.ContentID,
		PlatformTag:     e.PlatformTag,
		PositionSeconds: e.PositionSeconds,
		DurationSeconds: e.DurationSeconds,
		Title:           e.Title,
		URL:             e.URL,
	})
	if err != nil {
		o.Logger.Warn("Orchestrator", "Failed to persist session metadata", map[string]interface{}{
			"context_id": e.ContextID,
			"error":      err.Error(),
		})
	}

	// Speculative: warm the cache while the network is still good.
	if o.state.Current() == entity.StatePassive && sess.HasContent() {
		o.pregenerate(e.ContextID)
	}
}

func (o *Orchestrator) onRestoration(ctx context.Context, e events.RestorationSignal) {
	from, ok := o.state.advance(entity.StatePassive)
	if !ok {
		return
	}
	o.afterTransition(ctx, from, entity.StatePassive, e.ContextID, "restoration")
	o.notify(ctx, entity.NotificationSignalRestored, e.ContextID, nil)
}

func (o *Orchestrator) onTeardown(ctx context.Context, e events.ContextTornDown) {
	if err := o.Sessions.Remove(ctx, e.ContextID); err != nil {
		o.Logger.Warn("Orchestrator", "Failed to remove persisted session", map[string]interface{}{
			"context_id": e.ContextID,
			"error":      err.Error(),
		})
	}
}

func (o *Orchestrator) onPanic(ctx context.Context, e events.PanicSignal) {
	switch o.state.Current() {
	case entity.StatePassive:
		p := entity.Prediction{
			DropPredicted:  true,
			Confidence:     1.0,
			HorizonSeconds: o.cfg.HorizonSeconds,
			Reasoning: entity.Reasoning{
				Model:       entity.ModelPanic,
				SampleCount: o.History.Len(),
				Details:     map[string]interface{}{"reason": e.Reason},
			},
		}
		o.enterWarning(ctx, e.ContextID, p, "panic")
	case entity.StateWarning:
		o.enterActiveFallback(ctx, e.ContextID, "panic")
	case entity.StateActiveFallback:
	}
}

func (o *Orchestrator) enterWarning(ctx context.Context, contextID string, p entity.Prediction, reason string) {
	from, ok := o.state.advance(entity.StateWarning)
	if !ok {
		return
	}
	o.afterTransition(ctx, from, entity.StateWarning, contextID, reason)
	o.notify(ctx, entity.NotificationPrepareFallback, contextID, p)
	o.pregenerate(contextID)
}

// enterActiveFallback changes state first; a missing session or failed
// production only degrades the notification payload.
func (o *Orchestrator) enterActiveFallback(ctx context.Context, contextID, reason string) {
	from, ok := o.state.advance(entity.StateActiveFallback)
	if !ok {
		return
	}
	o.afterTransition(ctx, from, entity.StateActiveFallback, contextID, reason)

	var payload interface{}
	if sess, found := o.Sessions.Get(contextID); found && sess.HasContent() {
		artifact, err := o.Fallback.GetOrProduce(ctx, sess.PlatformTag, sess.ContentID, sess.PositionSeconds)
		if err != nil {
			o.Logger.Error("Orchestrator", "Fallback artifact unavailable", map[string]interface{}{
				"context_id": contextID,
				"content_id": sess.ContentID,
				"error":      err.Error(),
			})
		} else {
			payload = artifact
		}
	}
	o.notify(ctx, entity.NotificationDisplayFallback, contextID, payload)
}

func (o *Orchestrator) afterTransition(ctx context.Context, from, to entity.SystemState, contextID, reason string) {
	o.Metrics.ObserveTransition(from.String(), to.String())
	o.Logger.Info("Orchestrator", "State transition", map[string]interface{}{
		"from":       from.String(),
		"to":         to.String(),
		"context_id": contextID,
		"reason":     reason,
	})

	if err := store.SetJSON(ctx, o.Store, store.KeyState, to); err != nil {
		o.Logger.Error("Orchestrator", "Failed to persist state", map[string]interface{}{
			"state": to.String(),
			"error": err.Error(),
		})
	}

	if o.Publisher != nil {
		ev := events.StateChanged{From: from.String(), To: to.String(), ContextID: contextID, Reason: reason, OccurredAt: o.now()}
		if err := o.Publisher.Publish(ctx, ev); err != nil {
			o.Logger.Warn("Orchestrator", "Failed to publish state change", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}

// notify never fails; the delivery result is logged and counted.
func (o *Orchestrator) notify(ctx context.Context, kind entity.NotificationKind, contextID string, payload interface{}) {
	n := entity.SurfaceNotification{
		ID:        uuid.New(),
		ContextID: contextID,
		Kind:      kind,
		State:     o.state.Current(),
		CreatedAt: o.now(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			o.Logger.Error("Orchestrator", "Failed to encode notification payload", map[string]interface{}{
				"kind":  string(kind),
				"error": err.Error(),
			})
		} else {
			n.Payload = raw
		}
	}

	err := o.Notifier.Notify(ctx, n)
	o.Metrics.ObserveNotification(string(kind), err == nil)
	if err != nil {
		o.Logger.Warn("Orchestrator", "Notification not delivered", map[string]interface{}{
			"kind":       string(kind),
			"context_id": contextID,
			"error":      err.Error(),
		})
	}
}

// pregenerate warms the fallback cache for contextID in the background.
// Contexts without a session or content id are skipped.
func (o *Orchestrator) pregenerate(contextID string) {
	sess, ok := o.Sessions.Get(contextID)
	if !ok || !sess.HasContent() {
		o.Logger.Debug("Orchestrator", "Skipping pre-generation, no session content", map[string]interface{}{
			"context_id": contextID,
		})
		return
	}

	if o.bgCtx.Err() != nil {
		return
	}

	o.prewarm.Add(1)
	go func() {
		defer o.prewarm.Done()
		ctx, cancel := context.WithTimeout(o.bgCtx, o.cfg.PrewarmTimeout)
		defer cancel()

		if _, err := o.Fallback.GetOrProduce(ctx, sess.PlatformTag, sess.ContentID, sess.PositionSeconds); err != nil {
			o.Logger.Warn("Orchestrator", "Fallback pre-generation failed", map[string]interface{}{
				"context_id": contextID,
				"content_id": sess.ContentID,
				"error":      err.Error(),
			})
		}
	}()
}

// WaitPregeneration blocks until in-flight pre-generation finishes.
func (o *Orchestrator) WaitPregeneration() {
	o.prewarm.Wait()
}
