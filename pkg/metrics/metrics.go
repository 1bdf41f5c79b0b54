// Package metrics exposes the orchestrator's Prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sanchar"

// Metrics groups every instrument. Components accept a nil *Metrics.
type Metrics struct {
	Registry *prometheus.Registry

	PredictionsTotal     *prometheus.CounterVec
	TransitionsTotal     *prometheus.CounterVec
	NotificationsTotal   *prometheus.CounterVec
	PollingInterval      prometheus.Gauge
	PollingReschedules   prometheus.Counter
	FallbackCacheLookups *prometheus.CounterVec
	PredictorAvailable   prometheus.Gauge
	HistoryLength        prometheus.Gauge
}

// New registers all instruments on a dedicated registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		PredictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "sentry",
				Name:      "predictions_total",
				Help:      "Predictions produced, by model and outcome",
			},
			[]string{"model", "drop_predicted"},
		),
		TransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "orchestrator",
				Name:      "transitions_total",
				Help:      "System state transitions",
			},
			[]string{"from", "to"},
		),
		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "orchestrator",
				Name:      "notifications_total",
				Help:      "Viewing surface notifications, by kind and delivery result",
			},
			[]string{"kind", "result"},
		),
		PollingInterval: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "polling",
				Name:      "interval_milliseconds",
				Help:      "Current telemetry sampling interval",
			},
		),
		PollingReschedules: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "polling",
				Name:      "reschedules_total",
				Help:      "Sampling timer restarts caused by interval changes",
			},
		),
		FallbackCacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "fallback",
				Name:      "cache_lookups_total",
				Help:      "Fallback cache lookups by result (hit, archive, produced, error)",
			},
			[]string{"result"},
		),
		PredictorAvailable: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "sentry",
				Name:      "remote_predictor_available",
				Help:      "1 when the remote predictor passed its last health check",
			},
		),
		HistoryLength: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "sentry",
				Name:      "history_length",
				Help:      "Samples currently retained in the telemetry history",
			},
		),
	}

	reg.MustRegister(
		m.PredictionsTotal,
		m.TransitionsTotal,
		m.NotificationsTotal,
		m.PollingInterval,
		m.PollingReschedules,
		m.FallbackCacheLookups,
		m.PredictorAvailable,
		m.HistoryLength,
	)
	return m
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func (m *Metrics) ObservePrediction(model string, drop bool) {
	if m == nil {
		return
	}
	m.PredictionsTotal.WithLabelValues(model, boolLabel(drop)).Inc()
}

func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.TransitionsTotal.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ObserveNotification(kind string, delivered bool) {
	if m == nil {
		return
	}
	result := "delivered"
	if !delivered {
		result = "failed"
	}
	m.NotificationsTotal.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) ObserveInterval(ms int64, rescheduled bool) {
	if m == nil {
		return
	}
	m.PollingInterval.Set(float64(ms))
	if rescheduled {
		m.PollingReschedules.Inc()
	}
}

func (m *Metrics) ObserveCacheLookup(result string) {
	if m == nil {
		return
	}
	m.FallbackCacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ObservePredictorHealth(available bool) {
	if m == nil {
		return
	}
	if available {
		m.PredictorAvailable.Set(1)
	} else {
		m.PredictorAvailable.Set(0)
	}
}

func (m *Metrics) ObserveHistoryLength(n int) {
	if m == nil {
		return
	}
	m.HistoryLength.Set(float64(n))
}
