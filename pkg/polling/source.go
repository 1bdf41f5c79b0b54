package polling

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"network-orchestrator-be/internal/entity"
)

var ErrSourceExhausted = errors.New("telemetry source exhausted")

// TelemetrySource yields parsed network samples. Acquisition is up to the
// implementation.
type TelemetrySource interface {
	Sample(ctx context.Context) (entity.TelemetrySample, error)
}

type MovementSource interface {
	Movement(ctx context.Context) (entity.MovementSample, error)
}

// ScriptedSource replays a fixed sequence of samples, stamping each with the
// current time.
type ScriptedSource struct {
	mu      sync.Mutex
	samples []entity.TelemetrySample
	next    int
	loop    bool
	now     func() time.Time
}

func NewScriptedSource(samples []entity.TelemetrySample, loop bool) *ScriptedSource {
	return &ScriptedSource{samples: samples, loop: loop, now: time.Now}
}

func (s *ScriptedSource) Sample(ctx context.Context) (entity.TelemetrySample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next >= len(s.samples) {
		if !s.loop || len(s.samples) == 0 {
			return entity.TelemetrySample{}, ErrSourceExhausted
		}
		s.next = 0
	}
	sample := s.samples[s.next]
	s.next++
	sample.Timestamp = s.now()
	return sample, nil
}

// ScriptedMovement replays velocities for one context.
type ScriptedMovement struct {
	mu         sync.Mutex
	contextID  string
	velocities []float64
	next       int
}

func NewScriptedMovement(contextID string, velocities []float64) *ScriptedMovement {
	return &ScriptedMovement{contextID: contextID, velocities: velocities}
}

func (s *ScriptedMovement) Movement(ctx context.Context) (entity.MovementSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next >= len(s.velocities) {
		return entity.MovementSample{}, ErrSourceExhausted
	}
	v := s.velocities[s.next]
	s.next++
	return entity.MovementSample{Timestamp: time.Now(), VelocityKmh: v, ContextID: s.contextID}, nil
}

// HTTPProbeSource estimates link quality by downloading a probe object.
// Time to response headers approximates RTT; body bytes over total time give
// the downlink.
type HTTPProbeSource struct {
	URL       string
	ContextID string
	Client    *http.Client
}

func NewHTTPProbeSource(url, contextID string, timeout time.Duration) *HTTPProbeSource {
	return &HTTPProbeSource{
		URL:       url,
		ContextID: contextID,
		Client:    &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProbeSource) Sample(ctx context.Context) (entity.TelemetrySample, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return entity.TelemetrySample{}, fmt.Errorf("create probe request: %w", err)
	}

	start := time.Now()
	resp, err := p.Client.Do(req)
	if err != nil {
		return entity.TelemetrySample{}, fmt.Errorf("probe request failed: %w", err)
	}
	defer resp.Body.Close()
	rtt := time.Since(start)

	n, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return entity.TelemetrySample{}, fmt.Errorf("read probe body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return entity.TelemetrySample{}, fmt.Errorf("probe error: status %d", resp.StatusCode)
	}

	elapsed := time.Since(start).Seconds()
	downlink := 0.0
	if elapsed > 0 {
		downlink = float64(n*8) / elapsed / 1e6
	}
	rttMs := int(rtt.Milliseconds())

	return entity.TelemetrySample{
		Timestamp:       time.Now(),
		EffectiveType:   ClassifyEffectiveType(downlink, rttMs),
		DownlinkMbps:    downlink,
		RTTMs:           rttMs,
		SourceContextID: p.ContextID,
	}, nil
}

// ClassifyEffectiveType maps measurements onto the Network Information API
// buckets.
func ClassifyEffectiveType(downlinkMbps float64, rttMs int) entity.EffectiveType {
	switch {
	case rttMs >= 2000 || downlinkMbps < 0.05:
		return entity.EffectiveTypeSlow2G
	case rttMs >= 1400 || downlinkMbps < 0.07:
		return entity.EffectiveType2G
	case rttMs >= 270 || downlinkMbps < 0.7:
		return entity.EffectiveType3G
	default:
		return entity.EffectiveType4G
	}
}
