package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"network-orchestrator-be/internal/entity"
	"network-orchestrator-be/internal/pkg/serverutils"
	"network-orchestrator-be/pkg/events"
	"network-orchestrator-be/pkg/fallback"
	"network-orchestrator-be/pkg/orchestrator"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrchestratorService struct {
	ingested    []events.Inbound
	status      orchestrator.Status
	artifact    entity.FallbackArtifact
	fallbackErr error
	sessions    map[string]entity.Session
	cleared     int
}

func (f *fakeOrchestratorService) Ingest(ctx context.Context, ev events.Inbound) error {
	f.ingested = append(f.ingested, ev)
	if m, ok := ev.(events.MovementSample); ok && m.VelocityKmh > 60 {
		f.status.IntervalMs = 500
	}
	return nil
}

func (f *fakeOrchestratorService) Status() orchestrator.Status { return f.status }

func (f *fakeOrchestratorService) RequestFallback(ctx context.Context, req events.FallbackRequest) (entity.FallbackArtifact, error) {
	return f.artifact, f.fallbackErr
}

func (f *fakeOrchestratorService) Session(contextID string) (entity.Session, bool) {
	s, ok := f.sessions[contextID]
	return s, ok
}

func (f *fakeOrchestratorService) ClearFallbackCache(ctx context.Context) (int, error) {
	return f.cleared, nil
}

func newTestApp(svc *fakeOrchestratorService) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	NewOrchestratorController(svc).RegisterRoutes(app.Group("/api/v1"))
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return resp.StatusCode, out
}

func TestTelemetry(t *testing.T) {
	svc := &fakeOrchestratorService{status: orchestrator.Status{State: entity.StateWarning}}
	app := newTestApp(svc)

	code, body := doJSON(t, app, "POST", "/api/v1/telemetry",
		`{"effective_type":"3g","downlink_mbps":0.8,"rtt_ms":450,"context_id":"tab-1"}`)
	assert.Equal(t, fiber.StatusAccepted, code)
	assert.Equal(t, "WARNING", body["data"].(map[string]interface{})["state"])

	require.Len(t, svc.ingested, 1)
	assert.Equal(t, events.NetworkTelemetry{EffectiveType: "3g", DownlinkMbps: 0.8, RTTMs: 450, ContextID: "tab-1"}, svc.ingested[0])
}

func TestTelemetry_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing context", `{"effective_type":"4g","downlink_mbps":5}`},
		{"negative downlink", `{"downlink_mbps":-1,"context_id":"tab-1"}`},
		{"unknown effective type", `{"effective_type":"5g","downlink_mbps":5,"context_id":"tab-1"}`},
		{"missing downlink", `{"effective_type":"2g","rtt_ms":1500,"context_id":"tab-1"}`},
		{"null downlink", `{"effective_type":"2g","downlink_mbps":null,"context_id":"tab-1"}`},
		{"malformed", `{"context_id":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeOrchestratorService{}
			code, body := doJSON(t, newTestApp(svc), "POST", "/api/v1/telemetry", tt.body)
			assert.Equal(t, fiber.StatusBadRequest, code)
			assert.Equal(t, false, body["success"])
			assert.Empty(t, svc.ingested)
		})
	}
}

func TestMovement_ReturnsInterval(t *testing.T) {
	svc := &fakeOrchestratorService{status: orchestrator.Status{IntervalMs: 1000}}
	app := newTestApp(svc)

	code, body := doJSON(t, app, "POST", "/api/v1/movement", `{"velocity_kmh":72,"context_id":"tab-1"}`)
	assert.Equal(t, fiber.StatusAccepted, code)
	assert.Equal(t, 500.0, body["data"].(map[string]interface{})["polling_interval_ms"])
}

func TestSignals(t *testing.T) {
	svc := &fakeOrchestratorService{}
	app := newTestApp(svc)

	code, _ := doJSON(t, app, "POST", "/api/v1/restoration", `{"context_id":"tab-1"}`)
	assert.Equal(t, fiber.StatusAccepted, code)
	code, _ = doJSON(t, app, "POST", "/api/v1/panic", `{"context_id":"tab-1","reason":"buffering"}`)
	assert.Equal(t, fiber.StatusAccepted, code)
	code, _ = doJSON(t, app, "POST", "/api/v1/metadata", `{"context_id":"tab-1","content_id":"vid-1","platform_tag":"yt","position_seconds":42}`)
	assert.Equal(t, fiber.StatusAccepted, code)
	code, _ = doJSON(t, app, "DELETE", "/api/v1/contexts/tab-1", ``)
	assert.Equal(t, fiber.StatusAccepted, code)

	require.Len(t, svc.ingested, 4)
	assert.Equal(t, events.RestorationSignal{ContextID: "tab-1"}, svc.ingested[0])
	assert.Equal(t, events.PanicSignal{ContextID: "tab-1", Reason: "buffering"}, svc.ingested[1])
	meta := svc.ingested[2].(events.ViewingMetadata)
	require.NotNil(t, meta.PositionSeconds)
	assert.Equal(t, 42.0, *meta.PositionSeconds)
	assert.Nil(t, meta.DurationSeconds)
	assert.Equal(t, events.ContextTornDown{ContextID: "tab-1"}, svc.ingested[3])
}

func TestFallback(t *testing.T) {
	svc := &fakeOrchestratorService{artifact: entity.FallbackArtifact{
		PlatformTag: "yt",
		ContentID:   "vid-1",
		Payload:     json.RawMessage(`{"summary":"ok"}`),
		CachedAt:    time.Now(),
	}}
	app := newTestApp(svc)

	code, body := doJSON(t, app, "POST", "/api/v1/fallback", `{"content_id":"vid-1","platform_tag":"yt","position_seconds":10}`)
	assert.Equal(t, fiber.StatusOK, code)
	artifact := body["data"].(map[string]interface{})["artifact"].(map[string]interface{})
	assert.Equal(t, "vid-1", artifact["content_id"])

	code, _ = doJSON(t, app, "POST", "/api/v1/fallback", `{"platform_tag":"yt"}`)
	assert.Equal(t, fiber.StatusBadRequest, code)

	svc.fallbackErr = fmt.Errorf("%w: upstream 503", fallback.ErrProduction)
	code, _ = doJSON(t, app, "POST", "/api/v1/fallback", `{"content_id":"vid-1","platform_tag":"yt"}`)
	assert.Equal(t, fiber.StatusBadGateway, code)
}

func TestStateSessionAndCache(t *testing.T) {
	svc := &fakeOrchestratorService{
		status:   orchestrator.Status{State: entity.StateActiveFallback, IntervalMs: 1000, HistoryLength: 12},
		sessions: map[string]entity.Session{"tab-1": {ContextID: "tab-1", ContentID: "vid-1"}},
		cleared:  3,
	}
	app := newTestApp(svc)

	code, body := doJSON(t, app, "GET", "/api/v1/state", ``)
	assert.Equal(t, fiber.StatusOK, code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "ACTIVE_FALLBACK", data["state"])
	assert.Equal(t, 12.0, data["history_length"])

	code, body = doJSON(t, app, "GET", "/api/v1/sessions/tab-1", ``)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "vid-1", body["data"].(map[string]interface{})["content_id"])

	code, _ = doJSON(t, app, "GET", "/api/v1/sessions/missing", ``)
	assert.Equal(t, fiber.StatusNotFound, code)

	code, body = doJSON(t, app, "DELETE", "/api/v1/fallback/cache", ``)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, 3.0, body["data"].(map[string]interface{})["cleared"])
}
