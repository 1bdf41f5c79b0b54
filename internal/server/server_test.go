package server

import (
	"io"
	"net/http/httptest"
	"testing"

	"network-orchestrator-be/internal/bootstrap"
	"network-orchestrator-be/internal/config"
	"network-orchestrator-be/internal/controller"
	"network-orchestrator-be/internal/pkg/logger"
	"network-orchestrator-be/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(secret string) *Server {
	cfg := &config.Config{
		App:  config.AppConfig{CorsAllowedOrigins: "*"},
		Auth: config.AuthConfig{JWTSecret: secret},
	}
	m := metrics.New()
	m.ObserveInterval(500, true)
	c := &bootstrap.Container{
		Logger:                 logger.NewNopLogger(),
		Metrics:                m,
		OrchestratorController: controller.NewOrchestratorController(nil),
	}
	return New(cfg, c)
}

func TestHealthAndMetricsAreOpen(t *testing.T) {
	app := newTestServer("s3cret").GetApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/health", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "sanchar_polling_interval_milliseconds")
}

func TestAPIRequiresTokenWhenConfigured(t *testing.T) {
	app := newTestServer("s3cret").GetApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/state", nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}
