package polling

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"network-orchestrator-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptedSource(t *testing.T) {
	samples := []entity.TelemetrySample{{DownlinkMbps: 2}, {DownlinkMbps: 1}}

	t.Run("exhausts", func(t *testing.T) {
		src := NewScriptedSource(samples, false)
		for range samples {
			_, err := src.Sample(context.Background())
			require.NoError(t, err)
		}
		_, err := src.Sample(context.Background())
		assert.ErrorIs(t, err, ErrSourceExhausted)
	})

	t.Run("loops", func(t *testing.T) {
		src := NewScriptedSource(samples, true)
		var got []float64
		for i := 0; i < 5; i++ {
			s, err := src.Sample(context.Background())
			require.NoError(t, err)
			assert.False(t, s.Timestamp.IsZero())
			got = append(got, s.DownlinkMbps)
		}
		assert.Equal(t, []float64{2, 1, 2, 1, 2}, got)
	})
}

func TestClassifyEffectiveType(t *testing.T) {
	tests := []struct {
		downlink float64
		rtt      int
		want     entity.EffectiveType
	}{
		{downlink: 10, rtt: 50, want: entity.EffectiveType4G},
		{downlink: 0.5, rtt: 100, want: entity.EffectiveType3G},
		{downlink: 5, rtt: 300, want: entity.EffectiveType3G},
		{downlink: 0.06, rtt: 100, want: entity.EffectiveType2G},
		{downlink: 0.01, rtt: 100, want: entity.EffectiveTypeSlow2G},
		{downlink: 10, rtt: 2500, want: entity.EffectiveTypeSlow2G},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyEffectiveType(tt.downlink, tt.rtt), "downlink=%v rtt=%v", tt.downlink, tt.rtt)
	}
}

func TestHTTPProbeSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64*1024)))
	}))
	defer srv.Close()

	src := NewHTTPProbeSource(srv.URL, "tab-9", time.Second)
	s, err := src.Sample(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "tab-9", s.SourceContextID)
	assert.Greater(t, s.DownlinkMbps, 0.0)
	assert.GreaterOrEqual(t, s.RTTMs, 0)
}

func TestHTTPProbeSource_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHTTPProbeSource(srv.URL, "tab-9", time.Second).Sample(context.Background())
	assert.Error(t, err)
}
