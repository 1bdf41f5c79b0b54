package nats

import (
	"testing"
	"time"

	"network-orchestrator-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInbound(t *testing.T) {
	ev, err := DecodeInbound("events.inbound.telemetry", []byte(`{"effective_type":"3g","downlink_mbps":1.2,"rtt_ms":300,"context_id":"tab-9"}`))
	require.NoError(t, err)

	telemetry, ok := ev.(events.NetworkTelemetry)
	require.True(t, ok)
	assert.Equal(t, "tab-9", telemetry.ContextID)
	assert.Equal(t, 300, telemetry.RTTMs)

	ev, err = DecodeInbound("events.inbound.panic", []byte(`{"context_id":"tab-9","reason":"buffering"}`))
	require.NoError(t, err)
	assert.Equal(t, events.PanicSignal{ContextID: "tab-9", Reason: "buffering"}, ev)
}

func TestDecodeInbound_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		body    string
	}{
		{"unknown kind", "events.inbound.weather", `{}`},
		{"outbound subject", "events.outbound.state_changed", `{}`},
		{"empty kind", "events.inbound.", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeInbound(tt.subject, []byte(tt.body))
			assert.ErrorIs(t, err, events.ErrUnknownEvent)
		})
	}

	_, err := DecodeInbound("events.inbound.movement", []byte(`not json`))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, events.ErrUnknownEvent)
}

func TestSubject(t *testing.T) {
	ev := events.StateChanged{From: "PASSIVE", To: "WARNING", OccurredAt: time.Now()}
	assert.Equal(t, "events.outbound.state_changed", Subject(ev))
}
