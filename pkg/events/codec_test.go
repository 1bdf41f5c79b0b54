package events

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func floatPtr(f float64) *float64 { return &f }

func TestCodec_EveryKind(t *testing.T) {
	ts := time.Date(2026, 4, 1, 8, 30, 0, 0, time.UTC)
	cases := []Inbound{
		NetworkTelemetry{EffectiveType: "3g", DownlinkMbps: 1.2, RTTMs: 180, SaveData: true, ContextID: "tab-1", Timestamp: ts},
		MovementSample{VelocityKmh: 88, Latitude: 12.97, Longitude: 77.59, ContextID: "tab-1", Timestamp: ts},
		ViewingMetadata{ContentID: "abc", PlatformTag: "youtube", PositionSeconds: floatPtr(12.5), ContextID: "tab-1"},
		RestorationSignal{ContextID: "tab-1"},
		FallbackRequest{ContentID: "abc", PlatformTag: "youtube", PositionSeconds: 30},
		ContextTornDown{ContextID: "tab-1"},
		PanicSignal{ContextID: "tab-1", Reason: "buffering"},
	}
	require.Len(t, cases, len(Kinds), "one case per kind")

	for _, ev := range cases {
		t.Run(string(ev.Kind()), func(t *testing.T) {
			data, err := Encode(ev)
			require.NoError(t, err)

			got, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, ev, got)
		})
	}
}

func TestDecode_UnknownKind(t *testing.T) {
	data, err := msgpack.Marshal(Envelope{Kind: "reboot", Body: msgpack.RawMessage{0xc0}})
	require.NoError(t, err)

	_, err = Decode(data)
	assert.True(t, errors.Is(err, ErrUnknownEvent))
}

func TestDecodeJSON(t *testing.T) {
	got, err := DecodeJSON(KindTelemetry, []byte(`{"effective_type":"2g","downlink_mbps":0.1,"rtt_ms":900,"context_id":"tab-3"}`))
	require.NoError(t, err)

	tel, ok := got.(NetworkTelemetry)
	require.True(t, ok)
	assert.Equal(t, "2g", tel.EffectiveType)
	assert.Equal(t, 900, tel.RTTMs)

	_, err = DecodeJSON("unknown", []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownEvent)

	_, err = DecodeJSON(KindPanic, []byte(`{`))
	assert.Error(t, err)
}

func TestStateChangedPayload(t *testing.T) {
	ev := StateChanged{From: "PASSIVE", To: "WARNING", ContextID: "tab-1", Reason: "prediction", OccurredAt: time.Unix(0, 0)}
	assert.Equal(t, "outbound.state_changed", ev.EventType())
	assert.Equal(t, "WARNING", ev.Payload()["to"])
}
