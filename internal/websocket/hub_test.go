package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"network-orchestrator-be/internal/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T, rdb *redis.Client) *Hub {
	t.Helper()
	h := NewHub(rdb, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)
	return h
}

func connect(t *testing.T, h *Hub, contextID string, buffer int) *Client {
	t.Helper()
	c := &Client{Hub: h, ContextID: contextID, Send: make(chan []byte, buffer)}
	before := h.ClientCount(contextID)
	h.Register(c)
	require.Eventually(t, func() bool { return h.ClientCount(contextID) == before+1 }, time.Second, time.Millisecond)
	return c
}

func TestHub_SendToContext(t *testing.T) {
	h := startHub(t, nil)
	tab1 := connect(t, h, "tab-1", 4)
	tab2 := connect(t, h, "tab-2", 4)

	require.NoError(t, h.Send(context.Background(), "tab-1", []byte(`{"kind":"PREPARE_FALLBACK"}`)))

	assert.Equal(t, `{"kind":"PREPARE_FALLBACK"}`, string(<-tab1.Send))
	assert.Len(t, tab2.Send, 0)
}

func TestHub_Broadcast(t *testing.T) {
	h := startHub(t, nil)
	tab1 := connect(t, h, "tab-1", 4)
	tab2 := connect(t, h, "tab-2", 4)

	require.NoError(t, h.Send(context.Background(), "", []byte(`{}`)))
	assert.Len(t, tab1.Send, 1)
	assert.Len(t, tab2.Send, 1)
}

func TestHub_NoRecipient(t *testing.T) {
	h := startHub(t, nil)

	err := h.Send(context.Background(), "tab-404", []byte(`{}`))
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestHub_DropsSlowClient(t *testing.T) {
	h := startHub(t, nil)
	slow := connect(t, h, "tab-1", 1)

	require.NoError(t, h.Send(context.Background(), "tab-1", []byte(`1`)))
	err := h.Send(context.Background(), "tab-1", []byte(`2`))
	assert.ErrorIs(t, err, ErrNoRecipient)
	assert.Equal(t, 0, h.ClientCount("tab-1"))

	<-slow.Send
	_, open := <-slow.Send
	assert.False(t, open, "dropped client channel is closed")
}

func TestHub_RelaysThroughRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	sub := mr.NewSubscriber()
	sub.Subscribe(relayChannel)
	received := make(chan miniredis.PubsubMessage, 1)
	go func() { received <- <-sub.Messages() }()

	h := NewHub(rdb, logger.NewNopLogger())
	require.NoError(t, h.Send(context.Background(), "tab-elsewhere", []byte(`{"kind":"SIGNAL_RESTORED"}`)))

	select {
	case msg := <-received:
		var env relayEnvelope
		require.NoError(t, json.Unmarshal([]byte(msg.Message), &env))
		assert.Equal(t, "tab-elsewhere", env.Target)
		assert.Equal(t, h.instanceID, env.Origin)
		assert.JSONEq(t, `{"kind":"SIGNAL_RESTORED"}`, string(env.Message))
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for relay message")
	}
}
