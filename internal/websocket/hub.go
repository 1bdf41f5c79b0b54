package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"network-orchestrator-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNoRecipient means nobody could receive the message: no local client for
// the context and no relay to reach other instances.
var ErrNoRecipient = errors.New("no connected surface")

const relayChannel = "surface_events"

// broadcastTarget addresses every connected surface.
const broadcastTarget = "*"

type relayEnvelope struct {
	Origin  string          `json:"origin"`
	Target  string          `json:"target_context_id"`
	Message json.RawMessage `json:"message"`
}

// Hub fans notifications out to viewing-surface connections, keyed by
// viewing-context id. With Redis configured, messages are relayed to the
// other instances too.
type Hub struct {
	// contextID -> connections (one tab may reconnect before the old socket dies)
	clients map[string][]*Client

	register chan *Client

	mu sync.RWMutex

	rdb *redis.Client
	// instanceID filters out our own relayed messages.
	instanceID string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

// Run serves register requests until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ContextID] = append(h.clients[client.ContextID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"context_id": client.ContextID})
		}
	}
}

// Register adds a client. Run must be running.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) ClientCount(contextID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if contextID == broadcastTarget || contextID == "" {
		n := 0
		for _, clients := range h.clients {
			n += len(clients)
		}
		return n
	}
	return len(h.clients[contextID])
}

// Send delivers message to the surfaces of contextID, or to all surfaces when
// contextID is empty. It returns ErrNoRecipient when no local client took the
// message and there is no relay.
func (h *Hub) Send(ctx context.Context, contextID string, message []byte) error {
	target := contextID
	if target == "" {
		target = broadcastTarget
	}

	delivered := h.deliverLocal(target, message)

	if h.rdb != nil {
		payload, err := json.Marshal(relayEnvelope{Origin: h.instanceID, Target: target, Message: message})
		if err != nil {
			return fmt.Errorf("encode relay message: %w", err)
		}
		if err := h.rdb.Publish(ctx, relayChannel, payload).Err(); err != nil {
			if delivered > 0 {
				h.logger.Warn("Hub", "Relay publish failed", map[string]interface{}{"error": err.Error()})
				return nil
			}
			return fmt.Errorf("%w: relay publish failed: %v", ErrNoRecipient, err)
		}
		return nil
	}

	if delivered == 0 {
		return fmt.Errorf("%w for context %q", ErrNoRecipient, contextID)
	}
	return nil
}

// deliverLocal returns how many local clients accepted the message. Clients
// with a full buffer are dropped.
func (h *Hub) deliverLocal(target string, message []byte) int {
	var slow []*Client
	delivered := 0

	h.mu.RLock()
	var targets []*Client
	if target == broadcastTarget {
		for _, clients := range h.clients {
			targets = append(targets, clients...)
		}
	} else {
		targets = h.clients[target]
	}
	for _, client := range targets {
		select {
		case client.Send <- message:
			delivered++
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("Hub", "Client send buffer full, dropping connection", map[string]interface{}{"context_id": client.ContextID})
		h.remove(client)
	}
	return delivered
}

// Unregister removes client and closes its Send channel. Safe to call more
// than once.
func (h *Hub) Unregister(client *Client) {
	h.remove(client)
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.ContextID]
	if !ok {
		return
	}
	for i, c := range clients {
		if c == client {
			h.clients[client.ContextID] = append(clients[:i:i], clients[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.ContextID]) == 0 {
		delete(h.clients, client.ContextID)
		h.logger.Info("Hub", "Context has no more clients", map[string]interface{}{"context_id": client.ContextID})
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, clients := range h.clients {
		for _, c := range clients {
			close(c.Send)
		}
		delete(h.clients, id)
	}
}

// subscribeToRedis delivers messages relayed by other instances to our local
// clients.
func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, relayChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env relayEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				h.logger.Warn("Hub", "Relay message parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if env.Origin == h.instanceID {
				continue
			}
			h.deliverLocal(env.Target, env.Message)
		}
	}
}
