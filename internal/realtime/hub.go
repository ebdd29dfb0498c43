package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis channels carrying store events. Settings events carry the new
// settings record as payload; order events are bare notifications and
// subscribers refetch the order list themselves.
const (
	ChannelSettings = "store.settings"
	ChannelOrders   = "store.orders"
)

// Event is the frame delivered to WebSocket subscribers.
type Event struct {
	Channel string          `json:"channel"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans events published on Redis out to connected WebSocket
// clients. Publishing goes through Redis so every API instance sees
// events raised by any other instance.
type Hub struct {
	client *redis.Client
	logger *zap.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewHub(client *redis.Client, logger *zap.Logger) *Hub {
	return &Hub{
		client: client,
		logger: logger,
		conns:  make(map[*websocket.Conn]struct{}),
	}
}

// Run subscribes to the store channels and forwards every message to
// all connected clients. It blocks until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	pubsub := h.client.Subscribe(ctx, ChannelSettings, ChannelOrders)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case msg, ok := <-ch:
			if !ok {
				h.closeAll()
				return
			}
			event := Event{Channel: msg.Channel}
			if msg.Payload != "" {
				event.Payload = json.RawMessage(msg.Payload)
			}
			h.broadcast(event)
		}
	}
}

// Publish raises an event for every subscriber, on this instance and
// any other listening on the same Redis.
func (h *Hub) Publish(ctx context.Context, channel string, payload any) error {
	var data string
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		data = string(raw)
	}
	return h.client.Publish(ctx, channel, data).Err()
}

// HandleWS upgrades the request and keeps the connection registered
// until the client disconnects.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("WebSocket upgrade failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("WebSocket client connected", zap.String("remote", conn.RemoteAddr().String()))

	// Drain incoming frames until the client goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	conn.Close()
}

func (h *Hub) broadcast(event Event) {
	raw, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to encode event", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		conn.Close()
		delete(h.conns, conn)
	}
}
