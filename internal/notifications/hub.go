package notifications

import (
	"context"
	"errors"
	"sync"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max connections per conversation
	maxConnsPerConversation = 64
	// Max total connections
	maxTotalConns = 10000
)

// Hub is a websocket hub that maps conversationID -> connected Clients.
// Connections are admitted by the handler after ws-key validation.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
}

// NewHub creates a new Hub instance for the event stream.
func NewHub() *Hub {
	return &Hub{conns: make(map[uint]map[*Client]struct{})}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "event hub" }

// Register adds a connection for a conversation. Returns the Client or an
// error when connection limits are exceeded.
func (h *Hub) Register(conversationID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totalConns >= maxTotalConns {
		return nil, errors.New("server connection limit reached")
	}

	m, ok := h.conns[conversationID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[conversationID] = m
	}
	if len(m) >= maxConnsPerConversation {
		return nil, errors.New("conversation connection limit reached")
	}

	client := NewClient(h, conn, conversationID)
	m[client] = struct{}{}
	h.totalConns++
	return client, nil
}

// UnregisterClient removes a client from the hub.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if m, ok := h.conns[client.ConversationID]; ok {
		if _, exists := m[client]; exists {
			delete(m, client)
			h.totalConns--
		}
		if len(m) == 0 {
			delete(h.conns, client.ConversationID)
		}
	}
}

// Broadcast sends a payload to every connected client.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, m := range h.conns {
		for client := range m {
			select {
			case client.Send <- payload:
			default:
				// Slow consumer; drop rather than block the hub.
			}
		}
	}
}

// StartWiring subscribes the hub to the notifier's broadcast channel.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartSubscriber(ctx, func(payload string) {
		h.Broadcast([]byte(payload))
	})
}

// Shutdown closes every connection.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, m := range h.conns {
		for client := range m {
			close(client.Send)
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	return nil
}

// ConnCount returns the number of active connections.
func (h *Hub) ConnCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConns
}
