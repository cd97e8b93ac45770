package realtime

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// Frame is the wire envelope for panel socket traffic.
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Outbound frame types pushed by the server.
const (
	FrameChatMessage         = "chat.message"
	FrameChatTyping          = "chat.typing"
	FrameNotificationCreated = "notification.created"
	FramePresenceChanged     = "presence.changed"
	FramePong                = "pong"
)

// Inbound frame types accepted from panels.
const (
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FrameTyping      = "typing"
	FramePing        = "ping"
)

// Client is one panel socket. An agent holds at most one.
type Client struct {
	Conn     *websocket.Conn
	AgentID  string
	TenantID string
	Send     chan []byte

	mu   sync.RWMutex
	subs map[string]bool
}

// Subscribe marks the client as listening to a chat channel.
func (c *Client) Subscribe(channelID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subs == nil {
		c.subs = make(map[string]bool)
	}
	c.subs[channelID] = true
}

// Unsubscribe stops channel delivery for the client.
func (c *Client) Unsubscribe(channelID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, channelID)
}

// SubscribedTo reports whether the client listens to the channel.
func (c *Client) SubscribedTo(channelID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subs[channelID]
}

// Hub tracks connected panel sockets per tenant.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	byAgent    map[string]*Client
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     *zap.Logger
}

// NewHub builds an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		byAgent:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes register/unregister traffic until Shutdown.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			// Latest socket wins; the previous connection for the same
			// agent is evicted.
			if old, ok := h.byAgent[client.AgentID]; ok {
				delete(h.clients, old)
				close(old.Send)
			}
			h.clients[client] = true
			h.byAgent[client.AgentID] = client
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("socket connected", zap.String("agent_id", client.AgentID), zap.Int("total", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				if h.byAgent[client.AgentID] == client {
					delete(h.byAgent, client.AgentID)
				}
				close(client.Send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("socket disconnected", zap.String("agent_id", client.AgentID), zap.Int("total", total))

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.byAgent = make(map[string]*Client)
			h.mu.Unlock()
			return
		}
	}
}

// Shutdown stops the hub loop and drops all clients.
func (h *Hub) Shutdown() {
	close(h.done)
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// SendToAgent delivers a frame to one agent's socket, if connected.
func (h *Hub) SendToAgent(tenantID, agentID string, frame Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	client, ok := h.byAgent[agentID]
	if !ok || client.TenantID != tenantID {
		return
	}
	h.deliver(client, data)
}

// SendToClient queues a frame on one socket if it is still registered.
func (h *Hub) SendToClient(client *Client, frame Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[client] {
		return
	}
	h.deliver(client, data)
}

// BroadcastToTenant delivers a frame to every connected socket of a tenant.
func (h *Hub) BroadcastToTenant(tenantID string, frame Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if client.TenantID != tenantID {
			continue
		}
		h.deliver(client, data)
	}
}

// BroadcastToChannel delivers a frame to subscribed sockets, optionally
// skipping one agent.
func (h *Hub) BroadcastToChannel(tenantID, channelID, skipAgentID string, frame Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if client.TenantID != tenantID || client.AgentID == skipAgentID {
			continue
		}
		if !client.SubscribedTo(channelID) {
			continue
		}
		h.deliver(client, data)
	}
}

// deliver queues data on one socket. A full buffer means the consumer has
// stalled; the client is dropped instead of blocking the hub. Callers must
// hold the write lock.
func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.Send <- data:
	default:
		delete(h.clients, client)
		if h.byAgent[client.AgentID] == client {
			delete(h.byAgent, client.AgentID)
		}
		close(client.Send)
		h.logger.Warn("slow socket dropped", zap.String("agent_id", client.AgentID))
	}
}

// OnlineCount returns the number of connected sockets.
func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Connected reports whether the agent currently holds a socket.
func (h *Hub) Connected(agentID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.byAgent[agentID]
	return ok
}
