package broadcast

import (
	"context"
	"encoding/json"
	"sync"

	chat "github.com/example/chat-relay/domain/chat"
	"github.com/example/chat-relay/modules/relay"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
)

// Client represents a connected WebSocket client. Its attribute map is the
// per-connection identity slot the relay core reads and writes.
type Client struct {
	ID   string
	Conn *websocket.Conn

	mu    sync.Mutex
	attrs map[string]string
}

// NewClient creates a client for a connection.
func NewClient(id string, conn *websocket.Conn) *Client {
	return &Client{
		ID:    id,
		Conn:  conn,
		attrs: make(map[string]string),
	}
}

// Attr returns the value stored under key, if any.
func (c *Client) Attr(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.attrs[key]
	return v, ok
}

// SetAttr stores value under key.
func (c *Client) SetAttr(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attrs[key] = value
}

// Compile-time check: a Client is the relay core's identity slot.
var _ relay.IdentitySlot = (*Client)(nil)

// Hub manages WebSocket connections and fans events out to topic
// subscribers. Every client is subscribed to the public topic on register;
// direct-message filtering happens client-side.
type Hub struct {
	clients    map[string]*Client         // clientID -> Client
	topics     map[string]map[string]bool // topic -> set of clientIDs
	register   chan *Client
	unregister chan *Client
	broadcast  chan *frame
	done       chan struct{}
	logger     types.Logger
	mu         sync.RWMutex
}

type frame struct {
	topic string
	event chat.Event
}

// NewHub creates a new Hub.
func NewHub(logger types.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		topics:     make(map[string]map[string]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *frame, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's main loop. It accepts a context for graceful shutdown.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Hub shutting down")
			h.closeAllClients()
			close(h.done)
			return
		case client := <-h.register:
			h.handleRegister(client)
		case client := <-h.unregister:
			h.handleUnregister(client)
		case f := <-h.broadcast:
			h.handleBroadcast(f)
		}
	}
}

// Wait blocks until the hub has stopped.
func (h *Hub) Wait() {
	<-h.done
}

// closeAllClients closes all connected client connections.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		_ = client.Conn.Close()
	}
	h.clients = make(map[string]*Client)
	h.topics = make(map[string]map[string]bool)
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	if h.topics[relay.TopicPublic] == nil {
		h.topics[relay.TopicPublic] = make(map[string]bool)
	}
	h.topics[relay.TopicPublic][client.ID] = true
	h.logger.Debug("Client registered", "clientID", client.ID)
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	for topic, subscribers := range h.topics {
		delete(subscribers, client.ID)
		if len(subscribers) == 0 {
			delete(h.topics, topic)
		}
	}
	h.logger.Debug("Client unregistered", "clientID", client.ID)
}

func (h *Hub) handleBroadcast(f *frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(f.event)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast event", "error", err)
		return
	}

	for clientID := range h.topics[f.topic] {
		if client, ok := h.clients[clientID]; ok {
			h.sendToClient(client, data)
		}
	}
}

func (h *Hub) sendToClient(client *Client, data []byte) {
	if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.logger.Warn("Failed to send to client", "clientID", client.ID, "error", err)
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast sends an event to all subscribers of a topic.
func (h *Hub) Broadcast(topic string, evt chat.Event) {
	h.broadcast <- &frame{topic: topic, event: evt}
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TopicSubscriberCount returns the number of clients subscribed to a topic.
func (h *Hub) TopicSubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
