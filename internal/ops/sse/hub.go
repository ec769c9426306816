package sse

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Event is one Server-Sent Event.
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// Client is a connected SSE consumer.
type Client struct {
	ID     string
	UserID string
	Events chan Event
}

// Hub manages connected SSE clients. Open UI sessions subscribe here so
// a mutation in one session refreshes the others.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.logger.Debug("sse client registered",
		zap.String("client_id", client.ID),
		zap.String("user_id", client.UserID),
		zap.Int("total", len(h.clients)))
}

// Unregister removes a client and closes its channel.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Debug("sse client unregistered",
			zap.String("client_id", clientID),
			zap.Int("total", len(h.clients)))
	}
}

// Broadcast fans an event out to every connected client. Slow clients
// with a full buffer are skipped rather than blocked on.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Events <- event:
		default:
			h.logger.Warn("sse client buffer full, dropping event",
				zap.String("client_id", client.ID))
		}
	}
}

// PublishEntityChanged broadcasts a "changed" signal for one mutated
// entity.
func (h *Hub) PublishEntityChanged(entityType, entityID, action string) {
	data := fmt.Sprintf(`{"entity":"%s","id":"%s","action":"%s"}`, entityType, entityID, action)
	h.Broadcast(Event{EventType: "entity_changed", Data: data})
}
