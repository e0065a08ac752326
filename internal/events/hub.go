// Package events fans job lifecycle notifications out to connected
// dashboard clients.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event kinds pushed over the stream.
const (
	EventConnected        = "connected"
	EventHeartbeat        = "heartbeat"
	EventJobCompleted     = "job_completed"
	EventBadgesUpdated    = "badges_updated"
	EventRateLimitUpdated = "rate_limit_updated"
)

const (
	clientBuffer      = 16
	heartbeatInterval = 30 * time.Second
)

// Event is one typed notification.
type Event struct {
	Kind    string `json:"kind"`
	Payload any    `json:"payload,omitempty"`
}

// Hub tracks connected clients and broadcasts events to all of them.
// A client that cannot keep up loses its connection, never the hub.
type Hub struct {
	mu      sync.Mutex
	clients map[string]chan Event
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]chan Event),
		logger:  logger,
	}
}

// Register adds a client and returns its id and receive channel. The
// first event on the channel is always "connected" carrying the id.
func (h *Hub) Register() (string, <-chan Event) {
	id := uuid.NewString()[:8]
	ch := make(chan Event, clientBuffer)
	ch <- Event{Kind: EventConnected, Payload: map[string]string{"clientId": id}}

	h.mu.Lock()
	h.clients[id] = ch
	n := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("event client connected", "client_id", id, "clients", n)
	return id, ch
}

// Unregister removes a client. Safe to call for an already-dropped id.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	if ch, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(ch)
	}
	h.mu.Unlock()
}

// Broadcast delivers an event to every connected client. Clients with a
// full buffer are dropped; delivery to the rest is unaffected.
func (h *Hub) Broadcast(kind string, payload any) {
	ev := Event{Kind: kind, Payload: payload}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.clients {
		select {
		case ch <- ev:
		default:
			delete(h.clients, id)
			close(ch)
			h.logger.Warn("dropping slow event client", "client_id", id, "kind", kind)
		}
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Run emits heartbeats until ctx is cancelled. Heartbeats keep idle
// stream connections from being reaped by intermediaries.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			h.Broadcast(EventHeartbeat, map[string]string{"time": t.UTC().Format(time.RFC3339)})
		}
	}
}
