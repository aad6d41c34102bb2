package services

import (
	"sync"

	"github.com/huangang/problempad/internal/metrics"
)

const (
	EventCreated  = "created"
	EventDeleted  = "deleted"
	EventReplaced = "replaced"
)

// ReportEvent is a change to the report collection pushed to event stream clients.
type ReportEvent struct {
	Type  string   `json:"type"` // created, deleted, replaced
	IDs   []string `json:"ids,omitempty"`
	Total int64    `json:"total"`
}

// SSEHub manages SSE client connections and event broadcasting
type SSEHub struct {
	clients map[string]chan ReportEvent
	mu      sync.RWMutex
}

// NewSSEHub creates a new SSE hub instance
func NewSSEHub() *SSEHub {
	return &SSEHub{
		clients: make(map[string]chan ReportEvent),
	}
}

// Subscribe registers a new client and returns a channel for receiving events
func (h *SSEHub) Subscribe(clientID string) <-chan ReportEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan ReportEvent, 100)
	h.clients[clientID] = ch
	metrics.SSEClients.Set(float64(len(h.clients)))
	return ch
}

// Unsubscribe removes a client from the hub
func (h *SSEHub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.clients[clientID]; ok {
		close(ch)
		delete(h.clients, clientID)
	}
	metrics.SSEClients.Set(float64(len(h.clients)))
}

// Publish broadcasts an event to all connected clients. Slow clients miss events.
func (h *SSEHub) Publish(event ReportEvent) {
	if h == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.clients {
		select {
		case ch <- event:
		default:
		}
	}
}

// ClientCount returns the number of connected clients
func (h *SSEHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var globalSSEHub *SSEHub
var sseHubOnce sync.Once

// GetSSEHub returns the global SSE hub singleton
func GetSSEHub() *SSEHub {
	sseHubOnce.Do(func() {
		globalSSEHub = NewSSEHub()
	})
	return globalSSEHub
}
