package realtime

import (
	"sync"
)

// Hub tracks live connections per channel ("line", "pie", "bar", "chat").
// It exists for observability: the status endpoints and the connection
// gauges read it. Frames are sent per connection, never broadcast.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]map[string]Identity
}

// NewHub constructs an empty registry.
func NewHub() *Hub {
	return &Hub{conns: make(map[string]map[string]Identity)}
}

// Add registers a connection under channel.
func (h *Hub) Add(channel, connID string, id Identity) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[channel] == nil {
		h.conns[channel] = make(map[string]Identity)
	}
	h.conns[channel][connID] = id
	wsConnections.WithLabelValues(channel).Inc()
}

// Remove unregisters a connection. Removing an unknown connection is a no-op.
func (h *Hub) Remove(channel, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m := h.conns[channel]
	if _, ok := m[connID]; !ok {
		return
	}
	delete(m, connID)
	wsConnections.WithLabelValues(channel).Dec()
}

// Count reports the number of live connections on channel.
func (h *Hub) Count(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[channel])
}
