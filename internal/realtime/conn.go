package realtime

import (
	"sync"

	"github.com/oklog/ulid/v2"
)

// wsConn is the per-connection state shared between the read loop and the
// writer/sender goroutines.
//
// Send is never closed by the server; done signals shutdown instead, which
// keeps concurrent enqueuers safe. Close is idempotent.
type wsConn struct {
	ID       string
	Identity Identity

	Send chan []byte

	done      chan struct{}
	closeOnce sync.Once

	mu         sync.Mutex
	intervalMS int
}

func newWSConn(id Identity, sendQueue, intervalMS int) *wsConn {
	if sendQueue <= 0 {
		sendQueue = 64
	}
	return &wsConn{
		ID:         ulid.Make().String(),
		Identity:   id,
		Send:       make(chan []byte, sendQueue),
		done:       make(chan struct{}),
		intervalMS: intervalMS,
	}
}

// Done returns a channel closed when the connection is shutting down.
func (c *wsConn) Done() <-chan struct{} { return c.done }

// Close signals the connection's goroutines to stop (idempotent). It does
// NOT close Send.
func (c *wsConn) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Interval returns the current push interval in milliseconds.
func (c *wsConn) Interval() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.intervalMS
}

// SetInterval replaces the push interval. The sender picks it up on its
// next tick.
func (c *wsConn) SetInterval(ms int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.intervalMS = ms
}
