// Package relay implements the push side of the order-delivery relay: a
// WebSocket broadcast server that fans out order-ready events to every live
// terminal connection of a tenant, plus the in-memory registry those
// connections live in.
//
// Nothing here persists: the registry is rebuilt from client reconnects after
// a process restart, and delivery is fire-and-forget. The pull endpoint is
// the reliability mechanism, not retries on this path.
package relay

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn wraps a WebSocket connection with a write lock and deadline so that
// the read loop's pong replies and concurrent broadcasts never interleave
// frames (gorilla permits at most one concurrent writer).
type Conn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration

	mu sync.Mutex
}

// NewConn wraps ws. writeTimeout bounds every send; a stalled peer fails the
// write instead of blocking other connections' broadcasts.
func NewConn(ws *websocket.Conn, writeTimeout time.Duration) *Conn {
	return &Conn{ws: ws, writeTimeout: writeTimeout}
}

// WriteJSON sends one JSON frame under the write lock.
func (c *Conn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteJSON(v)
}

// WriteRaw sends pre-serialized bytes as one text frame under the write lock.
// Broadcasts serialize the event once and reuse the bytes for every
// recipient.
func (c *Conn) WriteRaw(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Close closes the underlying transport.
func (c *Conn) Close() error { return c.ws.Close() }

// Registry tracks, for each tenant slug, the set of currently-open push
// connections. It is owned by a Server instance, never package-global, so
// tests can run independent servers side by side.
//
// All methods are safe for concurrent use. Broadcast iteration works on a
// snapshot, so lost updates to "who gets this particular broadcast" are
// possible and acceptable; data races are not.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]map[*Conn]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]map[*Conn]struct{})}
}

// Register adds conn to the tenant's set, creating the set if absent.
// Adding the same connection twice is a no-op (set semantics).
func (r *Registry) Register(tenant string, conn *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.conns[tenant]
	if !ok {
		set = make(map[*Conn]struct{})
		r.conns[tenant] = set
	}
	set[conn] = struct{}{}
}

// Unregister removes conn from the tenant's set. Idempotent: removing an
// absent connection is a no-op. Empty tenant entries are deleted so memory
// stays bounded for tenants with no active terminals.
func (r *Registry) Unregister(tenant string, conn *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.conns[tenant]
	if !ok {
		return
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(r.conns, tenant)
	}
}

// Snapshot returns a copy of the tenant's current connection set, safe to
// iterate while registrations and unregistrations continue concurrently.
func (r *Registry) Snapshot(tenant string) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.conns[tenant]
	out := make([]*Conn, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// Count returns the number of live connections for one tenant.
func (r *Registry) Count(tenant string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[tenant])
}

// Total returns the number of live connections across all tenants; sampled by
// the Prometheus connections gauge.
func (r *Registry) Total() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, set := range r.conns {
		n += len(set)
	}
	return n
}

// Counts returns per-tenant connection counts for the ops health endpoint.
func (r *Registry) Counts() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]int, len(r.conns))
	for tenant, set := range r.conns {
		out[tenant] = len(set)
	}
	return out
}
