/*
Package relay bridges authenticated WebSocket connections and the matchmaking
engine.

This file defines the ConnectionRegistry: the map from authenticated user id
to the single live connection that user may hold. A second connection for the
same user replaces the first; the replaced connection is kicked with a custom
close code so the other tab knows why it died.
*/
package relay

import (
	"sync"
)

// ConnectionRegistry maps user ids to live connections, at most one per user.
type ConnectionRegistry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewConnectionRegistry creates an empty registry.
func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		clients: make(map[string]*Client),
	}
}

// Register stores the client as the live connection for its user and returns
// the connection it replaced, if any. The caller is responsible for kicking
// the replaced connection.
func (r *ConnectionRegistry) Register(c *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.clients[c.userID]
	if old == c {
		return nil
	}
	r.clients[c.userID] = c
	return old
}

// Unregister removes the client if it is still the registered connection for
// its user. A stale connection (already superseded by a newer one) is left
// alone and reported as not removed.
func (r *ConnectionRegistry) Unregister(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.clients[c.userID]; ok && current == c {
		delete(r.clients, c.userID)
		return true
	}
	return false
}

// Get returns the live connection for the user, or nil.
func (r *ConnectionRegistry) Get(userID string) *Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.clients[userID]
}

// Count returns the number of live connections.
func (r *ConnectionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.clients)
}

// All returns a snapshot of every live connection.
func (r *ConnectionRegistry) All() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	return clients
}
