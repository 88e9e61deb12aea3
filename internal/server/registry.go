// Package server tracks named clients in insertion order so that broadcasts
// and online-user listings are deterministic.
package server

// Client is a registered chat participant: a connection handle paired with
// the nickname it claimed. Entries exist only for named clients; a connection
// that has not yet completed registration has no Client.
type Client struct {
	Conn     int
	Nickname string
}

// Registry is an ordered collection of connected, named clients. It never
// opens or closes a connection; it only indexes handles owned by the relay.
//
// The relay mutates it from a single goroutine, so no locking is needed.
type Registry struct {
	clients []Client
}

// NewRegistry creates an empty client registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register inserts a client under the given nickname. It fails with
// ErrNameTaken if any other connection already holds that exact nickname
// (case-sensitive). Notification of peers is the caller's responsibility.
func (r *Registry) Register(conn int, nickname string) error {
	for _, c := range r.clients {
		if c.Conn != conn && c.Nickname == nickname {
			return ErrNameTaken
		}
	}
	r.clients = append(r.clients, Client{Conn: conn, Nickname: nickname})
	return nil
}

// Find returns the client registered under the given connection handle.
func (r *Registry) Find(conn int) (Client, bool) {
	for _, c := range r.clients {
		if c.Conn == conn {
			return c, true
		}
	}
	return Client{}, false
}

// Remove deletes the entry for the given connection handle and returns it.
// Removing an absent connection is a no-op, not an error.
func (r *Registry) Remove(conn int) (Client, bool) {
	for i, c := range r.clients {
		if c.Conn == conn {
			r.clients = append(r.clients[:i], r.clients[i+1:]...)
			return c, true
		}
	}
	return Client{}, false
}

// All returns the registered clients in insertion order. The order is stable
// across calls between mutations. The returned slice is a copy.
func (r *Registry) All() []Client {
	out := make([]Client, len(r.clients))
	copy(out, r.clients)
	return out
}

// Len returns the number of registered clients.
func (r *Registry) Len() int {
	return len(r.clients)
}
