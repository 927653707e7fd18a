package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/taranpreet09/Event-Management-System/pkg/auth"
)

var errConnClosed = errors.New("connection closed")

// Client is one live WebSocket connection. Its identity is nil until a
// successful AUTH and immutable afterwards for the connection's lifetime.
type Client struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	mu       sync.Mutex
	identity *auth.Identity
	closed   bool
}

func newClient(conn *websocket.Conn, writeTimeout time.Duration) *Client {
	return &Client{conn: conn, writeTimeout: writeTimeout}
}

// Identity returns the authenticated principal, or nil.
func (c *Client) Identity() *auth.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// setIdentity attaches ident once; later calls are ignored.
func (c *Client) setIdentity(ident *auth.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		c.identity = ident
	}
}

// sendJSON marshals v and writes it as one text frame.
func (c *Client) sendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.sendRaw(data)
}

// sendRaw writes one text frame. Writes are serialized per connection and
// bounded by the write timeout so a stalled client cannot hold up a fanout.
func (c *Client) sendRaw(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errConnClosed
	}
	if c.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// close marks the client terminal and closes the transport. Safe to call
// more than once.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	_ = c.conn.Close()
}

// Registry is the explicit set of open connections owned by one gateway
// process. Add on connect and Remove on disconnect are its only mutators.
// It also keeps a userID index so targeted delivery can skip unrelated
// connections.
type Registry struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	byUser  map[string]map[*Client]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[*Client]struct{}),
		byUser:  make(map[string]map[*Client]struct{}),
	}
}

// Add registers a freshly upgraded connection.
func (r *Registry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c] = struct{}{}
}

// Remove drops the connection from the fanout set and the user index.
func (r *Registry) Remove(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, c)
	if ident := c.Identity(); ident != nil {
		if set, ok := r.byUser[ident.ID]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(r.byUser, ident.ID)
			}
		}
	}
}

// bind indexes an authenticated connection under its user id.
func (r *Registry) bind(c *Client, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c]; !ok {
		return
	}
	set, ok := r.byUser[userID]
	if !ok {
		set = make(map[*Client]struct{})
		r.byUser[userID] = set
	}
	set[c] = struct{}{}
}

// Clients returns a snapshot of all open connections.
func (r *Registry) Clients() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		out = append(out, c)
	}
	return out
}

// ClientsForUser returns a snapshot of the connections authenticated as
// userID.
func (r *Registry) ClientsForUser(userID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.byUser[userID]
	out := make([]*Client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// Len reports the number of open connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
