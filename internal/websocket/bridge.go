package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Bridge fans HTML fragments out to every connected browser.
type Bridge struct {
	name    string
	origins []string

	mu      sync.RWMutex
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}

	onConnect func(c *Client)
}

// NewBridge creates a bridge. origins are extra host patterns allowed to connect
// besides the page's own origin.
func NewBridge(name string, origins ...string) *Bridge {
	return &Bridge{
		name:       name,
		origins:    origins,
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
		done:       make(chan struct{}),
	}
}

// OnConnect sets a hook run for every new client after registration, typically
// to send the current state. Must be called before Run.
func (b *Bridge) OnConnect(fn func(c *Client)) {
	b.onConnect = fn
}

// Run routes registrations and broadcasts until ctx is canceled, then disconnects
// every client.
func (b *Bridge) Run(ctx context.Context) {
	slog.Info("WebSocket bridge started", "bridge", b.name)
	defer slog.Info("WebSocket bridge stopped", "bridge", b.name)

	for {
		select {
		case <-ctx.Done():
			b.mu.Lock()
			for id, c := range b.clients {
				c.Close()
				delete(b.clients, id)
			}
			b.mu.Unlock()
			close(b.done)
			return

		case c := <-b.register:
			b.mu.Lock()
			b.clients[c.ID] = c
			b.mu.Unlock()
			slog.Debug("Client registered", "bridge", b.name, "clientID", c.ID)
			if b.onConnect != nil {
				b.onConnect(c)
			}

		case c := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[c.ID]; ok {
				delete(b.clients, c.ID)
				c.Close()
			}
			b.mu.Unlock()
			slog.Debug("Client unregistered", "bridge", b.name, "clientID", c.ID)

		case payload := <-b.broadcast:
			b.mu.RLock()
			for _, c := range b.clients {
				c.SendMessage(payload)
			}
			b.mu.RUnlock()
		}
	}
}

// Broadcast queues payload for every connected client. It is a no-op once the
// bridge has stopped.
func (b *Bridge) Broadcast(payload []byte) {
	select {
	case b.broadcast <- payload:
	case <-b.done:
	}
}

// ClientCount returns the number of registered clients.
func (b *Bridge) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Handler upgrades the request and serves the connection until it closes.
func (b *Bridge) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
			OriginPatterns: b.origins,
		})
		if err != nil {
			slog.Error("Failed to upgrade connection to WebSocket", "bridge", b.name, "error", err)
			// Accept has already written the error response.
			return nil
		}

		client := newClient(uuid.NewString(), conn)
		select {
		case b.register <- client:
		case <-b.done:
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return nil
		}

		go client.writePump()
		client.readPump(c.Request().Context())

		select {
		case b.unregister <- client:
		case <-b.done:
		}
		return nil
	}
}
