package websocket

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const (
	sendBuffer   = 16
	writeTimeout = 10 * time.Second
)

// Client is a single connected browser.
type Client struct {
	ID   string
	conn *websocket.Conn

	mu   sync.RWMutex
	send chan []byte
}

func newClient(id string, conn *websocket.Conn) *Client {
	return &Client{ID: id, conn: conn, send: make(chan []byte, sendBuffer)}
}

// SendMessage queues msg for the client. Messages are dropped when the buffer is
// full or the client has disconnected.
func (c *Client) SendMessage(msg []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.send == nil {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		slog.Warn("Client send channel full, dropping message", "clientID", c.ID)
		return false
	}
}

// Close stops the client's write loop. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.send != nil {
		close(c.send)
		c.send = nil
	}
}

func (c *Client) outbox() <-chan []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.send
}

// readPump drains incoming frames until the connection ends. Browsers only receive
// on this channel, so frames are discarded.
func (c *Client) readPump(ctx context.Context) {
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			status := websocket.CloseStatus(err)
			switch {
			case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
				slog.Debug("WebSocket closed by client", "clientID", c.ID)
			case errors.Is(err, io.EOF) || errors.Is(err, context.Canceled):
			default:
				slog.Debug("WebSocket read ended", "clientID", c.ID, "error", err)
			}
			return
		}
	}
}

// writePump sends queued messages until the outbox is closed.
func (c *Client) writePump() {
	defer c.conn.Close(websocket.StatusNormalClosure, "server closed connection")

	for msg := range c.outbox() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := c.conn.Write(ctx, websocket.MessageText, msg)
		cancel()
		if err != nil {
			slog.Debug("WebSocket write failed", "clientID", c.ID, "error", err)
			return
		}
	}
}
