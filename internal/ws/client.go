package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// maxInboundMessage caps frames read from feed clients; the feed is send-only.
const maxInboundMessage = 512

// Client is a member feed subscriber on a websocket connection.
type Client struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	log          *slog.Logger
	writeTimeout time.Duration
	closeOnce    sync.Once
}

// NewClient wraps conn. A zero writeTimeout disables write deadlines.
func NewClient(conn *websocket.Conn, logger *slog.Logger, writeTimeout time.Duration) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{conn: conn, log: logger, writeTimeout: writeTimeout}
}

// Send writes one event as a text frame.
func (c *Client) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.log.Warn("member feed websocket write failed", "remote", c.conn.RemoteAddr().String(), "error", err)
		return err
	}
	return nil
}

// Listen discards inbound frames until the peer goes away or the connection is
// closed. Control frames are answered by gorilla's default handlers while it runs.
func (c *Client) Listen() {
	c.conn.SetReadLimit(maxInboundMessage)
	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return
		}
	}
}

// Close says goodbye with a close frame and drops the connection.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = c.conn.Close()
	})
}
