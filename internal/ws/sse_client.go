package ws

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// SSEClient streams Server-Sent Events over an HTTP response writer.
type SSEClient struct {
	mu           sync.Mutex
	writer       http.ResponseWriter
	rc           *http.ResponseController
	log          *slog.Logger
	writeTimeout time.Duration
	closed       bool
	done         chan struct{}
}

// NewSSEClient builds an SSE client instance. A zero writeTimeout disables write deadlines.
func NewSSEClient(w http.ResponseWriter, logger *slog.Logger, writeTimeout time.Duration) *SSEClient {
	return &SSEClient{
		writer:       w,
		rc:           http.NewResponseController(w),
		log:          logger,
		writeTimeout: writeTimeout,
		done:         make(chan struct{}),
	}
}

// Send emits a data event to the SSE stream.
func (c *SSEClient) Send(payload []byte) error {
	return c.write("sse send failed", "data: %s\n\n", payload)
}

// Heartbeat emits a comment frame to keep the connection alive.
func (c *SSEClient) Heartbeat() error {
	return c.write("sse heartbeat failed", ": ping\n\n")
}

func (c *SSEClient) write(failure, format string, args ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return io.EOF
	}
	if c.writeTimeout > 0 {
		err := c.rc.SetWriteDeadline(time.Now().Add(c.writeTimeout))
		if err != nil && !errors.Is(err, http.ErrNotSupported) {
			c.log.Warn("sse write deadline failed", "error", err)
		}
	}
	if _, err := fmt.Fprintf(c.writer, format, args...); err != nil {
		c.log.Warn(failure, "error", err)
		c.closeLocked()
		return err
	}
	if err := c.rc.Flush(); err != nil {
		c.log.Warn(failure, "error", err)
		c.closeLocked()
		return err
	}
	return nil
}

// Close marks the stream as closed. It waits for an in-flight write to finish.
func (c *SSEClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

// Done is closed once the stream stops accepting writes.
func (c *SSEClient) Done() <-chan struct{} {
	return c.done
}

func (c *SSEClient) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}
