package ws

import (
	"context"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"github.com/gukii/tanStartMultiUserAgent/pkg/metrics"
)

// Conn wraps one peer's websocket with a buffered outbound queue so the
// broadcast path never blocks on a slow reader.
type Conn struct {
	ws     *websocket.Conn
	out    chan []byte
	userID string
}

// Accept upgrades HTTP to websocket (allow all origins)
func Accept(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  []string{"*"},
		CompressionMode: websocket.CompressionDisabled,
	})
}

// NewConn wraps a WS connection bound to a room identity
func NewConn(ws *websocket.Conn, userID string) *Conn {
	return &Conn{
		ws:     ws,
		userID: userID,
		out:    make(chan []byte, 256),
	}
}

// UserID is the identity bound at accept time, immutable for the
// connection's lifetime.
func (c *Conn) UserID() string { return c.userID }

// Read blocks until it receives a text/binary message
// Returns false if connection is closed
func (c *Conn) Read(ctx context.Context) ([]byte, bool) {
	for {
		typ, data, err := c.ws.Read(ctx)
		if err != nil {
			return nil, false
		}
		if typ == websocket.MessageText || typ == websocket.MessageBinary {
			return data, true
		}
	}
}

// Send queues an outbound frame without blocking. A full buffer means the
// peer is too slow or already gone; the frame is dropped and the disconnect
// callback remains the source of truth for cleanup.
func (c *Conn) Send(b []byte) {
	select {
	case c.out <- b:
	default:
		metrics.DroppedSends.Inc()
	}
}

// WriteLoop sends outbound messages + periodic pings
// Exits when ctx is cancelled
func (c *Conn) WriteLoop(ctx context.Context) {
	t := time.NewTicker(20 * time.Second)
	defer t.Stop()

	for {
		select {
		case b := <-c.out:
			_ = c.ws.Write(ctx, websocket.MessageText, b)
		case <-t.C:
			_ = c.ws.Ping(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Close closes the WS connection normally
func (c *Conn) Close() error { return c.ws.Close(websocket.StatusNormalClosure, "bye") }
