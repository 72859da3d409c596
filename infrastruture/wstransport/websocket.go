// Package wstransport implements bridge.Transport over WebSocket text frames.
package wstransport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/beka-birhanu/vinom-lab/bridge"
	"github.com/gorilla/websocket"
)

var _ bridge.Transport = &Transport{}
var _ bridge.Conn = &Conn{}

const (
	closeGracePeriod = time.Second
	writeTimeout     = 5 * time.Second // An agent that stops reading fails the write instead of stalling the writer.
)

// Transport dials WebSocket endpoints such as ws://host:port/path.
type Transport struct {
	dialer *websocket.Dialer
}

// New creates a Transport. A nil dialer uses websocket.DefaultDialer.
func New(dialer *websocket.Dialer) *Transport {
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	return &Transport{dialer: dialer}
}

// Dial implements bridge.Transport.
func (t *Transport) Dial(ctx context.Context, addr string) (bridge.Conn, error) {
	ws, resp, err := t.dialer.DialContext(ctx, addr, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", addr, err)
	}
	return &Conn{ws: ws}, nil
}

// Conn adapts a gorilla connection to bridge.Conn.
// ReadMessage and WriteMessage must each be called from a single goroutine.
type Conn struct {
	ws        *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

// ReadMessage implements bridge.Conn. Binary frames are returned as-is.
func (c *Conn) ReadMessage() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	return data, err
}

// WriteMessage implements bridge.Conn.
func (c *Conn) WriteMessage(data []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Close sends a best-effort close frame and releases the socket. Later calls return the first result.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}
