// Package transport carries synthesis requests and responses over a
// websocket to a speakeasy relay.
package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/dgnsrekt/speakeasy/internal/protocol"
)

const (
	writeTimeout = 10 * time.Second
	readLimit    = 32 << 20
)

// ErrClosed is returned by Send after the connection has shut down.
var ErrClosed = errors.New("connection closed")

// Handler receives every well-formed response from the relay. It runs on
// the read goroutine.
type Handler func(protocol.TTSResponse)

// Conn is a client websocket connection to a relay. It satisfies the
// coordinator's Sender interface.
type Conn struct {
	ws  *websocket.Conn
	log *log.Logger

	writeMu sync.Mutex
	closed  bool

	done    chan struct{}
	readErr error
}

// Option configures Dial.
type Option func(*Conn)

func WithLogger(l *log.Logger) Option {
	return func(c *Conn) { c.log = l }
}

// Dial connects to endpoint and starts delivering responses to handler.
func Dial(ctx context.Context, endpoint string, handler Handler, opts ...Option) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to %s: %w", endpoint, err)
	}

	c := &Conn{
		ws:   ws,
		log:  log.Default().WithPrefix("transport"),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	ws.SetReadLimit(readLimit)
	go c.readLoop(handler)

	c.log.Debug("Connected", "endpoint", endpoint)
	return c, nil
}

// Send writes req as a single JSON text frame.
func (c *Conn) Send(req protocol.TTSRequest) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed {
		return ErrClosed
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.ws.WriteJSON(req); err != nil {
		return fmt.Errorf("write %s: %w", req.RequestID, err)
	}
	return nil
}

// Done is closed when the read loop exits.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err returns why the read loop exited. Valid once Done is closed.
func (c *Conn) Err() error {
	<-c.done
	if c.readErr == nil || websocket.IsCloseError(c.readErr, websocket.CloseNormalClosure) {
		return nil
	}
	return c.readErr
}

// Close sends a close frame and tears the connection down.
func (c *Conn) Close() error {
	c.writeMu.Lock()
	if c.closed {
		c.writeMu.Unlock()
		return nil
	}
	c.closed = true
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	c.writeMu.Unlock()

	return c.ws.Close()
}

func (c *Conn) readLoop(handler Handler) {
	defer close(c.done)

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			c.readErr = err
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		msg, err := protocol.ParseServerMessage(data)
		if err != nil {
			c.log.Warn("Ignoring malformed frame", "error", err)
			continue
		}
		handler(msg)
	}
}
