// Package wsconn wraps server-side WebSocket connections with serialized
// writes, keepalive pings and idempotent close.
package wsconn

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/fd1az/tonswap/internal/apperror"
)

// State represents the connection state.
type State string

const (
	StateConnected State = "connected"
	StateClosing   State = "closing"
	StateClosed    State = "closed"
)

// Config holds server connection settings.
type Config struct {
	WriteTimeout   time.Duration
	PingInterval   time.Duration // 0 disables keepalive
	PongTimeout    time.Duration
	MaxMessageSize int64
	// OriginPatterns restricts browser origins. Empty accepts any origin.
	OriginPatterns []string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		WriteTimeout:   5 * time.Second,
		PingInterval:   30 * time.Second,
		PongTimeout:    10 * time.Second,
		MaxMessageSize: 64 << 10,
	}
}

// Conn is one accepted client connection.
type Conn struct {
	id     string
	ws     *websocket.Conn
	config Config

	writeMu sync.Mutex

	state   State
	stateMu sync.RWMutex

	onClose   func(id string)
	closeOnce sync.Once
	done      chan struct{}
}

// Accept upgrades the HTTP request and starts the keepalive loop.
func Accept(w http.ResponseWriter, r *http.Request, config Config) (*Conn, error) {
	opts := &websocket.AcceptOptions{
		OriginPatterns:     config.OriginPatterns,
		InsecureSkipVerify: len(config.OriginPatterns) == 0,
	}

	ws, err := websocket.Accept(w, r, opts)
	if err != nil {
		return nil, err
	}
	if config.MaxMessageSize > 0 {
		ws.SetReadLimit(config.MaxMessageSize)
	}

	c := &Conn{
		id:     uuid.NewString(),
		ws:     ws,
		config: config,
		state:  StateConnected,
		done:   make(chan struct{}),
	}

	if config.PingInterval > 0 {
		go c.pingLoop()
	}
	return c, nil
}

// ID returns the unique connection id.
func (c *Conn) ID() string {
	return c.id
}

// OnClose registers a callback invoked once after the connection closes.
func (c *Conn) OnClose(fn func(id string)) {
	c.stateMu.Lock()
	c.onClose = fn
	c.stateMu.Unlock()
}

// Read blocks until the next client message arrives.
func (c *Conn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := c.ws.Read(ctx)
	if err != nil {
		c.closeWith(closeStatusFor(err), "")
		if isCloseError(err) {
			return nil, apperror.New(apperror.CodeWebSocketClosed, apperror.WithCause(err))
		}
		return nil, err
	}
	return data, nil
}

// Send writes a text frame. Writes are serialized.
func (c *Conn) Send(ctx context.Context, data []byte) error {
	if c.State() != StateConnected {
		return apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext(c.id))
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.config.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.WriteTimeout)
		defer cancel()
	}

	if err := c.ws.Write(ctx, websocket.MessageText, data); err != nil {
		return apperror.New(apperror.CodeWebSocketSendError,
			apperror.WithCause(err),
			apperror.WithContext(c.id),
		)
	}
	return nil
}

// SendJSON encodes v and sends it as a text frame.
func (c *Conn) SendJSON(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return apperror.New(apperror.CodeInternalError, apperror.WithCause(err))
	}
	return c.Send(ctx, data)
}

// State returns the current connection state.
func (c *Conn) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// Done is closed once the connection is closed.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Close closes the connection with a normal status. Safe to call repeatedly.
func (c *Conn) Close() error {
	c.closeWith(websocket.StatusNormalClosure, "")
	return nil
}

func (c *Conn) closeWith(status websocket.StatusCode, reason string) {
	c.closeOnce.Do(func() {
		c.setState(StateClosing)
		close(c.done)

		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			_ = c.ws.Close(status, reason)
		} else {
			_ = c.ws.CloseNow()
		}

		c.setState(StateClosed)

		c.stateMu.RLock()
		fn := c.onClose
		c.stateMu.RUnlock()
		if fn != nil {
			fn(c.id)
		}
	})
}

func (c *Conn) pingLoop() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), c.config.PongTimeout)
			err := c.ws.Ping(ctx)
			cancel()
			if err != nil {
				c.closeWith(websocket.StatusPolicyViolation, "pong timeout")
				return
			}
		}
	}
}

func (c *Conn) setState(state State) {
	c.stateMu.Lock()
	c.state = state
	c.stateMu.Unlock()
}

func isCloseError(err error) bool {
	if websocket.CloseStatus(err) != -1 {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, net.ErrClosed)
}

func closeStatusFor(err error) websocket.StatusCode {
	if status := websocket.CloseStatus(err); status != -1 {
		return websocket.StatusNormalClosure
	}
	return websocket.StatusInternalError
}
