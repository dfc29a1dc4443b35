// Package realtime maintains the persistent socket that keeps the entity
// stores in sync with server-originated changes. The process owns exactly
// one connection and one reconnect timer; inbound events are dispatched
// into the stores' fast-path mutators so a push and a later HTTP response
// for the same entity converge on one collection entry.
package realtime

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Polqt/iComplain/store"
)

// State describes the channel's connection lifecycle.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

const (
	// DefaultBackoffBase is the first reconnect delay; it doubles per
	// attempt up to DefaultMaxBackoff.
	DefaultBackoffBase = time.Second
	DefaultMaxBackoff  = 30 * time.Second
	// DefaultMaxAttempts bounds the reconnect loop; past it the channel
	// gives up and stays disconnected until the next Connect call.
	DefaultMaxAttempts = 10

	socketPath = "/ws/tickets/"
)

// SocketURL derives the ticket-updates socket endpoint from the API origin.
func SocketURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = socketPath
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// Stores are the targets inbound events dispatch into. Any nil store makes
// its events no-ops, which the tests use to isolate one domain.
type Stores struct {
	Tickets       *store.TicketsStore
	Comments      *store.CommentsStore
	Notifications *store.NotificationsStore
}

// Config configures a Channel. URL is the socket endpoint, typically from
// SocketURL; zero durations and counts take the defaults.
type Config struct {
	URL         string
	Stores      Stores
	Logger      *zap.Logger
	Dialer      *websocket.Dialer
	BackoffBase time.Duration
	MaxBackoff  time.Duration
	MaxAttempts int
}

// Channel is the real-time connection. Connect and Disconnect bracket its
// lifetime explicitly; nothing reconnects after a deliberate close.
type Channel struct {
	cfg Config
	log *zap.Logger

	states observable

	mu       sync.Mutex
	conn     *websocket.Conn
	timer    *time.Timer
	attempts int
	closing  bool
	active   bool
}

// NewChannel creates a channel in the disconnected state.
func NewChannel(cfg Config) *Channel {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultBackoffBase
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	c := &Channel{cfg: cfg, log: cfg.Logger.Named("realtime")}
	c.states.set(StateDisconnected)
	return c
}

// State returns the current connection state.
func (c *Channel) State() State { return c.states.get() }

// Subscribe registers a state-change listener and returns its unsubscribe
// function.
func (c *Channel) Subscribe(fn func(State)) func() { return c.states.subscribe(fn) }

// Connect starts the connection loop. Calling it while a connection or a
// reconnect attempt is active is a no-op.
func (c *Channel) Connect(ctx context.Context) {
	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return
	}
	c.active = true
	c.closing = false
	c.attempts = 0
	c.mu.Unlock()

	c.states.set(StateConnecting)
	go c.dial(ctx)
}

// Disconnect closes the connection cleanly and cancels any pending
// reconnect. The server's close acknowledgment is not awaited.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	c.closing = true
	c.active = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = conn.Close()
	}
	c.states.set(StateDisconnected)
}

func (c *Channel) dial(ctx context.Context) {
	session := uuid.NewString()

	conn, resp, err := c.cfg.Dialer.DialContext(ctx, c.cfg.URL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		c.log.Warn("socket dial failed",
			zap.String("session", session), zap.String("url", c.cfg.URL), zap.Error(err))
		c.scheduleReconnect(ctx)
		return
	}

	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		_ = conn.Close()
		return
	}
	c.conn = conn
	c.attempts = 0
	c.mu.Unlock()

	c.states.set(StateConnected)
	c.log.Info("socket connected", zap.String("session", session))
	c.readLoop(ctx, conn, session)
}

func (c *Channel) readLoop(ctx context.Context, conn *websocket.Conn, session string) {
	for {
		_, data, err := conn.ReadMessage()
		if err == nil {
			c.dispatch(ctx, data)
			continue
		}

		c.mu.Lock()
		closing := c.closing
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
		_ = conn.Close()

		if closing || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			c.log.Info("socket closed", zap.String("session", session))
			c.mu.Lock()
			c.active = false
			c.mu.Unlock()
			c.states.set(StateDisconnected)
			return
		}

		c.log.Warn("socket dropped", zap.String("session", session), zap.Error(err))
		c.scheduleReconnect(ctx)
		return
	}
}

// backoffDelay is the wait before reconnect attempt n (zero-based): the
// base doubled per attempt, capped at MaxBackoff. The shift guard keeps a
// large n from overflowing into a negative duration.
func (c *Channel) backoffDelay(attempt int) time.Duration {
	delay := c.cfg.BackoffBase << attempt
	if delay > c.cfg.MaxBackoff || delay <= 0 {
		delay = c.cfg.MaxBackoff
	}
	return delay
}

// scheduleReconnect arms the single reconnect timer. A prior timer is
// always cleared first, so overlapping failures cannot spawn parallel
// reconnection loops.
func (c *Channel) scheduleReconnect(ctx context.Context) {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		return
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.attempts >= c.cfg.MaxAttempts {
		c.active = false
		c.mu.Unlock()
		c.log.Warn("giving up on reconnect", zap.Int("attempts", c.cfg.MaxAttempts))
		c.states.set(StateDisconnected)
		return
	}

	delay := c.backoffDelay(c.attempts)
	c.attempts++
	attempt := c.attempts
	c.timer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		c.timer = nil
		closing := c.closing
		c.mu.Unlock()
		if closing {
			return
		}
		c.dial(ctx)
	})
	c.mu.Unlock()

	c.states.set(StateConnecting)
	c.log.Info("reconnect scheduled",
		zap.Int("attempt", attempt), zap.Duration("delay", delay))
}

// observable is the channel's state cell with listener bookkeeping,
// notifying outside its lock.
type observable struct {
	mu    sync.Mutex
	state State
	subs  map[int]func(State)
	next  int
}

func (o *observable) get() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *observable) set(next State) {
	o.mu.Lock()
	if o.state == next {
		o.mu.Unlock()
		return
	}
	o.state = next
	listeners := make([]func(State), 0, len(o.subs))
	for _, fn := range o.subs {
		listeners = append(listeners, fn)
	}
	o.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
}

func (o *observable) subscribe(fn func(State)) func() {
	o.mu.Lock()
	if o.subs == nil {
		o.subs = make(map[int]func(State))
	}
	id := o.next
	o.next++
	o.subs[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.subs, id)
		o.mu.Unlock()
	}
}
