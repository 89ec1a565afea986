// Package client maintains one logical session to a SpeechBubble chat
// server over a websocket: authentication, session resume across
// reconnects, keep-alives, and a local replica of server-pushed state.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/speechbubble/botkit/internal/config"
	"github.com/speechbubble/botkit/internal/htmltext"
	"github.com/speechbubble/botkit/internal/log"
	"github.com/speechbubble/botkit/internal/proto"
	"github.com/speechbubble/botkit/internal/state"
)

// Version is reported to the server in the dial User-Agent header.
const Version = "1.0.0"

const writeTimeout = 5 * time.Second

// Client manages one resumable chat session. All state lives on a
// single manager goroutine; public methods hand work to it, so no
// two handlers ever run at once.
type Client struct {
	cfg    config.Config
	logger *zerolog.Logger
	dialer Dialer

	ops  chan func()
	done chan struct{}

	emitter *emitter
	replica *state.Replica

	// Owned by the manager goroutine.
	phase        Phase
	sessionID    string
	username     string
	serverConfig json.RawMessage
	lastPing     time.Time
	epoch        float64

	conn       Conn
	gen        int
	connected  bool
	forceClose bool

	heyTimer       *time.Timer
	reconnectTimer *time.Timer

	closed bool
}

// Option configures the client.
type Option func(*Client)

// WithDialer swaps the websocket dialer, mainly for tests.
func WithDialer(d Dialer) Option {
	return func(c *Client) {
		c.dialer = d
	}
}

// New builds a client and starts its manager goroutine. It does not
// connect; call Connect after registering observers.
func New(cfg config.Config, logger *zerolog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = log.Nop()
	}
	c := &Client{
		cfg:      cfg,
		logger:   logger,
		dialer:   wsDialer{},
		ops:      make(chan func(), 64),
		done:     make(chan struct{}),
		emitter:  newEmitter(),
		replica:  state.NewReplica(htmltext.Normalize),
		username: cfg.Username,
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.run()
	return c
}

func (c *Client) run() {
	for {
		select {
		case fn := <-c.ops:
			fn()
		case <-c.done:
			return
		}
	}
}

// do hands fn to the manager goroutine. Dropped once the client is
// closed.
func (c *Client) do(fn func()) {
	select {
	case c.ops <- fn:
	case <-c.done:
	}
}

// sync runs fn on the manager goroutine and waits for it. Must not be
// called from an observer callback: those already run on the manager
// goroutine and would deadlock.
func (c *Client) sync(fn func()) {
	ack := make(chan struct{})
	c.do(func() {
		fn()
		close(ack)
	})
	select {
	case <-ack:
	case <-c.done:
	}
}

// On registers an observer for one event name. Callbacks run on the
// manager goroutine; register before calling Connect.
func (c *Client) On(name string, fn func(Event)) {
	c.sync(func() { c.emitter.on(name, fn) })
}

// OnAny registers a firehose observer that sees every chat-domain
// sub-command, handled or not.
func (c *Client) OnAny(fn func(Event)) {
	c.sync(func() { c.emitter.onAny(fn) })
}

// Connect opens the transport. Idempotent: a live transport is
// force-closed first so two transports never race on the same state.
func (c *Client) Connect() {
	c.do(c.connectLocked)
}

// Disconnect closes the active transport and suppresses the reconnect
// policy for that closure. With no active transport it cancels any
// pending reconnect instead. A later Connect fully resets the client.
func (c *Client) Disconnect() {
	c.do(c.disconnectLocked)
}

// Close disconnects and stops the manager goroutine. The client is
// unusable afterwards.
func (c *Client) Close() {
	c.do(func() {
		if c.closed {
			return
		}
		c.disconnectLocked()
		c.closed = true
		close(c.done)
	})
}

func (c *Client) connectLocked() {
	if c.conn != nil {
		old := c.conn
		c.teardownLocked()
		go old.Close(websocket.StatusNormalClosure, "reconnecting")
	}
	c.stopReconnectLocked()
	c.forceClose = false

	c.gen++
	gen := c.gen
	c.phase = PhaseConnecting
	c.logger.Debug().Str("url", c.cfg.URL()).Msg("connecting")
	c.emitter.emit(Event{Name: EventConnecting})

	go c.dial(gen)
}

func (c *Client) dial(gen int) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ConnectTimeout)
	defer cancel()

	ua := fmt.Sprintf("SpeechBubble Bot API v%s", Version)
	conn, err := c.dialer.Dial(ctx, c.cfg.URL(), ua)
	if err != nil {
		c.do(func() {
			if gen != c.gen {
				return
			}
			c.emitError(fmt.Errorf("dial: %w", err))
			c.onClosed(gen, websocket.StatusAbnormalClosure, "connect failed")
		})
		return
	}
	c.do(func() { c.onOpen(gen, conn) })
}

func (c *Client) onOpen(gen int, conn Conn) {
	if gen != c.gen || c.forceClose {
		go conn.Close(websocket.StatusNormalClosure, "stale connection")
		return
	}
	c.conn = conn
	c.connected = true
	c.phase = PhaseAwaitingAuth
	c.lastPing = time.Now()
	c.logger.Info().Str("url", c.cfg.URL()).Msg("connected")

	c.authenticateLocked()
	c.emitter.emit(Event{Name: EventConnect})
	c.startHeyLocked(gen)

	go c.readLoop(gen, conn)
}

func (c *Client) readLoop(gen int, conn Conn) {
	for {
		data, err := conn.Read(context.Background())
		if err != nil {
			code, reason := closeStatus(err)
			c.do(func() { c.onClosed(gen, code, reason) })
			return
		}

		var env proto.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			// malformed frame: report and drop, connection unaffected
			c.do(func() {
				if gen != c.gen {
					return
				}
				c.emitError(fmt.Errorf("parse message: %w", err))
			})
			continue
		}
		c.do(func() { c.onFrame(gen, env) })
	}
}

func (c *Client) onClosed(gen int, code websocket.StatusCode, reason string) {
	if gen != c.gen {
		return
	}
	wasForced := c.forceClose
	c.teardownLocked()
	c.logger.Info().Int("code", int(code)).Str("reason", reason).Msg("connection closed")
	c.emitter.emit(Event{Name: EventClose, Code: code, Reason: reason})

	if wasForced {
		// deliberate disconnect, stop here
		return
	}
	if c.cfg.Reconnect {
		c.scheduleReconnectLocked()
	}
}

func (c *Client) disconnectLocked() {
	// Cancel any pending reconnect on both paths so rapid
	// connect/disconnect cycles cannot leave a dangling timer.
	c.stopReconnectLocked()

	if c.conn != nil {
		c.forceClose = true
		old := c.conn
		go old.Close(websocket.StatusNormalClosure, "client disconnect")
		return
	}
	if c.phase == PhaseConnecting {
		// dial still in flight; its result must be discarded
		c.forceClose = true
		c.phase = PhaseDisconnected
	}
}

func (c *Client) teardownLocked() {
	c.stopHeyLocked()
	c.conn = nil
	c.connected = false
	c.phase = PhaseDisconnected
}

func (c *Client) scheduleReconnectLocked() {
	c.stopReconnectLocked()
	c.logger.Info().Dur("delay", c.cfg.ReconnectDelay).Msg("scheduling reconnect")

	var t *time.Timer
	t = time.AfterFunc(c.cfg.ReconnectDelay, func() {
		c.do(func() {
			if c.reconnectTimer != t {
				// cancelled or superseded after firing
				return
			}
			c.reconnectTimer = nil
			c.connectLocked()
		})
	})
	c.reconnectTimer = t
}

func (c *Client) stopReconnectLocked() {
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
}

func (c *Client) startHeyLocked(gen int) {
	if c.heyTimer != nil {
		return
	}
	c.scheduleHeyLocked(gen)
}

func (c *Client) scheduleHeyLocked(gen int) {
	c.heyTimer = time.AfterFunc(c.cfg.HeyFreq, func() {
		c.do(func() {
			if gen != c.gen || !c.connected {
				return
			}
			c.sendLocked(proto.CmdHey, struct{}{})
			c.scheduleHeyLocked(gen)
		})
	})
}

func (c *Client) stopHeyLocked() {
	if c.heyTimer != nil {
		c.heyTimer.Stop()
		c.heyTimer = nil
	}
}

func (c *Client) emitError(err error) {
	c.logger.Error().Err(err).Msg("client error")
	c.emitter.emit(Event{Name: EventError, Err: err})
}
