package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/five82/thermo/internal/telemetry"
)

// ErrNotConnected is returned by Send while no connection is open.
var ErrNotConnected = errors.New("gateway not connected")

const (
	defaultReconnectDelay = 2 * time.Second
	eventBuffer           = 256
	kickBuffer            = 8
	maxLoggedPayload      = 256
)

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// EventKind classifies events emitted by the client.
type EventKind int

const (
	EventStateChanged EventKind = iota
	EventPatch
	EventMalformed
	EventError
)

// Event reports something that happened on the gateway connection.
type Event struct {
	Kind   EventKind
	State  ConnState
	Epoch  uint64
	ConnID string
	Patch  Patch
	Err    error
	At     time.Time
}

// Options configure a Client.
type Options struct {
	Endpoint       string
	Dialer         Dialer
	ReconnectDelay time.Duration
	Logger         zerolog.Logger
	Metrics        telemetry.Collector
	AfterFunc      AfterFunc
}

// Client keeps a single live connection to the gateway and reconnects after
// a fixed delay whenever it closes.
//
// Every connection attempt gets a new epoch. A scheduled reconnect carries
// the epoch of the connection whose close scheduled it and is dropped when
// that epoch has since been superseded.
type Client struct {
	endpoint  string
	dialer    Dialer
	delay     time.Duration
	afterFunc AfterFunc
	log       zerolog.Logger
	metrics   telemetry.Collector

	events chan Event
	kick   chan uint64
	done   chan struct{}

	running  atomic.Bool
	stopOnce sync.Once

	mu      sync.Mutex
	state   ConnState
	conn    Conn
	connID  string
	epoch   uint64
	stopped bool
	pending map[uint64]Timer

	writeMu sync.Mutex
}

// NewClient builds a Client for the given endpoint. It does not connect
// until Run is called.
func NewClient(opts Options) (*Client, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("gateway endpoint is required")
	}
	if opts.Dialer == nil {
		opts.Dialer = WebsocketDialer{}
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = defaultReconnectDelay
	}
	if opts.Metrics == nil {
		opts.Metrics = telemetry.Noop()
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = realAfterFunc
	}
	return &Client{
		endpoint:  opts.Endpoint,
		dialer:    opts.Dialer,
		delay:     opts.ReconnectDelay,
		afterFunc: opts.AfterFunc,
		log:       opts.Logger.With().Str("component", "gateway").Str("endpoint", opts.Endpoint).Logger(),
		metrics:   opts.Metrics,
		events:    make(chan Event, eventBuffer),
		kick:      make(chan uint64, kickBuffer),
		done:      make(chan struct{}),
		pending:   make(map[uint64]Timer),
	}, nil
}

// Endpoint returns the websocket URL the client dials.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// ReconnectDelay returns the fixed delay between a close and the next attempt.
func (c *Client) ReconnectDelay() time.Duration {
	return c.delay
}

// Events delivers connection events in the order they happened. The channel
// is never closed; consumers stop on their own context.
func (c *Client) Events() <-chan Event {
	return c.events
}

// State returns the current connection state.
func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Epoch returns the epoch of the current (or last) connection attempt.
func (c *Client) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// Run connects and keeps reconnecting until ctx is cancelled. It may only be
// called once.
func (c *Client) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return fmt.Errorf("gateway client already running")
	}

	go func() {
		<-ctx.Done()
		c.shutdown()
	}()

	select {
	case c.kick <- 0:
	case <-c.done:
		return nil
	}

	for {
		select {
		case <-c.done:
			return nil
		case token := <-c.kick:
			c.handleKick(ctx, token)
		}
	}
}

// Reconnect drops the current connection (if any) and connects again
// immediately. Reconnects already scheduled by earlier closes are discarded.
func (c *Client) Reconnect() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	old := c.conn
	prev := c.state
	c.epoch++
	token := c.epoch
	c.conn = nil
	c.connID = ""
	c.state = StateClosed
	c.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	c.log.Info().Uint64("epoch", token).Msg("manual reconnect requested")
	if prev != StateClosed {
		c.metrics.SetConnectionState(StateClosed.String())
		c.emit(Event{Kind: EventStateChanged, State: StateClosed, Epoch: token})
	}

	select {
	case c.kick <- token:
	case <-c.done:
	}
}

// Send writes a single-field command on the open connection.
func (c *Client) Send(cmd Command) error {
	payload, err := cmd.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}

	c.mu.Lock()
	conn, state, id := c.conn, c.state, c.connID
	c.mu.Unlock()

	if state != StateOpen || conn == nil {
		c.metrics.IncSendRejected(cmd.Field())
		c.log.Warn().Str("command", cmd.String()).Str("state", state.String()).Msg("command rejected: not connected")
		return fmt.Errorf("send %s: %w", cmd.Field(), ErrNotConnected)
	}

	c.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, payload)
	c.writeMu.Unlock()
	if err != nil {
		c.log.Warn().Err(err).Str("conn_id", id).Str("command", cmd.String()).Msg("command write failed")
		return fmt.Errorf("send %s: %w", cmd.Field(), err)
	}

	c.metrics.IncOutbound(cmd.Field())
	c.log.Debug().Str("conn_id", id).RawJSON("payload", payload).Msg("command sent")
	return nil
}

func (c *Client) handleKick(ctx context.Context, token uint64) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	if token != c.epoch || c.state == StateConnecting || c.state == StateOpen {
		current, state := c.epoch, c.state
		c.mu.Unlock()
		c.log.Debug().Uint64("token", token).Uint64("epoch", current).Str("state", state.String()).Msg("discarding stale reconnect")
		return
	}
	c.epoch++
	epoch := c.epoch
	c.state = StateConnecting
	c.mu.Unlock()

	c.metrics.SetConnectionState(StateConnecting.String())
	c.emit(Event{Kind: EventStateChanged, State: StateConnecting, Epoch: epoch})
	c.connect(ctx, epoch)
}

func (c *Client) connect(ctx context.Context, epoch uint64) {
	c.metrics.IncConnectAttempt()
	c.log.Debug().Uint64("epoch", epoch).Msg("connecting")

	conn, err := c.dialer.Dial(ctx, c.endpoint)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.log.Warn().Err(err).Uint64("epoch", epoch).Msg("socket error")
		c.emit(Event{Kind: EventError, Epoch: epoch, Err: err})
		c.closed(epoch, err)
		return
	}

	id := uuid.NewString()
	c.mu.Lock()
	if c.stopped || epoch != c.epoch {
		c.mu.Unlock()
		_ = conn.Close()
		c.log.Debug().Uint64("epoch", epoch).Msg("connection superseded while dialing")
		return
	}
	c.conn = conn
	c.connID = id
	c.state = StateOpen
	c.mu.Unlock()

	c.metrics.SetConnectionState(StateOpen.String())
	c.log.Info().Uint64("epoch", epoch).Str("conn_id", id).Msg("connection opened")
	c.emit(Event{Kind: EventStateChanged, State: StateOpen, Epoch: epoch, ConnID: id})

	go c.readLoop(epoch, id, conn)
}

func (c *Client) readLoop(epoch uint64, id string, conn Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.closed(epoch, err)
			return
		}
		if !c.current(epoch) {
			continue
		}
		c.handleMessage(epoch, id, data)
	}
}

func (c *Client) handleMessage(epoch uint64, id string, data []byte) {
	patch, err := DecodePatch(data)
	if err != nil {
		c.metrics.IncMalformed()
		c.log.Error().Err(err).Str("conn_id", id).Str("payload", clip(data)).Msg("error parsing message")
		c.emit(Event{Kind: EventMalformed, Epoch: epoch, ConnID: id, Err: err})
		return
	}
	for _, u := range patch.Updates() {
		c.metrics.IncInbound(u.Field())
	}
	if len(patch.Ignored) > 0 {
		c.log.Debug().Strs("keys", patch.Ignored).Str("conn_id", id).Msg("ignored message keys")
	}
	c.emit(Event{Kind: EventPatch, Epoch: epoch, ConnID: id, Patch: patch})
}

// closed handles the end of connection epoch. It schedules exactly one
// reconnect for the current epoch and ignores superseded ones.
func (c *Client) closed(epoch uint64, cause error) {
	c.mu.Lock()
	if c.stopped || epoch != c.epoch || c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	conn, id := c.conn, c.connID
	c.conn = nil
	c.connID = ""
	c.state = StateClosed
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	c.metrics.IncConnectionClosed()
	c.metrics.SetConnectionState(StateClosed.String())

	evt := c.log.Info().Uint64("epoch", epoch).Dur("retry_in", c.delay)
	if id != "" {
		evt = evt.Str("conn_id", id)
	}
	if cause != nil && !websocket.IsCloseError(cause, websocket.CloseNormalClosure) {
		evt = evt.AnErr("cause", cause)
	}
	evt.Msg("connection closed")

	c.scheduleReconnect(epoch)
	c.emit(Event{Kind: EventStateChanged, State: StateClosed, Epoch: epoch, ConnID: id, Err: cause})
}

func (c *Client) scheduleReconnect(epoch uint64) {
	timer := c.afterFunc(c.delay, func() { c.fire(epoch) })

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		timer.Stop()
		return
	}
	c.pending[epoch] = timer
}

func (c *Client) fire(epoch uint64) {
	c.mu.Lock()
	delete(c.pending, epoch)
	c.mu.Unlock()

	select {
	case c.kick <- epoch:
	case <-c.done:
	}
}

func (c *Client) current(epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.stopped && epoch == c.epoch
}

func (c *Client) shutdown() {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		c.stopped = true
		conn := c.conn
		c.conn = nil
		c.connID = ""
		c.state = StateDisconnected
		for epoch, timer := range c.pending {
			timer.Stop()
			delete(c.pending, epoch)
		}
		c.mu.Unlock()

		close(c.done)
		if conn != nil {
			_ = conn.Close()
		}
		c.metrics.SetConnectionState(StateDisconnected.String())
		c.log.Info().Msg("gateway client stopped")
	})
}

func (c *Client) emit(ev Event) {
	ev.At = time.Now()
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func clip(data []byte) string {
	if len(data) <= maxLoggedPayload {
		return string(data)
	}
	return string(data[:maxLoggedPayload]) + "..."
}
