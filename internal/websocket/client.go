package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"evdash/internal/infrastructure"
)

// Defaults for Options fields left at zero.
const (
	DefaultWriteWait      = 10 * time.Second
	DefaultPongWait       = 60 * time.Second
	DefaultMaxMessageSize = 4096
	DefaultSendBuffer     = 16
)

// ErrSendBufferFull is returned when a slow client cannot take another frame.
var ErrSendBufferFull = errors.New("client send buffer full")

var errClientClosed = errors.New("client closed")

// Dispatcher answers one page message with the frame to send back.
type Dispatcher func(ctx context.Context, msg Message) Envelope

// Options tune the pumps.
type Options struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

func (o Options) withDefaults() Options {
	if o.WriteWait <= 0 {
		o.WriteWait = DefaultWriteWait
	}
	if o.PongWait <= 0 {
		o.PongWait = DefaultPongWait
	}
	if o.PingPeriod <= 0 || o.PingPeriod >= o.PongWait {
		o.PingPeriod = (o.PongWait * 9) / 10
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = DefaultMaxMessageSize
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = DefaultSendBuffer
	}
	return o
}

// Client is one connected dashboard page.
type Client struct {
	hub      *Hub
	conn     Connection
	dispatch Dispatcher
	opts     Options

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	id          string
	traceID     string
	connectedAt time.Time
	logger      *slog.Logger
}

// NewClient wraps conn. dispatch handles every message except heartbeats.
func NewClient(hub *Hub, conn Connection, dispatch Dispatcher, opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.withDefaults()
	id := uuid.New().String()
	return &Client{
		hub:         hub,
		conn:        conn,
		dispatch:    dispatch,
		opts:        opts,
		send:        make(chan []byte, opts.SendBuffer),
		done:        make(chan struct{}),
		id:          id,
		connectedAt: time.Now(),
		logger: logger.With(
			slog.String("component", "websocket.client"),
			slog.String("client_id", id)),
	}
}

// ID returns the client id.
func (c *Client) ID() string {
	return c.id
}

// WithTrace tags the client's log lines and frames with traceID.
func (c *Client) WithTrace(traceID string) *Client {
	c.traceID = traceID
	return c
}

// Serve registers the client, greets it with first and pumps messages until
// the connection closes. It blocks.
func (c *Client) Serve(ctx context.Context, first Envelope) error {
	if err := c.hub.Register(c); err != nil {
		_ = c.conn.Close()
		return err
	}
	if err := c.Send(first); err != nil {
		c.logger.WarnContext(ctx, "greeting dropped", slog.String("error", err.Error()))
	}

	go c.WritePump(ctx)
	c.ReadPump(ctx)
	return nil
}

// Send queues env without blocking.
func (c *Client) Send(env Envelope) error {
	if env.TraceID == "" {
		env.TraceID = c.traceID
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return errClientClosed
	default:
	}
	select {
	case c.send <- data:
		c.hub.countSent(false)
		return nil
	case <-c.done:
		return errClientClosed
	default:
		c.hub.countSent(true)
		return ErrSendBufferFull
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// ReadPump reads page messages and answers each through the dispatcher.
func (c *Client) ReadPump(ctx context.Context) {
	if c.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, c.traceID)
	}
	ctx = infrastructure.EnsureTraceID(ctx)
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
		c.logger.InfoContext(ctx, "client disconnected",
			slog.Duration("connection_duration", time.Since(c.connectedAt)))
	}()

	c.conn.SetReadLimit(c.opts.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.WarnContext(ctx, "unexpected close", slog.String("error", err.Error()))
			}
			return
		}
		c.hub.countReceived()
		_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))

		msg, err := ParseMessage(data)
		if err != nil {
			_ = c.Send(NewErrorEnvelope(http.StatusBadRequest, "INVALID_MESSAGE", err.Error(), nil))
			continue
		}
		if msg.Type == TypeHeartbeat {
			continue
		}

		if err := c.Send(c.dispatch(ctx, msg)); err != nil {
			c.logger.WarnContext(ctx, "reply dropped",
				slog.String("type", msg.Type),
				slog.String("error", err.Error()))
		}
	}
}

// WritePump writes queued frames and keeps the connection alive with pings.
// It sends a close frame once the client is closed.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(c.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			if err := c.write(websocket.TextMessage, data); err != nil {
				c.logger.DebugContext(ctx, "write failed", slog.String("error", err.Error()))
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(ctx, "ping failed", slog.String("error", err.Error()))
				return
			}
		case <-c.done:
			c.drain()
			_ = c.write(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "closing"))
			return
		}
	}
}

// drain flushes frames queued before the client was closed.
func (c *Client) drain() {
	for {
		select {
		case data := <-c.send:
			if err := c.write(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
	return c.conn.WriteMessage(messageType, data)
}
