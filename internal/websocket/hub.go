// Package websocket serves the live dashboard channel. Each connected page
// sends filter actions and receives the re-rendered report for its session.
package websocket

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"evdash/internal/infrastructure"
)

// ErrHubClosed is returned when registering after the hub stopped.
var ErrHubClosed = errors.New("websocket hub closed")

// Stats are the hub counters reported by the health endpoint.
type Stats struct {
	Active           int   `json:"active"`
	TotalConnections int64 `json:"total_connections"`
	MessagesSent     int64 `json:"messages_sent"`
	MessagesReceived int64 `json:"messages_received"`
	Dropped          int64 `json:"dropped"`
}

// Hub tracks the connected clients and closes them on shutdown.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu    sync.RWMutex
	stats Stats

	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
}

// NewHub creates a hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     infrastructure.WithComponent(logger, "websocket.hub"),
		metrics:    metrics,
	}
}

// Run owns the client set until ctx is done, then tells every client the
// server is going away and closes them.
func (h *Hub) Run(ctx context.Context) error {
	h.logger.InfoContext(ctx, "websocket hub started")
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return nil

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.stats.Active = len(h.clients)
			h.stats.TotalConnections++
			count := h.stats.Active
			h.mu.Unlock()

			infrastructure.RecordLiveConnectionChange(ctx, h.metrics, 1)
			h.logger.InfoContext(ctx, "client registered",
				slog.String("client_id", c.id),
				slog.Int("total_clients", count))

		case c := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[c]
			if ok {
				delete(h.clients, c)
				h.stats.Active = len(h.clients)
			}
			count := h.stats.Active
			h.mu.Unlock()
			if !ok {
				continue
			}

			c.close()
			infrastructure.RecordLiveConnectionChange(ctx, h.metrics, -1)
			h.logger.InfoContext(ctx, "client unregistered",
				slog.String("client_id", c.id),
				slog.Int("total_clients", count),
				slog.Duration("connection_duration", time.Since(c.connectedAt)))
		}
	}
}

func (h *Hub) shutdown(ctx context.Context) {
	close(h.done)
	clients := h.snapshot()
	bye := NewEnvelope(TypeShutdown, map[string]string{"message": "server shutting down"})
	for _, c := range clients {
		_ = c.Send(bye)
		c.close()
	}

	h.mu.Lock()
	h.clients = make(map[*Client]struct{})
	h.stats.Active = 0
	h.mu.Unlock()

	if len(clients) > 0 {
		infrastructure.RecordLiveConnectionChange(ctx, h.metrics, -int64(len(clients)))
	}
	h.logger.InfoContext(ctx, "websocket hub stopped", slog.Int("closed_clients", len(clients)))
}

func (h *Hub) snapshot() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	return clients
}

// Register adds c. It fails once the hub has stopped.
func (h *Hub) Register(c *Client) error {
	select {
	case h.register <- c:
		return nil
	case <-h.done:
		return ErrHubClosed
	}
}

// Unregister removes c and stops its write pump.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
		c.close()
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stats.Active
}

// Stats returns a copy of the hub counters.
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stats
}

func (h *Hub) countSent(dropped bool) {
	h.mu.Lock()
	if dropped {
		h.stats.Dropped++
	} else {
		h.stats.MessagesSent++
	}
	h.mu.Unlock()
}

func (h *Hub) countReceived() {
	h.mu.Lock()
	h.stats.MessagesReceived++
	h.mu.Unlock()
}
