package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"evdash/internal/infrastructure"
	"evdash/internal/session"
	live "evdash/internal/websocket"
)

// SessionStatsSource reports session store counters.
type SessionStatsSource interface {
	Stats() session.Stats
}

// LiveStatsSource reports live channel counters.
type LiveStatsSource interface {
	Stats() live.Stats
}

// MetricsSnapshot is the JSON body of GET /api/metrics.
type MetricsSnapshot struct {
	Timestamp time.Time                   `json:"timestamp"`
	Runtime   infrastructure.RuntimeStats `json:"runtime"`
	Sessions  *session.Stats              `json:"sessions,omitempty"`
	Live      *live.Stats                 `json:"live,omitempty"`
}

// MetricsHandler serves process counters as JSON. Prometheus metrics are
// served separately on /metrics.
type MetricsHandler struct {
	sessions  SessionStatsSource
	live      LiveStatsSource
	startTime time.Time
}

// NewMetricsHandler creates a new metrics handler. Either source may be nil.
func NewMetricsHandler(sessions SessionStatsSource, liveStats LiveStatsSource) *MetricsHandler {
	return &MetricsHandler{sessions: sessions, live: liveStats, startTime: time.Now()}
}

// Routes sets up the metrics routes
func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetMetrics)
	return r
}

// GetMetrics handles GET /api/metrics
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	snap := MetricsSnapshot{
		Timestamp: time.Now().UTC(),
		Runtime:   infrastructure.CollectRuntimeStats(h.startTime),
	}
	if h.sessions != nil {
		s := h.sessions.Stats()
		snap.Sessions = &s
	}
	if h.live != nil {
		l := h.live.Stats()
		snap.Live = &l
	}
	render.JSON(w, r, snap)
}
