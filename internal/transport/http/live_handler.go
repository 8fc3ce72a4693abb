package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"

	ws "github.com/gorilla/websocket"

	apierrors "evdash/internal/errors"
	"evdash/internal/infrastructure"
	"evdash/internal/services"
	live "evdash/internal/websocket"
)

// LiveConfig tunes the websocket endpoint.
type LiveConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	AllowedOrigins  []string
	Client          live.Options
}

// LiveHandler upgrades /ws and answers page actions with fresh reports.
type LiveHandler struct {
	service      DashboardService
	hub          *live.Hub
	upgrader     ws.Upgrader
	opts         live.Options
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewLiveHandler creates the websocket handler.
func NewLiveHandler(service DashboardService, hub *live.Hub, cfg LiveConfig, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *LiveHandler {
	h := &LiveHandler{
		service:      service,
		hub:          hub,
		opts:         cfg.Client,
		logger:       logger.With(slog.String("component", "live_handler")),
		errorHandler: errorHandler,
	}
	h.upgrader = ws.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     originChecker(cfg.AllowedOrigins),
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				status, "WEBSOCKET_UPGRADE_FAILED", "WebSocket upgrade failed", reason.Error()))
		},
	}
	return h
}

// originChecker accepts requests without an Origin header, same-host
// origins and the configured allow list.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if slices.Contains(allowed, "*") || slices.Contains(allowed, origin) {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

// ServeWS handles GET /ws. It blocks until the page disconnects.
func (h *LiveHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	id := SessionID(r.Context())
	state, err := h.service.State(r.Context(), id)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := live.NewClient(h.hub, conn, h.dispatcher(id), h.opts, h.logger).
		WithTrace(infrastructure.GetTraceID(r.Context()))
	greeting := live.NewEnvelope(live.TypeConnection, map[string]interface{}{
		"client_id": client.ID(),
		"filters":   state,
	})

	h.logger.InfoContext(r.Context(), "live client connected", slog.String("client_id", client.ID()))
	if err := client.Serve(r.Context(), greeting); err != nil {
		h.logger.WarnContext(r.Context(), "live client rejected", slog.String("error", err.Error()))
	}
}

// dispatcher binds page actions to the session id.
func (h *LiveHandler) dispatcher(id string) live.Dispatcher {
	return func(ctx context.Context, msg live.Message) live.Envelope {
		var err error
		switch msg.Type {
		case live.TypeToggle:
			_, err = h.service.Toggle(ctx, id)
		case live.TypeFilter:
			_, err = h.service.UpdateFilters(ctx, id, services.FilterRequest{
				Maker:        msg.Maker,
				Year:         msg.Year,
				Category:     msg.Category,
				VehicleClass: msg.VehicleClass,
			})
		case live.TypeRefresh:
		}
		if err != nil {
			return errorEnvelope(err)
		}

		rep, err := h.service.Report(ctx, id)
		if err != nil {
			return errorEnvelope(err)
		}
		return live.NewEnvelope(live.TypeReport, rep)
	}
}

// errorEnvelope carries the same status and code the HTTP API would return.
func errorEnvelope(err error) live.Envelope {
	var apiErr *apierrors.APIError
	if errors.As(mapServiceError(err), &apiErr) {
		return live.NewErrorEnvelope(apiErr.StatusCode, apiErr.ErrorCode, apiErr.Message, apiErr.Details)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return live.NewErrorEnvelope(http.StatusGatewayTimeout, "TIMEOUT", "request cancelled", nil)
	}
	return live.NewErrorEnvelope(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal server error", nil)
}
