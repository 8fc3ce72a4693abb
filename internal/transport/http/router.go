package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"evdash/internal/middleware"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Page      *PageHandler
	API       *DashboardHandler
	Live      *LiveHandler
	Health    *HealthHandler
	Metrics   *MetricsHandler
	ClientLog *ClientLogHandler
	Sessions  *SessionMiddleware
	Bodies    *middleware.BodyValidator
}

// Register mounts every route on r. wrap applies to every route except the
// websocket, which stays open for the life of the page. Request bodies of the
// API pass through Bodies.
func (hs Handlers) Register(r chi.Router, wrap ...func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(wrap...)

		r.Route("/api", func(r chi.Router) {
			r.Mount("/health", hs.Health.Routes())
			r.Get("/version", hs.Health.Version)
			r.Mount("/metrics", hs.Metrics.Routes())
			r.With(middleware.ContentTypeValidator(hs.ClientLog.errorHandler, "application/json"), hs.Bodies.Handler).
				Post("/client-log", hs.ClientLog.Handle)

			r.Group(func(r chi.Router) {
				r.Use(hs.Sessions.Handler, hs.Bodies.Handler)
				hs.API.RegisterRoutes(r)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(hs.Sessions.Handler)
			hs.Page.RegisterRoutes(r)
		})
	})

	r.With(middleware.WebSocketTraceMiddleware(hs.Live.logger), hs.Sessions.Handler).
		Get("/ws", hs.Live.ServeWS)
}
