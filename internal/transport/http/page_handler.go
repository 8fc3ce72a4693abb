package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "evdash/internal/errors"
	"evdash/internal/middleware"
	"evdash/pkg/contracts/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// PlotlyURL is the charting script the page loads.
const PlotlyURL = middleware.PlotlyCDN + "/plotly-2.35.2.min.js"

type pageData struct {
	Report    *domain.Report
	PlotlyURL string
}

// PageHandler renders the dashboard page.
type PageHandler struct {
	service      DashboardService
	tmpl         *template.Template
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewPageHandler parses the embedded page template.
func NewPageHandler(service DashboardService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) (*PageHandler, error) {
	tmpl, err := template.New("dashboard.html").
		Funcs(template.FuncMap{"sales": formatSales}).
		ParseFS(templateFS, "templates/dashboard.html")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard template: %w", err)
	}
	return &PageHandler{
		service:      service,
		tmpl:         tmpl,
		logger:       logger.With(slog.String("component", "page_handler")),
		errorHandler: errorHandler,
	}, nil
}

// RegisterRoutes adds the page routes to r behind SessionMiddleware.
func (h *PageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Index)
	r.Post("/filters/toggle", h.Toggle)
}

// Index handles GET /. The filter form submits here as query parameters.
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	id := SessionID(r.Context())
	if err := applyFilterQuery(r, h.service, id, h.logger); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	rep, err := h.service.Report(r.Context(), id)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, pageData{Report: rep, PlotlyURL: PlotlyURL}); err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("render page: %w", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

// Toggle handles POST /filters/toggle from the sidebar button.
func (h *PageHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	if _, err := h.service.Toggle(r.Context(), SessionID(r.Context())); err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func formatSales(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
