package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"evdash/internal/charts"
	apierrors "evdash/internal/errors"
	"evdash/internal/services"
)

// DashboardHandler serves the JSON API of the dashboard.
type DashboardHandler struct {
	service      DashboardService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates the API handler.
func NewDashboardHandler(service DashboardService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// RegisterRoutes adds the API routes to r, which is mounted at /api behind
// SessionMiddleware.
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/report", h.GetReport)
		r.Get("/filters", h.GetFilters)
		r.Put("/filters", h.UpdateFilters)
		r.Post("/filters/toggle", h.ToggleFilters)
		r.Get("/options", h.GetOptions)
		r.Get("/datasets", h.GetDatasets)
	})

	r.Get("/charts/{file}", h.GetChart)
	r.Get("/export/sales.csv", h.exportHandler(services.ExportCSV, "text/csv; charset=utf-8", "ev_sales.csv"))
	r.Get("/export/report.xlsx", h.exportHandler(services.ExportXLSX,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "ev_report.xlsx"))
}

// GetReport handles GET /api/report. Filter query parameters update the
// session first when the filters are shown and are ignored otherwise.
func (h *DashboardHandler) GetReport(w http.ResponseWriter, r *http.Request) {
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
	render.JSON(w, r, rep)
}

// applyFilterQuery updates the session from the query string when the
// filters are shown. While they are hidden the query is not read at all.
func applyFilterQuery(r *http.Request, service DashboardService, id string, logger *slog.Logger) error {
	state, err := service.State(r.Context(), id)
	if err != nil {
		return mapServiceError(err)
	}
	if !state.Active {
		if r.URL.RawQuery != "" {
			logger.DebugContext(r.Context(), "filter query ignored while hidden")
		}
		return nil
	}

	req, err := parseFilterQuery(r)
	if err != nil {
		return err
	}
	if req.Empty() {
		return nil
	}
	if _, err := service.UpdateFilters(r.Context(), id, req); err != nil {
		return mapServiceError(err)
	}
	return nil
}

// GetFilters handles GET /api/filters
func (h *DashboardHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.State(r.Context(), SessionID(r.Context()))
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}
	render.JSON(w, r, state)
}

// UpdateFilters handles PUT /api/filters with a partial JSON body.
func (h *DashboardHandler) UpdateFilters(w http.ResponseWriter, r *http.Request) {
	var req services.FilterRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	state, err := h.service.UpdateFilters(r.Context(), SessionID(r.Context()), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}
	render.JSON(w, r, state)
}

// ToggleFilters handles POST /api/filters/toggle
func (h *DashboardHandler) ToggleFilters(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.Toggle(r.Context(), SessionID(r.Context()))
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}
	render.JSON(w, r, state)
}

// GetOptions handles GET /api/options
func (h *DashboardHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Options())
}

// GetDatasets handles GET /api/datasets
func (h *DashboardHandler) GetDatasets(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Inventory())
}

// GetChart handles GET /api/charts/{panel}.{svg|png}
func (h *DashboardHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	ext := path.Ext(file)
	panelID := strings.TrimSuffix(file, ext)
	if panelID == "" || ext == "" {
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError("chart"))
		return
	}

	format, err := charts.ParseFormat(strings.TrimPrefix(ext, "."))
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	var buf bytes.Buffer
	if err := h.service.ChartImage(r.Context(), SessionID(r.Context()), panelID, format, &buf); err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

// exportHandler buffers the download so a failed export still gets a
// problem response.
func (h *DashboardHandler) exportHandler(format services.ExportFormat, contentType, filename string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := h.service.Export(r.Context(), SessionID(r.Context()), format, &buf); err != nil {
			h.errorHandler.HandleError(w, r, mapServiceError(err))
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Header().Set("Cache-Control", "no-store")
		_, _ = buf.WriteTo(w)
	}
}
