package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"evdash/internal/charts"
	"evdash/internal/dataset"
	"evdash/internal/exporter"
	"evdash/internal/infrastructure"
	"evdash/internal/session"
	"evdash/pkg/contracts/domain"
)

// ReportRunner produces reports from the loaded data.
type ReportRunner interface {
	Run(ctx context.Context, state domain.FilterState) (*domain.Report, error)
	LatestYear() int
	Options() domain.FilterOptions
	Inventory() []dataset.Inventory
}

// ExportFormat names a download.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// FilterRequest is a partial filter update. Nil fields keep their value.
type FilterRequest struct {
	Maker        *string `json:"maker,omitempty" validate:"omitempty,min=1,max=100"`
	Year         *int    `json:"year,omitempty" validate:"omitempty,gte=1900,lte=2100"`
	Category     *string `json:"category,omitempty" validate:"omitempty,min=1,max=100"`
	VehicleClass *string `json:"vehicle_class,omitempty" validate:"omitempty,min=1,max=100"`
}

// Empty reports whether the request changes nothing.
func (r FilterRequest) Empty() bool {
	return r.Maker == nil && r.Year == nil && r.Category == nil && r.VehicleClass == nil
}

// DashboardService runs the report pipeline for browser sessions.
type DashboardService struct {
	runner   ReportRunner
	sessions *session.Store
	validate *validator.Validate
	logger   *slog.Logger
	metrics  *infrastructure.BusinessMetrics
}

// NewDashboardService creates the service. metrics may be nil.
func NewDashboardService(runner ReportRunner, sessions *session.Store, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *DashboardService {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &DashboardService{
		runner:   runner,
		sessions: sessions,
		validate: v,
		logger:   infrastructure.WithComponent(logger, "dashboard_service"),
		metrics:  metrics,
	}
}

// Session returns the filter state of id, starting a new session with the
// default state when id is empty or no longer known.
func (s *DashboardService) Session(ctx context.Context, id string) (string, domain.FilterState, bool) {
	return s.sessions.GetOrCreate(ctx, id, func() domain.FilterState {
		return domain.DefaultFilterState(s.runner.LatestYear())
	})
}

// State returns the filter state of an existing session.
func (s *DashboardService) State(ctx context.Context, id string) (domain.FilterState, error) {
	state, err := s.sessions.Get(ctx, id)
	if err != nil {
		return domain.FilterState{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return state, nil
}

// Report runs the pipeline for the session's current state.
func (s *DashboardService) Report(ctx context.Context, id string) (*domain.Report, error) {
	state, err := s.State(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.runner.Run(ctx, state)
}

// Toggle flips the session between FiltersHidden and FiltersShown.
func (s *DashboardService) Toggle(ctx context.Context, id string) (domain.FilterState, error) {
	latest := s.runner.LatestYear()
	next, err := s.sessions.Update(ctx, id, func(st domain.FilterState) (domain.FilterState, error) {
		return st.Toggle(latest), nil
	})
	if err != nil {
		return domain.FilterState{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	infrastructure.RecordToggle(ctx, s.metrics, string(next.Mode()))
	infrastructure.AddSpanEvent(ctx, "filters.toggled", map[string]interface{}{
		"filters.mode": string(next.Mode()),
	})
	s.logger.InfoContext(ctx, "filters toggled",
		slog.String("mode", string(next.Mode())))
	return next, nil
}

// UpdateFilters applies req to the session. The filters must be shown; every
// value is checked against the loaded data and a rejected request leaves the
// state unchanged.
func (s *DashboardService) UpdateFilters(ctx context.Context, id string, req FilterRequest) (domain.FilterState, error) {
	if err := s.Validate(req); err != nil {
		return domain.FilterState{}, err
	}

	next, err := s.sessions.Update(ctx, id, func(st domain.FilterState) (domain.FilterState, error) {
		if !st.Active {
			return st, ErrFiltersHidden
		}
		return apply(st, req), nil
	})
	switch {
	case errors.Is(err, session.ErrNotFound):
		return domain.FilterState{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	case err != nil:
		return domain.FilterState{}, err
	}

	infrastructure.AddSpanEvent(ctx, "filters.updated", map[string]interface{}{
		"filters.maker":         next.Maker,
		"filters.year":          next.Year,
		"filters.category":      next.Category,
		"filters.vehicle_class": next.VehicleClass,
	})
	s.logger.DebugContext(ctx, "filters updated",
		slog.String("maker", next.Maker),
		slog.Int("year", next.Year),
		slog.String("category", next.Category),
		slog.String("vehicle_class", next.VehicleClass))
	return next, nil
}

// Validate checks req structurally and against the values in the data.
func (s *DashboardService) Validate(req FilterRequest) error {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		fe := &FilterError{}
		for _, v := range verrs {
			fe.Fields = append(fe.Fields, FieldError{
				Field: v.Field(),
				Value: fmt.Sprint(v.Value()),
				Err:   fmt.Errorf("%w: failed %s=%s", ErrInvalidInput, v.Tag(), v.Param()),
			})
		}
		return fe
	}

	opts := s.runner.Options()
	fe := &FilterError{}
	check := func(field string, value *string, allowed []string, sentinel error) {
		if value == nil || *value == domain.All || slices.Contains(allowed, *value) {
			return
		}
		fe.Fields = append(fe.Fields, FieldError{Field: field, Value: *value, Err: sentinel})
	}
	check("maker", req.Maker, opts.Makers, ErrUnknownMaker)
	check("category", req.Category, opts.Categories, ErrUnknownCategory)
	check("vehicle_class", req.VehicleClass, opts.VehicleClasses, ErrUnknownVehicleClass)
	if req.Year != nil && (*req.Year < opts.MinYear || *req.Year > opts.MaxYear) {
		fe.Fields = append(fe.Fields, FieldError{
			Field: "year",
			Value: strconv.Itoa(*req.Year),
			Err:   fmt.Errorf("%w: want %d..%d", ErrYearOutOfRange, opts.MinYear, opts.MaxYear),
		})
	}

	if len(fe.Fields) > 0 {
		return fe
	}
	return nil
}

func apply(st domain.FilterState, req FilterRequest) domain.FilterState {
	if req.Maker != nil {
		st.Maker = *req.Maker
	}
	if req.Year != nil {
		st.Year = *req.Year
	}
	if req.Category != nil {
		st.Category = *req.Category
	}
	if req.VehicleClass != nil {
		st.VehicleClass = *req.VehicleClass
	}
	return st
}

// Options returns the dropdown values and year bounds.
func (s *DashboardService) Options() domain.FilterOptions {
	return s.runner.Options()
}

// Inventory lists the loaded tables.
func (s *DashboardService) Inventory() []dataset.Inventory {
	return s.runner.Inventory()
}

// ChartImage draws one panel of the session's report.
func (s *DashboardService) ChartImage(ctx context.Context, id, panelID string, format charts.Format, w io.Writer) error {
	rep, err := s.Report(ctx, id)
	if err != nil {
		return err
	}
	panel, ok := rep.Panel(panelID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPanel, panelID)
	}
	if err := charts.Render(panel, format, w); err != nil {
		return fmt.Errorf("render %s: %w", panelID, err)
	}

	infrastructure.RecordChartImage(ctx, s.metrics, panelID, string(format))
	return nil
}

// Export writes the session's report in format.
func (s *DashboardService) Export(ctx context.Context, id string, format ExportFormat, w io.Writer) error {
	if format != ExportCSV && format != ExportXLSX {
		return fmt.Errorf("%w: %s", ErrUnknownExport, format)
	}
	rep, err := s.Report(ctx, id)
	if err != nil {
		return err
	}

	switch format {
	case ExportCSV:
		err = exporter.WriteSalesCSV(w, rep.Table, exporter.WriteOptions{BOMPrefix: true})
	case ExportXLSX:
		err = exporter.WriteWorkbook(w, rep)
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", format, err)
	}

	infrastructure.RecordExport(ctx, s.metrics, string(format))
	s.logger.InfoContext(ctx, "report exported",
		slog.String("format", string(format)),
		slog.Int("rows", len(rep.Table)))
	return nil
}
