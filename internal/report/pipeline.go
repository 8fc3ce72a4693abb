// Package report filters and aggregates the EV sales data and assembles the
// dashboard report for one filter state.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"evdash/internal/charts"
	"evdash/internal/dataset"
	"evdash/internal/infrastructure"
	"evdash/pkg/contracts/domain"
)

const (
	Title       = "Electric Vehicle Insights Dashboard"
	Description = "Explore trends, sales, and insights in the EV market with interactive visualizations."
)

// Pipeline runs filter, aggregate and render over a dataset loaded once at
// startup. It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	data    *dataset.Dataset
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
	tracer  trace.Tracer
	now     func() time.Time
}

// NewPipeline creates a pipeline over data. metrics may be nil.
func NewPipeline(data *dataset.Dataset, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Pipeline {
	return &Pipeline{
		data:    data,
		logger:  infrastructure.WithComponent(logger, "report_pipeline"),
		metrics: metrics,
		tracer:  otel.Tracer("evdash/report"),
		now:     time.Now,
	}
}

// Dataset returns the dataset the pipeline reads.
func (p *Pipeline) Dataset() *dataset.Dataset {
	return p.data
}

// LatestYear is the year used while the filters are hidden.
func (p *Pipeline) LatestYear() int {
	return p.data.LatestYear()
}

// Options returns the dropdown values and year bounds.
func (p *Pipeline) Options() domain.FilterOptions {
	return p.data.Options()
}

// Inventory lists the loaded tables.
func (p *Pipeline) Inventory() []dataset.Inventory {
	return p.data.Inventory()
}

// Run executes one full pass for state. Loaded records are never mutated.
func (p *Pipeline) Run(ctx context.Context, state domain.FilterState) (*domain.Report, error) {
	start := p.now()
	ctx, span := p.tracer.Start(ctx, "report.run", trace.WithAttributes(
		attribute.String("filters.mode", string(state.Mode())),
		attribute.String("filters.maker", state.Maker),
		attribute.Int("filters.year", state.Year),
		attribute.String("filters.category", state.Category),
		attribute.String("filters.vehicle_class", state.VehicleClass),
	))
	defer span.End()

	report, err := p.run(ctx, state)
	elapsed := p.now().Sub(start)

	rows := 0
	if report != nil {
		rows = len(report.Table)
	}
	infrastructure.RecordReportMetrics(ctx, p.metrics, string(state.Mode()), elapsed, rows, err)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		infrastructure.WithError(p.logger, err).WarnContext(ctx, "report run failed",
			slog.String("mode", string(state.Mode())))
		return nil, err
	}

	p.logger.DebugContext(ctx, "report rendered",
		slog.String("mode", string(state.Mode())),
		slog.Int("year", report.Year),
		slog.Int("rows", rows),
		slog.Duration("elapsed", elapsed))
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, state domain.FilterState) (*domain.Report, error) {
	latest := p.data.LatestYear()
	year := state.EffectiveYear(latest)

	var filtered []domain.SalesRecord
	var classes []domain.VehicleClassRecord
	if err := p.stage(ctx, "filter", func() {
		filtered = FilterSales(state, p.data.Sales, latest)
		classes = FilterVehicleClasses(state, p.data.VehicleClasses)
	}); err != nil {
		return nil, err
	}
	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"report.year":          year,
		"report.filtered_rows": len(filtered),
	})

	var views domain.Views
	if err := p.stage(ctx, "aggregate", func() {
		views = Aggregate(filtered, classes, p.data.Sales)
	}); err != nil {
		return nil, err
	}

	var panels []domain.Panel
	if err := p.stage(ctx, "panels", func() {
		panels = charts.BuildPanels(views, year)
	}); err != nil {
		return nil, err
	}

	return &domain.Report{
		Title:       Title,
		Description: Description,
		Filters:     state,
		Mode:        state.Mode(),
		Year:        year,
		Options:     p.data.Options(),
		Panels:      panels,
		Views:       views,
		Table:       filtered,
		GeneratedAt: p.now().UTC(),
	}, nil
}

// stage runs fn in its own span once the context is still live.
func (p *Pipeline) stage(ctx context.Context, name string, fn func()) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("report %s: %w", name, err)
	}
	_, span := p.tracer.Start(ctx, "report."+name)
	defer span.End()
	fn()
	return nil
}

// Aggregate computes every view. filtered feeds the year-scoped panels, all
// feeds the yearly trend, growth and trend line panels.
func Aggregate(filtered []domain.SalesRecord, classes []domain.VehicleClassRecord, all []domain.SalesRecord) domain.Views {
	return domain.Views{
		SalesByYearMaker: SumByYearAndMaker(filtered),
		SalesByCategory:  SumByCategory(filtered),
		TopMakers:        TopMakers(filtered, TopMakersLimit),
		VehicleClasses:   classes,
		YearlyTrend:      SumByYearAndMaker(all),
		MarketShare:      MarketShare(filtered),
		Growth:           Growth(all),
		TotalsByYear:     TotalsByYear(all),
	}
}
