package http

import (
	"context"
	"io"

	"evdash/internal/charts"
	"evdash/internal/dataset"
	"evdash/internal/services"
	"evdash/pkg/contracts/domain"
)

// DashboardService is what the handlers need from services.DashboardService.
type DashboardService interface {
	Session(ctx context.Context, id string) (string, domain.FilterState, bool)
	State(ctx context.Context, id string) (domain.FilterState, error)
	Report(ctx context.Context, id string) (*domain.Report, error)
	Toggle(ctx context.Context, id string) (domain.FilterState, error)
	UpdateFilters(ctx context.Context, id string, req services.FilterRequest) (domain.FilterState, error)
	Options() domain.FilterOptions
	Inventory() []dataset.Inventory
	ChartImage(ctx context.Context, id, panelID string, format charts.Format, w io.Writer) error
	Export(ctx context.Context, id string, format services.ExportFormat, w io.Writer) error
}

// Ensure the concrete service satisfies the interface.
var _ DashboardService = (*services.DashboardService)(nil)
