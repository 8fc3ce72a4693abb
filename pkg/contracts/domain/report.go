package domain

import "time"

// PanelKind is the chart type of a dashboard panel.
type PanelKind string

const (
	PanelBar  PanelKind = "bar"
	PanelPie  PanelKind = "pie"
	PanelLine PanelKind = "line"
)

// Point is one labelled value of a chart series.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Series is a named run of points. Multi-series bar panels stack their series.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Panel is a render-ready chart definition.
type Panel struct {
	ID      string    `json:"id"`
	Heading string    `json:"heading"`
	Title   string    `json:"title"`
	Kind    PanelKind `json:"kind"`
	Stacked bool      `json:"stacked,omitempty"`
	Markers bool      `json:"markers,omitempty"`
	XLabel  string    `json:"x_label,omitempty"`
	YLabel  string    `json:"y_label,omitempty"`
	// Categories is the x-axis order. Empty means the order points appear in.
	Categories []string `json:"categories,omitempty"`
	Series     []Series `json:"series"`
}

// IsEmpty reports whether the panel has nothing to draw.
func (p Panel) IsEmpty() bool {
	for _, s := range p.Series {
		if len(s.Points) > 0 {
			return false
		}
	}
	return true
}

// Views are the aggregates computed by one render pass.
type Views struct {
	SalesByYearMaker []YearMakerGroup     `json:"sales_by_year_maker"`
	SalesByCategory  []Group              `json:"sales_by_category"`
	TopMakers        []Group              `json:"top_makers"`
	VehicleClasses   []VehicleClassRecord `json:"vehicle_classes"`
	YearlyTrend      []YearMakerGroup     `json:"yearly_trend"`
	MarketShare      []MakerShare         `json:"market_share"`
	Growth           []GrowthRecord       `json:"growth"`
	TotalsByYear     []YearTotal          `json:"totals_by_year"`
}

// Report is the output of one full pipeline pass for one filter state.
type Report struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Filters     FilterState   `json:"filters"`
	Mode        FilterMode    `json:"mode"`
	Year        int           `json:"year"`
	Options     FilterOptions `json:"options"`
	Panels      []Panel       `json:"panels"`
	Views       Views         `json:"views"`
	Table       []SalesRecord `json:"table"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// Panel returns the panel with the given id.
func (r *Report) Panel(id string) (Panel, bool) {
	for _, p := range r.Panels {
		if p.ID == id {
			return p, true
		}
	}
	return Panel{}, false
}
