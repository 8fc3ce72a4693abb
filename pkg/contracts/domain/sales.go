package domain

import (
	"encoding/json"
	"math"
)

// SalesRecord is one row of the long-form sales table: the sales of one maker
// in one vehicle category for one year.
type SalesRecord struct {
	Maker    string  `json:"maker"`
	Category string  `json:"cat"`
	Year     int     `json:"year"`
	Sales    float64 `json:"sales"`
}

// HasSales reports whether the source cell carried a value. Blank cells are
// loaded as NaN so that sums skip them and growth excludes them.
func (r SalesRecord) HasSales() bool {
	return !math.IsNaN(r.Sales)
}

// MarshalJSON writes a missing sales value as null.
func (r SalesRecord) MarshalJSON() ([]byte, error) {
	type row struct {
		Maker    string   `json:"maker"`
		Category string   `json:"cat"`
		Year     int      `json:"year"`
		Sales    *float64 `json:"sales"`
	}
	out := row{Maker: r.Maker, Category: r.Category, Year: r.Year}
	if r.HasSales() {
		v := r.Sales
		out.Sales = &v
	}
	return json.Marshal(out)
}

// VehicleClassRecord is one row of the vehicle class registration table.
type VehicleClassRecord struct {
	VehicleClass      string  `json:"vehicle_class"`
	TotalRegistration float64 `json:"total_registration"`
}

// GrowthRecord carries the derived year-over-year columns for one
// (maker, category, year) row.
type GrowthRecord struct {
	Maker         string  `json:"maker"`
	Category      string  `json:"cat"`
	Year          int     `json:"year"`
	Sales         float64 `json:"sales"`
	PrevYearSales float64 `json:"prev_year_sales"`
	Growth        float64 `json:"growth"`
}

// Group is a summed sales bucket. Key holds the grouping value (maker, category
// or year rendered as text).
type Group struct {
	Key   string  `json:"key"`
	Sales float64 `json:"sales"`
}

// YearMakerGroup is a summed sales bucket keyed by (year, maker).
type YearMakerGroup struct {
	Year  int     `json:"year"`
	Maker string  `json:"maker"`
	Sales float64 `json:"sales"`
}

// YearTotal is the summed sales of one year.
type YearTotal struct {
	Year  int     `json:"year"`
	Sales float64 `json:"sales"`
}

// MakerShare is a maker's summed sales and its proportion of the total.
type MakerShare struct {
	Maker string  `json:"maker"`
	Sales float64 `json:"sales"`
	Share float64 `json:"share"`
}
