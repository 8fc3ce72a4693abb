package dataset

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"evdash/pkg/contracts/domain"
)

// Dataset names, used in logs, errors and the inventory endpoint.
const (
	MakerByPlace  = "maker_by_place"
	Category      = "category"
	Sales         = "sales"
	OperationalPC = "operational_pc"
	VehicleClass  = "vehicle_class"
)

// Sources lists the five input files.
type Sources struct {
	MakerByPlace  string
	Category      string
	Sales         string
	OperationalPC string
	VehicleClass  string
}

// Ordered returns the sources as (name, path) pairs in load order.
func (s Sources) Ordered() [][2]string {
	return [][2]string{
		{MakerByPlace, s.MakerByPlace},
		{Category, s.Category},
		{Sales, s.Sales},
		{OperationalPC, s.OperationalPC},
		{VehicleClass, s.VehicleClass},
	}
}

// Bundle holds the five loaded tables.
type Bundle struct {
	MakerByPlace  *Table
	Category      *Table
	Sales         *Table
	OperationalPC *Table
	VehicleClass  *Table
}

// Tables returns the tables in load order.
func (b *Bundle) Tables() []*Table {
	return []*Table{b.MakerByPlace, b.Category, b.Sales, b.OperationalPC, b.VehicleClass}
}

// Dataset is the normalized input of the report pipeline.
type Dataset struct {
	Bundle         *Bundle
	Sales          []domain.SalesRecord
	VehicleClasses []domain.VehicleClassRecord
}

// Load reads every source. Any failure aborts the whole load.
func Load(sources Sources, logger *slog.Logger) (*Bundle, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tables := make(map[string]*Table, 5)
	for _, src := range sources.Ordered() {
		name, path := src[0], src[1]
		table, err := ReadTable(name, path)
		if err != nil {
			logger.Error("dataset load failed",
				slog.String("dataset", name),
				slog.String("path", path),
				slog.String("error", err.Error()))
			return nil, err
		}
		logger.Info("dataset loaded",
			slog.String("dataset", name),
			slog.String("path", path),
			slog.Int("rows", table.Len()),
			slog.Int("columns", len(table.Columns)))
		tables[name] = table
	}

	return &Bundle{
		MakerByPlace:  tables[MakerByPlace],
		Category:      tables[Category],
		Sales:         tables[Sales],
		OperationalPC: tables[OperationalPC],
		VehicleClass:  tables[VehicleClass],
	}, nil
}

// Prepare normalizes the bundle headers and derives the typed records.
func Prepare(bundle *Bundle) (*Dataset, error) {
	NormalizeColumns(bundle.Sales)
	NormalizeColumns(bundle.Category)
	NormalizeColumns(bundle.VehicleClass)

	sales, err := MeltSales(bundle.Sales)
	if err != nil {
		return nil, fmt.Errorf("reshape sales: %w", err)
	}

	classes, err := VehicleClasses(bundle.VehicleClass)
	if err != nil {
		return nil, fmt.Errorf("read vehicle classes: %w", err)
	}

	return &Dataset{
		Bundle:         bundle,
		Sales:          sales,
		VehicleClasses: classes,
	}, nil
}

// LoadDataset runs Load followed by Prepare.
func LoadDataset(sources Sources, logger *slog.Logger) (*Dataset, error) {
	if logger == nil {
		logger = slog.Default()
	}
	bundle, err := Load(sources, logger)
	if err != nil {
		return nil, err
	}
	data, err := Prepare(bundle)
	if err != nil {
		logger.Error("dataset prepare failed", slog.String("error", err.Error()))
		return nil, err
	}

	minYear, maxYear := data.YearRange()
	logger.Info("sales data prepared",
		slog.Int("records", len(data.Sales)),
		slog.Int("min_year", minYear),
		slog.Int("max_year", maxYear),
		slog.Float64("total_sales", data.TotalSales()))
	return data, nil
}

// YearRange returns the smallest and largest year of the sales records.
func (d *Dataset) YearRange() (minYear, maxYear int) {
	for i, r := range d.Sales {
		if i == 0 || r.Year < minYear {
			minYear = r.Year
		}
		if i == 0 || r.Year > maxYear {
			maxYear = r.Year
		}
	}
	return minYear, maxYear
}

// LatestYear is the most recent year present in the sales records.
func (d *Dataset) LatestYear() int {
	_, maxYear := d.YearRange()
	return maxYear
}

// Options returns the dropdown values in first-seen order and the slider bounds.
func (d *Dataset) Options() domain.FilterOptions {
	minYear, maxYear := d.YearRange()
	opts := domain.FilterOptions{
		Makers:         []string{},
		Categories:     []string{},
		VehicleClasses: []string{},
		MinYear:        minYear,
		MaxYear:        maxYear,
	}

	seenMaker := make(map[string]bool)
	seenCategory := make(map[string]bool)
	for _, r := range d.Sales {
		if !seenMaker[r.Maker] {
			seenMaker[r.Maker] = true
			opts.Makers = append(opts.Makers, r.Maker)
		}
		if !seenCategory[r.Category] {
			seenCategory[r.Category] = true
			opts.Categories = append(opts.Categories, r.Category)
		}
	}

	seenClass := make(map[string]bool)
	for _, r := range d.VehicleClasses {
		if !seenClass[r.VehicleClass] {
			seenClass[r.VehicleClass] = true
			opts.VehicleClasses = append(opts.VehicleClasses, r.VehicleClass)
		}
	}

	return opts
}

// Inventory describes one loaded table.
type Inventory struct {
	Name    string   `json:"name"`
	Path    string   `json:"path"`
	Columns []string `json:"columns"`
	Rows    int      `json:"rows"`
}

// Inventory lists the loaded tables sorted by name.
func (d *Dataset) Inventory() []Inventory {
	out := make([]Inventory, 0, 5)
	for _, t := range d.Bundle.Tables() {
		if t == nil {
			continue
		}
		out = append(out, Inventory{
			Name:    t.Name,
			Path:    t.Path,
			Columns: append([]string(nil), t.Columns...),
			Rows:    t.Len(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// TotalSales sums every non-missing sales value.
func (d *Dataset) TotalSales() float64 {
	var total float64
	for _, r := range d.Sales {
		if !math.IsNaN(r.Sales) {
			total += r.Sales
		}
	}
	return total
}
