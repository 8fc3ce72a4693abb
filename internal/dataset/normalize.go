package dataset

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"evdash/pkg/contracts/domain"
)

// Normalized column names.
const (
	ColumnMaker             = "maker"
	ColumnCategory          = "cat"
	ColumnVehicleClass      = "vehicle class"
	ColumnTotalRegistration = "total registration"
)

// NormalizeColumns trims and lowercases every header of t in place.
// Applying it twice changes nothing.
func NormalizeColumns(t *Table) {
	if t == nil {
		return
	}
	for i, c := range t.Columns {
		t.Columns[i] = NormalizeColumn(c)
	}
}

// NormalizeColumn is the per-header transform of NormalizeColumns.
func NormalizeColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// MeltSales reshapes the wide sales table (maker, cat, one column per year)
// into one record per (maker, category, year). Records follow source row
// order, then year column order.
func MeltSales(t *Table) ([]domain.SalesRecord, error) {
	makerIdx := t.ColumnIndex(ColumnMaker)
	catIdx := t.ColumnIndex(ColumnCategory)
	if makerIdx < 0 {
		return nil, fmt.Errorf("%s: column %q: %w", t.Name, ColumnMaker, ErrMissingColumn)
	}
	if catIdx < 0 {
		return nil, fmt.Errorf("%s: column %q: %w", t.Name, ColumnCategory, ErrMissingColumn)
	}

	type yearColumn struct {
		index int
		name  string
		year  int
	}
	var years []yearColumn
	for i, c := range t.Columns {
		if i == makerIdx || i == catIdx {
			continue
		}
		year, err := strconv.Atoi(strings.TrimSpace(c))
		if err != nil {
			return nil, &YearColumnError{Column: c, Err: err}
		}
		years = append(years, yearColumn{index: i, name: c, year: year})
	}

	records := make([]domain.SalesRecord, 0, len(t.Rows)*len(years))
	for rowIdx, row := range t.Rows {
		for _, yc := range years {
			sales, err := ParseNumber(row[yc.index])
			if err != nil {
				return nil, &MalformedFileError{
					Path: t.Path,
					Line: t.Line(rowIdx),
					Err:  fmt.Errorf("column %q: %w", yc.name, err),
				}
			}
			records = append(records, domain.SalesRecord{
				Maker:    row[makerIdx],
				Category: row[catIdx],
				Year:     yc.year,
				Sales:    sales,
			})
		}
	}

	return records, nil
}

// WideRow is one (maker, category) row of the wide sales table.
type WideRow struct {
	Maker    string
	Category string
	Sales    map[int]float64
}

// PivotSales is the inverse of MeltSales. Years and rows keep first-seen order.
func PivotSales(records []domain.SalesRecord) ([]int, []WideRow) {
	var years []int
	seenYear := make(map[int]bool)
	index := make(map[[2]string]int)
	var rows []WideRow

	for _, r := range records {
		if !seenYear[r.Year] {
			seenYear[r.Year] = true
			years = append(years, r.Year)
		}
		key := [2]string{r.Maker, r.Category}
		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, WideRow{Maker: r.Maker, Category: r.Category, Sales: make(map[int]float64)})
		}
		rows[i].Sales[r.Year] = r.Sales
	}

	return years, rows
}

// VehicleClasses reads the normalized vehicle class table. A blank
// registration count is read as zero.
func VehicleClasses(t *Table) ([]domain.VehicleClassRecord, error) {
	classIdx := t.ColumnIndex(ColumnVehicleClass)
	totalIdx := t.ColumnIndex(ColumnTotalRegistration)
	if classIdx < 0 {
		return nil, fmt.Errorf("%s: column %q: %w", t.Name, ColumnVehicleClass, ErrMissingColumn)
	}
	if totalIdx < 0 {
		return nil, fmt.Errorf("%s: column %q: %w", t.Name, ColumnTotalRegistration, ErrMissingColumn)
	}

	records := make([]domain.VehicleClassRecord, 0, len(t.Rows))
	for rowIdx, row := range t.Rows {
		total, err := ParseNumber(row[totalIdx])
		if err != nil {
			return nil, &MalformedFileError{
				Path: t.Path,
				Line: t.Line(rowIdx),
				Err:  fmt.Errorf("column %q: %w", ColumnTotalRegistration, err),
			}
		}
		if math.IsNaN(total) {
			total = 0
		}
		records = append(records, domain.VehicleClassRecord{
			VehicleClass:      row[classIdx],
			TotalRegistration: total,
		})
	}
	return records, nil
}

// thousandsGrouped matches a number whose integer part is split into groups
// of three digits by commas.
var thousandsGrouped = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// ParseNumber parses a numeric cell. Blank cells yield NaN. Commas are only
// accepted as thousands separators.
func ParseNumber(cell string) (float64, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return math.NaN(), nil
	}
	if strings.Contains(s, ",") {
		if !thousandsGrouped.MatchString(s) {
			return 0, fmt.Errorf("invalid number %q", cell)
		}
		s = strings.ReplaceAll(s, ",", "")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", cell)
	}
	if math.IsInf(v, 0) {
		return 0, errors.New("number out of range")
	}
	return v, nil
}
