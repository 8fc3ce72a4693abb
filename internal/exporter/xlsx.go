package exporter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"evdash/internal/dataset"
	"evdash/pkg/contracts/domain"
)

// Sheet names of the report workbook, in order.
const (
	SheetSummary      = "Summary"
	SheetSales        = "Sales"
	SheetSalesWide    = "Sales (wide)"
	SheetTopMakers    = "Top makers"
	SheetMarketShare  = "Market share"
	SheetCategories   = "Categories"
	SheetClasses      = "Vehicle classes"
	SheetGrowth       = "Growth"
	SheetTotalsByYear = "Totals by year"
)

// WriteWorkbook writes rep as an XLSX workbook.
func WriteWorkbook(w io.Writer, rep *domain.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	b := &bookWriter{f: f, header: header}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("failed to rename default sheet: %w", err)
	}
	b.table(SheetSummary, []string{"field", "value"}, summaryRows(rep))
	b.table(SheetSales, []string{"maker", "cat", "year", "sales"}, salesRows(rep.Table))
	b.wide(rep.Table)
	b.table(SheetTopMakers, []string{"rank", "maker", "sales"}, rankedRows(rep.Views.TopMakers))
	b.table(SheetMarketShare, []string{"maker", "sales", "share"}, shareRows(rep.Views.MarketShare))
	b.table(SheetCategories, []string{"cat", "sales"}, groupRows(rep.Views.SalesByCategory))
	b.table(SheetClasses, []string{"vehicle_class", "total_registration"}, classRows(rep.Views.VehicleClasses))
	b.table(SheetGrowth, []string{"maker", "cat", "year", "sales", "prev_year_sales", "growth"}, growthRows(rep.Views.Growth))
	b.table(SheetTotalsByYear, []string{"year", "sales"}, totalRows(rep.Views.TotalsByYear))
	if b.err != nil {
		return b.err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// bookWriter keeps the first error so sheet writes read as a sequence.
type bookWriter struct {
	f      *excelize.File
	header int
	err    error
}

func (b *bookWriter) table(sheet string, headers []string, rows [][]interface{}) {
	if b.err != nil {
		return
	}
	if sheet != SheetSummary {
		if _, err := b.f.NewSheet(sheet); err != nil {
			b.err = fmt.Errorf("failed to add sheet %s: %w", sheet, err)
			return
		}
	}

	head := make([]interface{}, len(headers))
	for i, h := range headers {
		head[i] = h
	}
	if err := b.row(sheet, 1, head); err != nil {
		b.err = err
		return
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := b.f.SetCellStyle(sheet, "A1", last, b.header); err != nil {
		b.err = fmt.Errorf("failed to style %s header: %w", sheet, err)
		return
	}

	for i, r := range rows {
		if err := b.row(sheet, i+2, r); err != nil {
			b.err = err
			return
		}
	}
}

func (b *bookWriter) row(sheet string, n int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	if err := b.f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, n, err)
	}
	return nil
}

// wide writes the records pivoted back to one column per year.
func (b *bookWriter) wide(records []domain.SalesRecord) {
	years, rows := dataset.PivotSales(records)
	headers := []string{"maker", "cat"}
	for _, y := range years {
		headers = append(headers, strconv.Itoa(y))
	}

	out := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		line := []interface{}{r.Maker, r.Category}
		for _, y := range years {
			v, ok := r.Sales[y]
			if !ok {
				line = append(line, nil)
				continue
			}
			line = append(line, cellValue(v))
		}
		out = append(out, line)
	}
	b.table(SheetSalesWide, headers, out)
}

func summaryRows(rep *domain.Report) [][]interface{} {
	return [][]interface{}{
		{"title", rep.Title},
		{"mode", string(rep.Mode)},
		{"year", rep.Year},
		{"maker", rep.Filters.Maker},
		{"category", rep.Filters.Category},
		{"vehicle_class", rep.Filters.VehicleClass},
		{"rows", len(rep.Table)},
		{"generated_at", rep.GeneratedAt.Format("2006-01-02T15:04:05Z07:00")},
	}
}

func salesRows(records []domain.SalesRecord) [][]interface{} {
	out := make([][]interface{}, 0, len(records))
	for _, r := range records {
		out = append(out, []interface{}{r.Maker, r.Category, r.Year, cellValue(r.Sales)})
	}
	return out
}

func rankedRows(groups []domain.Group) [][]interface{} {
	out := make([][]interface{}, 0, len(groups))
	for i, g := range groups {
		out = append(out, []interface{}{i + 1, g.Key, g.Sales})
	}
	return out
}

func groupRows(groups []domain.Group) [][]interface{} {
	out := make([][]interface{}, 0, len(groups))
	for _, g := range groups {
		out = append(out, []interface{}{g.Key, g.Sales})
	}
	return out
}

func shareRows(shares []domain.MakerShare) [][]interface{} {
	out := make([][]interface{}, 0, len(shares))
	for _, s := range shares {
		out = append(out, []interface{}{s.Maker, s.Sales, s.Share})
	}
	return out
}

func classRows(classes []domain.VehicleClassRecord) [][]interface{} {
	out := make([][]interface{}, 0, len(classes))
	for _, c := range classes {
		out = append(out, []interface{}{c.VehicleClass, c.TotalRegistration})
	}
	return out
}

func growthRows(rows []domain.GrowthRecord) [][]interface{} {
	out := make([][]interface{}, 0, len(rows))
	for _, g := range rows {
		out = append(out, []interface{}{g.Maker, g.Category, g.Year, g.Sales, g.PrevYearSales, g.Growth})
	}
	return out
}

func totalRows(totals []domain.YearTotal) [][]interface{} {
	out := make([][]interface{}, 0, len(totals))
	for _, t := range totals {
		out = append(out, []interface{}{t.Year, t.Sales})
	}
	return out
}
