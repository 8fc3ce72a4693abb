package report

import (
	"math"
	"sort"

	"evdash/pkg/contracts/domain"
)

// TopMakersLimit is the size of the top makers ranking.
const TopMakersLimit = 10

// Groups keep first-seen order; missing sales values are skipped by every sum.

// SumByYearAndMaker groups by (year, maker) and sums sales.
func SumByYearAndMaker(records []domain.SalesRecord) []domain.YearMakerGroup {
	type key struct {
		year  int
		maker string
	}
	index := make(map[key]int)
	out := []domain.YearMakerGroup{}
	for _, r := range records {
		k := key{r.Year, r.Maker}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, domain.YearMakerGroup{Year: r.Year, Maker: r.Maker})
		}
		out[i].Sales += salesValue(r)
	}
	return out
}

// SumByCategory groups by category and sums sales.
func SumByCategory(records []domain.SalesRecord) []domain.Group {
	return sumBy(records, func(r domain.SalesRecord) string { return r.Category })
}

// SumByMaker groups by maker and sums sales.
func SumByMaker(records []domain.SalesRecord) []domain.Group {
	return sumBy(records, func(r domain.SalesRecord) string { return r.Maker })
}

// TopMakers ranks makers by summed sales, largest first, and keeps at most
// limit rows. Makers with equal sums keep their first-seen order.
func TopMakers(records []domain.SalesRecord, limit int) []domain.Group {
	groups := SumByMaker(records)
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Sales > groups[j].Sales
	})
	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}
	return groups
}

// MarketShare sums sales per maker and attaches each maker's proportion of
// the total. Shares are zero when the total is zero.
func MarketShare(records []domain.SalesRecord) []domain.MakerShare {
	groups := SumByMaker(records)
	var total float64
	for _, g := range groups {
		total += g.Sales
	}

	out := make([]domain.MakerShare, 0, len(groups))
	for _, g := range groups {
		share := 0.0
		if total != 0 {
			share = g.Sales / total
		}
		out = append(out, domain.MakerShare{Maker: g.Key, Sales: g.Sales, Share: share})
	}
	return out
}

// TotalsByYear sums sales per year in ascending year order.
func TotalsByYear(records []domain.SalesRecord) []domain.YearTotal {
	index := make(map[int]int)
	out := []domain.YearTotal{}
	for _, r := range records {
		i, ok := index[r.Year]
		if !ok {
			i = len(out)
			index[r.Year] = i
			out = append(out, domain.YearTotal{Year: r.Year})
		}
		out[i].Sales += salesValue(r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// Growth computes year-over-year growth for every (maker, category) group:
//
//	growth = (sales_t - sales_t-1) / sales_t-1 * 100
//
// The first year of each group has no previous value and is left out, as is
// any row whose previous value is zero or missing or whose own value is
// missing. Groups keep first-seen order, rows within a group ascend by year.
func Growth(records []domain.SalesRecord) []domain.GrowthRecord {
	type key struct {
		maker    string
		category string
	}
	index := make(map[key]int)
	var groups [][]domain.SalesRecord
	for _, r := range records {
		k := key{r.Maker, r.Category}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], r)
	}

	out := []domain.GrowthRecord{}
	for _, rows := range groups {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Year < rows[j].Year })
		for i := 1; i < len(rows); i++ {
			prev, cur := rows[i-1].Sales, rows[i].Sales
			if math.IsNaN(prev) || math.IsNaN(cur) || prev == 0 {
				continue
			}
			growth := (cur - prev) / prev * 100
			if math.IsNaN(growth) || math.IsInf(growth, 0) {
				continue
			}
			out = append(out, domain.GrowthRecord{
				Maker:         rows[i].Maker,
				Category:      rows[i].Category,
				Year:          rows[i].Year,
				Sales:         cur,
				PrevYearSales: prev,
				Growth:        growth,
			})
		}
	}
	return out
}

func sumBy(records []domain.SalesRecord, keyOf func(domain.SalesRecord) string) []domain.Group {
	index := make(map[string]int)
	out := []domain.Group{}
	for _, r := range records {
		k := keyOf(r)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, domain.Group{Key: k})
		}
		out[i].Sales += salesValue(r)
	}
	return out
}

func salesValue(r domain.SalesRecord) float64 {
	if math.IsNaN(r.Sales) {
		return 0
	}
	return r.Sales
}
