// Package charts turns report views into render-ready panel definitions
// and draws them as SVG or PNG images.
package charts

import (
	"fmt"
	"sort"
	"strconv"

	"evdash/pkg/contracts/domain"
)

// Panel ids in display order.
const (
	PanelSalesOverTime        = "sales-over-time"
	PanelCategoryDistribution = "category-distribution"
	PanelTopMakers            = "top-makers"
	PanelVehicleClasses       = "vehicle-classes"
	PanelYearlyTrend          = "yearly-trend"
	PanelMarketShare          = "market-share"
	PanelGrowth               = "growth"
	PanelSalesTrend           = "sales-trend"
)

// PanelIDs lists every panel id in display order.
var PanelIDs = []string{
	PanelSalesOverTime,
	PanelCategoryDistribution,
	PanelTopMakers,
	PanelVehicleClasses,
	PanelYearlyTrend,
	PanelMarketShare,
	PanelGrowth,
	PanelSalesTrend,
}

// BuildPanels lays the views out as the eight dashboard panels. Titles carry
// the selected year where it applies. Empty views give empty series.
func BuildPanels(views domain.Views, year int) []domain.Panel {
	panels := []domain.Panel{
		{
			ID:      PanelSalesOverTime,
			Heading: "📈 EV Sales Over Time",
			Title:   "EV Sales Over Time",
			Kind:    domain.PanelBar,
			Stacked: true,
			XLabel:  "year",
			YLabel:  "sales",
			Series:  seriesByMaker(views.SalesByYearMaker),
		},
		{
			ID:      PanelCategoryDistribution,
			Heading: fmt.Sprintf("📊 Sales Distribution by Vehicle Category in %d", year),
			Title:   fmt.Sprintf("EV Sales Distribution in %d", year),
			Kind:    domain.PanelBar,
			XLabel:  "cat",
			YLabel:  "sales",
			Series:  []domain.Series{groupSeries("sales", views.SalesByCategory)},
		},
		{
			ID:      PanelTopMakers,
			Heading: fmt.Sprintf("🏆 Top 10 EV Makers by Sales in %d", year),
			Title:   fmt.Sprintf("Top 10 EV Makers in %d", year),
			Kind:    domain.PanelBar,
			XLabel:  "maker",
			YLabel:  "sales",
			Series:  []domain.Series{groupSeries("sales", views.TopMakers)},
		},
		{
			ID:      PanelVehicleClasses,
			Heading: "🚗 EV Vehicle Class Distribution",
			Title:   "Distribution of EV Vehicle Classes",
			Kind:    domain.PanelBar,
			XLabel:  "vehicle class",
			YLabel:  "total registration",
			Series:  []domain.Series{vehicleClassSeries(views.VehicleClasses)},
		},
		{
			ID:      PanelYearlyTrend,
			Heading: "📊 Yearly Sales Trend for All EV Makers",
			Title:   "Yearly Sales Trend for All EV Makers",
			Kind:    domain.PanelBar,
			Stacked: true,
			XLabel:  "year",
			YLabel:  "sales",
			Series:  seriesByMaker(views.YearlyTrend),
		},
		{
			ID:      PanelMarketShare,
			Heading: fmt.Sprintf("📌 EV Market Share by Maker in %d", year),
			Title:   fmt.Sprintf("Market Share of EV Makers in %d", year),
			Kind:    domain.PanelPie,
			Series:  []domain.Series{shareSeries(views.MarketShare)},
		},
		{
			ID:      PanelGrowth,
			Heading: "📈 Year-over-Year Sales Growth",
			Title:   "Year-over-Year Sales Growth",
			Kind:    domain.PanelBar,
			Stacked: true,
			XLabel:  "year",
			YLabel:  "growth",
			Series:  growthSeries(views.Growth),
		},
		{
			ID:      PanelSalesTrend,
			Heading: "📉 EV Sales Trend Over Years",
			Title:   "EV Sales Trend Over Years",
			Kind:    domain.PanelLine,
			Markers: true,
			XLabel:  "year",
			YLabel:  "sales",
			Series:  []domain.Series{totalsSeries(views.TotalsByYear)},
		},
	}
	for i := range panels {
		if panels[i].XLabel == "year" {
			panels[i].Categories = yearAxis(panels[i].Series)
		}
	}
	return panels
}

// yearAxis returns every label of the series once, in ascending year order.
func yearAxis(series []domain.Series) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, s := range series {
		for _, p := range s.Points {
			if !seen[p.Label] {
				seen[p.Label] = true
				labels = append(labels, p.Label)
			}
		}
	}
	sort.SliceStable(labels, func(i, j int) bool {
		a, errA := strconv.Atoi(labels[i])
		b, errB := strconv.Atoi(labels[j])
		if errA != nil || errB != nil {
			return labels[i] < labels[j]
		}
		return a < b
	})
	return labels
}

// seriesByMaker splits (year, maker) sums into one series per maker, points
// ascending by year. Makers are ordered by their earliest year, ties in
// first-seen order.
func seriesByMaker(groups []domain.YearMakerGroup) []domain.Series {
	index := make(map[string]int)
	byMaker := make([][]domain.YearMakerGroup, 0)
	names := make([]string, 0)
	for _, g := range groups {
		i, ok := index[g.Maker]
		if !ok {
			i = len(names)
			index[g.Maker] = i
			names = append(names, g.Maker)
			byMaker = append(byMaker, nil)
		}
		byMaker[i] = append(byMaker[i], g)
	}

	series := make([]domain.Series, 0, len(names))
	for i, name := range names {
		rows := byMaker[i]
		sort.SliceStable(rows, func(a, b int) bool { return rows[a].Year < rows[b].Year })
		points := make([]domain.Point, 0, len(rows))
		for _, r := range rows {
			points = append(points, domain.Point{Label: strconv.Itoa(r.Year), Value: r.Sales})
		}
		series = append(series, domain.Series{Name: name, Points: points})
	}
	sort.SliceStable(series, func(i, j int) bool {
		return firstYear(series[i]) < firstYear(series[j])
	})
	return series
}

func firstYear(s domain.Series) int {
	if len(s.Points) == 0 {
		return 0
	}
	year, _ := strconv.Atoi(s.Points[0].Label)
	return year
}

// growthSeries stacks the growth of every category of a maker in one bar per
// year, one series per maker.
func growthSeries(rows []domain.GrowthRecord) []domain.Series {
	groups := make([]domain.YearMakerGroup, 0, len(rows))
	index := make(map[string]int)
	for _, r := range rows {
		k := r.Maker + "\x00" + strconv.Itoa(r.Year)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, domain.YearMakerGroup{Year: r.Year, Maker: r.Maker})
		}
		groups[i].Sales += r.Growth
	}
	return seriesByMaker(groups)
}

func groupSeries(name string, groups []domain.Group) domain.Series {
	points := make([]domain.Point, 0, len(groups))
	for _, g := range groups {
		points = append(points, domain.Point{Label: g.Key, Value: g.Sales})
	}
	return domain.Series{Name: name, Points: points}
}

func vehicleClassSeries(rows []domain.VehicleClassRecord) domain.Series {
	points := make([]domain.Point, 0, len(rows))
	for _, r := range rows {
		points = append(points, domain.Point{Label: r.VehicleClass, Value: r.TotalRegistration})
	}
	return domain.Series{Name: "total registration", Points: points}
}

func shareSeries(rows []domain.MakerShare) domain.Series {
	points := make([]domain.Point, 0, len(rows))
	for _, r := range rows {
		points = append(points, domain.Point{Label: r.Maker, Value: r.Sales})
	}
	return domain.Series{Name: "sales", Points: points}
}

func totalsSeries(rows []domain.YearTotal) domain.Series {
	points := make([]domain.Point, 0, len(rows))
	for _, r := range rows {
		points = append(points, domain.Point{Label: strconv.Itoa(r.Year), Value: r.Sales})
	}
	return domain.Series{Name: "sales", Points: points}
}
