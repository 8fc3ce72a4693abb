package report

import "evdash/pkg/contracts/domain"

// FilterSales returns the records matching the state. The effective year
// always applies; maker and category only apply while the filters are shown
// and are not All. The result is never nil.
func FilterSales(state domain.FilterState, records []domain.SalesRecord, latestYear int) []domain.SalesRecord {
	year := state.EffectiveYear(latestYear)
	maker, byMaker := state.MakerFilter()
	category, byCategory := state.CategoryFilter()

	out := make([]domain.SalesRecord, 0, len(records))
	for _, r := range records {
		if r.Year != year {
			continue
		}
		if byMaker && r.Maker != maker {
			continue
		}
		if byCategory && r.Category != category {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterVehicleClasses applies the vehicle class equality under the same
// toggle. With no active constraint it returns a copy of the input.
func FilterVehicleClasses(state domain.FilterState, records []domain.VehicleClassRecord) []domain.VehicleClassRecord {
	class, byClass := state.VehicleClassFilter()

	out := make([]domain.VehicleClassRecord, 0, len(records))
	for _, r := range records {
		if byClass && r.VehicleClass != class {
			continue
		}
		out = append(out, r)
	}
	return out
}
