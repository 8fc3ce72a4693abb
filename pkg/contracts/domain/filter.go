package domain

// All is the sentinel dropdown value that disables an equality filter.
const All = "All"

// FilterMode is the sidebar state of the dashboard.
type FilterMode string

const (
	FiltersHidden FilterMode = "hidden"
	FiltersShown  FilterMode = "shown"
)

// FilterState holds the filter selections of one dashboard session.
//
// Year always applies. Maker, Category and VehicleClass only apply while the
// filters are shown (Active) and are not the All sentinel.
type FilterState struct {
	Active       bool   `json:"active"`
	Maker        string `json:"maker"`
	Year         int    `json:"year"`
	Category     string `json:"category"`
	VehicleClass string `json:"vehicle_class"`
}

// DefaultFilterState returns the initial state of a session: filters hidden,
// every dropdown on All and the year slider on the most recent year.
func DefaultFilterState(latestYear int) FilterState {
	return FilterState{
		Active:       false,
		Maker:        All,
		Year:         latestYear,
		Category:     All,
		VehicleClass: All,
	}
}

// Mode maps the toggle onto the two UI states.
func (s FilterState) Mode() FilterMode {
	if s.Active {
		return FiltersShown
	}
	return FiltersHidden
}

// Toggle flips between FiltersHidden and FiltersShown. Hiding the filters
// resets the selections, the same way the controls reset when they leave the
// page.
func (s FilterState) Toggle(latestYear int) FilterState {
	if s.Active {
		return DefaultFilterState(latestYear)
	}
	next := s
	next.Active = true
	if next.Year == 0 {
		next.Year = latestYear
	}
	return next
}

// EffectiveYear is the year the dashboard renders: the selected year while
// the filters are shown, otherwise the most recent year in the data.
func (s FilterState) EffectiveYear(latestYear int) int {
	if s.Active && s.Year != 0 {
		return s.Year
	}
	return latestYear
}

// MakerFilter returns the maker constraint and whether it applies.
func (s FilterState) MakerFilter() (string, bool) {
	return s.Maker, applies(s.Active, s.Maker)
}

// CategoryFilter returns the category constraint and whether it applies.
func (s FilterState) CategoryFilter() (string, bool) {
	return s.Category, applies(s.Active, s.Category)
}

// VehicleClassFilter returns the vehicle class constraint and whether it applies.
func (s FilterState) VehicleClassFilter() (string, bool) {
	return s.VehicleClass, applies(s.Active, s.VehicleClass)
}

func applies(active bool, value string) bool {
	return active && value != "" && value != All
}

// FilterOptions are the values offered by the sidebar controls.
type FilterOptions struct {
	Makers         []string `json:"makers"`
	Categories     []string `json:"categories"`
	VehicleClasses []string `json:"vehicle_classes"`
	MinYear        int      `json:"min_year"`
	MaxYear        int      `json:"max_year"`
}
