package report

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evdash/pkg/contracts/domain"
)

func sampleRecords() []domain.SalesRecord {
	return []domain.SalesRecord{
		{Maker: "TATA MOTORS", Category: "4W", Year: 2022, Sales: 200},
		{Maker: "TATA MOTORS", Category: "4W", Year: 2023, Sales: 300},
		{Maker: "OLA ELECTRIC", Category: "2W", Year: 2022, Sales: math.NaN()},
		{Maker: "OLA ELECTRIC", Category: "2W", Year: 2023, Sales: 400},
		{Maker: "ATHER ENERGY", Category: "2W", Year: 2023, Sales: 90},
	}
}

func shown(maker string, year int, category string) domain.FilterState {
	return domain.FilterState{Active: true, Maker: maker, Year: year, Category: category, VehicleClass: domain.All}
}

func makers(records []domain.SalesRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Maker)
	}
	return out
}

func TestFilterSales(t *testing.T) {
	tests := []struct {
		name  string
		state domain.FilterState
		want  []string
	}{
		{"hidden uses latest year", domain.DefaultFilterState(2023), []string{"TATA MOTORS", "OLA ELECTRIC", "ATHER ENERGY"}},
		{"shown with all", shown(domain.All, 2022, domain.All), []string{"TATA MOTORS", "OLA ELECTRIC"}},
		{"maker", shown("OLA ELECTRIC", 2023, domain.All), []string{"OLA ELECTRIC"}},
		{"category", shown(domain.All, 2023, "2W"), []string{"OLA ELECTRIC", "ATHER ENERGY"}},
		{"maker and category", shown("TATA MOTORS", 2023, "2W"), []string{}},
		{"year without data", shown(domain.All, 2015, domain.All), []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterSales(tt.state, sampleRecords(), 2023)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, makers(got))
		})
	}
}

func TestFilterIdempotent(t *testing.T) {
	states := []domain.FilterState{
		domain.DefaultFilterState(2023),
		shown("OLA ELECTRIC", 2023, domain.All),
		shown(domain.All, 2022, "4W"),
		shown("NOBODY", 2023, domain.All),
	}
	for _, state := range states {
		once := FilterSales(state, sampleRecords(), 2023)
		twice := FilterSales(state, once, 2023)
		assert.Equal(t, makers(once), makers(twice))
		assert.Len(t, twice, len(once))
	}
}

func TestFilterOffIdentity(t *testing.T) {
	// Selections left over while hidden never narrow the result.
	hidden := domain.FilterState{Active: false, Maker: "TATA MOTORS", Year: 2022, Category: "4W", VehicleClass: "MOTOR CAR"}
	records := sampleRecords()

	got := FilterSales(hidden, records, 2023)

	var want []domain.SalesRecord
	for _, r := range records {
		if r.Year == 2023 {
			want = append(want, r)
		}
	}
	assert.Equal(t, want, got)

	classes := []domain.VehicleClassRecord{{VehicleClass: "MOTOR CAR", TotalRegistration: 1}, {VehicleClass: "E-RICKSHAW"}}
	assert.Equal(t, classes, FilterVehicleClasses(hidden, classes))
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	records := sampleRecords()
	_ = FilterSales(shown("OLA ELECTRIC", 2023, "2W"), records, 2023)
	assert.Len(t, records, 5)
	assert.Equal(t, "TATA MOTORS", records[0].Maker)
}

func TestFilterVehicleClasses(t *testing.T) {
	classes := []domain.VehicleClassRecord{
		{VehicleClass: "MOTOR CAR", TotalRegistration: 1200},
		{VehicleClass: "E-RICKSHAW", TotalRegistration: 0},
	}
	state := shown(domain.All, 2023, domain.All)
	state.VehicleClass = "E-RICKSHAW"

	got := FilterVehicleClasses(state, classes)
	assert.Equal(t, []domain.VehicleClassRecord{{VehicleClass: "E-RICKSHAW"}}, got)

	state.VehicleClass = "BUS"
	got = FilterVehicleClasses(state, classes)
	require.NotNil(t, got)
	assert.Empty(t, got)
}
