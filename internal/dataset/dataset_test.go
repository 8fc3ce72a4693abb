package dataset_test

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evdash/internal/dataset"
	"evdash/internal/shared/testutil"
	"evdash/pkg/contracts/domain"
)

func parse(t *testing.T, content string) *dataset.Table {
	t.Helper()
	table, err := dataset.ParseTable("sales", "sales.csv", strings.NewReader(content))
	require.NoError(t, err)
	return table
}

func TestParseTable(t *testing.T) {
	t.Run("strips bom and blank rows", func(t *testing.T) {
		table := parse(t, "\ufeffMaker,Cat\nA,2W\n,\nB,4W\n")
		assert.Equal(t, []string{"Maker", "Cat"}, table.Columns)
		assert.Equal(t, 2, table.Len())
		assert.Equal(t, []int{2, 4}, table.Lines)
	})

	t.Run("source lines", func(t *testing.T) {
		table := parse(t, "maker,cat\n\"A\nB\",2W\n,\nC,4W\n")
		assert.Equal(t, []int{2, 5}, table.Lines)
		assert.Equal(t, 5, table.Line(1))
		assert.Equal(t, 9, table.Line(7))
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := dataset.ParseTable("sales", "sales.csv", strings.NewReader(""))
		var malformed *dataset.MalformedFileError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, "sales.csv", malformed.Path)
	})

	t.Run("ragged row", func(t *testing.T) {
		_, err := dataset.ParseTable("sales", "sales.csv", strings.NewReader("a,b\n1,2,3\n"))
		var malformed *dataset.MalformedFileError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, 2, malformed.Line)
	})
}

func TestColumn(t *testing.T) {
	table := parse(t, "maker,cat\nA,2W\nB,4W\n")
	values, err := table.Column("maker")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, values)

	_, err = table.Column("state")
	assert.ErrorIs(t, err, dataset.ErrMissingColumn)
}

func TestNormalizeColumnsIdempotent(t *testing.T) {
	table := parse(t, " Maker ,CAT,  Vehicle Class\n")
	dataset.NormalizeColumns(table)
	once := append([]string(nil), table.Columns...)
	dataset.NormalizeColumns(table)

	assert.Equal(t, []string{"maker", "cat", "vehicle class"}, once)
	assert.Equal(t, once, table.Columns)
	dataset.NormalizeColumns(nil)
}

func TestMeltSales(t *testing.T) {
	table := parse(t, testutil.SalesCSV)
	dataset.NormalizeColumns(table)

	records, err := dataset.MeltSales(table)
	require.NoError(t, err)
	require.Len(t, records, 12)

	assert.Equal(t, domain.SalesRecord{Maker: "TATA MOTORS", Category: "4W", Year: 2021, Sales: 100}, records[0])
	assert.Equal(t, 2023, records[2].Year)

	blank := records[4]
	assert.Equal(t, "OLA ELECTRIC", blank.Maker)
	assert.Equal(t, 2022, blank.Year)
	assert.True(t, math.IsNaN(blank.Sales))
}

func TestMeltThenPivotRoundTrip(t *testing.T) {
	table := parse(t, testutil.SalesCSV)
	dataset.NormalizeColumns(table)

	records, err := dataset.MeltSales(table)
	require.NoError(t, err)

	years, rows := dataset.PivotSales(records)
	assert.Equal(t, []int{2021, 2022, 2023}, years)
	require.Len(t, rows, table.Len())

	makerIdx := table.ColumnIndex(dataset.ColumnMaker)
	catIdx := table.ColumnIndex(dataset.ColumnCategory)
	for i, src := range table.Rows {
		row := rows[i]
		assert.Equal(t, src[makerIdx], row.Maker)
		assert.Equal(t, src[catIdx], row.Category)
		for j, year := range years {
			want, err := dataset.ParseNumber(src[j+2])
			require.NoError(t, err)
			got := row.Sales[year]
			if math.IsNaN(want) {
				assert.True(t, math.IsNaN(got), "%s %d", row.Maker, year)
				continue
			}
			assert.Equal(t, want, got, "%s %d", row.Maker, year)
		}
	}
}

func TestMeltSalesErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, err error)
	}{
		{
			name:    "missing maker column",
			content: "brand,cat,2021\nA,2W,1\n",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, dataset.ErrMissingColumn)
			},
		},
		{
			name:    "non-numeric year column",
			content: "maker,cat,2021,total\nA,2W,1,1\n",
			check: func(t *testing.T, err error) {
				var yearErr *dataset.YearColumnError
				require.ErrorAs(t, err, &yearErr)
				assert.Equal(t, "total", yearErr.Column)
			},
		},
		{
			name:    "non-numeric cell",
			content: "maker,cat,2021\nA,2W,1\nB,4W,many\n",
			check: func(t *testing.T, err error) {
				var malformed *dataset.MalformedFileError
				require.ErrorAs(t, err, &malformed)
				assert.Equal(t, 3, malformed.Line)
			},
		},
		{
			name:    "line counts quoted newlines and blank rows",
			content: "maker,cat,2021\n\"A\nB\",2W,1\n,,\nC,4W,many\n",
			check: func(t *testing.T, err error) {
				var malformed *dataset.MalformedFileError
				require.ErrorAs(t, err, &malformed)
				assert.Equal(t, 5, malformed.Line)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dataset.MeltSales(parse(t, tt.content))
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantNaN bool
		wantErr bool
	}{
		{in: "42", want: 42},
		{in: " 1,200 ", want: 1200},
		{in: "1,234,567", want: 1234567},
		{in: "-12,345.5", want: -12345.5},
		{in: "1,2,3", wantErr: true},
		{in: "12,34", wantErr: true},
		{in: ",100", wantErr: true},
		{in: "1234,567", wantErr: true},
		{in: "3.5", want: 3.5},
		{in: "", wantNaN: true},
		{in: "   ", wantNaN: true},
		{in: "n/a", wantErr: true},
		{in: "1e999", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := dataset.ParseNumber(tt.in)
			switch {
			case tt.wantErr:
				assert.Error(t, err)
			case tt.wantNaN:
				require.NoError(t, err)
				assert.True(t, math.IsNaN(got))
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestVehicleClasses(t *testing.T) {
	table, err := dataset.ParseTable("vehicle_class", "vc.csv", strings.NewReader(testutil.VehicleClassCSV))
	require.NoError(t, err)
	dataset.NormalizeColumns(table)

	records, err := dataset.VehicleClasses(table)
	require.NoError(t, err)
	assert.Equal(t, []domain.VehicleClassRecord{
		{VehicleClass: "MOTOR CAR", TotalRegistration: 1200},
		{VehicleClass: "M-CYCLE/SCOOTER", TotalRegistration: 800},
		{VehicleClass: "E-RICKSHAW", TotalRegistration: 0},
	}, records)
}

func TestLoadDataset(t *testing.T) {
	dir := t.TempDir()
	sources := testutil.WriteDatasetFiles(t, dir)
	logger, logs := testutil.NewTestLogger(t)

	data, err := dataset.LoadDataset(sources, logger)
	require.NoError(t, err)

	assert.Equal(t, 6, logs.Count())
	assert.True(t, logs.ContainsAttr("dataset", dataset.Sales))
	assert.True(t, logs.ContainsAttr("total_sales", float64(1260)))
	assert.True(t, logs.ContainsAttr("max_year", int64(testutil.FixtureLatestYear)))

	minYear, maxYear := data.YearRange()
	assert.Equal(t, testutil.FixtureMinYear, minYear)
	assert.Equal(t, testutil.FixtureLatestYear, maxYear)
	assert.Equal(t, float64(100+200+300+50+400+30+60+90+0+10+20), data.TotalSales())

	opts := data.Options()
	assert.Equal(t, testutil.FixtureMakers, opts.Makers)
	assert.Equal(t, []string{"4W", "2W", "3W"}, opts.Categories)
	assert.Equal(t, []string{"MOTOR CAR", "M-CYCLE/SCOOTER", "E-RICKSHAW"}, opts.VehicleClasses)

	inv := data.Inventory()
	require.Len(t, inv, 5)
	assert.Equal(t, dataset.Category, inv[0].Name)
	for _, table := range inv {
		assert.NotZero(t, table.Rows, table.Name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	sources := testutil.WriteDatasetFiles(t, dir)
	require.NoError(t, os.Remove(sources.OperationalPC))

	logger, logs := testutil.NewTestLogger(t)
	_, err := dataset.LoadDataset(sources, logger)

	var missing *dataset.MissingFileError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, dataset.OperationalPC, missing.Dataset)
	assert.Equal(t, filepath.Join(dir, "OperationalPC.csv"), missing.Path)
	assert.Contains(t, err.Error(), "OperationalPC.csv")
	assert.True(t, logs.ContainsMessage("dataset load failed"))
}
