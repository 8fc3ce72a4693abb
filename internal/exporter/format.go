package exporter

import (
	"math"
	"strconv"
)

// formatFloat writes whole numbers without a fraction and a missing value as
// an empty cell.
func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// cellValue maps a missing value onto an empty XLSX cell.
func cellValue(f float64) interface{} {
	if math.IsNaN(f) {
		return nil
	}
	return f
}
