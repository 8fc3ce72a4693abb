package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"evdash/pkg/contracts/domain"
)

// SalesHeaders are the columns of the exported table view.
var SalesHeaders = []string{"maker", "cat", "year", "sales"}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteSalesCSV writes the long-form sales records. Missing sales are left
// blank.
func WriteSalesCSV(w io.Writer, records []domain.SalesRecord, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(SalesHeaders); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, r := range records {
		row := []string{r.Maker, r.Category, strconv.Itoa(r.Year), formatFloat(r.Sales)}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
