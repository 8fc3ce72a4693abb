// Package exporter writes the dashboard data as downloadable files.
//
// WriteSalesCSV streams the table view as CSV with an optional UTF-8 BOM for
// Excel. WriteWorkbook writes one XLSX workbook holding every view of a
// report, plus the sales table pivoted back to its wide source layout.
package exporter
