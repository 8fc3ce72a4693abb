package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is a CSV file held in memory: a header row and string cells.
type Table struct {
	Name    string     `json:"name"`
	Path    string     `json:"path"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"-"`
	// Lines holds the file line each row starts on.
	Lines []int `json:"-"`
}

// Line returns the file line of data row i.
func (t *Table) Line(i int) int {
	if i >= 0 && i < len(t.Lines) {
		return t.Lines[i]
	}
	return i + 2
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns every value of the named column in row order.
func (t *Table) Column(name string) ([]string, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("%s: column %q: %w", t.Name, name, ErrMissingColumn)
	}
	values := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		values = append(values, row[idx])
	}
	return values, nil
}

// ReadTable reads a comma-delimited UTF-8 file. A missing or unreadable file
// yields *MissingFileError, a parse failure *MalformedFileError.
func ReadTable(name, path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &MissingFileError{Dataset: name, Path: path, Err: err}
	}
	return ParseTable(name, path, bytes.NewReader(data))
}

// ParseTable parses CSV content read from r. Path is only used in errors.
func ParseTable(name, path string, r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &MalformedFileError{Path: path, Err: err}
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &MalformedFileError{Path: path, Err: errors.New("file is empty")}
	}
	if err != nil {
		return nil, &MalformedFileError{Path: path, Line: 1, Err: err}
	}

	table := &Table{
		Name:    name,
		Path:    path,
		Columns: append([]string(nil), header...),
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var line int
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				line = parseErr.Line
			}
			return nil, &MalformedFileError{Path: path, Line: line, Err: err}
		}
		if isBlankRow(row) {
			continue
		}
		line, _ := reader.FieldPos(0)
		table.Rows = append(table.Rows, row)
		table.Lines = append(table.Lines, line)
	}

	return table, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
