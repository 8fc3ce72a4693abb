package dataset

import (
	"errors"
	"fmt"
)

// ErrMissingColumn is returned when a required column is absent after
// header normalization.
var ErrMissingColumn = errors.New("required column missing")

// MissingFileError reports an input file that does not exist or cannot be read.
type MissingFileError struct {
	Dataset string
	Path    string
	Err     error
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("dataset %s: cannot read %s: %v", e.Dataset, e.Path, e.Err)
}

func (e *MissingFileError) Unwrap() error { return e.Err }

// MalformedFileError reports a file that could be opened but not parsed.
// Line is 1-based and counts the header row; 0 means the whole file.
type MalformedFileError struct {
	Path string
	Line int
	Err  error
}

func (e *MalformedFileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed file %s at line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("malformed file %s: %v", e.Path, e.Err)
}

func (e *MalformedFileError) Unwrap() error { return e.Err }

// YearColumnError reports a wide-table column that should name a year but
// does not parse as an integer.
type YearColumnError struct {
	Column string
	Err    error
}

func (e *YearColumnError) Error() string {
	return fmt.Sprintf("year column %q is not an integer: %v", e.Column, e.Err)
}

func (e *YearColumnError) Unwrap() error { return e.Err }
