package services

import (
	"errors"
	"fmt"
	"strings"
)

// Dashboard errors
var (
	ErrUnknownMaker        = errors.New("unknown maker")
	ErrUnknownCategory     = errors.New("unknown category")
	ErrUnknownVehicleClass = errors.New("unknown vehicle class")
	ErrYearOutOfRange      = errors.New("year out of range")
	ErrInvalidInput        = errors.New("invalid input")
	ErrFiltersHidden       = errors.New("filters are hidden")
	ErrUnknownPanel        = errors.New("unknown panel")
	ErrSessionNotFound     = errors.New("session not found")
	ErrUnknownExport       = errors.New("unknown export format")
)

// FieldError is a rejected filter value.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

func (e FieldError) Unwrap() error { return e.Err }

// FilterError collects every rejected value of one filter update.
type FilterError struct {
	Fields []FieldError
}

func (e *FilterError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return "invalid filters: " + strings.Join(msgs, "; ")
}

// Unwrap exposes the per-field sentinels to errors.Is.
func (e *FilterError) Unwrap() []error {
	errs := make([]error, len(e.Fields))
	for i, f := range e.Fields {
		errs[i] = f
	}
	return errs
}
