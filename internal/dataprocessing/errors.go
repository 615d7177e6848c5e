package dataprocessing

import (
	"errors"
	"fmt"
)

// ErrNoColumns is the cause of a LoadError for a workbook without usable
// columns.
var ErrNoColumns = errors.New("workbook has no columns")

// LoadError reports an upload that could not be read as a workbook.
type LoadError struct {
	Source string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("load %s: %s", e.Source, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Err }

// SchemaError reports a column a stage requires but cannot find.
type SchemaError struct {
	Stage  string
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: column %q: %s", e.Stage, e.Column, e.Reason)
}

// ParseError describes a cell that could not be interpreted. It is never
// returned from a stage; stages turn the cell into null and count it.
type ParseError struct {
	Column string
	Raw    string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s value %q: %v", e.Column, e.Raw, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsLoadError reports whether err is or wraps a LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// IsSchemaError reports whether err is or wraps a SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}
