//-------------------------------------------------------------------------
//
// pgEdge ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package record holds the loosely typed tabular data read from staging
// tables, together with the coercion helpers used by the transformers.
package record

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("missing column")

	// ErrCoerce is returned when a value cannot be converted to the
	// declared column type.
	ErrCoerce = errors.New("value not coercible")
)

// ColumnError describes a failure tied to a single column of a record set.
// Row is -1 when the error concerns the column as a whole.
type ColumnError struct {
	Table  string
	Column string
	Row    int
	Value  any
	Err    error
}

func (e *ColumnError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("%s.%s: %v", e.Table, e.Column, e.Err)
	}
	return fmt.Sprintf("%s.%s row %d (%v): %v", e.Table, e.Column, e.Row, e.Value, e.Err)
}

func (e *ColumnError) Unwrap() error {
	return e.Err
}

// Record is a single row keyed by column name. Missing keys and nil values
// are both treated as null.
type Record map[string]any

// RecordSet is an ordered collection of records sharing a column list.
type RecordSet struct {
	Name    string
	Columns []string
	Records []Record
}

// New returns an empty record set with the given columns.
func New(name string, columns ...string) *RecordSet {
	return &RecordSet{
		Name:    name,
		Columns: slices.Clone(columns),
	}
}

// Append adds a record to the set.
func (s *RecordSet) Append(r Record) {
	s.Records = append(s.Records, r)
}

// Len returns the number of records.
func (s *RecordSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// HasColumn reports whether the set declares the column.
func (s *RecordSet) HasColumn(col string) bool {
	return slices.Contains(s.Columns, col)
}

// Require returns a *ColumnError wrapping ErrMissingColumn for the first
// column in cols that the set does not declare.
func (s *RecordSet) Require(cols ...string) error {
	for _, col := range cols {
		if !s.HasColumn(col) {
			return &ColumnError{Table: s.Name, Column: col, Row: -1, Err: ErrMissingColumn}
		}
	}
	return nil
}

// CoerceError builds a *ColumnError wrapping ErrCoerce for row i.
func (s *RecordSet) CoerceError(col string, i int, value any, err error) error {
	if err == nil {
		err = ErrCoerce
	} else if !errors.Is(err, ErrCoerce) {
		err = fmt.Errorf("%w: %v", ErrCoerce, err)
	}
	return &ColumnError{Table: s.Name, Column: col, Row: i, Value: value, Err: err}
}
