//-------------------------------------------------------------------------
//
// pgEdge ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package loader

import (
	"strings"

	"github.com/pgEdge/pgedge-etl/internal/record"
)

// ColumnType is the primitive type inferred for a raw column.
type ColumnType int

const (
	Text ColumnType = iota
	Integer
	Float
	Timestamp
)

func (t ColumnType) String() string {
	switch t {
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Timestamp:
		return "timestamp"
	default:
		return "text"
	}
}

// SQL returns the PostgreSQL type the column is created with.
func (t ColumnType) SQL() string {
	switch t {
	case Integer:
		return "BIGINT"
	case Float:
		return "DOUBLE PRECISION"
	case Timestamp:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

// Infer picks the narrowest type every non-empty value parses as:
// integer, then float, then timestamp, falling back to text. A column
// with no values at all is text.
func Infer(values []string) ColumnType {
	isInt, isFloat, isTime := true, true, true
	seen := false

	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		seen = true
		if isInt {
			if _, _, err := record.Int(v); err != nil {
				isInt = false
			}
		}
		if isFloat {
			if _, _, err := record.Float(v); err != nil {
				isFloat = false
			}
		}
		if isTime {
			isTime = record.Timestamp(v) != nil
		}
		if !isInt && !isFloat && !isTime {
			return Text
		}
	}

	switch {
	case !seen:
		return Text
	case isInt:
		return Integer
	case isFloat:
		return Float
	case isTime:
		return Timestamp
	}
	return Text
}

// Convert turns a raw cell into a value of type t. Empty cells are nil.
// Values are assumed to have passed Infer for t.
func Convert(t ColumnType, v string) any {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}

	switch t {
	case Integer:
		n, _, _ := record.Int(trimmed)
		return n
	case Float:
		f, _, _ := record.Float(trimmed)
		return f
	case Timestamp:
		if ts := record.Timestamp(trimmed); ts != nil {
			return *ts
		}
		return nil
	}
	return v
}
