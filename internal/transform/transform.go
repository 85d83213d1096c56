//-------------------------------------------------------------------------
//
// pgEdge ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package transform turns staging record sets into conformed warehouse
// rows. Every transformer is a pure function of its input: identical input
// yields identical output, and no transformer touches the database.
package transform

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/pgEdge/pgedge-etl/internal/record"
	"github.com/pgEdge/pgedge-etl/internal/warehouse"
)

// Staging table names produced by the raw loader.
const (
	UsersSource      = "user_dataset"
	SellersSource    = "seller_dataset"
	ProductsSource   = "products_dataset"
	PaymentsSource   = "payment_dataset"
	FeedbackSource   = "feedback_dataset"
	OrdersSource     = "order_dataset"
	OrderItemsSource = "order_item_dataset"
)

var (
	// ErrDuplicateKey is returned when two source rows share a natural key
	// but disagree on attributes that cannot be merged.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNullKey is returned when a natural key column is null.
	ErrNullKey = errors.New("null key")
)

// key reads a required natural key column of row i.
func key(src *record.RecordSet, i int, col string) (string, error) {
	v := src.Records[i][col]
	s, ok := record.Text(v)
	if !ok {
		return "", &record.ColumnError{Table: src.Name, Column: col, Row: i, Value: v, Err: ErrNullKey}
	}
	return s, nil
}

func duplicateKey(src *record.RecordSet, col string, i int, value string) error {
	return &record.ColumnError{
		Table:  src.Name,
		Column: col,
		Row:    i,
		Value:  value,
		Err:    fmt.Errorf("%w: conflicting rows for %q", ErrDuplicateKey, value),
	}
}

// uniqueList accumulates distinct non-empty values in first-seen order.
type uniqueList []string

func (l uniqueList) add(s string) uniqueList {
	if s == "" || slices.Contains(l, s) {
		return l
	}
	return append(l, s)
}

func (l uniqueList) String() string {
	return strings.Join(l, warehouse.ListSeparator)
}

// joinSorted sorts values ascending, numerically when every value is an
// integer, and joins them with the list separator.
func joinSorted(values []string) string {
	sorted := slices.Clone(values)
	numeric := true
	for _, v := range sorted {
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			numeric = false
			break
		}
	}
	if numeric {
		slices.SortFunc(sorted, func(a, b string) int {
			x, _ := strconv.ParseInt(a, 10, 64)
			y, _ := strconv.ParseInt(b, 10, 64)
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		})
	} else {
		slices.Sort(sorted)
	}
	return strings.Join(sorted, warehouse.ListSeparator)
}

// optionalText returns nil for null values.
func optionalText(v any) *string {
	s, ok := record.Text(v)
	if !ok {
		return nil
	}
	return &s
}

func optionalInt(src *record.RecordSet, i int, col string) (*int64, error) {
	v := src.Records[i][col]
	n, ok, err := record.Int(v)
	if err != nil {
		return nil, src.CoerceError(col, i, v, err)
	}
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func optionalFloat(src *record.RecordSet, i int, col string) (*float64, error) {
	v := src.Records[i][col]
	f, ok, err := record.Float(v)
	if err != nil {
		return nil, src.CoerceError(col, i, v, err)
	}
	if !ok {
		return nil, nil
	}
	return &f, nil
}

// requiredInt coerces a column that must hold an integer.
func requiredInt(src *record.RecordSet, i int, col string) (int64, error) {
	v := src.Records[i][col]
	n, ok, err := record.Int(v)
	if err != nil {
		return 0, src.CoerceError(col, i, v, err)
	}
	if !ok {
		return 0, src.CoerceError(col, i, v, fmt.Errorf("%w: null value", record.ErrCoerce))
	}
	return n, nil
}
