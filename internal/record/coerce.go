//-------------------------------------------------------------------------
//
// pgEdge ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package record

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TimestampLayouts are tried in order when parsing text timestamps.
var TimestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
}

// IsNull reports whether v is a null or blank value.
func IsNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []byte:
		return strings.TrimSpace(string(x)) == ""
	case *time.Time:
		return x == nil
	}
	return false
}

// Text converts v to its text form. ok is false for null values.
// Whole floats are rendered without a fractional part so that numeric
// identifiers read back from typed staging columns keep their shape.
func Text(v any) (s string, ok bool) {
	if IsNull(v) {
		return "", false
	}
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x), true
	case []byte:
		return strings.TrimSpace(string(x)), true
	case int:
		return strconv.Itoa(x), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float32:
		return formatFloat(float64(x)), true
	case float64:
		return formatFloat(x), true
	case bool:
		return strconv.FormatBool(x), true
	case time.Time:
		return x.Format("2006-01-02 15:04:05"), true
	case *time.Time:
		return x.Format("2006-01-02 15:04:05"), true
	case fmt.Stringer:
		return x.String(), true
	}
	return fmt.Sprint(v), true
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Int converts v to an integer. ok is false for null values. Floats with a
// fractional part, values outside the int64 range and non-numeric text
// fail with ErrCoerce.
func Int(v any) (n int64, ok bool, err error) {
	if IsNull(v) {
		return 0, false, nil
	}
	switch x := v.(type) {
	case int:
		return int64(x), true, nil
	case int32:
		return int64(x), true, nil
	case int64:
		return x, true, nil
	case float32:
		return floatToInt(float64(x))
	case float64:
		return floatToInt(x)
	}
	s, _ := Text(v)
	n, err = strconv.ParseInt(s, 10, 64)
	if err == nil {
		return n, true, nil
	}
	if errors.Is(err, strconv.ErrRange) {
		return 0, false, fmt.Errorf("%w: %q is out of integer range", ErrCoerce, s)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %q is not an integer", ErrCoerce, s)
	}
	return floatToInt(f)
}

func floatToInt(f float64) (int64, bool, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false, fmt.Errorf("%w: %v is not an integer", ErrCoerce, f)
	}
	if f < -1<<63 || f >= 1<<63 {
		return 0, false, fmt.Errorf("%w: %v is out of integer range", ErrCoerce, f)
	}
	return int64(f), true, nil
}

// Float converts v to a float64. ok is false for null values.
func Float(v any) (f float64, ok bool, err error) {
	if IsNull(v) {
		return 0, false, nil
	}
	switch x := v.(type) {
	case int:
		return float64(x), true, nil
	case int32:
		return float64(x), true, nil
	case int64:
		return float64(x), true, nil
	case float32:
		return float64(x), true, nil
	case float64:
		if math.IsNaN(x) {
			return 0, false, nil
		}
		return x, true, nil
	}
	s, _ := Text(v)
	f, err = strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %q is not a number", ErrCoerce, s)
	}
	return f, true, nil
}

// Decimal converts v to an exact decimal. ok is false for null values.
func Decimal(v any) (d decimal.Decimal, ok bool, err error) {
	if IsNull(v) {
		return decimal.Zero, false, nil
	}
	switch x := v.(type) {
	case int:
		return decimal.NewFromInt(int64(x)), true, nil
	case int32:
		return decimal.NewFromInt32(x), true, nil
	case int64:
		return decimal.NewFromInt(x), true, nil
	case float32:
		return decimal.NewFromFloat32(x), true, nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, false, fmt.Errorf("%w: %v is not a number", ErrCoerce, x)
		}
		return decimal.NewFromFloat(x), true, nil
	case decimal.Decimal:
		return x, true, nil
	}
	s, _ := Text(v)
	d, err = decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("%w: %q is not a number", ErrCoerce, s)
	}
	return d, true, nil
}

// Timestamp parses v as a timestamp on a best-effort basis. Null and
// unparseable values both yield nil.
func Timestamp(v any) *time.Time {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return nil
		}
		return &x
	case *time.Time:
		return x
	}
	s, ok := Text(v)
	if !ok {
		return nil
	}
	for _, layout := range TimestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// TitleCase lowercases s and capitalizes the first letter of every word.
func TitleCase(s string) string {
	// A Caser is stateful and not safe for concurrent use.
	return cases.Title(language.Und).String(strings.TrimSpace(s))
}

// Category normalizes a categorical code: underscores become spaces and
// the result is title-cased.
func Category(s string) string {
	return TitleCase(strings.ReplaceAll(s, "_", " "))
}
