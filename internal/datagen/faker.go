//-------------------------------------------------------------------------
//
// pgEdge ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package datagen generates a synthetic raw e-commerce dataset.
package datagen

import (
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
)

// TimestampLayout is how generated timestamps are written.
const TimestampLayout = "2006-01-02 15:04:05"

// Faker provides fake data generation using gofakeit.
type Faker struct {
	faker *gofakeit.Faker
}

// NewFaker creates a new Faker with a random seed.
func NewFaker() *Faker {
	return &Faker{
		faker: gofakeit.New(uint64(time.Now().UnixNano())),
	}
}

// NewFakerWithSeed creates a new Faker with a specific seed for reproducibility.
func NewFakerWithSeed(seed uint64) *Faker {
	return &Faker{
		faker: gofakeit.New(seed),
	}
}

// ID returns a 32 character lowercase hex identifier.
func (f *Faker) ID() string {
	return strings.ReplaceAll(f.faker.UUID(), "-", "")
}

// City generates a random city name in lower case, the way raw exports
// usually carry it.
func (f *Faker) City() string {
	return strings.ToLower(f.faker.City())
}

// State generates a random state abbreviation.
func (f *Faker) State() string {
	return f.faker.StateAbr()
}

// Zip generates a random five digit ZIP code.
func (f *Faker) Zip() string {
	return f.faker.Zip()
}

// Int generates a random integer between min and max (inclusive).
func (f *Faker) Int(min, max int) int {
	return f.faker.IntRange(min, max)
}

// Float64 generates a random float64 between min and max.
func (f *Faker) Float64(min, max float64) float64 {
	return f.faker.Float64Range(min, max)
}

// Money returns an amount between min and max rounded to cents.
func (f *Faker) Money(min, max float64) decimal.Decimal {
	return decimal.NewFromFloat(f.faker.Price(min, max)).Round(2)
}

// DateRange generates a random time between start and end, truncated to
// the second.
func (f *Faker) DateRange(start, end time.Time) time.Time {
	return f.faker.DateRange(start, end).UTC().Truncate(time.Second)
}

// OptionalInt returns a pointer to v, or nil with the given probability.
func (f *Faker) OptionalInt(v int, nullProbability float64) *int {
	if f.Float64(0, 1) < nullProbability {
		return nil
	}
	return &v
}

// Choose returns a random element from the given slice.
func Choose[T any](f *Faker, items []T) T {
	if len(items) == 0 {
		var zero T
		return zero
	}
	return items[f.Int(0, len(items)-1)]
}

// ChooseWeighted returns a random element based on weights.
func ChooseWeighted[T any](f *Faker, items []T, weights []int) T {
	if len(items) == 0 || len(weights) == 0 {
		var zero T
		return zero
	}

	totalWeight := 0
	for _, w := range weights {
		totalWeight += w
	}

	r := f.Int(1, totalWeight)
	cumulative := 0
	for i, w := range weights {
		cumulative += w
		if r <= cumulative {
			return items[i]
		}
	}

	return items[len(items)-1]
}

// FormatTime formats t with TimestampLayout. The zero time is blank.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimestampLayout)
}
