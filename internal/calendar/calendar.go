//-------------------------------------------------------------------------
//
// pgEdge ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package calendar generates the date and time dimensions.
package calendar

import (
	"time"

	"github.com/pgEdge/pgedge-etl/internal/warehouse"
)

// MinutesPerDay is the number of rows in the time dimension.
const MinutesPerDay = 24 * 60

// Default calendar bounds, inclusive.
var (
	DefaultStart = time.Date(2016, time.April, 9, 0, 0, 0, 0, time.UTC)
	DefaultEnd   = time.Date(2018, time.October, 17, 0, 0, 0, 0, time.UTC)
)

// DateKey returns the YYYYMMDD key of t's calendar day.
func DateKey(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// TimeKey returns the HHMMSS key of t's minute; seconds are always zero.
func TimeKey(t time.Time) int {
	return t.Hour()*10000 + t.Minute()*100
}

// Season returns the meteorological season of month.
func Season(month time.Month) string {
	switch month {
	case time.December, time.January, time.February:
		return "Winter"
	case time.March, time.April, time.May:
		return "Spring"
	case time.June, time.July, time.August:
		return "Summer"
	default:
		return "Fall"
	}
}

// TimeOfDay buckets an hour into Night, Morning, Afternoon or Evening.
func TimeOfDay(hour int) string {
	switch {
	case hour < 6:
		return "Night"
	case hour < 12:
		return "Morning"
	case hour < 18:
		return "Afternoon"
	default:
		return "Evening"
	}
}

// weekdayIndex numbers days from Monday = 0.
func weekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// Day builds the date dimension row for t's calendar day.
func Day(t time.Time) warehouse.Date {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	dow := weekdayIndex(d.Weekday())
	return warehouse.Date{
		Date:      d,
		DateKey:   DateKey(d),
		Day:       d.Day(),
		DayName:   d.Weekday().String(),
		Month:     int(d.Month()),
		MonthName: d.Month().String(),
		Quarter:   (int(d.Month())-1)/3 + 1,
		Year:      d.Year(),
		DayOfWeek: dow,
		IsWeekend: dow >= 5,
		Season:    Season(d.Month()),
	}
}

// Dates returns one row per day in [start, end]. It returns nil when end
// is before start.
func Dates(start, end time.Time) []warehouse.Date {
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	if end.Before(start) {
		return nil
	}

	var dates []warehouse.Date
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, Day(d))
	}
	return dates
}

// Times returns the 1440 rows of the time dimension.
func Times() []warehouse.Time {
	times := make([]warehouse.Time, 0, MinutesPerDay)
	for h := 0; h < 24; h++ {
		ampm := "AM"
		if h >= 12 {
			ampm = "PM"
		}
		for m := 0; m < 60; m++ {
			times = append(times, warehouse.Time{
				TimeKey:   h*10000 + m*100,
				Hour:      h,
				Minute:    m,
				Second:    0,
				AMPM:      ampm,
				TimeOfDay: TimeOfDay(h),
			})
		}
	}
	return times
}

// Index resolves timestamps to calendar keys, yielding nil for timestamps
// not covered by the generated calendar.
type Index struct {
	dates map[int]warehouse.Date
	times map[int]bool
}

// NewIndex indexes the given date and time rows by key.
func NewIndex(dates []warehouse.Date, times []warehouse.Time) *Index {
	idx := &Index{
		dates: make(map[int]warehouse.Date, len(dates)),
		times: make(map[int]bool, len(times)),
	}
	for _, d := range dates {
		idx.dates[d.DateKey] = d
	}
	for _, t := range times {
		idx.times[t.TimeKey] = true
	}
	return idx
}

// Date returns the date row covering t, if any.
func (idx *Index) Date(t *time.Time) (warehouse.Date, bool) {
	if t == nil {
		return warehouse.Date{}, false
	}
	d, ok := idx.dates[DateKey(*t)]
	return d, ok
}

// DateKey returns the key of the date row covering t, or nil.
func (idx *Index) DateKey(t *time.Time) *int {
	d, ok := idx.Date(t)
	if !ok {
		return nil
	}
	k := d.DateKey
	return &k
}

// TimeKey returns the key of the time row matching t's hour and minute,
// or nil.
func (idx *Index) TimeKey(t *time.Time) *int {
	if t == nil {
		return nil
	}
	k := TimeKey(*t)
	if !idx.times[k] {
		return nil
	}
	return &k
}

// DaysBetween returns the number of calendar days from a to b, ignoring
// the time of day.
func DaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
