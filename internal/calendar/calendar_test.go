package calendar

import (
	"testing"
	"time"
)

func TestDatesCompleteness(t *testing.T) {
	dates := Dates(DefaultStart, DefaultEnd)

	if len(dates) != 922 {
		t.Fatalf("Expected 922 days, got %d", len(dates))
	}
	if dates[0].DateKey != 20160409 {
		t.Errorf("First key = %d", dates[0].DateKey)
	}
	if dates[len(dates)-1].DateKey != 20181017 {
		t.Errorf("Last key = %d", dates[len(dates)-1].DateKey)
	}

	seen := make(map[int]bool)
	for i, d := range dates {
		if seen[d.DateKey] {
			t.Fatalf("Duplicate key %d", d.DateKey)
		}
		seen[d.DateKey] = true
		if i > 0 && !d.Date.Equal(dates[i-1].Date.AddDate(0, 0, 1)) {
			t.Fatalf("Gap between %v and %v", dates[i-1].Date, d.Date)
		}
	}
}

func TestDatesEmptyRange(t *testing.T) {
	if got := Dates(DefaultEnd, DefaultStart); got != nil {
		t.Errorf("Expected nil for reversed range, got %d rows", len(got))
	}
	if got := Dates(DefaultStart, DefaultStart); len(got) != 1 {
		t.Errorf("Expected 1 row for single day, got %d", len(got))
	}
}

func TestDay(t *testing.T) {
	tests := []struct {
		name    string
		date    time.Time
		key     int
		dayName string
		quarter int
		dow     int
		weekend bool
		season  string
	}{
		{"friday in november", time.Date(2017, 11, 24, 10, 15, 0, 0, time.UTC), 20171124, "Friday", 4, 4, false, "Fall"},
		{"saturday", time.Date(2016, 4, 9, 0, 0, 0, 0, time.UTC), 20160409, "Saturday", 2, 5, true, "Spring"},
		{"sunday", time.Date(2018, 7, 1, 0, 0, 0, 0, time.UTC), 20180701, "Sunday", 3, 6, true, "Summer"},
		{"monday in january", time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC), 20180101, "Monday", 1, 0, false, "Winter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Day(tt.date)
			if d.DateKey != tt.key {
				t.Errorf("DateKey = %d, want %d", d.DateKey, tt.key)
			}
			if d.DayName != tt.dayName {
				t.Errorf("DayName = %s, want %s", d.DayName, tt.dayName)
			}
			if d.Quarter != tt.quarter {
				t.Errorf("Quarter = %d, want %d", d.Quarter, tt.quarter)
			}
			if d.DayOfWeek != tt.dow {
				t.Errorf("DayOfWeek = %d, want %d", d.DayOfWeek, tt.dow)
			}
			if d.IsWeekend != tt.weekend {
				t.Errorf("IsWeekend = %v, want %v", d.IsWeekend, tt.weekend)
			}
			if d.Season != tt.season {
				t.Errorf("Season = %s, want %s", d.Season, tt.season)
			}
		})
	}
}

func TestSeason(t *testing.T) {
	tests := []struct {
		month time.Month
		want  string
	}{
		{time.July, "Summer"},
		{time.January, "Winter"},
		{time.December, "Winter"},
		{time.March, "Spring"},
		{time.September, "Fall"},
		{time.November, "Fall"},
	}
	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			if got := Season(tt.month); got != tt.want {
				t.Errorf("Season(%s) = %s, want %s", tt.month, got, tt.want)
			}
		})
	}
}

func TestTimes(t *testing.T) {
	times := Times()

	if len(times) != 1440 {
		t.Fatalf("Expected 1440 rows, got %d", len(times))
	}

	byKey := make(map[int]int)
	for i, row := range times {
		if _, dup := byKey[row.TimeKey]; dup {
			t.Fatalf("Duplicate key %d", row.TimeKey)
		}
		byKey[row.TimeKey] = i
		if row.Second != 0 {
			t.Errorf("Second = %d for key %d", row.Second, row.TimeKey)
		}
	}

	tests := []struct {
		key       int
		ampm      string
		timeOfDay string
	}{
		{0, "AM", "Night"},
		{55900, "AM", "Night"},
		{60000, "AM", "Morning"},
		{101500, "AM", "Morning"},
		{120000, "PM", "Afternoon"},
		{180000, "PM", "Evening"},
		{235900, "PM", "Evening"},
	}
	for _, tt := range tests {
		i, ok := byKey[tt.key]
		if !ok {
			t.Errorf("Missing key %d", tt.key)
			continue
		}
		if times[i].AMPM != tt.ampm || times[i].TimeOfDay != tt.timeOfDay {
			t.Errorf("Key %d: %s/%s, want %s/%s", tt.key, times[i].AMPM, times[i].TimeOfDay, tt.ampm, tt.timeOfDay)
		}
	}
}

func TestIndex(t *testing.T) {
	idx := NewIndex(Dates(DefaultStart, DefaultEnd), Times())

	ts := time.Date(2017, 11, 24, 10, 15, 42, 0, time.UTC)
	if k := idx.DateKey(&ts); k == nil || *k != 20171124 {
		t.Errorf("DateKey = %v", k)
	}
	if k := idx.TimeKey(&ts); k == nil || *k != 101500 {
		t.Errorf("TimeKey = %v", k)
	}

	outside := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	if k := idx.DateKey(&outside); k != nil {
		t.Errorf("Expected nil key outside the calendar, got %d", *k)
	}
	if k := idx.DateKey(nil); k != nil {
		t.Error("Expected nil key for null timestamp")
	}
	if k := idx.TimeKey(nil); k != nil {
		t.Error("Expected nil time key for null timestamp")
	}
}

func TestIndexWithoutTimes(t *testing.T) {
	idx := NewIndex(Dates(DefaultStart, DefaultEnd), nil)
	ts := time.Date(2017, 11, 24, 10, 15, 0, 0, time.UTC)
	if k := idx.TimeKey(&ts); k != nil {
		t.Errorf("Expected nil time key without a time dimension, got %d", *k)
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name string
		a, b time.Time
		want int
	}{
		{"same day", time.Date(2017, 11, 25, 23, 0, 0, 0, time.UTC), time.Date(2017, 11, 25, 1, 0, 0, 0, time.UTC), 0},
		{"two days", time.Date(2017, 11, 25, 23, 59, 0, 0, time.UTC), time.Date(2017, 11, 27, 0, 1, 0, 0, time.UTC), 2},
		{"negative", time.Date(2017, 11, 27, 0, 0, 0, 0, time.UTC), time.Date(2017, 11, 25, 0, 0, 0, 0, time.UTC), -2},
		{"across year", time.Date(2017, 12, 31, 0, 0, 0, 0, time.UTC), time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysBetween(tt.a, tt.b); got != tt.want {
				t.Errorf("DaysBetween = %d, want %d", got, tt.want)
			}
		})
	}
}
