//-------------------------------------------------------------------------
//
// pgEdge ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// maxActivity bounds every Activity level.
const maxActivity = 1.2

// Activity describes how busy a store is over the day and week. Order
// timestamps are drawn in proportion to it.
type Activity interface {
	Name() string
	Description() string

	// Level returns the relative order volume at t, between 0 and
	// maxActivity.
	Level(t time.Time) float64
}

// DefaultActivity is used when no profile is named.
const DefaultActivity = "store-regional"

var activities = map[string]Activity{
	"flat":           flat{},
	"store-regional": storeRegional{},
	"store-global":   storeGlobal{},
}

// ActivityProfile returns the named profile.
func ActivityProfile(name string) (Activity, error) {
	if name == "" {
		name = DefaultActivity
	}
	a, ok := activities[name]
	if !ok {
		return nil, fmt.Errorf("unknown activity profile: %s", name)
	}
	return a, nil
}

// ActivityProfiles returns the profile names, sorted.
func ActivityProfiles() []string {
	names := make([]string, 0, len(activities))
	for name := range activities {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

type flat struct{}

func (flat) Name() string            { return "flat" }
func (flat) Description() string     { return "Uniform volume around the clock" }
func (flat) Level(time.Time) float64 { return 1 }

// storeRegional peaks in the evening of a single time zone:
// night 15%, morning 40%, afternoon 60%, evening 100%, late night 70%,
// with weekends 20% busier.
type storeRegional struct{}

func (storeRegional) Name() string        { return "store-regional" }
func (storeRegional) Description() string { return "Regional online store (evening peak)" }

func (storeRegional) Level(t time.Time) float64 {
	var base float64
	switch h := t.Hour(); {
	case h < 6:
		base = 0.15
	case h < 12:
		base = 0.40
	case h < 17:
		base = 0.60
	case h < 22:
		base = 1.0
	default:
		base = 0.70
	}
	return weekend(t, base, 1.20)
}

// storeGlobal never drops below 40% and follows the evening peaks of
// the Americas, Europe and Asia, with weekends 10% busier.
type storeGlobal struct{}

func (storeGlobal) Name() string        { return "store-global" }
func (storeGlobal) Description() string { return "Global online store (rolling regional peaks)" }

func (storeGlobal) Level(t time.Time) float64 {
	h := t.UTC().Hour()
	peak := math.Max(eveningPeak(h, 22, 3), math.Max(eveningPeak(h, 16, 21), eveningPeak(h, 8, 13)))
	return weekend(t, 0.40+0.60*peak, 1.10)
}

func weekend(t time.Time, level, factor float64) float64 {
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return level * factor
	}
	return level
}

// eveningPeak is 1 inside [start, end), ramping 0.6 then 0.3 over the two
// hours on either side. start > end wraps past midnight.
func eveningPeak(hour, start, end int) float64 {
	inside := hour >= start && hour < end
	if start > end {
		inside = hour >= start || hour < end
	}
	if inside {
		return 1.0
	}
	before, after := distance(hour, start), distance(end, hour)
	switch {
	case before == 1 || after == 0:
		return 0.6
	case before == 2 || after == 1:
		return 0.3
	}
	return 0.0
}

// distance returns how many hours a is before b on a 24 hour clock.
func distance(a, b int) int {
	return ((b-a)%24 + 24) % 24
}
