package domain

import (
	"fmt"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time within a day with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

var timeOfDayLayouts = []string{"15:04", "15:04:05"}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS". Seconds are accepted and dropped.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeOfDayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
}

// IsValid reports whether the hour and minute are within a day.
func (t TimeOfDay) IsValid() bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

// Minutes returns the number of minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Before reports whether t is strictly earlier in the day than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.Minutes() < other.Minutes()
}

// On returns the instant at this time of day on the calendar day of date,
// evaluated in loc. Seconds and nanoseconds are zero.
func (t TimeOfDay) On(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = date.Location()
	}
	y, m, d := date.In(loc).Date()
	return t.OnDate(y, m, d, loc)
}

// OnDate returns the instant at this time of day on the given calendar date
// in loc. When a clock change skips the wall time and the normalized instant
// lands on a neighbouring date, the result is pulled back to the clock change,
// so it never leaves the date: a skipped midnight yields the first instant of
// the day.
func (t TimeOfDay) OnDate(year int, month time.Month, day int, loc *time.Location) time.Time {
	got := time.Date(year, month, day, t.Hour, t.Minute, 0, 0, loc)

	want := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	gy, gm, gd := got.Date()
	have := time.Date(gy, gm, gd, 0, 0, 0, 0, time.UTC)

	switch {
	case have.Before(want):
		if _, end := got.ZoneBounds(); !end.IsZero() {
			return end
		}
	case have.After(want):
		if start, _ := got.ZoneBounds(); !start.IsZero() {
			return start
		}
	}
	return got
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}
