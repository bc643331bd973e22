package domain

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // policy timezones must resolve on hosts without zoneinfo
)

// BusinessCalendar is a recurring weekly working window: the same daily
// start and end time on every working weekday.
type BusinessCalendar struct {
	StartOfDay  TimeOfDay
	EndOfDay    TimeOfDay
	WorkingDays WeekdaySet
	// Location in which day boundaries are evaluated. Nil means the location
	// of the instant being examined.
	Location *time.Location
}

// NewBusinessCalendar creates a calendar. It does not validate; use IsValid.
func NewBusinessCalendar(start, end TimeOfDay, days WeekdaySet, loc *time.Location) *BusinessCalendar {
	return &BusinessCalendar{
		StartOfDay:  start,
		EndOfDay:    end,
		WorkingDays: days,
		Location:    loc,
	}
}

// ParseBusinessCalendar builds a calendar from its textual configuration.
// An empty timezone keeps the location unset.
func ParseBusinessCalendar(start, end, days, timezone string) (*BusinessCalendar, error) {
	startOfDay, err := ParseTimeOfDay(start)
	if err != nil {
		return nil, fmt.Errorf("%w: start of day: %w", ErrInvalidCalendar, err)
	}
	endOfDay, err := ParseTimeOfDay(end)
	if err != nil {
		return nil, fmt.Errorf("%w: end of day: %w", ErrInvalidCalendar, err)
	}
	workingDays, err := ParseWeekdays(days)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCalendar, err)
	}

	var loc *time.Location
	if tz := strings.TrimSpace(timezone); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("%w: timezone %q: %w", ErrInvalidCalendar, tz, err)
		}
	}

	cal := NewBusinessCalendar(startOfDay, endOfDay, workingDays, loc)
	if !cal.IsValid() {
		return nil, fmt.Errorf("%w: window %s-%s on days [%s]", ErrInvalidCalendar, startOfDay, endOfDay, workingDays)
	}
	return cal, nil
}

// IsValid reports whether the calendar can constrain a computation: both
// times well formed, start strictly before end, and at least one working day.
func (c *BusinessCalendar) IsValid() bool {
	if c == nil {
		return false
	}
	if !c.StartOfDay.IsValid() || !c.EndOfDay.IsValid() {
		return false
	}
	return c.StartOfDay.Before(c.EndOfDay) && !c.WorkingDays.IsEmpty()
}

// IsWorkingDay reports whether d is a working weekday.
func (c *BusinessCalendar) IsWorkingDay(d time.Weekday) bool {
	return c != nil && c.WorkingDays.Contains(d)
}

// Window returns the working window of the calendar date of day, evaluated in
// loc. Only the year, month and day of day are used.
func (c *BusinessCalendar) Window(day time.Time, loc *time.Location) (start, end time.Time) {
	y, m, d := day.Date()
	return c.StartOfDay.OnDate(y, m, d, loc), c.EndOfDay.OnDate(y, m, d, loc)
}

// WindowMinutes returns the length of one working day in minutes.
func (c *BusinessCalendar) WindowMinutes() int {
	return c.EndOfDay.Minutes() - c.StartOfDay.Minutes()
}
