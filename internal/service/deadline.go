package service

import (
	"math"
	"time"

	"github.com/mtlprog/slaola/internal/domain"
	"github.com/shopspring/decimal"
)

// maxComputableHours is the largest duration representable as a time.Duration.
var maxComputableHours = math.Floor(float64(math.MaxInt64) / float64(time.Hour))

var minutesPerHour = decimal.NewFromInt(60)

// DeadlineResult is a computed deadline and whether a business calendar constrained it.
type DeadlineResult struct {
	Deadline        time.Time
	CalendarApplied bool
}

// ComputeDeadline adds hours of working time to start.
// See ComputeDeadlineResult for the rules.
func ComputeDeadline(start time.Time, hours float64, cal *domain.BusinessCalendar) time.Time {
	return ComputeDeadlineResult(start, hours, cal).Deadline
}

// ComputeDeadlineResult adds hours of working time to start.
//
// Without a valid calendar the result is start plus hours with nanosecond
// precision. With one, hours are rounded up to whole minutes and consumed only
// inside the daily window on working weekdays. Negative and NaN durations count
// as zero.
//
// A start with a fractional minute spends its partial minute as a whole one,
// and the deadline never passes the end of the window: 16:59:30 plus one minute
// on a day ending at 17:00 is 17:00, after only 30 seconds of working time.
func ComputeDeadlineResult(start time.Time, hours float64, cal *domain.BusinessCalendar) DeadlineResult {
	hours = clampHours(hours)

	if !cal.IsValid() {
		return DeadlineResult{Deadline: start.Add(time.Duration(hours * float64(time.Hour)))}
	}

	remaining := ceilMinutes(hours)
	if remaining == 0 {
		return DeadlineResult{Deadline: start, CalendarApplied: true}
	}

	loc := cal.Location
	if loc == nil {
		loc = start.Location()
	}
	current := start.In(loc)

	// The calendar date is tracked apart from the cursor: around clock changes
	// the cursor's wall date is not a reliable way to tell which day comes next.
	day := civilDate(current)

	for remaining > 0 {
		if !cal.IsWorkingDay(day.Weekday()) {
			day = nextWorkingDate(day, cal)
			continue
		}

		dayStart, dayEnd := cal.Window(day, loc)
		if current.Before(dayStart) {
			current = dayStart
		}

		if current.Before(dayEnd) {
			usable := min(ceilDurationMinutes(dayEnd.Sub(current)), remaining)
			next := current.Add(time.Duration(usable) * time.Minute)
			if next.After(dayEnd) {
				next = dayEnd
			}
			current = next
			remaining -= usable
		}

		if remaining > 0 {
			day = nextWorkingDate(day, cal)
		}
	}

	return DeadlineResult{Deadline: current, CalendarApplied: true}
}

// civilDate returns the calendar date of t as midnight UTC, which steps by
// whole days with AddDate regardless of the zone t was read in.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// nextWorkingDate returns the first working date strictly after day.
// Both are civil dates as produced by civilDate.
func nextWorkingDate(day time.Time, cal *domain.BusinessCalendar) time.Time {
	for i := 1; i <= 7; i++ {
		next := day.AddDate(0, 0, i)
		if cal.IsWorkingDay(next.Weekday()) {
			return next
		}
	}
	return day.AddDate(0, 0, 1)
}

func clampHours(hours float64) float64 {
	switch {
	case math.IsNaN(hours), hours <= 0:
		return 0
	case hours > maxComputableHours:
		return maxComputableHours
	default:
		return hours
	}
}

// ceilMinutes converts hours to whole minutes rounding up. The decimal
// conversion keeps values like 0.1h at exactly 6 minutes.
func ceilMinutes(hours float64) int64 {
	return decimal.NewFromFloat(hours).Mul(minutesPerHour).Ceil().IntPart()
}

func ceilDurationMinutes(d time.Duration) int64 {
	return int64((d + time.Minute - 1) / time.Minute)
}
