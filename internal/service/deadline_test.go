package service

import (
	"math"
	"testing"
	"time"

	"github.com/mtlprog/slaola/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// officeHours is Mon-Fri 09:00-17:00 in UTC.
func officeHours() *domain.BusinessCalendar {
	return domain.NewBusinessCalendar(
		domain.TimeOfDay{Hour: 9},
		domain.TimeOfDay{Hour: 17},
		domain.Weekdays,
		time.UTC,
	)
}

// 2024-03-04 is a Monday.
func at(day, hour, minute int) time.Time {
	return time.Date(2024, time.March, day, hour, minute, 0, 0, time.UTC)
}

// workingMinutes sums the calendar's working time in [from, to) minute by minute.
func workingMinutes(from, to time.Time, cal *domain.BusinessCalendar) int {
	total := 0
	for t := from; t.Before(to); t = t.Add(time.Minute) {
		if !cal.IsWorkingDay(t.Weekday()) {
			continue
		}
		if !t.Before(cal.StartOfDay.On(t, cal.Location)) && t.Before(cal.EndOfDay.On(t, cal.Location)) {
			total++
		}
	}
	return total
}

func TestComputeDeadline_Scenarios(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		hours float64
		cal   *domain.BusinessCalendar
		want  time.Time
	}{
		{
			name:  "friday afternoon carries remainder to monday",
			start: at(8, 16, 50),
			hours: 1,
			cal:   officeHours(),
			want:  at(11, 9, 50),
		},
		{
			name:  "saturday start moves to monday morning",
			start: at(9, 10, 0),
			hours: 1,
			cal:   officeHours(),
			want:  at(11, 10, 0),
		},
		{
			name:  "full working day ends at close",
			start: at(4, 9, 0),
			hours: 8,
			cal:   officeHours(),
			want:  at(4, 17, 0),
		},
		{
			name:  "zero duration returns start",
			start: at(4, 9, 0),
			hours: 0,
			cal:   officeHours(),
			want:  at(4, 9, 0),
		},
		{
			name:  "before window snaps to opening",
			start: at(4, 7, 0),
			hours: 1,
			cal:   officeHours(),
			want:  at(4, 10, 0),
		},
		{
			name:  "no calendar adds plain hours",
			start: at(4, 9, 0),
			hours: 50,
			cal:   nil,
			want:  at(6, 11, 0),
		},
		{
			name:  "after close moves to next working day",
			start: at(4, 18, 30),
			hours: 2,
			cal:   officeHours(),
			want:  at(5, 11, 0),
		},
		{
			name:  "exactly at close moves to next working day",
			start: at(4, 17, 0),
			hours: 0.5,
			cal:   officeHours(),
			want:  at(5, 9, 30),
		},
		{
			name:  "multi-day span skips weekend",
			start: at(7, 13, 0),
			hours: 20,
			cal:   officeHours(),
			want:  at(11, 17, 0),
		},
		{
			name:  "sunday start",
			start: at(10, 23, 59),
			hours: 8,
			cal:   officeHours(),
			want:  at(11, 17, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDeadline(tt.start, tt.hours, tt.cal)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestComputeDeadlineResult_CalendarApplied(t *testing.T) {
	start := at(4, 9, 0)

	res := ComputeDeadlineResult(start, 1, officeHours())
	assert.True(t, res.CalendarApplied)

	res = ComputeDeadlineResult(start, 1, nil)
	assert.False(t, res.CalendarApplied)

	invalid := domain.NewBusinessCalendar(domain.TimeOfDay{Hour: 17}, domain.TimeOfDay{Hour: 9}, domain.Weekdays, time.UTC)
	res = ComputeDeadlineResult(start, 1, invalid)
	assert.False(t, res.CalendarApplied)
	assert.True(t, start.Add(time.Hour).Equal(res.Deadline))
}

func TestComputeDeadline_InvalidCalendarsFallBack(t *testing.T) {
	start := at(9, 10, 0) // Saturday
	want := start.Add(90 * time.Minute)

	calendars := map[string]*domain.BusinessCalendar{
		"end before start": domain.NewBusinessCalendar(domain.TimeOfDay{Hour: 17}, domain.TimeOfDay{Hour: 9}, domain.Weekdays, time.UTC),
		"empty window":     domain.NewBusinessCalendar(domain.TimeOfDay{Hour: 9}, domain.TimeOfDay{Hour: 9}, domain.Weekdays, time.UTC),
		"no working days":  domain.NewBusinessCalendar(domain.TimeOfDay{Hour: 9}, domain.TimeOfDay{Hour: 17}, 0, time.UTC),
		"malformed hour":   domain.NewBusinessCalendar(domain.TimeOfDay{Hour: 9}, domain.TimeOfDay{Hour: 25}, domain.Weekdays, time.UTC),
	}

	for name, cal := range calendars {
		t.Run(name, func(t *testing.T) {
			require.NotPanics(t, func() {
				got := ComputeDeadline(start, 1.5, cal)
				assert.True(t, want.Equal(got), "want %s, got %s", want, got)
			})
		})
	}
}

func TestComputeDeadline_NoCalendarKeepsFractionalPrecision(t *testing.T) {
	start := at(4, 9, 0)

	got := ComputeDeadline(start, 0.25/60, nil)
	assert.Equal(t, 15*time.Second, got.Sub(start))
}

func TestComputeDeadline_SubMinuteRoundsUp(t *testing.T) {
	start := at(4, 9, 0)

	got := ComputeDeadline(start, 0.5/60, officeHours())
	assert.True(t, at(4, 9, 1).Equal(got), "got %s", got)

	got = ComputeDeadline(start, 1.0/3600, officeHours())
	assert.True(t, at(4, 9, 1).Equal(got), "got %s", got)
}

func TestComputeDeadline_DecimalHoursDoNotOvershoot(t *testing.T) {
	start := at(4, 9, 0)

	// 0.1 * 60 is 6.000000000000001 in float64.
	got := ComputeDeadline(start, 0.1, officeHours())
	assert.True(t, at(4, 9, 6).Equal(got), "got %s", got)

	got = ComputeDeadline(start, 0.7, officeHours())
	assert.True(t, at(4, 9, 42).Equal(got), "got %s", got)
}

func TestComputeDeadline_NegativeAndNaNCountAsZero(t *testing.T) {
	start := at(9, 10, 0)

	assert.True(t, start.Equal(ComputeDeadline(start, -3, officeHours())))
	assert.True(t, start.Equal(ComputeDeadline(start, -3, nil)))
	assert.True(t, start.Equal(ComputeDeadline(start, math.NaN(), officeHours())))
}

func TestComputeDeadline_FractionalSecondStartStaysInWindow(t *testing.T) {
	start := time.Date(2024, time.March, 4, 16, 59, 30, 500, time.UTC)

	got := ComputeDeadline(start, 1.0/60, officeHours())
	assert.True(t, at(4, 17, 0).Equal(got), "got %s", got)

	got = ComputeDeadline(start, 2.0/60, officeHours())
	assert.True(t, at(5, 9, 1).Equal(got), "got %s", got)
}

func TestComputeDeadline_UsesCalendarLocation(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	cal := domain.NewBusinessCalendar(domain.TimeOfDay{Hour: 9}, domain.TimeOfDay{Hour: 17}, domain.Weekdays, berlin)

	// 07:00 UTC on a winter Monday is 08:00 in Berlin, before opening.
	start := time.Date(2024, time.January, 8, 7, 0, 0, 0, time.UTC)
	got := ComputeDeadline(start, 1, cal)

	want := time.Date(2024, time.January, 8, 10, 0, 0, 0, berlin)
	assert.True(t, want.Equal(got), "want %s, got %s", want, got)
	assert.Equal(t, berlin, got.Location())
}

func TestComputeDeadline_AcrossDSTChange(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	cal := domain.NewBusinessCalendar(domain.TimeOfDay{Hour: 9}, domain.TimeOfDay{Hour: 17}, domain.Weekdays, berlin)

	// Clocks go forward on Sunday 2024-03-31.
	start := time.Date(2024, time.March, 29, 16, 0, 0, 0, berlin)
	got := ComputeDeadline(start, 2, cal)

	want := time.Date(2024, time.April, 1, 10, 0, 0, 0, berlin)
	assert.True(t, want.Equal(got), "want %s, got %s", want, got)
}

func TestComputeDeadline_WeekendOnlyCalendar(t *testing.T) {
	cal := domain.NewBusinessCalendar(
		domain.TimeOfDay{Hour: 10},
		domain.TimeOfDay{Hour: 14},
		domain.NewWeekdaySet(time.Saturday, time.Sunday),
		time.UTC,
	)

	got := ComputeDeadline(at(4, 9, 0), 6, cal)
	assert.True(t, at(10, 12, 0).Equal(got), "got %s", got)
}

func TestComputeDeadline_Properties(t *testing.T) {
	cal := officeHours()
	starts := []time.Time{
		at(4, 0, 0), at(4, 8, 59), at(4, 9, 0), at(4, 12, 37), at(4, 17, 0),
		at(8, 16, 45), at(9, 11, 0), at(10, 23, 30),
	}
	hours := []float64{0, 0.01, 0.25, 1, 1.5, 7.99, 8, 8.5, 16, 41.3}

	for _, start := range starts {
		prev := start
		for _, h := range hours {
			got := ComputeDeadline(start, h, cal)

			require.False(t, got.Before(start), "start %s hours %v: result %s before start", start, h, got)
			require.False(t, got.Before(prev), "start %s hours %v: not monotonic", start, h)
			prev = got

			if h == 0 {
				require.True(t, start.Equal(got))
				continue
			}

			require.True(t, cal.IsWorkingDay(got.Weekday()), "start %s hours %v: landed on %s", start, h, got.Weekday())
			open := cal.StartOfDay.On(got, time.UTC)
			closeAt := cal.EndOfDay.On(got, time.UTC)
			require.False(t, got.Before(open), "start %s hours %v: %s before opening", start, h, got)
			require.False(t, got.After(closeAt), "start %s hours %v: %s after closing", start, h, got)

			require.Equal(t, int(ceilMinutes(h)), workingMinutes(start, got, cal), "start %s hours %v", start, h)
		}
	}
}

func TestComputeDeadline_NoCalendarEquivalence(t *testing.T) {
	start := at(6, 13, 17)
	for _, h := range []float64{0, 0.5, 1, 7.25, 24, 50, 168, 1000} {
		want := start.Add(time.Duration(h * float64(time.Hour)))
		assert.True(t, want.Equal(ComputeDeadline(start, h, nil)), "hours %v", h)
	}
}

func TestComputeDeadline_ClampsHugeDurations(t *testing.T) {
	start := at(4, 9, 0)
	require.NotPanics(t, func() {
		got := ComputeDeadline(start, math.Inf(1), nil)
		assert.True(t, got.After(start))
	})
}

func TestCeilMinutes(t *testing.T) {
	tests := []struct {
		hours float64
		want  int64
	}{
		{0, 0},
		{1, 60},
		{0.1, 6},
		{0.7, 42},
		{1.0 / 120, 1},
		{2.5, 150},
		{0.0001, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ceilMinutes(tt.hours), "hours %v", tt.hours)
	}
}

func TestNextWorkingDate(t *testing.T) {
	cal := officeHours()

	assert.Equal(t, at(11, 0, 0), nextWorkingDate(at(8, 0, 0), cal))
	assert.Equal(t, at(5, 0, 0), nextWorkingDate(at(4, 0, 0), cal))
	assert.Equal(t, at(11, 0, 0), nextWorkingDate(at(9, 0, 0), cal))
	assert.Equal(t, at(11, 0, 0), nextWorkingDate(civilDate(at(9, 23, 59)), cal))
}

// everyDay is a daily window on all seven weekdays.
func everyDay(t *testing.T, start, end domain.TimeOfDay, zone string) *domain.BusinessCalendar {
	t.Helper()
	loc, err := time.LoadLocation(zone)
	require.NoError(t, err)
	days := domain.NewWeekdaySet(time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday)
	return domain.NewBusinessCalendar(start, end, days, loc)
}

// computeWithin fails the test instead of hanging when the computation does
// not finish.
func computeWithin(t *testing.T, start time.Time, hours float64, cal *domain.BusinessCalendar) time.Time {
	t.Helper()
	done := make(chan time.Time, 1)
	go func() { done <- ComputeDeadline(start, hours, cal) }()
	select {
	case got := <-done:
		return got
	case <-time.After(5 * time.Second):
		t.Fatalf("ComputeDeadline(%s, %v) did not return", start, hours)
		return time.Time{}
	}
}

func TestComputeDeadline_MidnightSkippedByDST(t *testing.T) {
	tests := []struct {
		zone  string
		start [3]int // year, month, day of the last day before the clock change
		next  [3]int // first day, whose midnight does not exist
	}{
		{"America/Santiago", [3]int{2025, 9, 6}, [3]int{2025, 9, 7}},
		{"Atlantic/Azores", [3]int{2025, 3, 29}, [3]int{2025, 3, 30}},
		{"America/Sao_Paulo", [3]int{2010, 10, 16}, [3]int{2010, 10, 17}},
	}

	for _, tt := range tests {
		t.Run(tt.zone, func(t *testing.T) {
			cal := everyDay(t, domain.TimeOfDay{Hour: 0}, domain.TimeOfDay{Hour: 8}, tt.zone)
			start := time.Date(tt.start[0], time.Month(tt.start[1]), tt.start[2], 7, 30, 0, 0, cal.Location)

			got := computeWithin(t, start, 1, cal)

			// 30 minutes before 08:00, then 30 minutes from the first
			// instant of the next day, which is 01:00 on the new offset.
			want := time.Date(tt.next[0], time.Month(tt.next[1]), tt.next[2], 1, 30, 0, 0, cal.Location)
			assert.True(t, want.Equal(got), "want %s, got %s", want, got)
		})
	}
}

func TestComputeDeadline_SkippedMidnightIsNotCountedTwice(t *testing.T) {
	cal := everyDay(t, domain.TimeOfDay{Hour: 0}, domain.TimeOfDay{Hour: 23, Minute: 59}, "America/Santiago")
	start := time.Date(2025, time.September, 6, 23, 30, 0, 0, cal.Location)

	got := computeWithin(t, start, 1, cal)

	// 29 minutes on the 6th, 31 from the start of the 7th.
	want := time.Date(2025, time.September, 7, 1, 31, 0, 0, cal.Location)
	assert.True(t, want.Equal(got), "want %s, got %s", want, got)
}

func TestComputeDeadline_MakesProgressAcrossClockChanges(t *testing.T) {
	zones := []string{"America/Santiago", "Atlantic/Azores", "America/Havana", "Europe/Berlin", "America/New_York"}
	windows := [][2]domain.TimeOfDay{
		{{Hour: 0}, {Hour: 8}},
		{{Hour: 0}, {Hour: 23, Minute: 59}},
		{{Hour: 1}, {Hour: 3}},
		{{Hour: 9}, {Hour: 17}},
	}

	for _, zone := range zones {
		for _, w := range windows {
			cal := everyDay(t, w[0], w[1], zone)
			for day := 0; day < 366; day += 3 {
				start := time.Date(2025, time.January, 1+day, 7, 30, 0, 0, cal.Location)
				prev := start
				for _, h := range []float64{0.5, 1, 8, 30} {
					got := computeWithin(t, start, h, cal)
					require.False(t, got.Before(prev), "%s %s-%s from %s: %vh gives %s", zone, w[0], w[1], start, h, got)
					require.True(t, got.After(start), "%s from %s: %vh gives %s", zone, start, h, got)
					prev = got
				}
			}
		}
	}
}
