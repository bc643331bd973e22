package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaxDurationHours caps SLA/OLA durations accepted from configuration.
const MaxDurationHours = 10000

// DurationPlaces is the number of decimal places stored for policy durations.
const DurationPlaces = 4

// LimitKind names one of the two deadlines a policy can define.
type LimitKind string

const (
	LimitKindSLA LimitKind = "sla"
	LimitKindOLA LimitKind = "ola"
)

// Policy associates products of a project with SLA/OLA durations and a business calendar.
type Policy struct {
	ID                 string
	ProjectID          string
	Name               string
	Products           []string
	SLAHours           decimal.NullDecimal
	OLAHours           decimal.NullDecimal
	BusinessHoursStart string // "HH:MM", empty when no calendar
	BusinessHoursEnd   string
	BusinessDays       string // comma-separated weekdays, e.g. "1,2,3,4,5"
	Timezone           string
	CreatedAt          time.Time
}

// HasCalendarFields reports whether any calendar field is filled in.
func (p *Policy) HasCalendarFields() bool {
	return strings.TrimSpace(p.BusinessHoursStart) != "" ||
		strings.TrimSpace(p.BusinessHoursEnd) != "" ||
		strings.TrimSpace(p.BusinessDays) != ""
}

// Calendar resolves the policy's business calendar.
// Returns (nil, nil) when any of the window or day fields is blank: no calendar applies.
func (p *Policy) Calendar() (*BusinessCalendar, error) {
	if strings.TrimSpace(p.BusinessHoursStart) == "" ||
		strings.TrimSpace(p.BusinessHoursEnd) == "" ||
		strings.TrimSpace(p.BusinessDays) == "" {
		return nil, nil
	}
	return ParseBusinessCalendar(p.BusinessHoursStart, p.BusinessHoursEnd, p.BusinessDays, p.Timezone)
}

// Hours returns the configured duration for kind and whether it is set.
func (p *Policy) Hours(kind LimitKind) (float64, bool) {
	var d decimal.NullDecimal
	switch kind {
	case LimitKindSLA:
		d = p.SLAHours
	case LimitKindOLA:
		d = p.OLAHours
	}
	if !d.Valid {
		return 0, false
	}
	return d.Decimal.InexactFloat64(), true
}

// HasDelays reports whether the policy defines at least one duration.
func (p *Policy) HasDelays() bool {
	return p.SLAHours.Valid || p.OLAHours.Valid
}
