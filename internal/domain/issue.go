package domain

import (
	"strings"
	"time"
)

// ProductFieldName is the custom field holding an issue's product classification.
const ProductFieldName = "Products"

// Issue is a tracked record that receives SLA/OLA limits.
type Issue struct {
	ID           string
	ProjectID    *string
	Subject      string
	CustomFields map[string]string
	SLALimit     *time.Time
	OLALimit     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasLimits reports whether either limit is already set.
func (i *Issue) HasLimits() bool {
	return i.SLALimit != nil || i.OLALimit != nil
}

// NeedsLimits reports whether limits may be assigned: the issue belongs to a
// project and neither limit has been set yet.
func (i *Issue) NeedsLimits() bool {
	return i.ProjectID != nil && *i.ProjectID != "" && !i.HasLimits()
}

// IsBreached reports whether the given limit exists and lies before now.
func (i *Issue) IsBreached(kind LimitKind, now time.Time) bool {
	limit := i.SLALimit
	if kind == LimitKindOLA {
		limit = i.OLALimit
	}
	return limit != nil && limit.Before(now)
}

// ResolveProduct returns the trimmed value of the named field, or "" when absent.
func ResolveProduct(fields map[string]string, name string) string {
	return strings.TrimSpace(fields[name])
}

// SkipReason explains why no limits were assigned to an issue.
type SkipReason string

const (
	SkipNoProject     SkipReason = "no_project"
	SkipLimitsPresent SkipReason = "limits_present"
	SkipNoProduct     SkipReason = "no_product"
	SkipNoPolicy      SkipReason = "no_policy"
	SkipNoDelays      SkipReason = "no_delays"
)

// LimitAssignment is the outcome of assigning limits to one issue.
type LimitAssignment struct {
	IssueID         string
	PolicyID        *string
	Product         string
	SLALimit        *time.Time
	OLALimit        *time.Time
	CalendarApplied bool
	Skipped         bool
	SkipReason      SkipReason
}
