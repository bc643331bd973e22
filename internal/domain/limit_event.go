package domain

import "time"

// LimitEventType represents the type of limit event.
type LimitEventType string

const (
	LimitEventAssigned LimitEventType = "limits_assigned"
	LimitEventSkipped  LimitEventType = "limits_skipped"
)

// LimitEvent is an audit log entry for a limit computation on an issue.
type LimitEvent struct {
	ID              string
	IssueID         string
	ClientID        *string // nil for backfill runs
	Type            LimitEventType
	PolicyID        *string
	SLALimit        *time.Time
	OLALimit        *time.Time
	CalendarApplied bool
	Comment         string
	CreatedAt       time.Time
}

// IsSystemEvent returns true if the event was created by a background run.
func (e *LimitEvent) IsSystemEvent() bool {
	return e.ClientID == nil
}
