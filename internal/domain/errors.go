package domain

import "errors"

// Domain-specific errors for business logic validation.
var (
	// Issue errors
	ErrIssueNotFound    = errors.New("issue not found")
	ErrLimitsAlreadySet = errors.New("issue limits already set")

	// Policy errors
	ErrPolicyNotFound  = errors.New("policy not found")
	ErrNoProducts      = errors.New("policy must list at least one product")
	ErrProjectRequired = errors.New("project id is required")
	ErrDuplicatePolicy = errors.New("product already covered by another policy in project")

	// Query errors
	ErrInvalidSortField = errors.New("unsupported sort field")

	// Calendar errors
	ErrInvalidCalendar  = errors.New("invalid business calendar")
	ErrInvalidTimeOfDay = errors.New("invalid time of day")
	ErrInvalidWeekday   = errors.New("invalid weekday")

	// Duration errors
	ErrNegativeDuration   = errors.New("duration must not be negative")
	ErrDurationTooLong    = errors.New("duration exceeds maximum")
	ErrDurationTooPrecise = errors.New("duration has too many decimal places")

	// Client errors
	ErrClientNotFound = errors.New("client not found")
	ErrClientInactive = errors.New("client is inactive")
	ErrInvalidToken   = errors.New("invalid authentication token")
)
