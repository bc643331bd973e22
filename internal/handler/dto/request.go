package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CalendarRequest describes a business calendar inline.
type CalendarRequest struct {
	StartOfDay string `json:"start_of_day" validate:"required"`
	EndOfDay   string `json:"end_of_day" validate:"required"`
	Days       string `json:"days" validate:"required"`
	Timezone   string `json:"timezone,omitempty"`
}

// ComputeDeadlineRequest represents the request body for POST /deadlines.
type ComputeDeadlineRequest struct {
	Start    time.Time        `json:"start" validate:"required"`
	Hours    *float64         `json:"hours" validate:"required"`
	Calendar *CalendarRequest `json:"calendar,omitempty"`
}

// CreatePolicyRequest represents the request body for POST /policies.
type CreatePolicyRequest struct {
	ProjectID          string              `json:"project_id" validate:"required,max=255"`
	Name               string              `json:"name" validate:"max=255"`
	Products           []string            `json:"products" validate:"required,min=1,dive,required,max=255"`
	SLAHours           decimal.NullDecimal `json:"sla_hours"`
	OLAHours           decimal.NullDecimal `json:"ola_hours"`
	BusinessHoursStart string              `json:"business_hours_start,omitempty"`
	BusinessHoursEnd   string              `json:"business_hours_end,omitempty"`
	BusinessDays       string              `json:"business_days,omitempty"`
	Timezone           string              `json:"timezone,omitempty" validate:"omitempty,timezone"`
}

// CreateIssueRequest represents the request body for POST /issues.
type CreateIssueRequest struct {
	ProjectID    *string           `json:"project_id,omitempty" validate:"omitempty,max=255"`
	Subject      string            `json:"subject" validate:"required,max=1000"`
	CustomFields map[string]string `json:"custom_fields,omitempty"`
	CreatedAt    *time.Time        `json:"created_at,omitempty"`
}

// ListIssuesFilters represents query parameters for GET /projects/{id}/issues.
type ListIssuesFilters struct {
	Breached      string   // ?breached=sla or ?breached=ola
	MissingLimits bool     // ?missing_limits=true
	Sort          []string // ?sort=-sla_limit,created_at
	Limit         int      // ?limit=50
	Offset        int      // ?offset=0
}
