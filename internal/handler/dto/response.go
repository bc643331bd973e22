package dto

import (
	"time"

	"github.com/mtlprog/slaola/internal/domain"
	"github.com/mtlprog/slaola/internal/repository"
	"github.com/mtlprog/slaola/internal/service"
	"github.com/shopspring/decimal"
)

// DeadlineResponse represents the response for POST /deadlines.
type DeadlineResponse struct {
	Deadline        time.Time `json:"deadline"`
	CalendarApplied bool      `json:"calendar_applied"`
	CalendarError   string    `json:"calendar_error,omitempty"`
}

// PolicyResponse represents a policy.
type PolicyResponse struct {
	ID                 string              `json:"id"`
	ProjectID          string              `json:"project_id"`
	Name               string              `json:"name"`
	Products           []string            `json:"products"`
	SLAHours           decimal.NullDecimal `json:"sla_hours"`
	OLAHours           decimal.NullDecimal `json:"ola_hours"`
	BusinessHoursStart string              `json:"business_hours_start"`
	BusinessHoursEnd   string              `json:"business_hours_end"`
	BusinessDays       string              `json:"business_days"`
	Timezone           string              `json:"timezone"`
	CreatedAt          time.Time           `json:"created_at"`
}

// IssueResponse represents an issue with its limits.
type IssueResponse struct {
	ID           string            `json:"id"`
	ProjectID    *string           `json:"project_id"`
	Subject      string            `json:"subject"`
	CustomFields map[string]string `json:"custom_fields"`
	SLALimit     *time.Time        `json:"sla_limit"`
	OLALimit     *time.Time        `json:"ola_limit"`
	SLABreached  bool              `json:"sla_breached"`
	OLABreached  bool              `json:"ola_breached"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// IssuesListResponse represents the response for GET /projects/{id}/issues.
type IssuesListResponse struct {
	Issues []IssueResponse `json:"issues"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// LimitEventInfo represents one entry of an issue's limit history.
type LimitEventInfo struct {
	ID              string     `json:"id"`
	Type            string     `json:"type"`
	ClientID        *string    `json:"client_id"`
	System          bool       `json:"system"`
	PolicyID        *string    `json:"policy_id"`
	SLALimit        *time.Time `json:"sla_limit"`
	OLALimit        *time.Time `json:"ola_limit"`
	CalendarApplied bool       `json:"calendar_applied"`
	Comment         string     `json:"comment"`
	CreatedAt       time.Time  `json:"created_at"`
}

// IssueDetailResponse represents an issue with its limit history.
type IssueDetailResponse struct {
	Issue  IssueResponse    `json:"issue"`
	Events []LimitEventInfo `json:"events"`
}

// LimitAssignmentResponse represents the outcome of a limit assignment.
type LimitAssignmentResponse struct {
	IssueID         string     `json:"issue_id"`
	PolicyID        *string    `json:"policy_id"`
	Product         string     `json:"product"`
	SLALimit        *time.Time `json:"sla_limit"`
	OLALimit        *time.Time `json:"ola_limit"`
	CalendarApplied bool       `json:"calendar_applied"`
	Skipped         bool       `json:"skipped"`
	SkipReason      string     `json:"skip_reason,omitempty"`
}

// CreateIssueResponse represents the response for POST /issues.
type CreateIssueResponse struct {
	Issue  IssueResponse            `json:"issue"`
	Limits *LimitAssignmentResponse `json:"limits"`
}

// ProjectStatsResponse represents limit statistics for a project.
type ProjectStatsResponse struct {
	ProjectID            string  `json:"project_id"`
	Policies             int     `json:"policies"`
	TotalIssues          int     `json:"total_issues"`
	WithLimits           int     `json:"with_limits"`
	MissingLimits        int     `json:"missing_limits"`
	SLABreached          int     `json:"sla_breached"`
	OLABreached          int     `json:"ola_breached"`
	SLABreachRatePercent float64 `json:"sla_breach_rate_percent"`
}

// ToPolicyResponse converts domain.Policy to PolicyResponse.
func ToPolicyResponse(p *domain.Policy) PolicyResponse {
	products := p.Products
	if products == nil {
		products = []string{}
	}
	return PolicyResponse{
		ID:                 p.ID,
		ProjectID:          p.ProjectID,
		Name:               p.Name,
		Products:           products,
		SLAHours:           p.SLAHours,
		OLAHours:           p.OLAHours,
		BusinessHoursStart: p.BusinessHoursStart,
		BusinessHoursEnd:   p.BusinessHoursEnd,
		BusinessDays:       p.BusinessDays,
		Timezone:           p.Timezone,
		CreatedAt:          p.CreatedAt,
	}
}

// ToIssueResponse converts domain.Issue to IssueResponse. Breach flags are
// evaluated against now.
func ToIssueResponse(issue *domain.Issue, now time.Time) IssueResponse {
	fields := issue.CustomFields
	if fields == nil {
		fields = map[string]string{}
	}
	return IssueResponse{
		ID:           issue.ID,
		ProjectID:    issue.ProjectID,
		Subject:      issue.Subject,
		CustomFields: fields,
		SLALimit:     issue.SLALimit,
		OLALimit:     issue.OLALimit,
		SLABreached:  issue.IsBreached(domain.LimitKindSLA, now),
		OLABreached:  issue.IsBreached(domain.LimitKindOLA, now),
		CreatedAt:    issue.CreatedAt,
		UpdatedAt:    issue.UpdatedAt,
	}
}

// ToLimitEventInfo converts domain.LimitEvent to LimitEventInfo.
func ToLimitEventInfo(event *domain.LimitEvent) LimitEventInfo {
	return LimitEventInfo{
		ID:              event.ID,
		Type:            string(event.Type),
		ClientID:        event.ClientID,
		System:          event.IsSystemEvent(),
		PolicyID:        event.PolicyID,
		SLALimit:        event.SLALimit,
		OLALimit:        event.OLALimit,
		CalendarApplied: event.CalendarApplied,
		Comment:         event.Comment,
		CreatedAt:       event.CreatedAt,
	}
}

// ToLimitAssignmentResponse converts domain.LimitAssignment to LimitAssignmentResponse.
func ToLimitAssignmentResponse(a *domain.LimitAssignment) *LimitAssignmentResponse {
	if a == nil {
		return nil
	}
	return &LimitAssignmentResponse{
		IssueID:         a.IssueID,
		PolicyID:        a.PolicyID,
		Product:         a.Product,
		SLALimit:        a.SLALimit,
		OLALimit:        a.OLALimit,
		CalendarApplied: a.CalendarApplied,
		Skipped:         a.Skipped,
		SkipReason:      string(a.SkipReason),
	}
}

// ToProjectStatsResponse converts service.ProjectStats to ProjectStatsResponse.
func ToProjectStatsResponse(stats *service.ProjectStats) ProjectStatsResponse {
	rate := 0.0
	if stats.WithLimits > 0 {
		rate = float64(stats.SLABreached) / float64(stats.WithLimits) * 100
	}
	return ProjectStatsResponse{
		ProjectID:            stats.ProjectID,
		Policies:             stats.Policies,
		TotalIssues:          stats.TotalIssues,
		WithLimits:           stats.WithLimits,
		MissingLimits:        stats.MissingLimits,
		SLABreached:          stats.SLABreached,
		OLABreached:          stats.OLABreached,
		SLABreachRatePercent: rate,
	}
}

// ToListFilters converts parsed query parameters into repository filters.
func (f ListIssuesFilters) ToListFilters(projectID string) repository.IssueListFilters {
	return repository.IssueListFilters{
		ProjectID:     projectID,
		Breached:      domain.LimitKind(f.Breached),
		MissingLimits: f.MissingLimits,
		Sort:          f.Sort,
		Limit:         f.Limit,
		Offset:        f.Offset,
	}
}
