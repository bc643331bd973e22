package service

import (
	"context"
	"strings"

	"github.com/mtlprog/slaola/internal/domain"
	"github.com/mtlprog/slaola/internal/repository"
)

// IssueService exposes issue intake and read models.
type IssueService struct {
	issueRepo  *repository.IssueRepository
	policyRepo *repository.PolicyRepository
	eventRepo  *repository.LimitEventRepository
	limits     *LimitService
}

// NewIssueService creates a new IssueService. When limits is non-nil, new
// issues get their limits assigned right after intake.
func NewIssueService(
	issueRepo *repository.IssueRepository,
	policyRepo *repository.PolicyRepository,
	eventRepo *repository.LimitEventRepository,
	limits *LimitService,
) *IssueService {
	return &IssueService{
		issueRepo:  issueRepo,
		policyRepo: policyRepo,
		eventRepo:  eventRepo,
		limits:     limits,
	}
}

// CreateIssue stores an issue and, for project issues, assigns its limits.
// The returned assignment is nil when no assignment was attempted.
func (s *IssueService) CreateIssue(ctx context.Context, issue *domain.Issue, clientID *string) (*domain.Issue, *domain.LimitAssignment, error) {
	if issue.ProjectID != nil && strings.TrimSpace(*issue.ProjectID) == "" {
		issue.ProjectID = nil
	}

	created, err := s.issueRepo.Create(ctx, issue)
	if err != nil {
		return nil, nil, err
	}

	if s.limits == nil || created.ProjectID == nil {
		return created, nil, nil
	}

	assignment, err := s.limits.AssignLimits(ctx, created.ID, clientID)
	if err != nil {
		return nil, nil, err
	}

	if !assignment.Skipped {
		created.SLALimit = assignment.SLALimit
		created.OLALimit = assignment.OLALimit
	}
	return created, assignment, nil
}

// IssueDetails is an issue together with its limit history.
type IssueDetails struct {
	Issue  *domain.Issue
	Events []*domain.LimitEvent
}

// GetIssue returns an issue with its limit events.
func (s *IssueService) GetIssue(ctx context.Context, issueID string) (*IssueDetails, error) {
	issue, err := s.issueRepo.GetByID(ctx, issueID)
	if err != nil {
		return nil, err
	}

	events, err := s.eventRepo.GetByIssueID(ctx, issueID)
	if err != nil {
		return nil, err
	}

	return &IssueDetails{Issue: issue, Events: events}, nil
}

// ListIssues returns a page of project issues and the total count.
func (s *IssueService) ListIssues(ctx context.Context, filters repository.IssueListFilters) ([]*domain.Issue, int, error) {
	return s.issueRepo.List(ctx, filters)
}

// ProjectStats aggregates limit coverage for one project.
type ProjectStats struct {
	ProjectID string
	Policies  int
	repository.ProjectStatsResult
}

// GetProjectStats returns issue and policy counters for a project.
func (s *IssueService) GetProjectStats(ctx context.Context, projectID string) (*ProjectStats, error) {
	issueStats, err := s.issueRepo.GetProjectStats(ctx, projectID)
	if err != nil {
		return nil, err
	}

	policies, err := s.policyRepo.CountPoliciesByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return &ProjectStats{
		ProjectID:          projectID,
		Policies:           policies,
		ProjectStatsResult: *issueStats,
	}, nil
}
