package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/slaola/internal/database"
	"github.com/mtlprog/slaola/internal/domain"
	"github.com/mtlprog/slaola/internal/repository"
)

// DefaultBackfillBatchSize is the page size used when scanning issues without limits.
const DefaultBackfillBatchSize = 100

// LimitService assigns SLA/OLA limits to issues from their project policies.
type LimitService struct {
	pool       *pgxpool.Pool
	issueRepo  *repository.IssueRepository
	policyRepo *repository.PolicyRepository
	eventRepo  *repository.LimitEventRepository
}

// NewLimitService creates a new LimitService.
func NewLimitService(
	pool *pgxpool.Pool,
	issueRepo *repository.IssueRepository,
	policyRepo *repository.PolicyRepository,
	eventRepo *repository.LimitEventRepository,
) *LimitService {
	return &LimitService{
		pool:       pool,
		issueRepo:  issueRepo,
		policyRepo: policyRepo,
		eventRepo:  eventRepo,
	}
}

// PlanLimits computes the limits a policy gives an issue. Both limits start
// at the issue's creation time. An unparseable calendar is logged and the
// durations are applied as plain elapsed time.
func PlanLimits(issue *domain.Issue, policy *domain.Policy) *domain.LimitAssignment {
	assignment := &domain.LimitAssignment{
		IssueID:  issue.ID,
		PolicyID: &policy.ID,
		Product:  domain.ResolveProduct(issue.CustomFields, domain.ProductFieldName),
	}

	if !policy.HasDelays() {
		assignment.Skipped = true
		assignment.SkipReason = domain.SkipNoDelays
		return assignment
	}

	cal, err := policy.Calendar()
	if err != nil {
		slog.Warn("policy calendar invalid, using elapsed time",
			"policy_id", policy.ID,
			"issue_id", issue.ID,
			"error", err,
		)
		cal = nil
	}

	if hours, ok := policy.Hours(domain.LimitKindSLA); ok {
		res := ComputeDeadlineResult(issue.CreatedAt, hours, cal)
		assignment.SLALimit = &res.Deadline
		assignment.CalendarApplied = res.CalendarApplied
	}
	if hours, ok := policy.Hours(domain.LimitKindOLA); ok {
		res := ComputeDeadlineResult(issue.CreatedAt, hours, cal)
		assignment.OLALimit = &res.Deadline
		assignment.CalendarApplied = res.CalendarApplied
	}

	return assignment
}

// resolvePolicy applies the skip rules in order and returns the issue's policy.
// A nil policy comes with the reason it was skipped.
func (s *LimitService) resolvePolicy(ctx context.Context, issue *domain.Issue) (*domain.Policy, domain.SkipReason, error) {
	if issue.ProjectID == nil || *issue.ProjectID == "" {
		return nil, domain.SkipNoProject, nil
	}
	if issue.HasLimits() {
		return nil, domain.SkipLimitsPresent, nil
	}

	product := domain.ResolveProduct(issue.CustomFields, domain.ProductFieldName)
	if product == "" {
		return nil, domain.SkipNoProduct, nil
	}

	policy, err := s.policyRepo.FindPolicy(ctx, *issue.ProjectID, product)
	if errors.Is(err, domain.ErrPolicyNotFound) {
		return nil, domain.SkipNoPolicy, nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("find policy: %w", err)
	}

	return policy, "", nil
}

// AssignLimits computes and stores limits for one issue. Issues that already
// carry limits are left untouched. A non-nil clientID marks an explicit
// request: skipped outcomes are then recorded as events too.
func (s *LimitService) AssignLimits(ctx context.Context, issueID string, clientID *string) (*domain.LimitAssignment, error) {
	var assignment *domain.LimitAssignment

	err := database.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		issue, err := s.issueRepo.GetByIDForUpdate(ctx, tx, issueID)
		if err != nil {
			return err
		}

		policy, reason, err := s.resolvePolicy(ctx, issue)
		if err != nil {
			return err
		}

		if policy == nil {
			assignment = &domain.LimitAssignment{
				IssueID:    issue.ID,
				Product:    domain.ResolveProduct(issue.CustomFields, domain.ProductFieldName),
				Skipped:    true,
				SkipReason: reason,
			}
		} else {
			assignment = PlanLimits(issue, policy)
		}

		if assignment.Skipped {
			if clientID == nil || assignment.SkipReason == domain.SkipLimitsPresent {
				return nil
			}
			return s.eventRepo.Create(ctx, tx, &domain.LimitEvent{
				IssueID:  issue.ID,
				ClientID: clientID,
				Type:     domain.LimitEventSkipped,
				PolicyID: assignment.PolicyID,
				Comment:  string(assignment.SkipReason),
			})
		}

		if err := s.issueRepo.SetLimits(ctx, tx, issue.ID, assignment.SLALimit, assignment.OLALimit); err != nil {
			return err
		}

		event := &domain.LimitEvent{
			IssueID:         issue.ID,
			ClientID:        clientID,
			Type:            domain.LimitEventAssigned,
			PolicyID:        assignment.PolicyID,
			SLALimit:        assignment.SLALimit,
			OLALimit:        assignment.OLALimit,
			CalendarApplied: assignment.CalendarApplied,
			Comment:         "product: " + assignment.Product,
		}
		if err := s.eventRepo.Create(ctx, tx, event); err != nil {
			return fmt.Errorf("create event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if assignment.Skipped {
		slog.Debug("limits skipped",
			"issue_id", issueID,
			"reason", assignment.SkipReason,
		)
		return assignment, nil
	}

	slog.Info("limits assigned",
		"issue_id", issueID,
		"policy_id", *assignment.PolicyID,
		"sla_limit", assignment.SLALimit,
		"ola_limit", assignment.OLALimit,
		"calendar_applied", assignment.CalendarApplied,
	)

	return assignment, nil
}

// BackfillResult summarizes a backfill run.
type BackfillResult struct {
	Scanned  int
	Assigned int
	Skipped  int
	Failed   int
}

// BackfillLimits assigns limits to every project issue that has none yet,
// scanning in pages of batchSize. Failures for single issues are logged and
// collected; the run continues with the next issue.
func (s *LimitService) BackfillLimits(ctx context.Context, batchSize int) (BackfillResult, error) {
	if batchSize <= 0 {
		batchSize = DefaultBackfillBatchSize
	}

	var (
		result BackfillResult
		cursor *repository.IssueCursor
		errs   []error
	)

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		issues, err := s.issueRepo.FindMissingLimits(ctx, cursor, batchSize)
		if err != nil {
			return result, fmt.Errorf("find issues missing limits: %w", err)
		}
		if len(issues) == 0 {
			break
		}

		for _, issue := range issues {
			result.Scanned++
			assignment, err := s.AssignLimits(ctx, issue.ID, nil)
			switch {
			case errors.Is(err, domain.ErrLimitsAlreadySet):
				result.Skipped++
			case err != nil:
				slog.Error("failed to assign limits",
					"issue_id", issue.ID,
					"error", err,
				)
				errs = append(errs, fmt.Errorf("issue %s: %w", issue.ID, err))
				result.Failed++
			case assignment.Skipped:
				result.Skipped++
			default:
				result.Assigned++
			}
		}

		last := issues[len(issues)-1]
		cursor = &repository.IssueCursor{CreatedAt: last.CreatedAt, ID: last.ID}

		if len(issues) < batchSize {
			break
		}
	}

	slog.Info("backfill finished",
		"scanned", result.Scanned,
		"assigned", result.Assigned,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)

	if len(errs) > 0 {
		return result, fmt.Errorf("backfill failed for %d issues: %w", len(errs), errors.Join(errs...))
	}
	return result, nil
}
