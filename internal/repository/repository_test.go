package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/slaola/internal/domain"
	"github.com/mtlprog/slaola/internal/repository"
	"github.com/mtlprog/slaola/internal/testdb"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type RepositorySuite struct {
	suite.Suite
	pool     *pgxpool.Pool
	issues   *repository.IssueRepository
	policies *repository.PolicyRepository
	clients  *repository.ClientRepository
	ctx      context.Context
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupSuite() {
	s.ctx = context.Background()
	s.pool = testdb.Open(s.T())
	s.issues = repository.NewIssueRepository(s.pool)
	s.policies = repository.NewPolicyRepository(s.pool)
	s.clients = repository.NewClientRepository(s.pool)
}

func (s *RepositorySuite) SetupTest() {
	testdb.Truncate(s.T(), s.pool)
}

func (s *RepositorySuite) createIssue(project *string, createdAt time.Time) *domain.Issue {
	issue, err := s.issues.Create(s.ctx, &domain.Issue{
		ProjectID: project,
		Subject:   "Printer on fire",
		CustomFields: map[string]string{
			domain.ProductFieldName: "Printing",
		},
		CreatedAt: createdAt,
	})
	s.Require().NoError(err)
	return issue
}

func (s *RepositorySuite) createPolicy(project string, products ...string) *domain.Policy {
	tx, err := s.pool.Begin(s.ctx)
	s.Require().NoError(err)
	defer func() { _ = tx.Rollback(s.ctx) }()

	policy, err := s.policies.Create(s.ctx, tx, &domain.Policy{
		ProjectID:          project,
		Name:               "Standard",
		Products:           products,
		SLAHours:           decimal.NewNullDecimal(decimal.RequireFromString("8.5")),
		BusinessHoursStart: "09:00",
		BusinessHoursEnd:   "17:00",
		BusinessDays:       "1,2,3,4,5",
	})
	s.Require().NoError(err)
	s.Require().NoError(tx.Commit(s.ctx))
	return policy
}

func (s *RepositorySuite) setLimits(issueID string, sla, ola *time.Time) error {
	tx, err := s.pool.Begin(s.ctx)
	s.Require().NoError(err)
	defer func() { _ = tx.Rollback(s.ctx) }()

	if err := s.issues.SetLimits(s.ctx, tx, issueID, sla, ola); err != nil {
		return err
	}
	return tx.Commit(s.ctx)
}

func (s *RepositorySuite) TestIssue_CreateAndGet() {
	project := "helpdesk"
	created := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	issue := s.createIssue(&project, created)
	s.NotEmpty(issue.ID)

	got, err := s.issues.GetByID(s.ctx, issue.ID)
	s.Require().NoError(err)
	s.Equal("helpdesk", *got.ProjectID)
	s.Equal("Printing", got.CustomFields[domain.ProductFieldName])
	s.True(got.CreatedAt.Equal(created))
	s.Nil(got.SLALimit)
	s.Nil(got.OLALimit)
}

func (s *RepositorySuite) TestIssue_GetMissing() {
	_, err := s.issues.GetByID(s.ctx, "00000000-0000-0000-0000-000000000000")
	s.ErrorIs(err, domain.ErrIssueNotFound)
}

func (s *RepositorySuite) TestIssue_SetLimitsOnlyOnce() {
	project := "helpdesk"
	issue := s.createIssue(&project, time.Time{})
	sla := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

	s.Require().NoError(s.setLimits(issue.ID, &sla, nil))

	later := sla.Add(time.Hour)
	s.ErrorIs(s.setLimits(issue.ID, &later, nil), domain.ErrLimitsAlreadySet)

	got, err := s.issues.GetByID(s.ctx, issue.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.SLALimit)
	s.True(got.SLALimit.Equal(sla))
	s.Nil(got.OLALimit)
}

func (s *RepositorySuite) TestIssue_FindMissingLimitsPagesWithCursor() {
	project := "helpdesk"
	base := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	var want []string
	for i := range 5 {
		want = append(want, s.createIssue(&project, base.Add(time.Duration(i)*time.Minute)).ID)
	}
	s.createIssue(nil, base)
	done := s.createIssue(&project, base)
	sla := base.Add(time.Hour)
	s.Require().NoError(s.setLimits(done.ID, &sla, nil))

	var got []string
	var cursor *repository.IssueCursor
	for {
		page, err := s.issues.FindMissingLimits(s.ctx, cursor, 2)
		s.Require().NoError(err)
		if len(page) == 0 {
			break
		}
		s.LessOrEqual(len(page), 2)
		for _, issue := range page {
			got = append(got, issue.ID)
		}
		last := page[len(page)-1]
		cursor = &repository.IssueCursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}

	s.Equal(want, got)
}

func (s *RepositorySuite) TestIssue_ListFiltersAndSorts() {
	project := "helpdesk"
	base := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	breached := s.createIssue(&project, base)
	past := base.Add(time.Hour)
	s.Require().NoError(s.setLimits(breached.ID, &past, nil))

	pending := s.createIssue(&project, base.Add(time.Minute))
	future := time.Now().Add(48 * time.Hour)
	s.Require().NoError(s.setLimits(pending.ID, &future, &future))

	missing := s.createIssue(&project, base.Add(2*time.Minute))
	other := "billing"
	s.createIssue(&other, base)

	all, total, err := s.issues.List(s.ctx, repository.IssueListFilters{ProjectID: project, Limit: 10})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Len(all, 3)
	s.Equal(breached.ID, all[0].ID)

	slaBreached, total, err := s.issues.List(s.ctx, repository.IssueListFilters{
		ProjectID: project,
		Breached:  domain.LimitKindSLA,
		Limit:     10,
	})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Require().Len(slaBreached, 1)
	s.Equal(breached.ID, slaBreached[0].ID)

	noLimits, total, err := s.issues.List(s.ctx, repository.IssueListFilters{
		ProjectID:     project,
		MissingLimits: true,
		Limit:         10,
	})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Require().Len(noLimits, 1)
	s.Equal(missing.ID, noLimits[0].ID)

	newest, total, err := s.issues.List(s.ctx, repository.IssueListFilters{
		ProjectID: project,
		Sort:      []string{"-created_at"},
		Limit:     1,
		Offset:    0,
	})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Require().Len(newest, 1)
	s.Equal(missing.ID, newest[0].ID)

	_, _, err = s.issues.List(s.ctx, repository.IssueListFilters{
		ProjectID: project,
		Sort:      []string{"subject"},
		Limit:     10,
	})
	s.ErrorIs(err, domain.ErrInvalidSortField)
}

func (s *RepositorySuite) TestIssue_ProjectStats() {
	project := "helpdesk"
	base := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	breached := s.createIssue(&project, base)
	past := base.Add(time.Hour)
	s.Require().NoError(s.setLimits(breached.ID, &past, &past))
	s.createIssue(&project, base)

	stats, err := s.issues.GetProjectStats(s.ctx, project)
	s.Require().NoError(err)
	s.Equal(repository.ProjectStatsResult{
		TotalIssues:   2,
		WithLimits:    1,
		MissingLimits: 1,
		SLABreached:   1,
		OLABreached:   1,
	}, *stats)
}

func (s *RepositorySuite) TestPolicy_FindByProduct() {
	created := s.createPolicy("helpdesk", "Printing", "Network")
	s.createPolicy("billing", "Printing")

	got, err := s.policies.FindPolicy(s.ctx, "helpdesk", "Network")
	s.Require().NoError(err)
	s.Equal(created.ID, got.ID)
	s.Equal([]string{"Network", "Printing"}, got.Products)
	s.Require().True(got.SLAHours.Valid)
	s.True(got.SLAHours.Decimal.Equal(decimal.RequireFromString("8.5")))
	s.False(got.OLAHours.Valid)

	_, err = s.policies.FindPolicy(s.ctx, "helpdesk", "Print")
	s.ErrorIs(err, domain.ErrPolicyNotFound)

	count, err := s.policies.CountPoliciesByProject(s.ctx, "helpdesk")
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *RepositorySuite) TestPolicy_DuplicateProduct() {
	s.createPolicy("helpdesk", "Printing")

	tx, err := s.pool.Begin(s.ctx)
	s.Require().NoError(err)
	defer func() { _ = tx.Rollback(s.ctx) }()

	_, err = s.policies.Create(s.ctx, tx, &domain.Policy{
		ProjectID: "helpdesk",
		Name:      "Second",
		Products:  []string{"Printing"},
		OLAHours:  decimal.NewNullDecimal(decimal.NewFromInt(2)),
	})
	s.ErrorIs(err, domain.ErrDuplicatePolicy)
}

func (s *RepositorySuite) TestClient_CreateAndLookup() {
	created, err := s.clients.Create(s.ctx, "portal", "secret-token")
	s.Require().NoError(err)

	got, err := s.clients.GetByToken(s.ctx, "secret-token")
	s.Require().NoError(err)
	s.Equal(created.ID, got.ID)
	s.Equal("portal", got.Name)
	s.True(got.IsActive)

	_, err = s.clients.GetByToken(s.ctx, "unknown")
	s.ErrorIs(err, domain.ErrClientNotFound)
}
