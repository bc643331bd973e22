package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/slaola/internal/database"
	"github.com/mtlprog/slaola/internal/domain"
	"github.com/mtlprog/slaola/internal/repository"
	"github.com/shopspring/decimal"
)

// PolicyService manages level agreement policies.
type PolicyService struct {
	pool       *pgxpool.Pool
	policyRepo *repository.PolicyRepository
	validator  *Validator
}

// NewPolicyService creates a new PolicyService.
func NewPolicyService(pool *pgxpool.Pool, policyRepo *repository.PolicyRepository) *PolicyService {
	return &PolicyService{
		pool:       pool,
		policyRepo: policyRepo,
		validator:  NewValidator(policyRepo),
	}
}

// CreatePolicyParams holds the input for creating a policy.
type CreatePolicyParams struct {
	ProjectID          string
	Name               string
	Products           []string
	SLAHours           decimal.NullDecimal
	OLAHours           decimal.NullDecimal
	BusinessHoursStart string
	BusinessHoursEnd   string
	BusinessDays       string
	Timezone           string
}

// CreatePolicy validates and stores a policy.
func (s *PolicyService) CreatePolicy(ctx context.Context, params CreatePolicyParams) (*domain.Policy, error) {
	policy := &domain.Policy{
		ProjectID:          strings.TrimSpace(params.ProjectID),
		Name:               strings.TrimSpace(params.Name),
		Products:           NormalizeProducts(params.Products),
		SLAHours:           params.SLAHours,
		OLAHours:           params.OLAHours,
		BusinessHoursStart: strings.TrimSpace(params.BusinessHoursStart),
		BusinessHoursEnd:   strings.TrimSpace(params.BusinessHoursEnd),
		BusinessDays:       strings.TrimSpace(params.BusinessDays),
		Timezone:           strings.TrimSpace(params.Timezone),
	}

	if err := s.validator.ValidatePolicy(policy); err != nil {
		return nil, err
	}
	if err := s.validator.CheckProductsAvailable(ctx, policy.ProjectID, policy.Products); err != nil {
		return nil, err
	}

	err := database.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := s.policyRepo.Create(ctx, tx, policy)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("policy created",
		"policy_id", policy.ID,
		"project_id", policy.ProjectID,
		"products", policy.Products,
	)

	return policy, nil
}

// FindPolicy returns the policy applicable to product within projectID.
func (s *PolicyService) FindPolicy(ctx context.Context, projectID, product string) (*domain.Policy, error) {
	projectID = strings.TrimSpace(projectID)
	product = strings.TrimSpace(product)
	if projectID == "" {
		return nil, domain.ErrProjectRequired
	}
	if product == "" {
		return nil, domain.ErrPolicyNotFound
	}
	return s.policyRepo.FindPolicy(ctx, projectID, product)
}

// GetPolicy returns a policy by ID.
func (s *PolicyService) GetPolicy(ctx context.Context, policyID string) (*domain.Policy, error) {
	return s.policyRepo.GetByID(ctx, policyID)
}

// ListPolicies returns all policies of a project.
func (s *PolicyService) ListPolicies(ctx context.Context, projectID string) ([]*domain.Policy, error) {
	return s.policyRepo.ListByProject(ctx, projectID)
}

// ImportPolicies creates each policy in turn. Policies whose products are
// already covered are skipped. Returns the number created and an error if
// any policy failed.
func (s *PolicyService) ImportPolicies(ctx context.Context, params []CreatePolicyParams) (int, error) {
	created := 0
	skipped := 0
	var errs []error
	for i, p := range params {
		policy, err := s.CreatePolicy(ctx, p)
		if errors.Is(err, domain.ErrDuplicatePolicy) {
			slog.Warn("policy import skipped", "index", i, "project_id", p.ProjectID, "name", p.Name, "error", err)
			skipped++
			continue
		}
		if err != nil {
			slog.Error("policy import failed", "index", i, "project_id", p.ProjectID, "name", p.Name, "error", err)
			errs = append(errs, fmt.Errorf("policy %d (%s): %w", i, p.Name, err))
			continue
		}
		slog.Debug("policy imported", "policy_id", policy.ID)
		created++
	}

	slog.Info("policies imported",
		"total", len(params),
		"created", created,
		"skipped", skipped,
		"failed", len(errs),
	)

	if len(errs) > 0 {
		return created, fmt.Errorf("imported %d/%d policies: %w", created, len(params), errors.Join(errs...))
	}
	return created, nil
}
