package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/slaola/internal/domain"
	"github.com/shopspring/decimal"
)

// policyColumns selects a policy with its product list aggregated from policy_products.
var policyColumns = []string{
	"p.id", "p.project_id", "p.name",
	"p.sla_hours::text", "p.ola_hours::text",
	"p.business_hours_start", "p.business_hours_end", "p.business_days", "p.timezone",
	"COALESCE((SELECT array_agg(pp2.product ORDER BY pp2.product) FROM policy_products pp2 WHERE pp2.policy_id = p.id), '{}') AS products",
	"p.created_at",
}

// PolicyRepository handles database operations for level agreement policies.
type PolicyRepository struct {
	pool *pgxpool.Pool
}

// NewPolicyRepository creates a new PolicyRepository.
func NewPolicyRepository(pool *pgxpool.Pool) *PolicyRepository {
	return &PolicyRepository{pool: pool}
}

// scanPolicy scans a single row into a Policy struct.
func scanPolicy(row pgx.Row) (*domain.Policy, error) {
	var policy domain.Policy
	var slaHours, olaHours *string

	err := row.Scan(
		&policy.ID,
		&policy.ProjectID,
		&policy.Name,
		&slaHours,
		&olaHours,
		&policy.BusinessHoursStart,
		&policy.BusinessHoursEnd,
		&policy.BusinessDays,
		&policy.Timezone,
		&policy.Products,
		&policy.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPolicyNotFound
		}
		return nil, fmt.Errorf("scan policy: %w", err)
	}

	if policy.SLAHours, err = parseNullDecimal(slaHours); err != nil {
		return nil, fmt.Errorf("parse sla_hours of policy %s: %w", policy.ID, err)
	}
	if policy.OLAHours, err = parseNullDecimal(olaHours); err != nil {
		return nil, fmt.Errorf("parse ola_hours of policy %s: %w", policy.ID, err)
	}

	return &policy, nil
}

func parseNullDecimal(s *string) (decimal.NullDecimal, error) {
	if s == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// nullDecimalArg converts a NullDecimal into a query argument, nil when unset.
func nullDecimalArg(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}

// FindPolicy returns the policy of projectID that lists product, or ErrPolicyNotFound.
func (r *PolicyRepository) FindPolicy(ctx context.Context, projectID, product string) (*domain.Policy, error) {
	query, args, err := psql.
		Select(policyColumns...).
		From("policies p").
		Join("policy_products pp ON pp.policy_id = p.id").
		Where(sq.Eq{
			"pp.project_id": projectID,
			"pp.product":    product,
		}).
		OrderBy("p.created_at ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build FindPolicy query for project %s: %w", projectID, err)
	}

	return scanPolicy(r.pool.QueryRow(ctx, query, args...))
}

// GetByID retrieves a policy by ID.
func (r *PolicyRepository) GetByID(ctx context.Context, policyID string) (*domain.Policy, error) {
	query, args, err := psql.
		Select(policyColumns...).
		From("policies p").
		Where(sq.Eq{"p.id": policyID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for policy %s: %w", policyID, err)
	}

	return scanPolicy(r.pool.QueryRow(ctx, query, args...))
}

// ListByProject retrieves all policies of a project, oldest first.
func (r *PolicyRepository) ListByProject(ctx context.Context, projectID string) ([]*domain.Policy, error) {
	query, args, err := psql.
		Select(policyColumns...).
		From("policies p").
		Where(sq.Eq{"p.project_id": projectID}).
		OrderBy("p.created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ListByProject query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query policies: %w", err)
	}
	defer rows.Close()

	var policies []*domain.Policy
	for rows.Next() {
		policy, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		policies = append(policies, policy)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return policies, nil
}

// Create inserts a policy and its product memberships within a transaction.
// Returns ErrDuplicatePolicy if a product is already covered in the project.
func (r *PolicyRepository) Create(ctx context.Context, tx pgx.Tx, policy *domain.Policy) (*domain.Policy, error) {
	query, args, err := psql.
		Insert("policies").
		Columns(
			"project_id", "name", "sla_hours", "ola_hours",
			"business_hours_start", "business_hours_end", "business_days", "timezone",
		).
		Values(
			policy.ProjectID,
			policy.Name,
			nullDecimalArg(policy.SLAHours),
			nullDecimalArg(policy.OLAHours),
			policy.BusinessHoursStart,
			policy.BusinessHoursEnd,
			policy.BusinessDays,
			policy.Timezone,
		).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Create query for policy: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&policy.ID, &policy.CreatedAt); err != nil {
		return nil, fmt.Errorf("create policy: %w", err)
	}

	products := psql.Insert("policy_products").Columns("policy_id", "project_id", "product")
	for _, product := range policy.Products {
		products = products.Values(policy.ID, policy.ProjectID, product)
	}

	query, args, err = products.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build product insert for policy %s: %w", policy.ID, err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicatePolicy, pgErr.Detail)
		}
		return nil, fmt.Errorf("insert policy products: %w", err)
	}

	return policy, nil
}
