package repository

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/mtlprog/slaola/internal/domain"
)

// IssueListFilters holds all supported filters for issue listing.
type IssueListFilters struct {
	ProjectID     string           // Required: filter by project
	Breached      domain.LimitKind // Optional: only issues whose limit of this kind has passed
	MissingLimits bool             // Optional: only issues without limits
	Sort          []string         // Optional: sort fields (with - prefix for DESC)
	Limit         int              // Required: page size
	Offset        int              // Required: page offset
}

// sortableIssueColumns whitelists the columns accepted in Sort.
var sortableIssueColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"sla_limit":  true,
	"ola_limit":  true,
}

// applyIssueFilters adds the WHERE clauses shared by the list and count queries.
func applyIssueFilters(qb sq.SelectBuilder, filters IssueListFilters) sq.SelectBuilder {
	qb = qb.Where(sq.Eq{"project_id": filters.ProjectID})

	switch filters.Breached {
	case domain.LimitKindSLA:
		qb = qb.Where("sla_limit < NOW()")
	case domain.LimitKindOLA:
		qb = qb.Where("ola_limit < NOW()")
	}

	if filters.MissingLimits {
		qb = qb.Where(sq.Eq{"sla_limit": nil, "ola_limit": nil})
	}

	return qb
}

// List retrieves issues of a project with filters and pagination.
// Returns the page and the total number of matching issues.
func (r *IssueRepository) List(ctx context.Context, filters IssueListFilters) ([]*domain.Issue, int, error) {
	qb := applyIssueFilters(psql.Select(issueColumns...).From("issues"), filters)

	if len(filters.Sort) == 0 {
		qb = qb.OrderBy("created_at ASC")
	}
	for _, sort := range filters.Sort {
		field, direction := sort, "ASC"
		if strings.HasPrefix(sort, "-") {
			field, direction = sort[1:], "DESC"
		}
		if !sortableIssueColumns[field] {
			return nil, 0, fmt.Errorf("%w: %q", domain.ErrInvalidSortField, field)
		}
		qb = qb.OrderBy(field + " " + direction + " NULLS LAST")
	}

	query, args, err := qb.
		Limit(uint64(filters.Limit)).
		Offset(uint64(filters.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build List query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query issues: %w", err)
	}

	issues, err := scanIssues(rows)
	if err != nil {
		return nil, 0, err
	}

	countQuery, countArgs, err := applyIssueFilters(psql.Select("COUNT(*)").From("issues"), filters).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count issues: %w", err)
	}

	return issues, total, nil
}
