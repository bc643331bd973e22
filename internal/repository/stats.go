package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// ProjectStatsResult holds limit statistics for one project.
type ProjectStatsResult struct {
	TotalIssues   int
	WithLimits    int
	MissingLimits int
	SLABreached   int
	OLABreached   int
}

// GetProjectStats counts a project's issues by limit state. Breaches are
// evaluated against the database clock.
func (r *IssueRepository) GetProjectStats(ctx context.Context, projectID string) (*ProjectStatsResult, error) {
	query, args, err := psql.
		Select(
			"COUNT(*)",
			"COUNT(*) FILTER (WHERE sla_limit IS NOT NULL OR ola_limit IS NOT NULL)",
			"COUNT(*) FILTER (WHERE sla_limit IS NULL AND ola_limit IS NULL)",
			"COUNT(*) FILTER (WHERE sla_limit < NOW())",
			"COUNT(*) FILTER (WHERE ola_limit < NOW())",
		).
		From("issues").
		Where(sq.Eq{"project_id": projectID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetProjectStats query for project %s: %w", projectID, err)
	}

	var result ProjectStatsResult
	err = r.pool.QueryRow(ctx, query, args...).Scan(
		&result.TotalIssues,
		&result.WithLimits,
		&result.MissingLimits,
		&result.SLABreached,
		&result.OLABreached,
	)
	if err != nil {
		return nil, fmt.Errorf("query project stats: %w", err)
	}

	return &result, nil
}

// CountPoliciesByProject returns the number of policies configured for a project.
func (r *PolicyRepository) CountPoliciesByProject(ctx context.Context, projectID string) (int, error) {
	query, args, err := psql.
		Select("COUNT(*)").
		From("policies").
		Where(sq.Eq{"project_id": projectID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build CountPoliciesByProject query: %w", err)
	}

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count policies: %w", err)
	}
	return count, nil
}
