package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/slaola/internal/domain"
)

// LimitEventRepository handles database operations for limit events.
type LimitEventRepository struct {
	pool *pgxpool.Pool
}

// NewLimitEventRepository creates a new LimitEventRepository.
func NewLimitEventRepository(pool *pgxpool.Pool) *LimitEventRepository {
	return &LimitEventRepository{pool: pool}
}

// Create creates a new limit event.
func (r *LimitEventRepository) Create(ctx context.Context, tx pgx.Tx, event *domain.LimitEvent) error {
	query, args, err := psql.
		Insert("limit_events").
		Columns("issue_id", "client_id", "type", "policy_id", "sla_limit", "ola_limit", "calendar_applied", "comment").
		Values(
			event.IssueID,
			event.ClientID,
			event.Type,
			event.PolicyID,
			event.SLALimit,
			event.OLALimit,
			event.CalendarApplied,
			event.Comment,
		).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	err = tx.QueryRow(ctx, query, args...).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("create limit event: %w", err)
	}

	return nil
}

// GetByIssueID retrieves all events for an issue.
func (r *LimitEventRepository) GetByIssueID(ctx context.Context, issueID string) ([]*domain.LimitEvent, error) {
	query, args, err := psql.
		Select("id", "issue_id", "client_id", "type", "policy_id", "sla_limit", "ola_limit", "calendar_applied", "comment", "created_at").
		From("limit_events").
		Where(sq.Eq{"issue_id": issueID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query limit events: %w", err)
	}
	defer rows.Close()

	var events []*domain.LimitEvent
	for rows.Next() {
		var event domain.LimitEvent
		err := rows.Scan(
			&event.ID,
			&event.IssueID,
			&event.ClientID,
			&event.Type,
			&event.PolicyID,
			&event.SLALimit,
			&event.OLALimit,
			&event.CalendarApplied,
			&event.Comment,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan limit event: %w", err)
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return events, nil
}
