package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/slaola/internal/domain"
)

// issueColumns is the shared list of columns for issue queries.
var issueColumns = []string{
	"id", "project_id", "subject", "custom_fields",
	"sla_limit", "ola_limit", "created_at", "updated_at",
}

// IssueRepository handles database operations for issues.
type IssueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository creates a new IssueRepository.
func NewIssueRepository(pool *pgxpool.Pool) *IssueRepository {
	return &IssueRepository{pool: pool}
}

// scanIssue scans a single row into an Issue struct.
func scanIssue(row pgx.Row) (*domain.Issue, error) {
	var issue domain.Issue
	var customFieldsJSON []byte

	err := row.Scan(
		&issue.ID,
		&issue.ProjectID,
		&issue.Subject,
		&customFieldsJSON,
		&issue.SLALimit,
		&issue.OLALimit,
		&issue.CreatedAt,
		&issue.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIssueNotFound
		}
		return nil, fmt.Errorf("scan issue: %w", err)
	}

	if err := json.Unmarshal(customFieldsJSON, &issue.CustomFields); err != nil {
		return nil, fmt.Errorf("parse custom_fields of issue %s: %w", issue.ID, err)
	}

	return &issue, nil
}

// scanIssues scans multiple rows into a slice of Issue structs.
func scanIssues(rows pgx.Rows) ([]*domain.Issue, error) {
	defer rows.Close()

	var issues []*domain.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return issues, nil
}

// Create inserts an issue. A zero CreatedAt is filled in by the database.
func (r *IssueRepository) Create(ctx context.Context, issue *domain.Issue) (*domain.Issue, error) {
	if issue.CustomFields == nil {
		issue.CustomFields = map[string]string{}
	}
	customFields, err := json.Marshal(issue.CustomFields)
	if err != nil {
		return nil, fmt.Errorf("encode custom_fields: %w", err)
	}

	columns := []string{"project_id", "subject", "custom_fields", "sla_limit", "ola_limit"}
	values := []any{issue.ProjectID, issue.Subject, customFields, issue.SLALimit, issue.OLALimit}
	if !issue.CreatedAt.IsZero() {
		columns = append(columns, "created_at")
		values = append(values, issue.CreatedAt)
	}

	query, args, err := psql.
		Insert("issues").
		Columns(columns...).
		Values(values...).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Create query for issue: %w", err)
	}

	err = r.pool.QueryRow(ctx, query, args...).Scan(&issue.ID, &issue.CreatedAt, &issue.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}

	return issue, nil
}

// GetByID retrieves an issue by ID.
func (r *IssueRepository) GetByID(ctx context.Context, issueID string) (*domain.Issue, error) {
	query, args, err := psql.
		Select(issueColumns...).
		From("issues").
		Where(sq.Eq{"id": issueID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for issue: %w", err)
	}

	return scanIssue(r.pool.QueryRow(ctx, query, args...))
}

// GetByIDForUpdate retrieves an issue by ID with FOR UPDATE lock (within transaction).
func (r *IssueRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, issueID string) (*domain.Issue, error) {
	query, args, err := psql.
		Select(issueColumns...).
		From("issues").
		Where(sq.Eq{"id": issueID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByIDForUpdate query for issue %s: %w", issueID, err)
	}

	return scanIssue(tx.QueryRow(ctx, query, args...))
}

// SetLimits writes both limits and bumps updated_at, but only while neither
// limit is set. Returns ErrLimitsAlreadySet otherwise.
func (r *IssueRepository) SetLimits(
	ctx context.Context,
	tx pgx.Tx,
	issueID string,
	slaLimit *time.Time,
	olaLimit *time.Time,
) error {
	query, args, err := psql.
		Update("issues").
		Set("sla_limit", slaLimit).
		Set("ola_limit", olaLimit).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{
			"id":        issueID,
			"sla_limit": nil,
			"ola_limit": nil,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build SetLimits query for issue %s: %w", issueID, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update issue limits: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrLimitsAlreadySet
	}

	return nil
}

// IssueCursor is a keyset position in created_at, id order.
type IssueCursor struct {
	CreatedAt time.Time
	ID        string
}

// FindMissingLimits returns up to limit issues that belong to a project and
// have neither limit set, in created_at, id order after the cursor.
// A nil cursor starts from the beginning.
func (r *IssueRepository) FindMissingLimits(ctx context.Context, after *IssueCursor, limit int) ([]*domain.Issue, error) {
	qb := psql.
		Select(issueColumns...).
		From("issues").
		Where(sq.NotEq{"project_id": nil}).
		Where(sq.Eq{"sla_limit": nil, "ola_limit": nil})

	if after != nil {
		qb = qb.Where("(created_at, id) > (?, ?)", after.CreatedAt, after.ID)
	}

	query, args, err := qb.
		OrderBy("created_at ASC", "id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build FindMissingLimits query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query issues missing limits: %w", err)
	}

	return scanIssues(rows)
}
