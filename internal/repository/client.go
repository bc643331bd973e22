package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/slaola/internal/domain"
)

var clientColumns = []string{"id", "name", "token", "is_active", "created_at"}

// ClientRepository handles database operations for API clients.
type ClientRepository struct {
	pool *pgxpool.Pool
}

// NewClientRepository creates a new ClientRepository.
func NewClientRepository(pool *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{pool: pool}
}

func scanClient(row pgx.Row) (*domain.Client, error) {
	var client domain.Client
	err := row.Scan(
		&client.ID,
		&client.Name,
		&client.Token,
		&client.IsActive,
		&client.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrClientNotFound
		}
		return nil, fmt.Errorf("query client: %w", err)
	}
	return &client, nil
}

// GetByToken finds a client by authentication token.
func (r *ClientRepository) GetByToken(ctx context.Context, token string) (*domain.Client, error) {
	query, args, err := psql.
		Select(clientColumns...).
		From("clients").
		Where(sq.Eq{"token": token}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return scanClient(r.pool.QueryRow(ctx, query, args...))
}

// Create registers a new active client.
func (r *ClientRepository) Create(ctx context.Context, name, token string) (*domain.Client, error) {
	query, args, err := psql.
		Insert("clients").
		Columns("name", "token").
		Values(name, token).
		Suffix("RETURNING " + strings.Join(clientColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return scanClient(r.pool.QueryRow(ctx, query, args...))
}
