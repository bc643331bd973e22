// Package testdb provides a migrated PostgreSQL pool for integration tests.
package testdb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/slaola/internal/database"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Tables lists every application table, in an order suitable for TRUNCATE.
const Tables = "limit_events, issues, policy_products, policies, clients"

// Open returns a pool connected to DATABASE_URL, or to a throwaway
// postgres:16-alpine container when the variable is unset. The schema is
// migrated before returning. The test is skipped when no database can be
// reached.
func Open(t testing.TB) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		var err error
		dsn, err = startPostgres(t)
		if err != nil {
			t.Skipf("no DATABASE_URL and postgres container unavailable: %v", err)
		}
	}

	db, err := database.New(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}
	t.Cleanup(db.Close)

	if err := database.RunMigrations(ctx, db.Pool()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db.Pool()
}

// Truncate removes all rows from the application tables.
func Truncate(t testing.TB, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(context.Background(), "TRUNCATE "+Tables+" CASCADE"); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

func startPostgres(t testing.TB) (string, error) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "slaola",
			"POSTGRES_PASSWORD": "slaola",
			"POSTGRES_DB":       "slaola",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		).WithDeadline(2 * time.Minute),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start postgres container: %w", err)
	}
	t.Cleanup(func() {
		_ = c.Terminate(context.Background())
	})

	host, err := c.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("get container host: %w", err)
	}
	mapped, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return "", fmt.Errorf("get mapped port: %w", err)
	}

	return fmt.Sprintf("postgres://slaola:slaola@%s:%s/slaola?sslmode=disable", host, mapped.Port()), nil
}
