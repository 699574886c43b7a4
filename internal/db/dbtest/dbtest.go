// Package dbtest prepares a migrated Postgres database for integration tests.
package dbtest

import (
	"context"
	"os"
	"testing"

	"bizadmin/internal/migrate"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool connects to TEST_DB_DSN, applies the migrations and empties every
// table. The test is skipped when TEST_DB_DSN is unset.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	Reset(t, pool)
	return pool
}

// Reset truncates every application table.
func Reset(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	const q = `
TRUNCATE calculation_items, calculations,
         onboarding_software_apps, onboarding_software_requirements, onboarding_software,
         onboarding_hardware, onboarding_network, onboarding_mail, onboarding_backup, onboardings,
         contacts, customers, users
RESTART IDENTITY CASCADE`
	if _, err := pool.Exec(context.Background(), q); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
