// Package store applies fold output to Postgres transactionally and
// idempotently, and owns the schema the ingest pipeline and status
// surface read from.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// DB wraps a Postgres connection pool with migration and per-game write
// support.
type DB struct {
	*sql.DB
	connStr string
}

// Connect opens a connection pool against connStr (or DATABASE_URL-style
// defaults when empty, resolved by the caller).
func Connect(connStr string) (*DB, error) {
	sqlDB, err := sql.Open("pgx", withStatementTimeout(connStr))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{DB: sqlDB, connStr: connStr}, nil
}

// withStatementTimeout caps every statement at 30 minutes, long enough
// for a materialized-view refresh but short enough that a wedged
// transaction cannot hold a pool connection forever.
func withStatementTimeout(connStr string) string {
	if strings.Contains(connStr, "statement_timeout") {
		return connStr
	}
	if strings.Contains(connStr, "://") {
		sep := "?"
		if strings.Contains(connStr, "?") {
			sep = "&"
		}
		return connStr + sep + "statement_timeout=1800000"
	}
	return strings.TrimSpace(connStr + " statement_timeout=1800000")
}

// ConfigurePool sizes the connection pool. It must exceed
// ingestParallelism so the status surface always has a spare connection.
func (db *DB) ConfigurePool(ingestParallelism int) {
	db.SetMaxOpenConns(ingestParallelism + 4)
	db.SetMaxIdleConns(ingestParallelism)
	db.SetConnMaxLifetime(30 * time.Minute)
}

// Migrate ensures the schema_migrations tracking table exists and applies
// every embedded migration not yet recorded, each in its own transaction.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS public.schema_migrations (
			name TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	names, err := sortedMigrationNames()
	if err != nil {
		return err
	}

	for _, name := range names {
		applied, err := db.isApplied(ctx, name)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		contents, err := fs.ReadFile(migrationFS, "migrations/"+name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if err := db.applyMigration(ctx, name, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}

	return nil
}

func sortedMigrationNames() ([]string, error) {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (db *DB) isApplied(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM public.schema_migrations WHERE name = $1)`, name,
	).Scan(&exists)
	return exists, err
}

func (db *DB) applyMigration(ctx context.Context, name, sqlText string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, sqlText); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO public.schema_migrations (name) VALUES ($1)`, name,
	); err != nil {
		return err
	}

	return tx.Commit()
}
