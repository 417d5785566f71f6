package cmd

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stormlightlabs.org/gamedb/internal/echo"
)

// DbCmd creates the db command group
func DbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database operations",
		Long:  "Database migration and management operations.",
	}
	cmd.AddCommand(DbMigrateCmd())
	cmd.AddCommand(DbSeedCmd())
	cmd.AddCommand(DbRecreateCmd())
	return cmd
}

// DbMigrateCmd creates the migrate command
func DbMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  "Create and update the taxa, data, and info schemas.",
		RunE:  migrate,
	}
}

// DbSeedCmd creates the seed command
func DbSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the taxa enumerations",
		Long:  "Populate the taxa schema from the built-in enumerations. Idempotent.",
		RunE:  seedTaxa,
	}
}

// DbRecreateCmd creates the recreate command
func DbRecreateCmd() *cobra.Command {
	var dbURL string
	cmd := &cobra.Command{
		Use:   "recreate",
		Short: "Drop and recreate the configured PostgreSQL database",
		Long:  "Drops the database referenced by --url (or DATABASE_URL) and creates it again. Useful before re-running migrations from scratch.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return recreateDatabase(cmd, dbURL)
		},
	}
	cmd.Flags().StringVar(&dbURL, "url", "", "Database URL to recreate (defaults to DATABASE_URL or local dev)")
	return cmd
}

func migrate(cmd *cobra.Command, args []string) error {
	echo.Header("Database Migration")
	echo.Info("Connecting to database...")

	cfg, err := loadConfigForCmd(cmd)
	if err != nil {
		return fmt.Errorf("error: failed to load config: %w", err)
	}

	database, err := connectStore(cfg)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}
	defer database.Close()

	echo.Success("✓ Connected to database")
	echo.Info("Running migrations...")

	ctx := cmd.Context()
	if err := database.Migrate(ctx); err != nil {
		return fmt.Errorf("error: %w", err)
	}

	echo.Success("✓ All migrations applied successfully")
	return nil
}

func seedTaxa(cmd *cobra.Command, args []string) error {
	echo.Header("Seeding Taxa")
	echo.Info("Connecting to database...")

	cfg, err := loadConfigForCmd(cmd)
	if err != nil {
		return fmt.Errorf("error: failed to load config: %w", err)
	}

	database, err := connectStore(cfg)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}
	defer database.Close()

	echo.Success("✓ Connected to database")
	echo.Info("Seeding enumerations...")

	if err := database.Seed(cmd.Context()); err != nil {
		return fmt.Errorf("error: %w", err)
	}

	echo.Success("✓ Taxa seeded")
	return nil
}

func recreateDatabase(cmd *cobra.Command, dbURL string) error {
	echo.Header("Recreating Database")

	targetURL, err := resolveDatabaseURL(cmd, dbURL)
	if err != nil {
		return err
	}
	parsed, err := url.Parse(targetURL)
	if err != nil {
		return fmt.Errorf("error: invalid database URL: %w", err)
	}

	dbName := strings.TrimPrefix(parsed.Path, "/")
	if dbName == "" {
		return fmt.Errorf("error: database URL must include a database name: %s", targetURL)
	}

	echo.Error(fmt.Sprintf("⚠ WARNING: This will drop and recreate database %s (all data will be lost).", dbName))
	ctx := cmd.Context()

	for i := 5; i > 0; i-- {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			echo.Infof("  Continuing in %d seconds... (Ctrl-C to cancel)", i)
			time.Sleep(time.Second)
		}
	}

	adminURL := *parsed
	adminURL.Path = "/postgres"
	adminURL.RawPath = "/postgres"

	conn, err := sql.Open("pgx", adminURL.String())
	if err != nil {
		return fmt.Errorf("error: failed to connect to server: %w", err)
	}
	defer conn.Close()

	if err := conn.PingContext(ctx); err != nil {
		return fmt.Errorf("error: failed to ping server: %w", err)
	}

	echo.Info("Terminating active connections...")
	if _, err := conn.ExecContext(ctx, `SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = $1 AND pid <> pg_backend_pid()`, dbName); err != nil {
		return fmt.Errorf("error: failed to terminate sessions: %w", err)
	}

	echo.Info("Dropping database...")
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s", quoteIdentifier(dbName))); err != nil {
		return fmt.Errorf("error: failed to drop database: %w", err)
	}

	echo.Info("Creating database...")
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s", quoteIdentifier(dbName))); err != nil {
		return fmt.Errorf("error: failed to create database: %w", err)
	}

	echo.Successf("✓ Recreated database %s", dbName)
	return nil
}
