package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Migration is one versioned schema change.
type Migration struct {
	Version    int
	Name       string
	Statements []string
}

// migrations is the list of all migrations in order.
var migrations = []Migration{
	{
		Version:    1,
		Name:       "create_schedule_tables",
		Statements: []string{createSchedules, createSchedulesActiveIndex, createScheduleHistory},
	},
	{
		Version:    2,
		Name:       "create_learning_plan_tables",
		Statements: []string{createInductions, createActionPlans, createGoals},
	},
	{
		Version:    3,
		Name:       "add_person_lookup_indexes",
		Statements: []string{createSchedulesPersonIndex, createGoalsPersonIndex},
	},
}

const createSchemaVersion = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	applied_at TEXT NOT NULL
)`

// LatestVersion is the schema version after every migration has run.
func LatestVersion() int {
	return migrations[len(migrations)-1].Version
}

// CurrentVersion returns the highest applied migration, or 0 on a fresh database.
func CurrentVersion(ctx context.Context, conn *sql.DB) (int, error) {
	if _, err := conn.ExecContext(ctx, createSchemaVersion); err != nil {
		return 0, fmt.Errorf("failed to create schema_version table: %w", err)
	}
	var v int
	if err := conn.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to get current schema version: %w", err)
	}
	return v, nil
}

// Migrate runs every pending migration, each in its own transaction, and
// returns the number applied.
func Migrate(ctx context.Context, conn *sql.DB, dialect Dialect, logger *slog.Logger) (int, error) {
	current, err := CurrentVersion(ctx, conn)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		logger.Info("running migration", "version", m.Version, "name", m.Name)
		if err := apply(ctx, conn, dialect, m); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

func apply(ctx context.Context, conn *sql.DB, dialect Dialect, m Migration) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for migration %d: %w", m.Version, err)
	}
	defer tx.Rollback()

	for _, stmt := range m.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", m.Version, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		dialect.Rebind("INSERT INTO schema_version (version, name, applied_at) VALUES (?, ?, ?)"),
		m.Version, m.Name, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
	}
	return nil
}
