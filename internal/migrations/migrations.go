// Package migrations owns the history database schema.
package migrations

import (
	"database/sql"
	"fmt"

	"github.com/studiowebux/restspec/internal/logger"
)

// Migration represents a single database migration
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{
		Version: 1,
		Name:    "Add lookup indices for runs and scenario results",
		Up: `
			CREATE INDEX IF NOT EXISTS idx_contract_runs_document ON contract_runs(document);
			CREATE INDEX IF NOT EXISTS idx_scenario_results_state ON scenario_results(state);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_contract_runs_document;
			DROP INDEX IF EXISTS idx_scenario_results_state;
		`,
	},
	{
		Version: 2,
		Name:    "Add timing percentiles to scenario_results",
		Up: `
			ALTER TABLE scenario_results ADD COLUMN p50_ms INTEGER NOT NULL DEFAULT 0;
			ALTER TABLE scenario_results ADD COLUMN p95_ms INTEGER NOT NULL DEFAULT 0;
		`,
		Down: `
			ALTER TABLE scenario_results DROP COLUMN p95_ms;
			ALTER TABLE scenario_results DROP COLUMN p50_ms;
		`,
	},
}

// InitSchema creates the base tables. Columns added later live in AllMigrations.
func InitSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS contract_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		document TEXT NOT NULL,
		source TEXT NOT NULL,
		endpoint TEXT NOT NULL,
		mode TEXT NOT NULL,
		concurrency INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		passed INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		setup_error TEXT,
		teardown_error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_contract_runs_started_at ON contract_runs(started_at DESC);

	CREATE TABLE IF NOT EXISTS scenario_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		scenario_id TEXT NOT NULL,
		name TEXT NOT NULL,
		method TEXT NOT NULL,
		path TEXT NOT NULL,
		state TEXT NOT NULL,
		message TEXT,
		repetitions INTEGER NOT NULL,
		failures INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		min_ms INTEGER NOT NULL DEFAULT 0,
		max_ms INTEGER NOT NULL DEFAULT 0,
		avg_ms REAL NOT NULL DEFAULT 0,
		FOREIGN KEY (run_id) REFERENCES contract_runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_scenario_results_run_id ON scenario_results(run_id, position);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// Run creates the schema and applies pending migrations
func Run(db *sql.DB) error {
	if err := InitSchema(db); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := GetCurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	for _, migration := range AllMigrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", migration.Version, err)
		}
		if _, err := tx.Exec(migration.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			migration.Version,
			migration.Name,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
		logger.L().Info("migration.applied", "version", migration.Version, "name", migration.Name)
	}

	return nil
}

// Rollback reverts applied migrations, newest first, until the schema is at version
func Rollback(db *sql.DB, version int) error {
	current, err := GetCurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	for i := len(AllMigrations) - 1; i >= 0; i-- {
		migration := AllMigrations[i]
		if migration.Version <= version || migration.Version > current {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin rollback %d: %w", migration.Version, err)
		}
		if _, err := tx.Exec(migration.Down); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to revert migration %d (%s): %w", migration.Version, migration.Name, err)
		}
		if _, err := tx.Exec("DELETE FROM schema_migrations WHERE version = ?", migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to unrecord migration %d: %w", migration.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit rollback %d: %w", migration.Version, err)
		}
		logger.L().Info("migration.reverted", "version", migration.Version, "name", migration.Name)
	}

	return nil
}

// GetCurrentVersion returns the current database schema version
func GetCurrentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow(`
		SELECT COALESCE(MAX(version), 0)
		FROM schema_migrations
	`).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return 0, err
	}
	return version, nil
}
