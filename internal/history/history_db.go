// Package history stores run reports in SQLite.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/studiowebux/restspec/internal/migrations"
	"github.com/studiowebux/restspec/internal/runner"
)

// timestamps are stored in UTC
const timestampLayout = "2006-01-02 15:04:05.000"

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// RunSummary is one row of the run list
type RunSummary struct {
	ID         int64     `json:"id"`
	Document   string    `json:"document"`
	Endpoint   string    `json:"endpoint"`
	Mode       string    `json:"mode"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
	Passed     int       `json:"passed"`
	Failed     int       `json:"failed"`
	SetupError string    `json:"setup_error,omitempty"`
}

type Manager struct {
	db *sql.DB
}

func NewManager(dbPath string) (*Manager, error) {
	if dbPath != MemoryPath {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if dbPath == MemoryPath {
		// every pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Manager{db: db}, nil
}

// SaveReport stores the run and its scenario results and sets report.ID
func (m *Manager) SaveReport(report *runner.Report) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO contract_runs (
			document, source, endpoint, mode, concurrency,
			started_at, finished_at, passed, failed, setup_error, teardown_error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.Document,
		report.Source,
		report.Endpoint,
		report.Mode,
		report.Concurrency,
		report.StartedAt.UTC().Format(timestampLayout),
		report.FinishedAt.UTC().Format(timestampLayout),
		report.Passed(),
		report.Failed(),
		nullable(report.SetupError),
		nullable(report.TeardownError),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get run id: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO scenario_results (
			run_id, position, scenario_id, name, method, path, state, message,
			repetitions, failures, duration_ms, min_ms, max_ms, avg_ms, p50_ms, p95_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare scenario insert: %w", err)
	}
	defer stmt.Close()

	for i, s := range report.Scenarios {
		_, err := stmt.Exec(
			runID, i, s.ID, s.Name, s.Method, s.Path, string(s.State), nullable(s.Message),
			s.Repetitions, s.Failures, s.DurationMs,
			s.Timings.MinMs, s.Timings.MaxMs, s.Timings.AvgMs, s.Timings.P50Ms, s.Timings.P95Ms,
		)
		if err != nil {
			return fmt.Errorf("failed to save scenario %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	report.ID = runID
	return nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
func (m *Manager) ListRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := m.db.Query(`
		SELECT id, document, endpoint, mode, started_at, finished_at,
		       passed, failed, COALESCE(setup_error, '')
		FROM contract_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			r                 RunSummary
			started, finished string
		)
		if err := rows.Scan(&r.ID, &r.Document, &r.Endpoint, &r.Mode, &started, &finished,
			&r.Passed, &r.Failed, &r.SetupError); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = parseTimestamp(started)
		r.DurationMs = parseTimestamp(finished).Sub(r.StartedAt).Milliseconds()
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// GetRun rebuilds a stored report. The error wraps sql.ErrNoRows when id is unknown.
func (m *Manager) GetRun(id int64) (*runner.Report, error) {
	report := &runner.Report{ID: id}
	var (
		started, finished     string
		setupErr, teardownErr sql.NullString
	)

	err := m.db.QueryRow(`
		SELECT document, source, endpoint, mode, concurrency, started_at, finished_at,
		       setup_error, teardown_error
		FROM contract_runs WHERE id = ?
	`, id).Scan(&report.Document, &report.Source, &report.Endpoint, &report.Mode,
		&report.Concurrency, &started, &finished, &setupErr, &teardownErr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run %d not found: %w", id, err)
		}
		return nil, fmt.Errorf("failed to load run %d: %w", id, err)
	}
	report.StartedAt = parseTimestamp(started)
	report.FinishedAt = parseTimestamp(finished)
	report.SetupError = setupErr.String
	report.TeardownError = teardownErr.String

	rows, err := m.db.Query(`
		SELECT scenario_id, name, method, path, state, message, repetitions, failures,
		       duration_ms, min_ms, max_ms, avg_ms, p50_ms, p95_ms
		FROM scenario_results
		WHERE run_id = ?
		ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenarios of run %d: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			s       runner.ScenarioResult
			state   string
			message sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Method, &s.Path, &state, &message,
			&s.Repetitions, &s.Failures, &s.DurationMs,
			&s.Timings.MinMs, &s.Timings.MaxMs, &s.Timings.AvgMs, &s.Timings.P50Ms, &s.Timings.P95Ms); err != nil {
			return nil, fmt.Errorf("failed to scan scenario: %w", err)
		}
		s.State = runner.State(state)
		s.Message = message.String
		s.Timings.Count = s.Repetitions
		report.Scenarios = append(report.Scenarios, &s)
	}

	return report, rows.Err()
}

// Delete removes a run and its scenario results
func (m *Manager) Delete(id int64) error {
	if _, err := m.db.Exec("DELETE FROM scenario_results WHERE run_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete scenario results: %w", err)
	}
	if _, err := m.db.Exec("DELETE FROM contract_runs WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

func (m *Manager) GetCount() (int, error) {
	var count int
	err := m.db.QueryRow("SELECT COUNT(*) FROM contract_runs").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get run count: %w", err)
	}
	return count, nil
}

func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func parseTimestamp(s string) time.Time {
	// go-sqlite3 converts DATETIME columns to time.Time, which Scan formats as RFC3339
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t, err = time.Parse(timestampLayout, s); err != nil {
			return time.Time{}
		}
	}
	return t.Local()
}
