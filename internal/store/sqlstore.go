package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"x2ansible/internal/checklist"
)

// nowUTC returns the current UTC time as an ISO 8601 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

// nullStr converts a sql.NullString to a plain string (empty if null).
func nullStr(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// SqlStore implements Store with SQLite.
type SqlStore struct {
	db *sql.DB
}

// Open opens or creates the history DB at path and runs migrations.
// Creates the parent directory (e.g. .x2ansible) if it does not exist.
func Open(path string) (*SqlStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SqlStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if count == 0 {
		if _, err := s.db.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("stamp schema version: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *SqlStore) Close() error { return s.db.Close() }

// SaveRun persists the run and its items in one transaction.
func (s *SqlStore) SaveRun(run *Run, items []checklist.Item) (int64, error) {
	if run.StartedAt == "" {
		run.StartedAt = nowUTC()
	}
	if run.FinishedAt == "" {
		run.FinishedAt = nowUTC()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`INSERT INTO runs
		(module_name, technology, started_at, finished_at, failure_reason,
		 total, completed, pending, missing, errors, write_attempts, validation_attempts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ModuleName, run.Technology, run.StartedAt, run.FinishedAt, run.FailureReason,
		run.Summary.Total, run.Summary.Completed, run.Summary.Pending,
		run.Summary.Missing, run.Summary.Errors,
		run.Summary.WriteAttempts, run.Summary.ValidationAttempts)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO run_items
		(run_id, position, source_path, target_path, category, status, note, write_attempts, validation_attempts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare items: %w", err)
	}
	defer stmt.Close()

	for i := range items {
		it := &items[i]
		if _, err := stmt.Exec(runID, i, it.SourcePath, it.TargetPath,
			string(it.Category), string(it.Status), it.Note,
			it.WriteAttempts, it.ValidationAttempts); err != nil {
			return 0, fmt.Errorf("insert item %s: %w", it.SourcePath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	run.ID = runID
	return runID, nil
}

// GetRun loads one run and its items in discovery order.
func (s *SqlStore) GetRun(id int64) (*Run, []checklist.Item, error) {
	row := s.db.QueryRow(`SELECT id, module_name, technology, started_at, finished_at, failure_reason,
		total, completed, pending, missing, errors, write_attempts, validation_attempts
		FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.runItems(run.ID)
	if err != nil {
		return nil, nil, err
	}
	return run, items, nil
}

// LastRun loads the most recent run for a module.
func (s *SqlStore) LastRun(moduleName string) (*Run, []checklist.Item, error) {
	row := s.db.QueryRow(`SELECT id, module_name, technology, started_at, finished_at, failure_reason,
		total, completed, pending, missing, errors, write_attempts, validation_attempts
		FROM runs WHERE module_name = ? ORDER BY id DESC LIMIT 1`, moduleName)
	run, err := scanRun(row)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.runItems(run.ID)
	if err != nil {
		return nil, nil, err
	}
	return run, items, nil
}

// ListRuns returns all runs, newest first, without items.
func (s *SqlStore) ListRuns() ([]*Run, error) {
	rows, err := s.db.Query(`SELECT id, module_name, technology, started_at, finished_at, failure_reason,
		total, completed, pending, missing, errors, write_attempts, validation_attempts
		FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *SqlStore) runItems(runID int64) ([]checklist.Item, error) {
	rows, err := s.db.Query(`SELECT source_path, target_path, category, status, note, write_attempts, validation_attempts
		FROM run_items WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []checklist.Item
	for rows.Next() {
		var it checklist.Item
		var cat, status string
		var note sql.NullString
		if err := rows.Scan(&it.SourcePath, &it.TargetPath, &cat, &status, &note,
			&it.WriteAttempts, &it.ValidationAttempts); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		it.Category = checklist.Category(cat)
		it.Status = checklist.Status(status)
		it.Note = nullStr(note)
		items = append(items, it)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var reason sql.NullString
	err := row.Scan(&run.ID, &run.ModuleName, &run.Technology, &run.StartedAt, &run.FinishedAt, &reason,
		&run.Summary.Total, &run.Summary.Completed, &run.Summary.Pending,
		&run.Summary.Missing, &run.Summary.Errors,
		&run.Summary.WriteAttempts, &run.Summary.ValidationAttempts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.FailureReason = nullStr(reason)
	return &run, nil
}
