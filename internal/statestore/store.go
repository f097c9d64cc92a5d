package statestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

// ErrLocked is returned when another daybook process holds the state dir.
var ErrLocked = errors.New("state directory is locked by another process")

// lastSelectionKey is the fixed preference name for the persisted target
// selection blob.
const lastSelectionKey = "last_target_selection"

// Store manages local client state backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open initializes or connects to the state database under stateDir.
func Open(stateDir string) (*Store, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	lock := flock.New(filepath.Join(stateDir, "state.lock"))
	held, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire state lock: %w", err)
	}
	if !held {
		return nil, ErrLocked
	}

	dbPath := filepath.Join(stateDir, "state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, lock: lock}
	if err := store.applySchema(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return store, nil
}

// Close releases the database and the directory lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var firstErr error
	if s.db != nil {
		firstErr = s.db.Close()
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Store) applySchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS preferences (
            name TEXT PRIMARY KEY,
            value TEXT NOT NULL,
            updated_at TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS run_log (
            job_id INTEGER PRIMARY KEY,
            date TEXT NOT NULL,
            created_at TEXT NOT NULL,
            last_done INTEGER NOT NULL DEFAULT 0,
            last_total INTEGER NOT NULL DEFAULT 0,
            updated_at TEXT NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_run_log_date ON run_log(date)`,
	}
	for _, statement := range statements {
		if _, err := s.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// SaveLastSelection records the target ids chosen for the most recent
// publish, used as the default pre-selection next time.
func (s *Store) SaveLastSelection(ctx context.Context, targetIDs []int64) error {
	encoded, err := json.Marshal(targetIDs)
	if err != nil {
		return fmt.Errorf("encode selection: %w", err)
	}
	return s.setPreference(ctx, lastSelectionKey, string(encoded))
}

// LastSelection returns the persisted target selection, or nil when none was
// recorded yet.
func (s *Store) LastSelection(ctx context.Context) ([]int64, error) {
	value, err := s.getPreference(ctx, lastSelectionKey)
	if err != nil {
		return nil, err
	}
	if value == "" {
		return nil, nil
	}
	var ids []int64
	if err := json.Unmarshal([]byte(value), &ids); err != nil {
		return nil, fmt.Errorf("decode selection: %w", err)
	}
	return ids, nil
}

func (s *Store) setPreference(ctx context.Context, name, value string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO preferences (name, value, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		name, value, now,
	)
	if err != nil {
		return fmt.Errorf("set preference %q: %w", name, err)
	}
	return nil
}

func (s *Store) getPreference(ctx context.Context, name string) (string, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE name = ?`, name)
	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get preference %q: %w", name, err)
	}
	return value, nil
}

// RunRecord is one journal row for a publish run.
type RunRecord struct {
	JobID     int64
	Date      string
	CreatedAt time.Time
	LastDone  int
	LastTotal int
	UpdatedAt time.Time
}

// RecordRun upserts the journal row for a job, keeping the latest progress
// counters.
func (s *Store) RecordRun(ctx context.Context, record RunRecord) error {
	now := time.Now().UTC()
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO run_log (job_id, date, created_at, last_done, last_total, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(job_id) DO UPDATE SET
             last_done = excluded.last_done,
             last_total = excluded.last_total,
             updated_at = excluded.updated_at`,
		record.JobID,
		record.Date,
		createdAt.Format(time.RFC3339Nano),
		record.LastDone,
		record.LastTotal,
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record run %d: %w", record.JobID, err)
	}
	return nil
}

// RecentRuns returns journal rows newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT job_id, date, created_at, last_done, last_total, updated_at
         FROM run_log ORDER BY job_id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var (
			record     RunRecord
			createdRaw string
			updatedRaw string
		)
		if err := rows.Scan(&record.JobID, &record.Date, &createdRaw, &record.LastDone, &record.LastTotal, &updatedRaw); err != nil {
			return nil, err
		}
		if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
			record.CreatedAt = created
		}
		if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
			record.UpdatedAt = updated
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
