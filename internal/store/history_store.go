// Package store persists entrypoint contract check runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"opsdeck/internal/contract"
	"opsdeck/internal/logging"

	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("check run not found")

// HistoryStore records contract check reports.
// Thread-safe with read-write mutex.
type HistoryStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// RunSummary is one row of the run listing.
type RunSummary struct {
	ID        string
	Root      string
	Passed    bool
	Total     int
	Failed    int
	CheckedAt time.Time
	Duration  time.Duration
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*HistoryStore, error) {
	logging.StoreDebug("Opening history store at path: %s", path)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// single writer keeps SQLite from returning SQLITE_BUSY under concurrent use
	db.SetMaxOpenConns(1)

	s := &HistoryStore{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		logging.Get(logging.CategoryStore).Error("Failed to ensure history schema: %v", err)
		return nil, fmt.Errorf("failed to ensure history schema: %w", err)
	}

	logging.Store("History store ready: %s", path)
	return s, nil
}

// Close releases the database.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

func (s *HistoryStore) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS check_runs (
		id TEXT PRIMARY KEY,
		root TEXT NOT NULL,
		passed BOOLEAN NOT NULL,
		total INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		contract TEXT NOT NULL,
		checked_at INTEGER NOT NULL,
		duration_ns INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS check_assertions (
		run_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		target TEXT NOT NULL,
		passed BOOLEAN NOT NULL,
		message TEXT,
		PRIMARY KEY (run_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_checked ON check_runs(checked_at);
	CREATE INDEX IF NOT EXISTS idx_runs_root ON check_runs(root);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record persists a report and its assertions.
func (s *HistoryStore) Record(ctx context.Context, r *contract.Report) error {
	timer := logging.StartTimer(logging.CategoryStore, "Record")
	defer timer.Stop()

	contractJSON, err := json.Marshal(r.Contract)
	if err != nil {
		return fmt.Errorf("failed to encode contract: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO check_runs
		(id, root, passed, total, failed, contract, checked_at, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Root, r.Passed(), len(r.Assertions), len(r.Failed()),
		string(contractJSON), r.CheckedAt.UnixNano(), int64(r.Duration),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM check_assertions WHERE run_id = ?`, r.ID); err != nil {
		return fmt.Errorf("failed to clear assertions: %w", err)
	}
	for i, a := range r.Assertions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO check_assertions (run_id, position, name, kind, target, passed, message)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.ID, i, a.Name, string(a.Kind), a.Target, a.Passed, a.Message,
		)
		if err != nil {
			return fmt.Errorf("failed to insert assertion %s: %w", a.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	logging.StoreDebug("Recorded run id=%s passed=%v", r.ID, r.Passed())
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *HistoryStore) Recent(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, root, passed, total, failed, checked_at, duration_ns
		FROM check_runs ORDER BY checked_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			rs         RunSummary
			checkedAt  int64
			durationNs int64
		)
		if err := rows.Scan(&rs.ID, &rs.Root, &rs.Passed, &rs.Total, &rs.Failed, &checkedAt, &durationNs); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rs.CheckedAt = time.Unix(0, checkedAt)
		rs.Duration = time.Duration(durationNs)
		out = append(out, rs)
	}
	return out, rows.Err()
}

// Get reloads a full report by id. Assertion errors come back as messages only.
func (s *HistoryStore) Get(ctx context.Context, id string) (*contract.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		r            contract.Report
		contractJSON string
		checkedAt    int64
		durationNs   int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, root, contract, checked_at, duration_ns FROM check_runs WHERE id = ?`, id,
	).Scan(&r.ID, &r.Root, &contractJSON, &checkedAt, &durationNs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	if err := json.Unmarshal([]byte(contractJSON), &r.Contract); err != nil {
		return nil, fmt.Errorf("failed to decode contract: %w", err)
	}
	r.CheckedAt = time.Unix(0, checkedAt)
	r.Duration = time.Duration(durationNs)

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, kind, target, passed, message
		FROM check_assertions WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query assertions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a       contract.Assertion
			kind    string
			message sql.NullString
		)
		if err := rows.Scan(&a.Name, &kind, &a.Target, &a.Passed, &message); err != nil {
			return nil, fmt.Errorf("failed to scan assertion: %w", err)
		}
		a.Kind = contract.Kind(kind)
		a.Message = message.String
		r.Assertions = append(r.Assertions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Count returns the number of recorded runs.
func (s *HistoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM check_runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return n, nil
}

// Prune deletes runs checked before cutoff and returns how many were removed.
func (s *HistoryStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.deleteRuns(ctx, `WHERE checked_at < ?`, cutoff.UnixNano())
}

// Purge deletes every recorded run.
func (s *HistoryStore) Purge(ctx context.Context) (int64, error) {
	return s.deleteRuns(ctx, "")
}

func (s *HistoryStore) deleteRuns(ctx context.Context, where string, args ...any) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM check_assertions WHERE run_id IN (SELECT id FROM check_runs `+where+`)`, args...); err != nil {
		return 0, fmt.Errorf("failed to delete assertions: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM check_runs `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit delete: %w", err)
	}
	logging.Store("Deleted %d check runs", n)
	return n, nil
}
