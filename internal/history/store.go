// Package history keeps a local record of submitted jobs so recent work
// can be listed across sessions. Only job metadata is stored; edited
// transcript text never leaves the in-memory working copy except through
// an explicit export or save.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one tracked job.
type Entry struct {
	TaskID           string
	OriginalFilename string
	Status           string
	Language         string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Store struct {
	db *sql.DB
}

func NewStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS jobs (
		task_id TEXT PRIMARY KEY,
		original_filename TEXT NOT NULL,
		status TEXT NOT NULL,
		language TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);`); err != nil {
		return fmt.Errorf("create jobs table: %w", err)
	}
	return nil
}

// Record inserts or replaces the entry for its task id.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	if entry.TaskID == "" {
		return fmt.Errorf("task id is required")
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `INSERT INTO jobs
		(task_id, original_filename, status, language, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(task_id) DO UPDATE SET
			original_filename = excluded.original_filename,
			status = excluded.status,
			language = excluded.language,
			updated_at = excluded.updated_at`,
		entry.TaskID, entry.OriginalFilename, entry.Status, entry.Language,
		entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("record job %s: %w", entry.TaskID, err)
	}
	return nil
}

// UpdateStatus updates the status of an existing entry.
func (s *Store) UpdateStatus(ctx context.Context, taskID, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, updated_at = ? WHERE task_id = ?`,
		status, time.Now().UTC(), taskID)
	if err != nil {
		return fmt.Errorf("update job %s: %w", taskID, err)
	}
	return nil
}

// Recent returns the most recently updated entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT
		task_id, original_filename, status, language, created_at, updated_at
		FROM jobs ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.TaskID, &e.OriginalFilename, &e.Status,
			&e.Language, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan job row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PurgeOlderThan deletes entries whose last update is older than age.
func (s *Store) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-age)
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge jobs: %w", err)
	}
	return res.RowsAffected()
}
