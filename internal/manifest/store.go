package manifest

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"cadence/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes; an old ledger must be
// deleted rather than migrated.
const schemaVersion = 1

// ErrSchemaMismatch indicates the ledger was created by a different version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// ErrNotFound indicates no run matched the query.
var ErrNotFound = errors.New("run not found")

// Store is the SQLite-backed run ledger.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database under the output
// directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.OutputDir, "manifest.db"))
}

// OpenPath opens the ledger at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
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
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the ledger file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: ledger has version %d, expected %d (delete %s to recreate)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// StartRun inserts a new running record and returns it with a fresh run id.
func (s *Store) StartRun(ctx context.Context, episodeID, title string) (*Record, error) {
	now := time.Now().UTC()
	record := &Record{
		RunID:     uuid.NewString(),
		EpisodeID: episodeID,
		Title:     title,
		Status:    StatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO runs (run_id, episode_id, title, status, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		record.RunID, record.EpisodeID, record.Title, string(record.Status),
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return record, nil
}

// CompleteRun marks a run completed with its final summary fields.
func (s *Store) CompleteRun(ctx context.Context, record *Record) error {
	record.Status = StatusCompleted
	record.UpdatedAt = time.Now().UTC()

	failed, err := json.Marshal(failedOrEmpty(record.FailedChunks))
	if err != nil {
		return fmt.Errorf("encode failed chunks: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
        UPDATE runs SET status = ?, audio_path = ?, chunk_count = ?, failed_chunks = ?,
            cache_hits = ?, duration_seconds = ?, render_seconds = ?, updated_at = ?
        WHERE run_id = ?`,
		string(record.Status), record.AudioPath, record.ChunkCount, string(failed),
		record.CacheHits, record.DurationSeconds, record.RenderSeconds,
		record.UpdatedAt.Format(time.RFC3339Nano), record.RunID)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return ensureUpdated(result, record.RunID)
}

// FailRun marks a run failed with the fatal error message.
func (s *Store) FailRun(ctx context.Context, runID, message string) error {
	result, err := s.db.ExecContext(ctx, `
        UPDATE runs SET status = ?, error_message = ?, updated_at = ? WHERE run_id = ?`,
		string(StatusFailed), message, time.Now().UTC().Format(time.RFC3339Nano), runID)
	if err != nil {
		return fmt.Errorf("fail run: %w", err)
	}
	return ensureUpdated(result, runID)
}

// LatestRun returns the most recent run for an episode.
func (s *Store) LatestRun(ctx context.Context, episodeID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+`
        WHERE episode_id = ? ORDER BY id DESC LIMIT 1`, episodeID)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: episode %s", ErrNotFound, episodeID)
	}
	return record, err
}

// ListRecent returns the newest runs across all episodes, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+`
        ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

const selectColumns = `
        SELECT run_id, episode_id, title, status, audio_path, chunk_count,
            failed_chunks, cache_hits, duration_seconds, render_seconds,
            error_message, created_at, updated_at
        FROM runs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		record     Record
		status     string
		failedJSON string
		createdAt  string
		updatedAt  string
	)
	err := row.Scan(&record.RunID, &record.EpisodeID, &record.Title, &status,
		&record.AudioPath, &record.ChunkCount, &failedJSON, &record.CacheHits,
		&record.DurationSeconds, &record.RenderSeconds, &record.ErrorMessage,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	record.Status = Status(status)
	if err := json.Unmarshal([]byte(failedJSON), &record.FailedChunks); err != nil {
		return nil, fmt.Errorf("decode failed chunks: %w", err)
	}
	if record.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if record.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &record, nil
}

func ensureUpdated(result sql.Result, runID string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: run %s", ErrNotFound, runID)
	}
	return nil
}

func failedOrEmpty(failed []int) []int {
	if failed == nil {
		return []int{}
	}
	return failed
}
