package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the history database.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// one connection: in-memory databases are per connection
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		started INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		documents INTEGER NOT NULL,
		drafts INTEGER NOT NULL,
		tags INTEGER NOT NULL,
		artifacts INTEGER NOT NULL,
		manifest_digest TEXT NOT NULL,
		error TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started);
	CREATE TABLE IF NOT EXISTS stages (
		build_id TEXT NOT NULL REFERENCES builds(id),
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		result TEXT NOT NULL,
		PRIMARY KEY (build_id, position)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts the build and its stages in one transaction.
func (s *SQLiteStore) Record(ctx context.Context, b *Build) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO builds (id, started, duration_ms, outcome, documents, drafts, tags, artifacts, manifest_digest, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Started.UTC().UnixNano(), b.Duration.Milliseconds(), b.Outcome,
		b.Documents, b.Drafts, b.Tags, b.Artifacts, b.ManifestDigest, b.Error,
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	for i, st := range b.Stages {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO stages (build_id, position, name, duration_ms, result) VALUES (?, ?, ?, ?, ?)",
			b.ID, i, st.Name, st.Duration.Milliseconds(), st.Result,
		)
		if err != nil {
			return fmt.Errorf("insert stage %s: %w", st.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit build: %w", err)
	}
	return nil
}

// Recent returns up to limit builds, newest first. limit <= 0 returns all.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Build, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started, duration_ms, outcome, documents, drafts, tags, artifacts, manifest_digest, error
		 FROM builds ORDER BY started DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	builds, err := scanBuilds(rows)
	if err != nil {
		return nil, err
	}
	for i := range builds {
		stages, err := s.stages(ctx, builds[i].ID)
		if err != nil {
			return nil, err
		}
		builds[i].Stages = stages
	}
	return builds, nil
}

// Last returns the newest build.
func (s *SQLiteStore) Last(ctx context.Context) (*Build, error) {
	builds, err := s.Recent(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(builds) == 0 {
		return nil, ErrNoBuilds
	}
	return &builds[0], nil
}

func scanBuilds(rows *sql.Rows) ([]Build, error) {
	defer rows.Close()
	var builds []Build
	for rows.Next() {
		var b Build
		var started, durationMS int64
		if err := rows.Scan(&b.ID, &started, &durationMS, &b.Outcome, &b.Documents, &b.Drafts,
			&b.Tags, &b.Artifacts, &b.ManifestDigest, &b.Error); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		b.Started = time.Unix(0, started).UTC()
		b.Duration = time.Duration(durationMS) * time.Millisecond
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return builds, nil
}

func (s *SQLiteStore) stages(ctx context.Context, buildID string) ([]Stage, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, duration_ms, result FROM stages WHERE build_id = ? ORDER BY position", buildID)
	if err != nil {
		return nil, fmt.Errorf("query stages: %w", err)
	}
	defer rows.Close()

	var stages []Stage
	for rows.Next() {
		var st Stage
		var durationMS int64
		if err := rows.Scan(&st.Name, &durationMS, &st.Result); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		st.Duration = time.Duration(durationMS) * time.Millisecond
		stages = append(stages, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return stages, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
