// Package store persists scan results in a SQLite database.
//
// The durable store holds one row per known file, keyed by path, plus a
// tombstone table recording deletions. The Store owns the only write handle;
// all record handoff goes through the Batcher.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mediascan/internal/types"
)

// Store wraps the SQLite database holding scan state.
type Store struct {
	db *sql.DB
}

// Open initializes (or reuses) a SQLite database at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path cannot be empty")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	return initStore(db)
}

// OpenMemory opens an in-memory database for testing.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open in-memory database: %w", err)
	}
	// The pool must not spawn a second connection with its own empty memory
	db.SetMaxOpenConns(1)
	return initStore(db)
}

func initStore(db *sql.DB) (*Store, error) {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS files (
        path TEXT PRIMARY KEY,
        name TEXT NOT NULL,
        size INTEGER NOT NULL,
        mtime INTEGER NOT NULL,
        ctime INTEGER NOT NULL,
        extension TEXT NOT NULL,
        media_type TEXT NOT NULL,
        hash TEXT,
        is_partial_hash INTEGER NOT NULL DEFAULT 0,
        status TEXT NOT NULL DEFAULT 'new'
);
CREATE INDEX IF NOT EXISTS idx_files_mtime ON files(mtime);
CREATE INDEX IF NOT EXISTS idx_files_hash ON files(hash);
CREATE INDEX IF NOT EXISTS idx_files_status ON files(status);

CREATE TABLE IF NOT EXISTS deleted_files (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        path TEXT NOT NULL,
        name TEXT NOT NULL,
        size INTEGER NOT NULL,
        mtime INTEGER NOT NULL,
        hash TEXT,
        deleted_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_deleted_files_deleted_at ON deleted_files(deleted_at);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	return nil
}

// Snapshot loads every persisted file row into an index keyed by path. The
// index is read-only after load and safely shared by all scan workers.
func (s *Store) Snapshot(ctx context.Context) (map[string]types.FileState, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, size, mtime, hash, is_partial_hash FROM files`)
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snapshot := make(map[string]types.FileState)
	for rows.Next() {
		var (
			st   types.FileState
			hash sql.NullString
		)
		if err := rows.Scan(&st.Path, &st.Size, &st.MTime, &hash, &st.IsPartial); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		st.Hash = hash.String
		snapshot[st.Path] = st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot: %w", err)
	}
	return snapshot, nil
}

// Apply commits one batch of upserts and deletes as a single transaction.
// Deleted rows also leave a tombstone in deleted_files.
func (s *Store) Apply(ctx context.Context, upserts []types.ScannedFile, deletes []string) error {
	if len(upserts) == 0 && len(deletes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Statements are prepared once per transaction; batches run to the
	// configured batch size, so per-row parsing would dominate the commit.
	if len(upserts) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
INSERT INTO files(path, name, size, mtime, ctime, extension, media_type, hash, is_partial_hash, status)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET
        name=excluded.name,
        size=excluded.size,
        mtime=excluded.mtime,
        ctime=excluded.ctime,
        extension=excluded.extension,
        media_type=excluded.media_type,
        hash=excluded.hash,
        is_partial_hash=excluded.is_partial_hash,
        status=excluded.status
`)
		if err != nil {
			return fmt.Errorf("prepare upsert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, f := range upserts {
			if _, err := stmt.ExecContext(ctx, f.Path, f.Name, f.Size, f.MTime, f.CTime,
				f.Extension, string(f.MediaType), nullable(f.Hash), f.IsPartialHash,
				string(f.Status)); err != nil {
				return fmt.Errorf("upsert %s: %w", f.Path, err)
			}
		}
	}

	if len(deletes) > 0 {
		tombstone, err := tx.PrepareContext(ctx, `
INSERT INTO deleted_files(path, name, size, mtime, hash, deleted_at)
SELECT path, name, size, mtime, hash, ? FROM files WHERE path = ?
`)
		if err != nil {
			return fmt.Errorf("prepare tombstone: %w", err)
		}
		defer func() { _ = tombstone.Close() }()

		remove, err := tx.PrepareContext(ctx, `DELETE FROM files WHERE path = ?`)
		if err != nil {
			return fmt.Errorf("prepare delete: %w", err)
		}
		defer func() { _ = remove.Close() }()

		now := time.Now().Unix()
		for _, path := range deletes {
			if _, err := tombstone.ExecContext(ctx, now, path); err != nil {
				return fmt.Errorf("tombstone %s: %w", path, err)
			}
			if _, err := remove.ExecContext(ctx, path); err != nil {
				return fmt.Errorf("delete %s: %w", path, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// FileCount returns the number of persisted file rows.
func (s *Store) FileCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&n)
	return n, err
}

// DeletedCount returns the number of tombstone rows.
func (s *Store) DeletedCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM deleted_files`).Scan(&n)
	return n, err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
