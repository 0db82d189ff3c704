// Package store persists extractions in SQLite: one run per Gather call, the
// flattened Item tree of each run, and tool metadata.
package store

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"gitlab.com/tozd/go/errors"
)

// SchemaVersion is recorded in the metadata table by Migrate.
const SchemaVersion = "1"

// Store is the SQLite data access layer for runs, items and metadata.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, errors.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates the tables and indexes and records the schema version.
// Idempotent.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return errors.Errorf("migrate: %w", err)
	}
	return s.SetMetadata(MetaSchemaVersion, SchemaVersion)
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS runs (
  id              INTEGER PRIMARY KEY,
  entry           TEXT NOT NULL,
  base_dir        TEXT NOT NULL,
  digest          TEXT NOT NULL,
  created_at      TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS items (
  id              INTEGER PRIMARY KEY,
  run_id          INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
  ordinal         INTEGER NOT NULL,
  item_id         TEXT NOT NULL,
  parent_id       TEXT NOT NULL DEFAULT '',
  name            TEXT NOT NULL,
  kind            TEXT NOT NULL,
  type            TEXT NOT NULL,
  file            TEXT,
  line            INTEGER,
  col             INTEGER,
  description     TEXT,
  json            TEXT NOT NULL,
  UNIQUE (run_id, item_id)
);

CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_entry ON runs(entry);
CREATE INDEX IF NOT EXISTS idx_items_run_kind ON items(run_id, kind);
CREATE INDEX IF NOT EXISTS idx_items_run_parent ON items(run_id, parent_id);
`

// DeleteRun transactionally removes a run and all of its items.
func (s *Store) DeleteRun(runID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM items WHERE run_id = ?",
		"DELETE FROM runs WHERE id = ?",
	} {
		if _, err := tx.Exec(q, runID); err != nil {
			return errors.Errorf("delete run %d: %w", runID, err)
		}
	}
	return tx.Commit()
}

// PruneRuns deletes every run of entry except the newest keep runs.
func (s *Store) PruneRuns(entry string, keep int) error {
	rows, err := s.db.Query("SELECT id FROM runs WHERE entry = ? ORDER BY id DESC", entry)
	if err != nil {
		return errors.Errorf("prune runs: %w", err)
	}
	var stale []int64
	for i := 0; rows.Next(); i++ {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return errors.Errorf("scan run id: %w", err)
		}
		if i >= keep {
			stale = append(stale, id)
		}
	}
	rows.Close()
	if len(stale) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errors.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()
	placeholders := placeholderList(len(stale))
	args := int64sToArgs(stale)
	for _, q := range []string{
		"DELETE FROM items WHERE run_id IN (" + placeholders + ")",
		"DELETE FROM runs WHERE id IN (" + placeholders + ")",
	} {
		if _, err := tx.Exec(q, args...); err != nil {
			return errors.Errorf("prune runs: %w", err)
		}
	}
	return tx.Commit()
}
