package store

import (
	"database/sql"
	"time"

	"gitlab.com/tozd/go/errors"

	"github.com/jward/tsschema/internal/schema"
)

// SaveRun records an extraction of entry and returns the new run's ID.
func (s *Store) SaveRun(entry, baseDir string, items *schema.Items) (int64, error) {
	batch := NewBatch()
	if err := batch.AddItems(items); err != nil {
		return 0, errors.Errorf("save run: %w", err)
	}
	return s.CommitBatch(entry, baseDir, batch)
}

// CommitBatch inserts a run and all buffered rows of batch within a single
// transaction. The run's digest covers the rows in order.
func (s *Store) CommitBatch(entry, baseDir string, batch *Batch) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, errors.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		"INSERT INTO runs (entry, base_dir, digest, created_at) VALUES (?, ?, ?, ?)",
		entry, baseDir, ComputeDigest(batch.Rows), time.Now().UTC(),
	)
	if err != nil {
		return 0, errors.Errorf("commit batch: run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Errorf("commit batch: run id: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO items
		(run_id, ordinal, item_id, parent_id, name, kind, type, file, line, col, description, json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, errors.Errorf("commit batch: prepare: %w", err)
	}
	defer stmt.Close()
	for i := range batch.Rows {
		if err := insertRowTx(stmt, runID, &batch.Rows[i]); err != nil {
			return 0, errors.Errorf("commit batch: item %q: %w", batch.Rows[i].ItemID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Errorf("commit batch: %w", err)
	}
	return runID, nil
}

func insertRowTx(stmt *sql.Stmt, runID int64, r *Row) error {
	res, err := stmt.Exec(runID, r.Ordinal, r.ItemID, r.ParentID, r.Name, r.Kind, r.Type,
		nullString(r.File), r.Line, r.Column, r.Description, r.JSON)
	if err != nil {
		return err
	}
	r.RunID = runID
	r.ID, err = res.LastInsertId()
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
