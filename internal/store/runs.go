package store

import (
	"database/sql"

	"gitlab.com/tozd/go/errors"
)

const runCols = "id, entry, base_dir, digest, created_at"

// RowCols is the column list scanned by ScanRow.
const RowCols = "id, run_id, ordinal, item_id, parent_id, name, kind, type, file, line, col, description, json"

func scanRun(scanner interface{ Scan(...any) error }) (*Run, error) {
	var r Run
	if err := scanner.Scan(&r.ID, &r.Entry, &r.BaseDir, &r.Digest, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// LatestRun returns the newest run of entry, or of any entry when entry is
// empty. Returns nil when there is none.
func (s *Store) LatestRun(entry string) (*Run, error) {
	query := "SELECT " + runCols + " FROM runs"
	var args []any
	if entry != "" {
		query += " WHERE entry = ?"
		args = append(args, entry)
	}
	r, err := scanRun(s.db.QueryRow(query+" ORDER BY id DESC LIMIT 1", args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Errorf("latest run: %w", err)
	}
	return r, nil
}

// Runs lists every run, oldest first.
func (s *Store) Runs() ([]*Run, error) {
	rows, err := s.db.Query("SELECT " + runCols + " FROM runs ORDER BY id")
	if err != nil {
		return nil, errors.Errorf("runs: %w", err)
	}
	defer rows.Close()
	var out []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, errors.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ScanRow scans one items row selected with RowCols.
func ScanRow(scanner interface{ Scan(...any) error }) (*Row, error) {
	var r Row
	var file sql.NullString
	var line, col sql.NullInt64
	var desc sql.NullString
	if err := scanner.Scan(&r.ID, &r.RunID, &r.Ordinal, &r.ItemID, &r.ParentID, &r.Name, &r.Kind,
		&r.Type, &file, &line, &col, &desc, &r.JSON); err != nil {
		return nil, err
	}
	r.File, r.Line, r.Column, r.Description = file.String, int(line.Int64), int(col.Int64), desc.String
	return &r, nil
}

func (s *Store) queryRows(query string, args ...any) ([]*Row, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Errorf("query items: %w", err)
	}
	defer rows.Close()
	var out []*Row
	for rows.Next() {
		r, err := ScanRow(rows)
		if err != nil {
			return nil, errors.Errorf("scan item: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ItemByID returns the row of an item id in a run, or nil.
func (s *Store) ItemByID(runID int64, itemID string) (*Row, error) {
	r, err := ScanRow(s.db.QueryRow("SELECT "+RowCols+" FROM items WHERE run_id = ? AND item_id = ?", runID, itemID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Errorf("item %q: %w", itemID, err)
	}
	return r, nil
}

// ItemsByKind returns the items of one binding kind in extraction order.
func (s *Store) ItemsByKind(runID int64, kind string) ([]*Row, error) {
	return s.queryRows("SELECT "+RowCols+" FROM items WHERE run_id = ? AND kind = ? ORDER BY ordinal", runID, kind)
}

// Children returns the members of an item in extraction order. An empty
// parentID returns the top-level items.
func (s *Store) Children(runID int64, parentID string) ([]*Row, error) {
	return s.queryRows("SELECT "+RowCols+" FROM items WHERE run_id = ? AND parent_id = ? ORDER BY ordinal", runID, parentID)
}

// SearchItems returns items whose id matches a SQLite GLOB pattern.
func (s *Store) SearchItems(runID int64, glob string) ([]*Row, error) {
	return s.queryRows("SELECT "+RowCols+" FROM items WHERE run_id = ? AND item_id GLOB ? ORDER BY ordinal", runID, glob)
}

// CountByKind counts a run's items per kind, ordered by kind.
func (s *Store) CountByKind(runID int64) ([]KindCount, error) {
	rows, err := s.db.Query("SELECT kind, COUNT(*) FROM items WHERE run_id = ? GROUP BY kind ORDER BY kind", runID)
	if err != nil {
		return nil, errors.Errorf("count by kind: %w", err)
	}
	defer rows.Close()
	var out []KindCount
	for rows.Next() {
		var kc KindCount
		if err := rows.Scan(&kc.Kind, &kc.Count); err != nil {
			return nil, errors.Errorf("scan kind count: %w", err)
		}
		out = append(out, kc)
	}
	return out, rows.Err()
}
