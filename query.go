package tsschema

import (
	"path/filepath"

	"gitlab.com/tozd/go/errors"

	"github.com/jward/tsschema/internal/store"
)

// QueryBuilder reads saved extractions. Every query runs against the latest
// run, of the builder's entry when one is set.
type QueryBuilder struct {
	reader store.Reader
	entry  string
}

// Summary describes one run.
type Summary struct {
	Run    *Run
	Counts []KindCount
	Total  int
}

// NewQueryBuilder returns a QueryBuilder over r.
func NewQueryBuilder(r store.Reader) *QueryBuilder {
	return &QueryBuilder{reader: r}
}

// ForEntry scopes the builder to the runs of one entry file.
func (q *QueryBuilder) ForEntry(entry string) *QueryBuilder {
	if abs, err := filepath.Abs(entry); err == nil {
		entry = abs
	}
	return &QueryBuilder{reader: q.reader, entry: entry}
}

// Run returns the run queries read, or nil when nothing was saved.
func (q *QueryBuilder) Run() (*Run, error) {
	if q.reader == nil {
		return nil, errors.WithStack(ErrNoStore)
	}
	r, err := q.reader.LatestRun(q.entry)
	if err != nil {
		return nil, errors.Errorf("tsschema: query run: %w", err)
	}
	return r, nil
}

// Runs lists every saved run, oldest first.
func (q *QueryBuilder) Runs() ([]*Run, error) {
	if q.reader == nil {
		return nil, errors.WithStack(ErrNoStore)
	}
	runs, err := q.reader.Runs()
	if err != nil {
		return nil, errors.Errorf("tsschema: query runs: %w", err)
	}
	return runs, nil
}

// Item returns the row of one Item id, or nil.
func (q *QueryBuilder) Item(id string) (*Row, error) {
	run, err := q.Run()
	if err != nil || run == nil {
		return nil, err
	}
	row, err := q.reader.ItemByID(run.ID, id)
	if err != nil {
		return nil, errors.Errorf("tsschema: query item: %w", err)
	}
	return row, nil
}

// Kind returns every Item of a binding kind, at any depth.
func (q *QueryBuilder) Kind(kind BindingKind) ([]*Row, error) {
	return q.rows("kind", func(runID int64) ([]*Row, error) {
		return q.reader.ItemsByKind(runID, string(kind))
	})
}

// Children returns the members of an Item. An empty id returns the
// top-level Items.
func (q *QueryBuilder) Children(id string) ([]*Row, error) {
	return q.rows("children", func(runID int64) ([]*Row, error) {
		return q.reader.Children(runID, id)
	})
}

// Search returns the Items whose id matches a glob such as "Point.*".
func (q *QueryBuilder) Search(pattern string) ([]*Row, error) {
	return q.rows("search", func(runID int64) ([]*Row, error) {
		return q.reader.SearchItems(runID, pattern)
	})
}

// Summary counts the Items of the run per kind. Returns nil when nothing
// was saved.
func (q *QueryBuilder) Summary() (*Summary, error) {
	run, err := q.Run()
	if err != nil || run == nil {
		return nil, err
	}
	counts, err := q.reader.CountByKind(run.ID)
	if err != nil {
		return nil, errors.Errorf("tsschema: query summary: %w", err)
	}
	s := &Summary{Run: run, Counts: counts}
	for _, c := range counts {
		s.Total += c.Count
	}
	return s, nil
}

func (q *QueryBuilder) rows(op string, fn func(runID int64) ([]*Row, error)) ([]*Row, error) {
	run, err := q.Run()
	if err != nil || run == nil {
		return nil, err
	}
	rows, err := fn(run.ID)
	if err != nil {
		return nil, errors.Errorf("tsschema: query %s: %w", op, err)
	}
	return rows, nil
}
