package store

import (
	"encoding/json"
	"time"

	"gitlab.com/tozd/go/errors"

	"github.com/jward/tsschema/internal/schema"
)

// Run is one persisted extraction.
type Run struct {
	ID        int64
	Entry     string
	BaseDir   string
	Digest    string
	CreatedAt time.Time
}

// Row is one flattened Item. JSON holds the Item without its nested members,
// which are rows of their own.
type Row struct {
	ID          int64
	RunID       int64
	Ordinal     int
	ItemID      string
	ParentID    string
	Name        string
	Kind        string
	Type        string
	File        string
	Line        int
	Column      int
	Description string
	JSON        string
}

// Item decodes the row's Item.
func (r *Row) Item() (*schema.Item, error) {
	var it schema.Item
	if err := json.Unmarshal([]byte(r.JSON), &it); err != nil {
		return nil, errors.Errorf("decode item %q: %w", r.ItemID, err)
	}
	return &it, nil
}

// KindCount is the number of items of one kind in a run.
type KindCount struct {
	Kind  string
	Count int
}
