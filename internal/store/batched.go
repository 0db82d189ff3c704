package store

import (
	"strings"
	"sync"

	"gitlab.com/tozd/go/errors"

	"github.com/jward/tsschema/internal/schema"
)

// Batch buffers the flattened rows of an Item tree in memory until
// CommitBatch writes them in one transaction. Every Item becomes a row; the
// constructor, properties and instance properties of an Item become rows
// whose ParentID is the Item's id.
//
// Thread safety: the mutex protects ordinal allocation and slice appends.
type Batch struct {
	mu   sync.Mutex
	Rows []Row
	seen map[string]int // item id → index in Rows
}

// NewBatch creates an empty Batch.
func NewBatch() *Batch {
	return &Batch{seen: make(map[string]int)}
}

// AddItems flattens every Item of items, depth first in mapping order.
func (b *Batch) AddItems(items *schema.Items) error {
	for name, it := range items.All() {
		if err := b.AddItem(name, "", it); err != nil {
			return err
		}
	}
	return nil
}

// AddItem flattens it, stored under name, and its members.
func (b *Batch) AddItem(name, parentID string, it *schema.Item) error {
	var err error
	it.Walk(parentID, func(pid string, node *schema.Item) {
		if err != nil {
			return
		}
		n := name
		if node != it {
			n = memberName(node)
		}
		err = b.add(n, pid, node)
	})
	return err
}

func (b *Batch) add(name, parentID string, it *schema.Item) error {
	data, err := shallowJSON(it)
	if err != nil {
		return errors.Errorf("encode item %q: %w", it.ID, err)
	}
	row := Row{
		ItemID:      it.ID,
		ParentID:    parentID,
		Name:        name,
		Kind:        string(it.Kind),
		Type:        it.Type,
		Description: it.Description,
		JSON:        data,
	}
	if row.ItemID == "" {
		row.ItemID = name
	}
	if it.Loc != nil {
		row.File, row.Line, row.Column = it.Loc.File, it.Loc.Line, it.Loc.Column
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if i, ok := b.seen[row.ItemID]; ok {
		row.Ordinal = b.Rows[i].Ordinal
		b.Rows[i] = row
		return nil
	}
	row.Ordinal = len(b.Rows)
	b.seen[row.ItemID] = len(b.Rows)
	b.Rows = append(b.Rows, row)
	return nil
}

// memberName is the key a member is stored under in its owner: the last
// segment of its id.
func memberName(it *schema.Item) string {
	return it.ID[strings.LastIndexAny(it.ID, ".^")+1:]
}
