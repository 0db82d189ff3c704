package tsschema

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const querySource = `/** A point. */
export class Point {
  constructor(x: number) {}
  x: number = 0;
  static origin: Point;
  norm(): number { return 0; }
}
export function dist(a: Point, b: Point): number { return 0; }
`

func queryEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	dir := writeTree(t, map[string]string{"index.ts": querySource})
	e := newStoredEngine(t)
	entry := filepath.Join(dir, "index.ts")
	_, err := e.Gather(context.Background(), entry, nil)
	require.NoError(t, err)
	return e, entry
}

func rowIDs(rows []*Row) []string {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ItemID)
	}
	return ids
}

func TestQuery_Item(t *testing.T) {
	t.Parallel()
	e, _ := queryEngine(t)
	q := e.Query()

	row, err := q.Item("Point")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "class", row.Kind)
	assert.Equal(t, "* A point. ", row.Description)
	assert.Equal(t, 2, row.Line)

	it, err := row.Item()
	require.NoError(t, err)
	assert.Equal(t, "Point", it.ID)
	assert.Nil(t, it.InstanceProperties, "members are rows of their own")

	missing, err := q.Item("Nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestQuery_Kind(t *testing.T) {
	t.Parallel()
	e, _ := queryEngine(t)

	rows, err := e.Query().Kind(KindProperty)
	require.NoError(t, err)
	assert.Equal(t, []string{"Point^origin", "Point.x"}, rowIDs(rows))

	rows, err = e.Query().Kind(KindConstructor)
	require.NoError(t, err)
	assert.Equal(t, []string{"Point^constructor"}, rowIDs(rows))
}

func TestQuery_Children(t *testing.T) {
	t.Parallel()
	e, _ := queryEngine(t)

	top, err := e.Query().Children("")
	require.NoError(t, err)
	assert.Equal(t, []string{"Point", "dist"}, rowIDs(top))

	members, err := e.Query().Children("Point")
	require.NoError(t, err)
	assert.Equal(t, []string{"Point^constructor", "Point^origin", "Point.x", "Point.norm"}, rowIDs(members))
}

func TestQuery_Search(t *testing.T) {
	t.Parallel()
	e, _ := queryEngine(t)

	rows, err := e.Query().Search("Point.*")
	require.NoError(t, err)
	assert.Equal(t, []string{"Point.x", "Point.norm"}, rowIDs(rows))
}

func TestQuery_Summary(t *testing.T) {
	t.Parallel()
	e, entry := queryEngine(t)

	s, err := e.Query().ForEntry(entry).Summary()
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, entry, s.Run.Entry)
	assert.Equal(t, []KindCount{
		{Kind: "class", Count: 1},
		{Kind: "constructor", Count: 1},
		{Kind: "function", Count: 1},
		{Kind: "method", Count: 1},
		{Kind: "property", Count: 2},
	}, s.Counts)
	assert.Equal(t, 6, s.Total)
}

func TestQuery_NoRuns(t *testing.T) {
	t.Parallel()
	e := newStoredEngine(t)

	s, err := e.Query().Summary()
	require.NoError(t, err)
	assert.Nil(t, s)

	rows, err := e.Query().ForEntry("other.ts").Kind(KindClass)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
