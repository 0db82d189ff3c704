package tsschema

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/tsschema/internal/store"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func newStoredEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	return newTestEngine(t, append([]Option{WithStore(dbPath)}, opts...)...)
}

// writeTree writes files under a fresh temp dir and returns it.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	return dir
}

func mustItem(t *testing.T, items *Items, name string) *Item {
	t.Helper()
	it, ok := items.Get(name)
	require.True(t, ok, "missing item %q in %v", name, items.Keys())
	return it
}

func TestNew_WithoutStore(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	assert.Nil(t, e.Store())
	assert.NotNil(t, e.cache)
	assert.NoError(t, e.Close())

	_, err := e.Query().Kind(KindClass)
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestNew_CreatesStore(t *testing.T) {
	t.Parallel()
	e := newStoredEngine(t)
	require.NotNil(t, e.Store())

	v, err := e.Store().GetMetadata(store.MetaSchemaVersion)
	require.NoError(t, err)
	assert.Equal(t, store.SchemaVersion, v)
}

func TestNew_InvalidStorePath(t *testing.T) {
	t.Parallel()
	_, err := New(WithStore("/nonexistent/dir/db.sqlite"))
	require.Error(t, err)
}

func TestGather(t *testing.T) {
	t.Parallel()
	dir := writeTree(t, map[string]string{
		"tsconfig.json": "{}",
		"index.ts":      "export class A {}\nexport let b: string;\n",
	})
	e := newTestEngine(t)

	items, err := e.Gather(context.Background(), filepath.Join(dir, "index.ts"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "b"}, items.Keys())
	assert.Equal(t, KindClass, mustItem(t, items, "A").Kind)
	assert.Equal(t, "index.ts", mustItem(t, items, "b").Loc.File)
}

func TestGather_MergesIntoExisting(t *testing.T) {
	t.Parallel()
	dir := writeTree(t, map[string]string{"index.ts": "export let b: string;\n"})
	e := newTestEngine(t)

	seed := NewItems()
	seed.Set("b", &Item{Kind: KindVariable, ID: "b", Type: "any"})
	seed.Set("z", &Item{Kind: KindVariable, ID: "z", Type: "any"})

	items, err := e.Gather(context.Background(), filepath.Join(dir, "index.ts"), seed)
	require.NoError(t, err)
	assert.Same(t, seed, items)
	assert.Equal(t, []string{"b", "z"}, items.Keys())
	assert.Equal(t, "string", mustItem(t, items, "b").Type)
}

func TestGather_BaseDir(t *testing.T) {
	t.Parallel()
	dir := writeTree(t, map[string]string{"src/index.ts": "export let b: string;\n"})
	e := newTestEngine(t, WithBaseDir(dir))

	items, err := e.Gather(context.Background(), filepath.Join(dir, "src", "index.ts"), nil)
	require.NoError(t, err)
	assert.Equal(t, "src/index.ts", mustItem(t, items, "b").Loc.File)
}

func TestGather_Select(t *testing.T) {
	t.Parallel()
	dir := writeTree(t, map[string]string{
		"index.ts": "export class A {}\nexport function f(): void {}\nexport class B {}\n",
	})
	e := newTestEngine(t, WithSelect(`item["kind"] == "class"`))

	items, err := e.Gather(context.Background(), filepath.Join(dir, "index.ts"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, items.Keys())
}

func TestGather_SelectError(t *testing.T) {
	t.Parallel()
	dir := writeTree(t, map[string]string{"index.ts": "export class A {}\n"})
	e := newTestEngine(t, WithSelect(`item[`))

	_, err := e.Gather(context.Background(), filepath.Join(dir, "index.ts"), nil)
	assert.ErrorIs(t, err, ErrSelect)
}

func TestGather_Errors(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Gather(ctx, filepath.Join(t.TempDir(), "missing.ts"), nil)
	assert.ErrorIs(t, err, ErrEntryNotFound)

	dir := writeTree(t, map[string]string{
		"index.ts": "export type C<T> = T extends string ? 1 : 2;\n",
		"ns.ts":    "export namespace NS { export const x = 1; }\n",
	})
	_, err = e.Gather(ctx, filepath.Join(dir, "index.ts"), nil)
	assert.ErrorIs(t, err, ErrUnsupportedType)
	_, err = e.Gather(ctx, filepath.Join(dir, "ns.ts"), nil)
	assert.ErrorIs(t, err, ErrUnclassifiable)
}

func TestGather_Saves(t *testing.T) {
	t.Parallel()
	dir := writeTree(t, map[string]string{
		"index.ts": "export class Point {\n  x: number = 0;\n}\nexport let origin: Point;\n",
	})
	e := newStoredEngine(t)
	entry := filepath.Join(dir, "index.ts")

	_, err := e.Gather(context.Background(), entry, nil)
	require.NoError(t, err)

	run, err := e.Store().LatestRun(entry)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, dir, run.BaseDir)
	assert.NotEmpty(t, run.Digest)

	row, err := e.Store().ItemByID(run.ID, "Point.x")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "Point", row.ParentID)
	assert.Equal(t, "property", row.Kind)

	v, err := e.Store().GetMetadata(store.MetaToolVersion)
	require.NoError(t, err)
	assert.Equal(t, Version, v)
}

func TestGather_KeepRuns(t *testing.T) {
	t.Parallel()
	dir := writeTree(t, map[string]string{"index.ts": "export let a: string;\n"})
	e := newStoredEngine(t, WithKeepRuns(2))
	entry := filepath.Join(dir, "index.ts")

	for range 3 {
		_, err := e.Gather(context.Background(), entry, nil)
		require.NoError(t, err)
	}
	runs, err := e.Query().Runs()
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestGatherDir(t *testing.T) {
	t.Parallel()
	dir := writeTree(t, map[string]string{
		"a/index.ts":              "export let shared: string;\nexport let fromA: number;\n",
		"b/package.json":          `{"types": "lib/main.d.ts"}`,
		"b/lib/main.d.ts":         "export declare let shared: boolean;\nexport declare let fromB: string;\n",
		"c/index.ts":              "export let fromC: string;\n",
		"node_modules/x/index.ts": "export let hidden: string;\n",
		"skipped/index.ts":        "export let skipped: string;\n",
	})
	for _, parallelism := range []int{1, 4} {
		e := newTestEngine(t, WithParallelism(parallelism), WithExclude("skipped/"))
		items, err := e.GatherDir(context.Background(), dir, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"shared", "fromA", "fromB", "fromC"}, items.Keys())
		assert.Equal(t, "boolean", mustItem(t, items, "shared").Type, "later entries replace earlier ones")
	}
}

func TestGatherDir_SharedImport(t *testing.T) {
	t.Parallel()
	files := map[string]string{
		"shared.ts": "export class Base {\n  id: string = \"\";\n}\nexport interface Named { name: string }\n",
	}
	for i := range 8 {
		files[fmt.Sprintf("p%d/index.ts", i)] = "export * from \"../shared\";\n"
	}
	dir := writeTree(t, files)
	e := newTestEngine(t, WithParallelism(8))

	items, err := e.GatherDir(context.Background(), dir, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Base", "Named"}, items.Keys())
	assert.Equal(t, KindClass, mustItem(t, items, "Base").Kind)
}

func TestGatherDir_SavesEachEntry(t *testing.T) {
	t.Parallel()
	dir := writeTree(t, map[string]string{
		"a/index.ts": "export let a: string;\n",
		"b/index.ts": "export let b: string;\n",
	})
	e := newStoredEngine(t)
	_, err := e.GatherDir(context.Background(), dir, nil)
	require.NoError(t, err)

	runs, err := e.Query().Runs()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, filepath.Join(dir, "a", "index.ts"), runs[0].Entry)
	assert.Equal(t, filepath.Join(dir, "b", "index.ts"), runs[1].Entry)
}

func TestGatherDir_LoadError(t *testing.T) {
	t.Parallel()
	dir := writeTree(t, map[string]string{
		"a/index.ts": "export let a: string;\n",
		"b/index.ts": "export type C<T> = T extends string ? 1 : 2;\n",
	})
	e := newTestEngine(t)
	_, err := e.GatherDir(context.Background(), dir, nil)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestGatherDir_NotADirectory(t *testing.T) {
	t.Parallel()
	dir := writeTree(t, map[string]string{"index.ts": "export let a: string;\n"})
	e := newTestEngine(t)
	_, err := e.GatherDir(context.Background(), filepath.Join(dir, "index.ts"), nil)
	assert.Error(t, err)
}
