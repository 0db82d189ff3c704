package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/jward/tsschema"
)

const cliSource = `/** A point. */
export class Point {
  x: number = 0;
  static origin: Point;
}
export function dist(a: Point, b: Point): number { return 0; }
`

// execute runs the root command with args and returns its captured output.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	return dir
}

func TestGather_JSON(t *testing.T) {
	t.Parallel()
	dir := writeProject(t, map[string]string{"index.ts": cliSource})

	out, _, err := execute(t, "gather", filepath.Join(dir, "index.ts"))
	require.NoError(t, err)

	var items tsschema.Items
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	assert.Equal(t, []string{"Point", "dist"}, items.Keys())
	point, ok := items.Get("Point")
	require.True(t, ok)
	assert.Equal(t, "* A point. ", point.Description)
}

func TestGather_Text(t *testing.T) {
	t.Parallel()
	dir := writeProject(t, map[string]string{"index.ts": cliSource})

	out, _, err := execute(t, "gather", "--format", "text", filepath.Join(dir, "index.ts"))
	require.NoError(t, err)
	assert.Regexp(t, `ID\s+KIND\s+TYPE\s+LOCATION`, out)
	assert.Regexp(t, `Point\s+class\s+class\s+index\.ts:2:0`, out)
	assert.Regexp(t, `Point\^origin\s+property\s+Point\s+index\.ts:4:2`, out)
	assert.Regexp(t, `Point\.x\s+property\s+number\s+index\.ts:3:2`, out)
	assert.Regexp(t, `dist\s+function\s+Function\s+index\.ts:6:0`, out)
}

func TestGather_YAMLAndPretty(t *testing.T) {
	t.Parallel()
	dir := writeProject(t, map[string]string{"index.ts": cliSource})
	entry := filepath.Join(dir, "index.ts")

	out, _, err := execute(t, "gather", "--format", "yaml", entry)
	require.NoError(t, err)
	var items tsschema.Items
	require.NoError(t, yaml.Unmarshal([]byte(out), &items))
	assert.Equal(t, []string{"Point", "dist"}, items.Keys())

	out, _, err = execute(t, "gather", "--format", "pretty", entry)
	require.NoError(t, err)
	assert.Contains(t, out, "Point")
	assert.Contains(t, out, "instanceProperties")
}

func TestGather_Out(t *testing.T) {
	t.Parallel()
	dir := writeProject(t, map[string]string{"index.ts": cliSource})
	outPath := filepath.Join(dir, "out", "schema.json")

	stdout, stderr, err := execute(t, "gather", "--out", outPath, filepath.Join(dir, "index.ts"))
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Wrote 2 items")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var items tsschema.Items
	require.NoError(t, json.Unmarshal(data, &items))
	assert.Equal(t, 2, items.Len())
}

type failingCloser struct {
	bytes.Buffer
	closeErr error
	closed   bool
}

func (f *failingCloser) Close() error {
	f.closed = true
	return f.closeErr
}

func TestWriteAndClose(t *testing.T) {
	t.Parallel()
	errClose := errors.New("disk full")
	errWrite := errors.New("encode failed")
	write := func(w io.Writer) error {
		_, err := io.WriteString(w, "{}")
		return err
	}

	ok := &failingCloser{}
	require.NoError(t, writeAndClose(ok, write))
	assert.True(t, ok.closed)
	assert.Equal(t, "{}", ok.String())

	bad := &failingCloser{closeErr: errClose}
	assert.ErrorIs(t, writeAndClose(bad, write), errClose)

	both := &failingCloser{closeErr: errClose}
	err := writeAndClose(both, func(io.Writer) error { return errWrite })
	assert.ErrorIs(t, err, errWrite)
	assert.NotErrorIs(t, err, errClose)
	assert.True(t, both.closed)
}

func TestGather_Select(t *testing.T) {
	t.Parallel()
	dir := writeProject(t, map[string]string{"index.ts": cliSource})

	out, _, err := execute(t, "gather", "--select", `item["kind"] == "function"`, filepath.Join(dir, "index.ts"))
	require.NoError(t, err)
	var items tsschema.Items
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	assert.Equal(t, []string{"dist"}, items.Keys())
}

func TestGather_Directory(t *testing.T) {
	t.Parallel()
	dir := writeProject(t, map[string]string{
		"a/index.ts": "export let a: string;\n",
		"b/index.ts": "export let b: number;\n",
	})

	out, _, err := execute(t, "gather", dir)
	require.NoError(t, err)
	var items tsschema.Items
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	assert.Equal(t, []string{"a", "b"}, items.Keys())
}

func TestGather_Errors(t *testing.T) {
	t.Parallel()
	dir := writeProject(t, map[string]string{"index.ts": cliSource})
	entry := filepath.Join(dir, "index.ts")

	_, _, err := execute(t, "gather", "--format", "xml", entry)
	assert.ErrorContains(t, err, `invalid format "xml"`)

	_, _, err = execute(t, "gather", "--log-level", "loud", entry)
	assert.Error(t, err)

	_, _, err = execute(t, "gather", filepath.Join(dir, "missing.ts"))
	assert.ErrorIs(t, err, tsschema.ErrEntryNotFound)

	_, _, err = execute(t, "gather")
	assert.Error(t, err)
}

func TestQuery(t *testing.T) {
	t.Parallel()
	dir := writeProject(t, map[string]string{"index.ts": cliSource})
	db := filepath.Join(dir, "schema.db")

	_, _, err := execute(t, "--db", db, "gather", "--save", filepath.Join(dir, "index.ts"))
	require.NoError(t, err)

	out, _, err := execute(t, "--db", db, "query", "item", "Point")
	require.NoError(t, err)
	var found []CLIItem
	require.NoError(t, json.Unmarshal([]byte(out), &found))
	require.Len(t, found, 1)
	assert.Equal(t, "Point", found[0].Name)
	assert.Equal(t, "* A point. ", found[0].Item.Description)

	out, _, err = execute(t, "--db", db, "--format", "text", "query", "kind", "property")
	require.NoError(t, err)
	assert.Regexp(t, `Point\^origin\s+property\s+Point\s+index\.ts:4:2`, out)
	assert.Regexp(t, `Point\.x\s+property\s+number\s+index\.ts:3:2`, out)

	out, _, err = execute(t, "--db", db, "query", "children", "Point")
	require.NoError(t, err)
	found = nil
	require.NoError(t, json.Unmarshal([]byte(out), &found))
	require.Len(t, found, 2)
	assert.Equal(t, "origin", found[0].Name)
	assert.Equal(t, "Point", found[0].Parent)
	assert.Equal(t, "x", found[1].Name)

	out, _, err = execute(t, "--db", db, "--format", "text", "query", "search", "Point*")
	require.NoError(t, err)
	assert.Contains(t, out, "Point^origin")
	assert.Contains(t, out, "Point.x")
	assert.NotContains(t, out, "dist")

	out, _, err = execute(t, "--db", db, "query", "summary")
	require.NoError(t, err)
	var summary CLISummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, filepath.Join(dir, "index.ts"), summary.Entry)
	assert.Equal(t, []CLIKindCount{{"class", 1}, {"function", 1}, {"property", 2}}, summary.Kinds)

	_, _, err = execute(t, "--db", db, "query", "item", "Nope")
	assert.ErrorContains(t, err, `no item with id "Nope"`)
}

func TestQuery_MissingDatabase(t *testing.T) {
	t.Parallel()
	_, _, err := execute(t, "--db", filepath.Join(t.TempDir(), "none.db"), "query", "summary")
	assert.ErrorContains(t, err, "database not found")
}

func TestConfigFile(t *testing.T) {
	t.Parallel()
	dir := writeProject(t, map[string]string{
		"index.ts":       cliSource,
		".tsschema.yaml": "db: saved.db\nformat: text\nselect: item[\"kind\"] == \"class\"\n",
	})

	out, _, err := execute(t, "--config", filepath.Join(dir, ".tsschema.yaml"), "gather", "--save", filepath.Join(dir, "index.ts"))
	require.NoError(t, err)
	assert.Contains(t, out, "LOCATION")
	assert.NotContains(t, out, "dist")
	assert.FileExists(t, filepath.Join(dir, "saved.db"))
}
