package discover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func rel(t *testing.T, root string, paths []string) []string {
	t.Helper()
	var out []string
	for _, p := range paths {
		r, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(r))
	}
	return out
}

func TestEntries(t *testing.T) {
	t.Parallel()
	root := writeTree(t, map[string]string{
		"packages/core/package.json":   `{"types": "lib/main.d.ts"}`,
		"packages/core/lib/main.d.ts":  "",
		"packages/core/index.ts":       "",
		"packages/ui/index.tsx":        "",
		"packages/ui/nested/index.ts":  "",
		"packages/legacy/package.json": `{"typings": "./types.d.ts"}`,
		"packages/legacy/types.d.ts":   "",
		"packages/broken/package.json": `{"types": "missing.d.ts"}`,
		"packages/broken/index.d.ts":   "",
		"node_modules/dep/index.ts":    "",
		".cache/index.ts":              "",
		"generated/index.ts":           "",
		"scratch/index.ts":             "",
		".gitignore":                   "generated/\n",
		"packages/nothing/readme.md":   "",
	})

	entries, err := Entries(root, []string{"scratch"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"packages/broken/index.d.ts",
		"packages/core/lib/main.d.ts",
		"packages/legacy/types.d.ts",
		"packages/ui/index.tsx",
	}, rel(t, root, entries))
}

func TestEntries_RootIsEntry(t *testing.T) {
	t.Parallel()
	root := writeTree(t, map[string]string{
		"index.ts":     "",
		"sub/index.ts": "",
	})
	entries, err := Entries(root, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"index.ts"}, rel(t, root, entries))
}

func TestEntries_NotADirectory(t *testing.T) {
	t.Parallel()
	root := writeTree(t, map[string]string{"index.ts": ""})
	_, err := Entries(filepath.Join(root, "index.ts"), nil)
	assert.Error(t, err)
	_, err = Entries(filepath.Join(root, "missing"), nil)
	assert.Error(t, err)
}
