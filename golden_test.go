package tsschema

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var update = flag.Bool("update", false, "rewrite golden files")

// TestGolden gathers testdata/golden/{case}/index.ts and compares the result
// with the case's expected.json.
func TestGolden(t *testing.T) {
	cases, err := os.ReadDir(filepath.Join("testdata", "golden"))
	require.NoError(t, err)

	for _, c := range cases {
		if !c.IsDir() {
			continue
		}
		dir := filepath.Join("testdata", "golden", c.Name())
		t.Run(c.Name(), func(t *testing.T) {
			t.Parallel()
			e, err := New(WithBaseDir(dir))
			require.NoError(t, err)
			defer e.Close()

			items, err := e.Gather(context.Background(), filepath.Join(dir, "index.ts"), nil)
			require.NoError(t, err)
			got, err := json.MarshalIndent(items, "", "  ")
			require.NoError(t, err)

			goldenPath := filepath.Join(dir, "expected.json")
			if *update {
				require.NoError(t, os.WriteFile(goldenPath, append(got, '\n'), 0o644))
				return
			}
			want, err := os.ReadFile(goldenPath)
			require.NoError(t, err, "run with -update to create %s", goldenPath)
			assert.JSONEq(t, string(want), string(got))

			var wantItems Items
			require.NoError(t, json.Unmarshal(want, &wantItems))
			assert.Equal(t, wantItems.Keys(), items.Keys(), "export order")
		})
	}
}
