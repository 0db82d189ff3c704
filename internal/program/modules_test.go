package program

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModuleResolver(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"src/index.ts":         "",
		"src/util.ts":          "",
		"src/types.d.ts":       "",
		"src/widgets/index.ts": "",
		"src/view.tsx":         "",
		"lib/core/a.ts":        "",
		"lib/special.ts":       "",
		"vendor/x.ts":          "",
	})
	from := filepath.Join(dir, "src", "index.ts")
	r := &moduleResolver{cfg: &Config{
		BaseURL:      filepath.Join(dir, "vendor"),
		PathsBaseDir: dir,
		Paths: map[string][]string{
			"@lib/*":       {"./lib/*"},
			"@lib/core/*":  {"lib/core/*"},
			"@lib/special": {"lib/special"},
		},
	}}

	tests := []struct {
		spec string
		want string
	}{
		{"./util", "src/util.ts"},
		{"./util.js", "src/util.ts"},
		{"./types", "src/types.d.ts"},
		{"./widgets", "src/widgets/index.ts"},
		{"./view", "src/view.tsx"},
		{"../lib/core/a", "lib/core/a.ts"},
		{"@lib/core/a", "lib/core/a.ts"},
		{"@lib/special", "lib/special.ts"},
		{"x", "vendor/x.ts"},
		{"./missing", ""},
		{"react", ""},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			t.Parallel()
			want := tt.want
			if want != "" {
				want = filepath.Join(dir, filepath.FromSlash(want))
			}
			assert.Equal(t, want, r.resolve(from, tt.spec))
		})
	}
}

func TestModuleResolver_NoConfig(t *testing.T) {
	t.Parallel()
	r := &moduleResolver{}
	assert.Empty(t, r.resolve("/src/index.ts", "lodash"))
}
