// Package discover finds TypeScript entry modules under a directory.
package discover

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"gitlab.com/tozd/go/errors"
)

// indexNames are the entry files of a directory without package.json typings,
// in order of preference.
var indexNames = []string{"index.ts", "index.tsx", "index.d.ts"}

var skipDirs = map[string]struct{}{
	"node_modules": {},
	".git":         {},
	".hg":          {},
	".svn":         {},
	"build":        {},
	"dist":         {},
	"coverage":     {},
}

type packageJSON struct {
	Types   string `json:"types"`
	Typings string `json:"typings"`
}

// Entries returns the absolute paths of the entry modules under root, sorted.
// A directory's entry is the types (or typings) file of its package.json, or
// else its index file. Directories below an entry are not searched: they are
// reached through the entry's imports. Paths matching root's .gitignore or
// one of the exclude patterns are skipped.
func Entries(root string, exclude []string) ([]string, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.WithDetails(errors.WithStack(err), "root", root)
	}
	if !info.IsDir() {
		return nil, errors.WithDetails(errors.New("not a directory"), "root", root)
	}

	matchers := loadIgnores(root, exclude)
	ignored := func(rel string) bool {
		for _, gi := range matchers {
			if gi.MatchesPath(rel) {
				return true
			}
		}
		return false
	}

	var entries []string
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil // skip errors and files
		}
		if path != root {
			name := d.Name()
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			rel, err := filepath.Rel(root, path)
			if err != nil || ignored(filepath.ToSlash(rel)+"/") {
				return filepath.SkipDir
			}
		}
		entry := dirEntry(path)
		if entry == "" {
			return nil
		}
		if rel, err := filepath.Rel(root, entry); err == nil && ignored(filepath.ToSlash(rel)) {
			return nil
		}
		entries = append(entries, entry)
		return filepath.SkipDir
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	slices.Sort(entries)
	return entries, nil
}

// dirEntry returns the entry module of one directory, or "".
func dirEntry(dir string) string {
	if data, err := os.ReadFile(filepath.Join(dir, "package.json")); err == nil {
		var pkg packageJSON
		if json.Unmarshal(data, &pkg) == nil {
			for _, typings := range []string{pkg.Types, pkg.Typings} {
				if typings == "" {
					continue
				}
				path := filepath.Join(dir, filepath.FromSlash(typings))
				if isFile(path) {
					return path
				}
			}
		}
	}
	for _, name := range indexNames {
		path := filepath.Join(dir, name)
		if isFile(path) {
			return path
		}
	}
	return ""
}

func loadIgnores(root string, exclude []string) []*ignore.GitIgnore {
	var out []*ignore.GitIgnore
	if gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
		out = append(out, gi)
	}
	if len(exclude) > 0 {
		out = append(out, ignore.CompileIgnoreLines(exclude...))
	}
	return out
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
