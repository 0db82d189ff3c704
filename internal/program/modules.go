package program

import (
	"os"
	"path/filepath"
	"strings"
)

// moduleResolver maps import specifiers to source files.
//
// Non-relative specifiers go through tsconfig paths, following
// TypeScript's tryLoadModuleUsingPaths: exact patterns first, then the
// wildcard pattern with the longest prefix (ties broken by longest suffix),
// with the matched text substituted into each target in order.
type moduleResolver struct {
	cfg *Config // nil when there is no tsconfig
}

// resolve returns the absolute path of the file a specifier refers to from
// the importing file, or "" when it cannot be found on disk.
func (r *moduleResolver) resolve(fromFile, specifier string) string {
	if strings.HasPrefix(specifier, ".") || filepath.IsAbs(specifier) {
		base := specifier
		if !filepath.IsAbs(base) {
			base = filepath.Join(filepath.Dir(fromFile), specifier)
		}
		return probe(base)
	}
	if r.cfg == nil {
		return ""
	}
	for _, candidate := range r.pathCandidates(specifier) {
		if found := probe(candidate); found != "" {
			return found
		}
	}
	if r.cfg.BaseURL != "" {
		return probe(filepath.Join(r.cfg.BaseURL, specifier))
	}
	return ""
}

// pathCandidates expands a specifier through the paths mapping.
func (r *moduleResolver) pathCandidates(specifier string) []string {
	var out []string
	if targets, ok := r.cfg.Paths[specifier]; ok && !strings.Contains(specifier, "*") {
		for _, t := range targets {
			out = append(out, filepath.Join(r.cfg.PathsBaseDir, strings.TrimPrefix(t, "./")))
		}
		return out
	}

	longestPrefix, longestSuffix := -1, -1
	var bestPrefix, bestSuffix string
	var bestTargets []string
	for key, targets := range r.cfg.Paths {
		star := strings.IndexByte(key, '*')
		if star < 0 {
			continue
		}
		prefix, suffix := key[:star], key[star+1:]
		if !strings.HasPrefix(specifier, prefix) || !strings.HasSuffix(specifier, suffix) ||
			len(specifier) < len(prefix)+len(suffix) {
			continue
		}
		if len(prefix) > longestPrefix || (len(prefix) == longestPrefix && len(suffix) > longestSuffix) {
			longestPrefix, longestSuffix = len(prefix), len(suffix)
			bestPrefix, bestSuffix, bestTargets = prefix, suffix, targets
		}
	}
	if longestPrefix < 0 {
		return nil
	}
	matched := specifier[len(bestPrefix) : len(specifier)-len(bestSuffix)]
	for _, t := range bestTargets {
		t = strings.Replace(strings.TrimPrefix(t, "./"), "*", matched, 1)
		out = append(out, filepath.Join(r.cfg.PathsBaseDir, t))
	}
	return out
}

// probe finds the source file for a module path without extension, a path
// with a JavaScript extension that has a TypeScript sibling, or a directory
// with an index file.
func probe(base string) string {
	if isFile(base) && IsSourceFile(base) {
		return base
	}
	for _, js := range []string{".js", ".jsx", ".mjs", ".cjs"} {
		if strings.HasSuffix(base, js) {
			stem := strings.TrimSuffix(base, js)
			for _, ext := range sourceExtensions {
				if isFile(stem + ext) {
					return stem + ext
				}
			}
		}
	}
	for _, ext := range sourceExtensions {
		if isFile(base + ext) {
			return base + ext
		}
	}
	for _, ext := range sourceExtensions {
		index := filepath.Join(base, "index"+ext)
		if isFile(index) {
			return index
		}
	}
	return ""
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
