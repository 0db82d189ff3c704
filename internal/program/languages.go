package program

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"
)

// sourceExtensions are tried, in order, when resolving a module specifier.
var sourceExtensions = []string{".ts", ".tsx", ".d.ts", ".mts", ".cts", ".d.mts", ".d.cts"}

// extToGrammar maps file extensions to grammar names.
var extToGrammar = map[string]string{
	".ts":  "typescript",
	".mts": "typescript",
	".cts": "typescript",
	".tsx": "tsx",
}

// grammars is lazily initialized on first call via sync.Once.
var (
	grammars     map[string]*sitter.Language
	grammarsOnce sync.Once
)

func initGrammars() {
	grammarsOnce.Do(func() {
		grammars = map[string]*sitter.Language{
			"typescript": ts.GetLanguage(),
			"tsx":        tsx.GetLanguage(),
		}
	})
}

// IsSourceFile reports whether path names a TypeScript source or declaration
// file.
func IsSourceFile(path string) bool {
	_, ok := grammarForFile(path)
	return ok
}

// grammarForFile returns the tree-sitter Language for a file path based on
// its extension. Declaration files (.d.ts) use the typescript grammar.
func grammarForFile(path string) (*sitter.Language, bool) {
	initGrammars()
	ext := strings.ToLower(filepath.Ext(path))
	name, ok := extToGrammar[ext]
	if !ok {
		return nil, false
	}
	return grammars[name], true
}
