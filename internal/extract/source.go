package extract

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jward/tsschema/internal/schema"
	"github.com/jward/tsschema/internal/typesys"
)

// Comment returns the run of comments immediately preceding a declaration.
// Line comments are joined with single spaces; block comment interiors are
// kept verbatim. A blank line between comments drops what came before it,
// and a blank line between the comments and the declaration drops them all.
func Comment(n *typesys.Node) string {
	if n == nil || n.File == nil {
		return ""
	}
	text := n.File.Text
	pos := n.Pos
	var result strings.Builder
	blank := false
	reset := func() {
		if blank {
			blank = false
			result.Reset()
		}
	}

scan:
	for pos < len(text) {
		ch := text[pos]
		switch {
		case ch == '/' && pos+1 < len(text) && text[pos+1] == '/':
			reset()
			start := -1
			for pos += 2; pos < len(text); pos++ {
				c := text[pos]
				if start < 0 && c != ' ' && c != '\t' {
					start = pos
				}
				if isLineBreak(c) {
					break
				}
			}
			if start >= 0 {
				if result.Len() > 0 && !endsInSpace(result.String()) {
					result.WriteByte(' ')
				}
				result.WriteString(text[start:pos])
			}
		case ch == '/' && pos+1 < len(text) && text[pos+1] == '*':
			reset()
			start := pos + 2
			for pos = start; pos < len(text); pos++ {
				if text[pos] == '*' && pos+1 < len(text) && text[pos+1] == '/' {
					break
				}
			}
			result.WriteString(text[start:pos])
			pos += 2
		default:
			r, size := utf8.DecodeRuneInString(text[pos:])
			if !isSpace(r) {
				break scan
			}
			pos += size
			if endsLine(text, pos, r) && pos < len(text) && isLineBreak(text[pos]) {
				blank = true
			}
		}
	}
	if blank {
		return ""
	}
	return result.String()
}

// Location returns the position of the first token of a declaration,
// skipping leading whitespace and comments. It returns nil for nodes without
// source.
func Location(n *typesys.Node, baseDir string) *schema.Loc {
	if n == nil || n.File == nil {
		return nil
	}
	pos := skipTrivia(n.File.Text, n.Pos)
	line, col := n.File.LineAndColumn(pos)
	return &schema.Loc{File: relPath(baseDir, n.File.Path), Line: line + 1, Column: col}
}

func skipTrivia(text string, pos int) int {
	for pos < len(text) {
		switch {
		case strings.HasPrefix(text[pos:], "//"):
			end := strings.IndexByte(text[pos:], '\n')
			if end < 0 {
				return len(text)
			}
			pos += end + 1
		case strings.HasPrefix(text[pos:], "/*"):
			end := strings.Index(text[pos+2:], "*/")
			if end < 0 {
				return len(text)
			}
			pos += end + 4
		default:
			r, size := utf8.DecodeRuneInString(text[pos:])
			if !isSpace(r) {
				return pos
			}
			pos += size
		}
	}
	return pos
}

// relPath makes path relative to baseDir with forward slashes, falling back
// to the absolute path when no relative form exists.
func relPath(baseDir, path string) string {
	if baseDir == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(baseDir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func isLineBreak(c byte) bool { return c == '\n' || c == '\r' }

// endsLine reports whether r, just consumed before pos, completes a line
// terminator. The '\r' of a "\r\n" pair does not.
func endsLine(text string, pos int, r rune) bool {
	switch r {
	case '\n':
		return true
	case '\r':
		return pos >= len(text) || text[pos] != '\n'
	}
	return false
}

func isSpace(r rune) bool { return unicode.IsSpace(r) || r == '\uFEFF' }

func endsInSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return isSpace(r)
}
