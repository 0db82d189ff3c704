package program

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// nodeKey identifies a syntax node within one file. Keys stay stable across
// repeated child lookups, unlike node handles.
type nodeKey struct {
	file       string
	start, end uint32
	kind       string
}

func keyOf(file string, n *sitter.Node) nodeKey {
	return nodeKey{file: file, start: n.StartByte(), end: n.EndByte(), kind: n.Type()}
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

func children(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.ChildCount())
	for i := 0; i < int(n.ChildCount()); i++ {
		out = append(out, n.Child(i))
	}
	return out
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "comment" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// hasToken reports whether n has a direct child token of the given type,
// such as "static", "readonly" or "?".
func hasToken(n *sitter.Node, tok string) bool {
	for _, c := range children(n) {
		if !c.IsNamed() && c.Type() == tok {
			return true
		}
	}
	return false
}

// firstChildOf returns the first direct child whose type is one of kinds.
func firstChildOf(n *sitter.Node, kinds ...string) *sitter.Node {
	for _, c := range children(n) {
		for _, k := range kinds {
			if c.Type() == k {
				return c
			}
		}
	}
	return nil
}

func field(n *sitter.Node, name string) *sitter.Node {
	if n == nil {
		return nil
	}
	return n.ChildByFieldName(name)
}

func content(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(src)
}

// fullStart returns the offset where n's leading trivia begins: the end of
// the previous non-comment sibling, or the full start of the parent when n
// comes first.
func fullStart(n *sitter.Node) int {
	for cur := n; cur != nil; cur = cur.Parent() {
		for prev := cur.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
			if prev.Type() != "comment" {
				return int(prev.EndByte())
			}
		}
		if cur.Parent() == nil {
			return 0
		}
	}
	return 0
}

// declarationAnchor climbs from a declaration through the export and
// ambient wrappers that own its leading trivia.
func declarationAnchor(n *sitter.Node) *sitter.Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "export_statement", "ambient_declaration":
			n = p
			continue
		}
		break
	}
	return n
}

// memberName returns the name of a property, method or enum member,
// unquoting string names.
func memberName(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	raw := content(n, src)
	switch n.Type() {
	case "string":
		return unquote(raw)
	case "computed_property_name":
		return raw
	}
	return raw
}

// unquote strips the quotes of a string literal, decoding escapes where
// possible.
func unquote(raw string) string {
	if len(raw) < 2 {
		return raw
	}
	q := raw[0]
	if (q != '"' && q != '\'' && q != '`') || raw[len(raw)-1] != q {
		return raw
	}
	if q == '"' {
		if s, err := strconv.Unquote(raw); err == nil {
			return s
		}
	}
	inner := raw[1 : len(raw)-1]
	if q == '\'' {
		if s, err := strconv.Unquote(`"` + strings.ReplaceAll(strings.ReplaceAll(inner, `\'`, `'`), `"`, `\"`) + `"`); err == nil {
			return s
		}
	}
	return inner
}

// parseNumber parses a TypeScript numeric literal.
func parseNumber(raw string) (float64, bool) {
	s := strings.ReplaceAll(raw, "_", "")
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "0x"), strings.HasPrefix(lower, "0o"), strings.HasPrefix(lower, "0b"):
		v, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return 0, false
		}
		return float64(v), true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
