package program

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/tsschema/internal/typesys"
)

// symbol implements typesys.Symbol.
type symbol struct {
	name      string
	flags     typesys.SymbolFlags
	decls     []*typesys.Node
	valueDecl *typesys.Node

	mod *module
	// syntax holds the tree-sitter node of each declaration, parallel to
	// decls.
	syntax []*sitter.Node
	// env binds type parameters for members of generic instantiations.
	env *typeEnv
	// parent is the class, interface or enum declaring a member.
	parent *symbol

	// Container members, bound on first use.
	membersBound bool
	members      *symbolTable // instance, interface, enum and literal members
	statics      *symbolTable // class statics
	ctorSyntax   []*sitter.Node
	indexSyntax  []*sitter.Node
	callSyntax   []*sitter.Node
	newSyntax    []*sitter.Node

	// Aliases: imports, re-exports and renamed exports.
	alias     *aliasRef
	target    *symbol
	resolving bool

	// Cached types.
	typ      typesys.Type
	declared typesys.Type
}

// aliasRef records where an imported or re-exported name comes from.
type aliasRef struct {
	from      string // importing file
	specifier string
	imported  string // "default", "*" for a namespace, or a name
}

func (s *symbol) Name() string                 { return s.name }
func (s *symbol) Flags() typesys.SymbolFlags    { return s.flags }
func (s *symbol) Declarations() []*typesys.Node { return s.decls }
func (s *symbol) ValueDeclaration() *typesys.Node {
	return s.valueDecl
}

func (s *symbol) addDecl(n *typesys.Node, syn *sitter.Node, value bool) {
	s.decls = append(s.decls, n)
	s.syntax = append(s.syntax, syn)
	if value && s.valueDecl == nil {
		s.valueDecl = n
	}
}

// firstSyntax returns the syntax node of the first declaration.
func (s *symbol) firstSyntax() *sitter.Node {
	if len(s.syntax) == 0 {
		return nil
	}
	return s.syntax[0]
}

// owner returns the declaring container of a member.
func (s *symbol) owner() *symbol {
	if s.parent == nil {
		return nil
	}
	return s.parent.origin()
}

// renamed returns a symbol exported under a different name that shares the
// target's declarations and types.
func renamed(target *symbol, name string) *symbol {
	if target.name == name {
		return target
	}
	return &symbol{
		name:      name,
		flags:     target.flags,
		decls:     target.decls,
		valueDecl: target.valueDecl,
		mod:       target.mod,
		syntax:    target.syntax,
		target:    target,
	}
}

// origin follows renamed symbols to the declaring one.
func (s *symbol) origin() *symbol {
	for s.target != nil && s.alias == nil {
		s = s.target
	}
	return s
}

// symbolTable is an ordered name → symbol mapping.
type symbolTable struct {
	names []string
	byKey map[string]*symbol
}

func newSymbolTable() *symbolTable {
	return &symbolTable{byKey: make(map[string]*symbol)}
}

func (t *symbolTable) get(name string) *symbol {
	if t == nil {
		return nil
	}
	return t.byKey[name]
}

func (t *symbolTable) set(name string, s *symbol) {
	if _, ok := t.byKey[name]; !ok {
		t.names = append(t.names, name)
	}
	t.byKey[name] = s
}

func (t *symbolTable) list() []*symbol {
	if t == nil {
		return nil
	}
	out := make([]*symbol, 0, len(t.names))
	for _, n := range t.names {
		out = append(out, t.byKey[n])
	}
	return out
}

func (t *symbolTable) len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}

func toSymbols(in []*symbol) []typesys.Symbol {
	out := make([]typesys.Symbol, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
