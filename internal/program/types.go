package program

import (
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/tsschema/internal/typesys"
)

// tsType implements typesys.Type. Object types build their members lazily
// so that self-referential declarations can be represented.
type tsType struct {
	flags    typesys.TypeFlags
	objFlags typesys.ObjectFlags
	sym      *symbol
	aliasSym *symbol
	types    []typesys.Type
	value    any
	text     string
	args     []typesys.Type
	origin   *sitter.Node

	build func(*structure)
	st    *structure
}

// structure is the member view of an object type.
type structure struct {
	props    []*symbol
	calls    []typesys.Signature
	ctors    []typesys.Signature
	strIndex typesys.Type
	numIndex typesys.Type
}

func (t *tsType) structure() *structure {
	if t.st == nil {
		t.st = &structure{}
		if t.build != nil {
			t.build(t.st)
		}
	}
	return t.st
}

func (t *tsType) Flags() typesys.TypeFlags       { return t.flags }
func (t *tsType) ObjectFlags() typesys.ObjectFlags { return t.objFlags }
func (t *tsType) Types() []typesys.Type          { return t.types }
func (t *tsType) LiteralValue() any              { return t.value }
func (t *tsType) TypeArguments() []typesys.Type  { return t.args }

func (t *tsType) Symbol() typesys.Symbol {
	if t.sym == nil {
		return nil
	}
	return t.sym
}

// AliasSymbol is the type alias a type was declared through, if any.
func (t *tsType) AliasSymbol() typesys.Symbol {
	if t.aliasSym == nil {
		return nil
	}
	return t.aliasSym
}

func (t *tsType) CallSignatures() []typesys.Signature      { return t.structure().calls }
func (t *tsType) ConstructSignatures() []typesys.Signature { return t.structure().ctors }
func (t *tsType) StringIndexType() typesys.Type            { return t.structure().strIndex }
func (t *tsType) NumberIndexType() typesys.Type            { return t.structure().numIndex }

func (t *tsType) Properties() []typesys.Symbol {
	return toSymbols(t.structure().props)
}

// property finds a member by name.
func (t *tsType) property(name string) *symbol {
	for _, s := range t.structure().props {
		if s.name == name {
			return s
		}
	}
	return nil
}

// String renders the type for diagnostics.
func (t *tsType) String() string {
	if t.text != "" {
		return t.text
	}
	switch {
	case t.flags.Has(typesys.TypeLiteral):
		return fmt.Sprint(t.value)
	case t.flags.Has(typesys.TypeUnionOrIntersection):
		sep := " | "
		if t.flags.Has(typesys.TypeIntersection) {
			sep = " & "
		}
		parts := make([]string, len(t.types))
		for i, m := range t.types {
			parts[i] = typeString(m)
		}
		return strings.Join(parts, sep)
	case t.sym != nil && t.objFlags.Has(typesys.ObjectReference):
		if len(t.args) == 0 {
			return t.sym.name
		}
		parts := make([]string, len(t.args))
		for i, a := range t.args {
			parts[i] = typeString(a)
		}
		return t.sym.name + "<" + strings.Join(parts, ", ") + ">"
	case t.sym != nil:
		return "typeof " + t.sym.name
	}
	return t.flags.String()
}

func typeString(t typesys.Type) string {
	if s, ok := t.(fmt.Stringer); ok {
		return s.String()
	}
	return t.Flags().String()
}

// signature implements typesys.Signature.
type signature struct {
	c    *checker
	decl *typesys.Node
	syn  *sitter.Node
	mod  *module
	env  *typeEnv

	params  []*symbol
	bound   bool
	ret     typesys.Type
	retFunc func() typesys.Type
}

func (s *signature) Declaration() *typesys.Node { return s.decl }

func (s *signature) Parameters() []typesys.Symbol {
	if !s.bound {
		s.bound = true
		if s.syn != nil {
			s.params = s.c.bindParameters(s.mod, s.syn, s.decl, s.env)
		}
	}
	return toSymbols(s.params)
}

func (s *signature) ReturnType() typesys.Type {
	if s.ret == nil {
		if s.retFunc != nil {
			s.ret = s.retFunc()
		} else {
			s.ret = s.c.returnTypeOf(s.mod, s.syn, s.decl, s.env)
		}
	}
	return s.ret
}

// typeEnv binds type parameters to type arguments for one instantiation.
type typeEnv struct {
	bind map[*symbol]typesys.Type
	key  string
}

func newTypeEnv(params []*symbol, args []typesys.Type) *typeEnv {
	if len(params) == 0 {
		return nil
	}
	e := &typeEnv{bind: make(map[*symbol]typesys.Type, len(params))}
	parts := make([]string, 0, len(params))
	for i, p := range params {
		e.bind[p] = args[i]
		parts = append(parts, fmt.Sprintf("%p=%p", p, args[i]))
	}
	sort.Strings(parts)
	e.key = strings.Join(parts, ";")
	return e
}

// extend returns an environment holding e's bindings plus params → args.
func (e *typeEnv) extend(params []*symbol, args []typesys.Type) *typeEnv {
	if e == nil {
		return newTypeEnv(params, args)
	}
	all := make([]*symbol, 0, len(e.bind)+len(params))
	vals := make([]typesys.Type, 0, len(e.bind)+len(params))
	for p, v := range e.bind {
		all = append(all, p)
		vals = append(vals, v)
	}
	all = append(all, params...)
	vals = append(vals, args...)
	return newTypeEnv(all, vals)
}

func (e *typeEnv) lookup(tp *symbol) (typesys.Type, bool) {
	if e == nil {
		return nil, false
	}
	t, ok := e.bind[tp]
	return t, ok
}

func (e *typeEnv) cacheKey() string {
	if e == nil {
		return ""
	}
	return e.key
}
