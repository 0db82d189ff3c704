package program

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/tsschema/internal/typesys"
)

// typeKey caches the type built from one syntax node under one type
// parameter environment.
type typeKey struct {
	node nodeKey
	env  string
}

type checker struct {
	p *Program

	nodeTypes map[typeKey]*tsType
	refs      map[string]*tsType
	literals  map[string]*tsType
	clones    map[string]*symbol
	plain     map[*symbol]bool

	intrinsics map[typesys.TypeFlags]*tsType
	anyType    *tsType

	baseDepth int
}

var _ typesys.Checker = (*checker)(nil)

func newChecker(p *Program) *checker {
	c := &checker{
		p:          p,
		nodeTypes:  make(map[typeKey]*tsType),
		refs:       make(map[string]*tsType),
		literals:   make(map[string]*tsType),
		clones:     make(map[string]*symbol),
		plain:      make(map[*symbol]bool),
		intrinsics: make(map[typesys.TypeFlags]*tsType),
	}
	for flag, text := range map[typesys.TypeFlags]string{
		typesys.TypeAny:          "any",
		typesys.TypeUnknown:      "unknown",
		typesys.TypeString:       "string",
		typesys.TypeNumber:       "number",
		typesys.TypeBigInt:       "bigint",
		typesys.TypeESSymbol:     "symbol",
		typesys.TypeBoolean:      "boolean",
		typesys.TypeUndefined:    "undefined",
		typesys.TypeNull:         "null",
		typesys.TypeVoid:         "void",
		typesys.TypeNever:        "never",
		typesys.TypeNonPrimitive: "object",
	} {
		c.intrinsics[flag] = &tsType{flags: flag, text: text}
	}
	c.anyType = c.intrinsics[typesys.TypeAny]
	return c
}

func (c *checker) intrinsic(f typesys.TypeFlags) *tsType { return c.intrinsics[f] }

// literal returns the shared literal type for a value.
func (c *checker) literal(flags typesys.TypeFlags, value any) *tsType {
	key := fmt.Sprintf("%d:%v", flags, value)
	if t, ok := c.literals[key]; ok {
		return t
	}
	t := &tsType{flags: flags, value: value}
	if s, ok := value.(string); ok && flags.Has(typesys.TypeStringLiteral) {
		t.text = fmt.Sprintf("%q", s)
	}
	c.literals[key] = t
	return t
}

func asSymbol(s typesys.Symbol) *symbol {
	if sym, ok := s.(*symbol); ok {
		return sym
	}
	return nil
}

// TypeOfSymbolAtLocation returns the value-side type of a symbol. Interfaces,
// type aliases and type parameters have no value side and report any.
func (c *checker) TypeOfSymbolAtLocation(sym typesys.Symbol, _ *typesys.Node) typesys.Type {
	s := asSymbol(sym)
	if s == nil {
		return c.anyType
	}
	return c.typeOfSymbol(s)
}

// DeclaredTypeOfSymbol returns the type a symbol declares: the instance type
// of a class, an interface type, an alias's target, a type parameter.
func (c *checker) DeclaredTypeOfSymbol(sym typesys.Symbol) typesys.Type {
	s := asSymbol(sym)
	if s == nil {
		return c.anyType
	}
	return c.declaredTypeOfSymbol(s)
}

// TypeAtLocation returns the type written at a type node, such as a heritage
// target or a type parameter constraint, or the type of a declaration.
func (c *checker) TypeAtLocation(n *typesys.Node) typesys.Type {
	if n == nil {
		return c.anyType
	}
	if s, ok := c.p.nodeSyms[n]; ok {
		return c.typeOfSymbol(s)
	}
	syn, m := c.p.syntaxOf[n], c.p.moduleOf[n]
	if syn == nil || m == nil {
		return c.anyType
	}
	if args, ok := c.p.heritage[n]; ok || isHeritageTarget(syn) {
		return c.heritageType(m, syn, args, nil)
	}
	if n.Kind == typesys.KindExpression {
		return c.infer(m, syn, nil, false)
	}
	return c.typeFromNode(m, syn, nil)
}

// SymbolAtLocation returns the symbol declared by, or named at, a node.
func (c *checker) SymbolAtLocation(n *typesys.Node) typesys.Symbol {
	if s, ok := c.p.nodeSyms[n]; ok {
		return s
	}
	if n != nil && n.Parent != nil && n.Parent.Name == n {
		if s, ok := c.p.nodeSyms[n.Parent]; ok {
			return s
		}
	}
	return nil
}

// TypeToString renders a type for diagnostics.
func (c *checker) TypeToString(t typesys.Type) string {
	if t == nil {
		return "<nil>"
	}
	return typeString(t)
}

func isHeritageTarget(syn *sitter.Node) bool {
	p := syn.Parent()
	if p == nil {
		return false
	}
	switch p.Type() {
	case "extends_clause", "implements_clause", "extends_type_clause":
		return true
	}
	return false
}

// heritageType resolves an extends or implements target. Class extends
// clauses hold expressions with type arguments as a sibling node.
func (c *checker) heritageType(m *module, syn, args *sitter.Node, env *typeEnv) typesys.Type {
	switch syn.Type() {
	case "identifier", "type_identifier":
		return c.resolveTypeName(m, syn, content(syn, m.src), c.typeArgs(m, args, env), env)
	case "member_expression", "nested_type_identifier":
		return c.qualifiedName(m, syn, c.typeArgs(m, args, env), env)
	case "generic_type":
		return c.typeFromNode(m, syn, env)
	case "call_expression":
		return c.anyType
	}
	return c.typeFromNode(m, syn, env)
}

func (c *checker) typeOfSymbol(s *symbol) typesys.Type {
	if s.typ != nil {
		return s.typ
	}
	if s.alias == nil && s.target != nil {
		return c.typeOfSymbol(s.origin())
	}
	if s.resolving {
		return c.anyType
	}
	s.resolving = true
	defer func() { s.resolving = false }()

	s.typ = c.computeTypeOfSymbol(s)
	return s.typ
}

func (c *checker) computeTypeOfSymbol(s *symbol) typesys.Type {
	f := s.flags
	switch {
	case f.Has(typesys.SymbolAlias):
		return c.typeOfAlias(s)
	case f.Has(typesys.SymbolPrototype):
		if owner := s.owner(); owner != nil {
			return c.declaredTypeOfSymbol(owner)
		}
		return c.anyType
	case f.Has(typesys.SymbolClass):
		return c.staticType(s)
	case f.Has(typesys.SymbolEnum):
		return c.enumType(s)
	case f.Has(typesys.SymbolFunction | typesys.SymbolMethod):
		return c.functionType(s)
	case f.Has(typesys.SymbolInterface | typesys.SymbolTypeAlias | typesys.SymbolTypeParameter):
		return c.anyType
	case f.Has(typesys.SymbolEnumMember):
		return c.enumMemberType(s)
	case f.Has(typesys.SymbolGetAccessor | typesys.SymbolSetAccessor):
		return c.accessorType(s)
	case f.Has(typesys.SymbolModule):
		return c.anyType
	}
	return c.valueType(s)
}

// typeOfAlias follows an import or re-export to its target's type. Targets
// that cannot be loaded become external references named after the import.
func (c *checker) typeOfAlias(s *symbol) typesys.Type {
	target := c.p.resolveSymbol(s)
	if target == nil {
		name := s.alias.imported
		if name == "*" || name == "default" {
			name = s.alias.specifier
		}
		return c.ref(c.p.external(name), nil)
	}
	if isModuleObject(target) {
		return c.ref(c.p.external(s.alias.specifier), nil)
	}
	return c.typeOfSymbol(target)
}

// valueType types variables, properties, parameters and default-export
// expressions from their annotation or, failing that, their initializer.
func (c *checker) valueType(s *symbol) typesys.Type {
	syn := s.firstSyntax()
	if syn == nil {
		return c.anyType
	}
	m := s.mod
	if len(s.decls) > 0 && s.decls[0].Kind == typesys.KindExpression {
		return c.infer(m, syn, s.env, false)
	}
	if ann := field(syn, "type"); ann != nil {
		return c.typeFromNode(m, ann, s.env)
	}
	value := field(syn, "value")
	if value == nil {
		return c.anyType
	}
	keep := false
	if n := s.decls[0]; n.Flags&typesys.NodeConst != 0 || n.Modifiers.Has(typesys.ModifierReadonly) {
		keep = true
	}
	return c.infer(m, value, s.env, keep)
}

// accessorType takes a getter's return type, or a setter's parameter type.
func (c *checker) accessorType(s *symbol) typesys.Type {
	var setter *sitter.Node
	for i, syn := range s.syntax {
		switch s.decls[i].Kind {
		case typesys.KindGetAccessor:
			if rt := field(syn, "return_type"); rt != nil {
				return c.typeFromNode(s.mod, rt, s.env)
			}
			return c.inferReturn(s.mod, syn, s.env)
		case typesys.KindSetAccessor:
			setter = syn
		}
	}
	if setter != nil {
		for _, param := range namedChildren(field(setter, "parameters")) {
			if ann := field(param, "type"); ann != nil {
				return c.typeFromNode(s.mod, ann, s.env)
			}
		}
	}
	return c.anyType
}

func (c *checker) declaredTypeOfSymbol(s *symbol) typesys.Type {
	if s.declared != nil {
		return s.declared
	}
	if s.alias == nil && s.target != nil {
		return c.declaredTypeOfSymbol(s.origin())
	}
	if s.alias != nil {
		target := c.p.resolveSymbol(s)
		if target == nil {
			return c.typeOfAlias(s)
		}
		return c.declaredTypeOfSymbol(target)
	}
	switch {
	case s.flags.Has(typesys.SymbolClass):
		s.declared = c.instanceType(s)
	case s.flags.Has(typesys.SymbolInterface):
		s.declared = c.interfaceType(s)
	case s.flags.Has(typesys.SymbolTypeAlias):
		s.declared = c.aliasType(s, nil)
	case s.flags.Has(typesys.SymbolTypeParameter):
		s.declared = c.typeParamType(s)
	case s.flags.Has(typesys.SymbolEnum):
		s.declared = c.ref(s, nil)
	default:
		return c.typeOfSymbol(s)
	}
	return s.declared
}

// aliasType instantiates a type alias. The alias symbol is recorded on the
// type only when the type was created for the alias body itself.
func (c *checker) aliasType(s *symbol, args []typesys.Type) typesys.Type {
	syn := s.firstSyntax()
	body := field(syn, "value")
	if body == nil {
		return c.anyType
	}
	env := c.bindTypeArgs(s, args)
	t := c.typeFromNode(s.mod, body, env)
	if tt, ok := t.(*tsType); ok && tt.aliasSym == nil && tt.origin != nil && sameNode(tt.origin, body) {
		tt.aliasSym = s
	}
	return t
}

func (c *checker) typeParamType(s *symbol) *tsType {
	if t, ok := s.declared.(*tsType); ok {
		return t
	}
	t := &tsType{flags: typesys.TypeTypeParameter, sym: s, text: s.name}
	s.declared = t
	return t
}

// typeParamsOf lists the type parameter symbols of the first declaration
// that declares any.
func (c *checker) typeParamsOf(s *symbol) []*symbol {
	for _, syn := range s.syntax {
		tps := field(syn, "type_parameters")
		if tps == nil {
			continue
		}
		var out []*symbol
		for _, tp := range namedChildren(tps) {
			if tp.Type() == "type_parameter" {
				out = append(out, c.p.typeParamSymbol(s.mod, tp))
			}
		}
		return out
	}
	return nil
}

// bindTypeArgs maps a generic declaration's type parameters to args, filling
// missing arguments from defaults. With no arguments at all the parameters
// stay unbound.
func (c *checker) bindTypeArgs(s *symbol, args []typesys.Type) *typeEnv {
	if len(args) == 0 {
		return nil
	}
	tps := c.typeParamsOf(s)
	if len(tps) == 0 {
		return nil
	}
	filled := make([]typesys.Type, len(tps))
	for i, tp := range tps {
		switch {
		case i < len(args):
			filled[i] = args[i]
		case tp.decls[0].Default != nil:
			filled[i] = c.typeFromNode(tp.mod, c.p.syntaxOf[tp.decls[0].Default], nil)
		default:
			filled[i] = c.typeParamType(tp)
		}
	}
	return newTypeEnv(tps, filled)
}

// ref returns the shared reference type for a named declaration and its
// type arguments.
func (c *checker) ref(s *symbol, args []typesys.Type) *tsType {
	var b strings.Builder
	fmt.Fprintf(&b, "%p", s)
	for _, a := range args {
		fmt.Fprintf(&b, ",%p", a)
	}
	key := b.String()
	if t, ok := c.refs[key]; ok {
		return t
	}
	t := &tsType{flags: typesys.TypeObject, objFlags: typesys.ObjectReference, sym: s, args: args}
	if len(s.decls) > 0 {
		env := c.bindTypeArgs(s, args)
		switch {
		case s.flags.Has(typesys.SymbolClass):
			t.build = func(st *structure) { c.buildInstance(s, env, st) }
		case s.flags.Has(typesys.SymbolInterface):
			t.build = func(st *structure) { c.buildInterface(s, env, st) }
		}
	}
	c.refs[key] = t
	return t
}

// arrayRef is T[] and Array<T>.
func (c *checker) arrayRef(name string, elem typesys.Type) *tsType {
	key := fmt.Sprintf("%s[]%p", name, elem)
	if t, ok := c.refs[key]; ok {
		return t
	}
	t := &tsType{
		flags:    typesys.TypeObject,
		objFlags: typesys.ObjectReference,
		sym:      c.p.external(name),
		args:     []typesys.Type{elem},
	}
	t.st = &structure{numIndex: elem}
	c.refs[key] = t
	return t
}
