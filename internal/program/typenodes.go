package program

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/tsschema/internal/typesys"
)

var predefinedTypes = map[string]typesys.TypeFlags{
	"any":           typesys.TypeAny,
	"unknown":       typesys.TypeUnknown,
	"string":        typesys.TypeString,
	"number":        typesys.TypeNumber,
	"bigint":        typesys.TypeBigInt,
	"symbol":        typesys.TypeESSymbol,
	"unique symbol": typesys.TypeESSymbol,
	"boolean":       typesys.TypeBoolean,
	"undefined":     typesys.TypeUndefined,
	"null":          typesys.TypeNull,
	"void":          typesys.TypeVoid,
	"never":         typesys.TypeNever,
	"object":        typesys.TypeNonPrimitive,
}

// typeFromNode builds the type written at a type syntax node. Composite
// types are cached per node and environment so that a type reached twice
// through a recursive alias is the same value.
func (c *checker) typeFromNode(m *module, syn *sitter.Node, env *typeEnv) typesys.Type {
	if syn == nil {
		return c.anyType
	}
	switch syn.Type() {
	case "type_annotation", "opting_type_annotation", "omitting_type_annotation", "adding_type_annotation",
		"parenthesized_type", "readonly_type", "optional_type", "rest_type":
		return c.typeFromNode(m, lastNamed(syn), env)
	case "type_predicate_annotation", "type_predicate":
		return c.intrinsic(typesys.TypeBoolean)
	case "asserts_annotation", "asserts":
		return c.intrinsic(typesys.TypeVoid)
	case "predefined_type":
		if f, ok := predefinedTypes[strings.Join(strings.Fields(content(syn, m.src)), " ")]; ok {
			return c.intrinsic(f)
		}
		return c.anyType
	case "literal_type":
		return c.literalType(m, syn)
	case "type_identifier", "identifier":
		return c.resolveTypeName(m, syn, content(syn, m.src), nil, env)
	case "nested_type_identifier":
		return c.qualifiedName(m, syn, nil, env)
	case "generic_type":
		name := field(syn, "name")
		args := c.typeArgs(m, field(syn, "type_arguments"), env)
		if name != nil && name.Type() == "nested_type_identifier" {
			return c.qualifiedName(m, name, args, env)
		}
		return c.resolveTypeName(m, name, content(name, m.src), args, env)
	case "array_type":
		return c.arrayRef("Array", c.typeFromNode(m, lastNamed(syn), env))
	case "this_type":
		return c.thisType(m, syn)
	case "type_query":
		return c.typeQuery(m, syn, env)
	case "lookup_type":
		return c.lookupType(m, syn, env)
	case "existential_type", "infer_type":
		return c.anyType
	}

	key := typeKey{node: keyOf(m.path, syn), env: env.cacheKey()}
	if t, ok := c.nodeTypes[key]; ok {
		return t
	}
	t := &tsType{origin: syn, text: content(syn, m.src)}
	c.nodeTypes[key] = t

	switch syn.Type() {
	case "union_type":
		t.flags = typesys.TypeUnion
		t.types = c.flatten(m, syn, env, typesys.TypeUnion)
	case "intersection_type":
		t.flags = typesys.TypeIntersection
		t.types = c.flatten(m, syn, env, typesys.TypeIntersection)
	case "tuple_type":
		c.tupleType(m, syn, env, t)
	case "object_type":
		if isMapped(syn) {
			t.flags = typesys.TypeMapped
			break
		}
		c.typeLiteral(m, syn, env, t)
	case "function_type", "constructor_type":
		t.flags, t.objFlags = typesys.TypeObject, typesys.ObjectAnonymous
		decl := c.p.spanNode(m, syn, typesys.KindFunctionType, nil)
		sig := &signature{c: c, decl: decl, syn: syn, mod: m, env: env}
		if syn.Type() == "constructor_type" {
			t.st = &structure{ctors: []typesys.Signature{sig}}
		} else {
			t.st = &structure{calls: []typesys.Signature{sig}}
		}
	case "index_type_query":
		t.flags = typesys.TypeIndex
		t.args = []typesys.Type{c.typeFromNode(m, lastNamed(syn), env)}
	case "template_literal_type":
		t.flags = typesys.TypeTemplateLiteral
	case "conditional_type":
		t.flags = typesys.TypeConditional
	default:
		t.flags = typesys.TypeAny
	}
	return t
}

// flatten collects union or intersection members in declaration order,
// splicing in nested unions (including those reached through aliases)
// without removing duplicates.
func (c *checker) flatten(m *module, syn *sitter.Node, env *typeEnv, flag typesys.TypeFlags) []typesys.Type {
	var out []typesys.Type
	for _, ch := range namedChildren(syn) {
		if ch.Type() == syn.Type() {
			out = append(out, c.flatten(m, ch, env, flag)...)
			continue
		}
		t := c.typeFromNode(m, ch, env)
		if t.Flags().Has(flag) && len(t.Types()) > 0 {
			out = append(out, t.Types()...)
			continue
		}
		out = append(out, t)
	}
	return out
}

func (c *checker) typeArgs(m *module, args *sitter.Node, env *typeEnv) []typesys.Type {
	if args == nil {
		return nil
	}
	var out []typesys.Type
	for _, a := range namedChildren(args) {
		out = append(out, c.typeFromNode(m, a, env))
	}
	return out
}

func (c *checker) literalType(m *module, syn *sitter.Node) typesys.Type {
	lit := lastNamed(syn)
	if lit == nil {
		return c.anyType
	}
	raw := content(lit, m.src)
	switch lit.Type() {
	case "string":
		return c.literal(typesys.TypeStringLiteral, unquote(raw))
	case "number", "unary_expression":
		if strings.HasSuffix(raw, "n") {
			return c.literal(typesys.TypeBigIntLiteral, raw)
		}
		if v, ok := numericValue(lit, m.src); ok {
			return c.literal(typesys.TypeNumberLiteral, v)
		}
		return c.intrinsic(typesys.TypeNumber)
	case "true":
		return c.literal(typesys.TypeBooleanLiteral, true)
	case "false":
		return c.literal(typesys.TypeBooleanLiteral, false)
	case "null":
		return c.intrinsic(typesys.TypeNull)
	case "undefined":
		return c.intrinsic(typesys.TypeUndefined)
	}
	return c.anyType
}

// resolveTypeName looks a type name up in scope: type parameters of the
// enclosing declarations first, then the module's declarations and imports,
// then the built-in array and record types. Anything else is an external
// reference.
func (c *checker) resolveTypeName(m *module, at *sitter.Node, name string, args []typesys.Type, env *typeEnv) typesys.Type {
	if at != nil && len(args) == 0 {
		if tp := c.typeParamInScope(m, at, name); tp != nil {
			if t, ok := env.lookup(tp); ok {
				return t
			}
			return c.typeParamType(tp)
		}
	}
	if s := m.locals.get(name); s != nil {
		if target := c.p.resolveSymbol(s); target != nil {
			return c.namedType(target, args)
		}
		if s.alias != nil && s.alias.imported != "*" && s.alias.imported != "default" {
			name = s.alias.imported
		}
		return c.ref(c.p.external(name), args)
	}
	switch name {
	case "Array", "ReadonlyArray":
		if len(args) == 1 {
			return c.arrayRef(name, args[0])
		}
	case "Record":
		if len(args) == 2 {
			return c.recordRef(args)
		}
	}
	return c.ref(c.p.external(name), args)
}

func (c *checker) typeParamInScope(m *module, at *sitter.Node, name string) *symbol {
	for cur := at.Parent(); cur != nil; cur = cur.Parent() {
		for _, tp := range namedChildren(field(cur, "type_parameters")) {
			if tp.Type() == "type_parameter" && content(field(tp, "name"), m.src) == name {
				return c.p.typeParamSymbol(m, tp)
			}
		}
	}
	return nil
}

// namedType is the type a resolved declaration contributes when named in a
// type position.
func (c *checker) namedType(s *symbol, args []typesys.Type) typesys.Type {
	switch {
	case s.flags.Has(typesys.SymbolTypeParameter):
		return c.typeParamType(s)
	case len(args) == 0 && c.plainInterface(s):
		return c.declaredTypeOfSymbol(s)
	case s.flags.Has(typesys.SymbolClass | typesys.SymbolInterface | typesys.SymbolEnum):
		return c.ref(s, args)
	case s.flags.Has(typesys.SymbolTypeAlias):
		return c.aliasType(s, args)
	}
	return c.ref(s, args)
}

// plainInterface reports an interface that is neither generic nor refers to
// this. Only such interfaces are used as their declared type; the rest are
// instantiated through references.
func (c *checker) plainInterface(s *symbol) bool {
	if !s.flags.Has(typesys.SymbolInterface) || s.flags.Has(typesys.SymbolClass) || len(s.decls) == 0 {
		return false
	}
	if plain, ok := c.plain[s]; ok {
		return plain
	}
	plain := len(c.typeParamsOf(s)) == 0
	for _, syn := range s.syntax {
		if !plain {
			break
		}
		plain = !containsKind(syn, "this_type")
	}
	c.plain[s] = plain
	return plain
}

func containsKind(n *sitter.Node, kind string) bool {
	if n == nil {
		return false
	}
	if n.Type() == kind {
		return true
	}
	for i := range int(n.ChildCount()) {
		if containsKind(n.Child(i), kind) {
			return true
		}
	}
	return false
}

// qualifiedName resolves ns.Name through a namespace import; other qualified
// names are external references.
func (c *checker) qualifiedName(m *module, syn *sitter.Node, args []typesys.Type, _ *typeEnv) typesys.Type {
	text := strings.Join(strings.Fields(content(syn, m.src)), "")
	parts := strings.Split(text, ".")
	if len(parts) == 2 {
		if s := m.locals.get(parts[0]); s != nil {
			if target := c.p.resolveSymbol(s); target != nil && isModuleObject(target) {
				exported := c.p.exportsOf(target.mod, map[*module]bool{}).get(parts[1])
				if resolved := c.p.resolveSymbol(exported); resolved != nil {
					return c.namedType(resolved, args)
				}
			}
		}
	}
	return c.ref(c.p.external(text), args)
}

func (c *checker) recordRef(args []typesys.Type) typesys.Type {
	key := fmt.Sprintf("Record%p,%p", args[0], args[1])
	if t, ok := c.refs[key]; ok {
		return t
	}
	t := &tsType{
		flags:    typesys.TypeObject,
		objFlags: typesys.ObjectReference,
		sym:      c.p.external("Record"),
		args:     args,
		st:       &structure{},
	}
	switch {
	case args[0].Flags().Has(typesys.TypeString):
		t.st.strIndex = args[1]
	case args[0].Flags().Has(typesys.TypeNumber):
		t.st.numIndex = args[1]
	}
	c.refs[key] = t
	return t
}

// thisType refers to the enclosing class or interface.
func (c *checker) thisType(m *module, syn *sitter.Node) typesys.Type {
	for cur := syn.Parent(); cur != nil; cur = cur.Parent() {
		switch cur.Type() {
		case "class_declaration", "abstract_class_declaration", "class", "interface_declaration":
			if n, ok := c.p.nodes[keyOf(m.path, cur)]; ok {
				if s, ok := c.p.nodeSyms[n]; ok {
					return c.ref(s, nil)
				}
			}
			return c.anyType
		}
	}
	return c.anyType
}

// typeQuery is typeof x for a name in scope.
func (c *checker) typeQuery(m *module, syn *sitter.Node, env *typeEnv) typesys.Type {
	target := lastNamed(syn)
	if target == nil || target.Type() != "identifier" {
		return c.anyType
	}
	return c.infer(m, target, env, true)
}

// lookupType is T[K]. Literal keys into known object types resolve to the
// property's type; other forms stay indexed access types.
func (c *checker) lookupType(m *module, syn *sitter.Node, env *typeEnv) typesys.Type {
	kids := namedChildren(syn)
	if len(kids) != 2 {
		return c.anyType
	}
	obj := c.typeFromNode(m, kids[0], env)
	idx := c.typeFromNode(m, kids[1], env)
	if ot, ok := obj.(*tsType); ok && ot.flags.Has(typesys.TypeObject) {
		if name, ok := idx.LiteralValue().(string); ok {
			if prop := ot.property(name); prop != nil {
				return c.typeOfSymbol(prop)
			}
		}
		if idx.Flags().Has(typesys.TypeNumber|typesys.TypeNumberLiteral) && ot.structure().numIndex != nil {
			return ot.structure().numIndex
		}
	}
	return &tsType{
		flags: typesys.TypeIndexedAccess,
		args:  []typesys.Type{obj, idx},
		text:  content(syn, m.src),
	}
}

func (c *checker) tupleType(m *module, syn *sitter.Node, env *typeEnv, t *tsType) {
	var elems []typesys.Type
	for _, el := range namedChildren(syn) {
		if inner := field(el, "type"); inner != nil {
			el = inner
		}
		elems = append(elems, c.typeFromNode(m, el, env))
	}
	t.flags = typesys.TypeObject
	t.objFlags = typesys.ObjectReference | typesys.ObjectTuple
	t.sym = c.p.external("Array")
	t.args = elems
	var index typesys.Type
	switch len(elems) {
	case 0:
		index = c.intrinsic(typesys.TypeNever)
	case 1:
		index = elems[0]
	default:
		index = &tsType{flags: typesys.TypeUnion, types: elems, text: content(syn, m.src)}
	}
	t.st = &structure{numIndex: index}
}

func isMapped(syn *sitter.Node) bool {
	for _, member := range namedChildren(syn) {
		if member.Type() == "index_signature" && firstChildOf(member, "mapped_type_clause") != nil {
			return true
		}
	}
	return false
}

// typeLiteral fills t as the anonymous object type of a type literal.
func (c *checker) typeLiteral(m *module, syn *sitter.Node, env *typeEnv, t *tsType) {
	s := &symbol{name: "__type", flags: typesys.SymbolTypeLiteral, mod: m}
	s.addDecl(c.p.spanNode(m, syn, typesys.KindTypeNode, nil), syn, false)
	t.flags, t.objFlags, t.sym = typesys.TypeObject, typesys.ObjectAnonymous, s
	t.build = func(st *structure) {
		c.bindMembers(s)
		for _, p := range s.members.list() {
			p.env = env
			st.props = append(st.props, p)
		}
		st.calls = c.memberSignatures(s, s.callSyntax, typesys.KindCallSignature, env)
		st.ctors = c.memberSignatures(s, s.newSyntax, typesys.KindConstructSignature, env)
		c.indexInfo(s, env, st)
	}
}
