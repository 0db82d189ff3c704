package program

import (
	"fmt"
	"math"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/tsschema/internal/typesys"
)

// maxBaseDepth bounds heritage chains while building inherited members.
const maxBaseDepth = 32

// bindMembers binds the members of every declaration merged into s: class
// bodies, interface bodies, enum bodies and type literals.
func (c *checker) bindMembers(s *symbol) {
	if s.membersBound {
		return
	}
	s.membersBound = true
	s.members = newSymbolTable()
	s.statics = newSymbolTable()
	for i, syn := range s.syntax {
		owner := s.decls[i]
		switch syn.Type() {
		case "class_declaration", "abstract_class_declaration", "class":
			c.bindClassBody(s, owner, field(syn, "body"))
		case "interface_declaration":
			c.bindTypeMembers(s, owner, field(syn, "body"))
		case "enum_declaration":
			c.bindEnumBody(s, owner, field(syn, "body"))
		case "object_type":
			c.bindTypeMembers(s, owner, syn)
		case "object":
			c.bindObjectLiteral(s, owner, syn)
		}
	}
}

func (c *checker) addMember(parent *symbol, table *symbolTable, name string, flags typesys.SymbolFlags,
	kind typesys.SyntaxKind, syn *sitter.Node, owner *typesys.Node) *symbol {
	n := c.p.declNode(parent.mod, syn, kind, syn, owner)
	if n.Name == nil {
		if nameNode := field(syn, "key"); nameNode != nil {
			n.Name = c.p.spanNode(parent.mod, nameNode, typesys.KindIdentifier, n)
		}
	}
	s := table.get(name)
	if s == nil {
		s = &symbol{name: name, mod: parent.mod, parent: parent}
		table.set(name, s)
	}
	s.flags |= flags
	if n.Flags&typesys.NodeOptional != 0 {
		s.flags |= typesys.SymbolOptional
	}
	s.addDecl(n, syn, true)
	c.p.nodeSyms[n] = s
	return s
}

func methodFlags(syn *sitter.Node, kind typesys.SyntaxKind) (typesys.SymbolFlags, typesys.SyntaxKind) {
	switch {
	case hasToken(syn, "get"):
		return typesys.SymbolGetAccessor, typesys.KindGetAccessor
	case hasToken(syn, "set"):
		return typesys.SymbolSetAccessor, typesys.KindSetAccessor
	}
	return typesys.SymbolMethod, kind
}

func (c *checker) bindClassBody(s *symbol, owner *typesys.Node, body *sitter.Node) {
	src := s.mod.src
	for _, member := range namedChildren(body) {
		table := s.members
		if hasToken(member, "static") {
			table = s.statics
		}
		switch member.Type() {
		case "method_definition", "method_signature", "abstract_method_signature":
			name := memberName(field(member, "name"), src)
			if name == "constructor" {
				s.ctorSyntax = append(s.ctorSyntax, member)
				c.bindParameterProperties(s, owner, member)
				continue
			}
			flags, kind := methodFlags(member, typesys.KindMethodDeclaration)
			c.addMember(s, table, name, flags, kind, member, owner)
		case "public_field_definition":
			name := memberName(field(member, "name"), src)
			c.addMember(s, table, name, typesys.SymbolProperty, typesys.KindPropertyDeclaration, member, owner)
		case "index_signature":
			s.indexSyntax = append(s.indexSyntax, member)
		}
	}
}

// bindParameterProperties declares instance properties for constructor
// parameters carrying an accessibility or readonly modifier.
func (c *checker) bindParameterProperties(s *symbol, owner *typesys.Node, ctor *sitter.Node) {
	for _, param := range namedChildren(field(ctor, "parameters")) {
		if firstChildOf(param, "accessibility_modifier") == nil && !hasToken(param, "readonly") {
			continue
		}
		pattern := field(param, "pattern")
		if pattern == nil || pattern.Type() != "identifier" {
			continue
		}
		m := c.addMember(s, s.members, content(pattern, s.mod.src), typesys.SymbolProperty,
			typesys.KindPropertyDeclaration, param, owner)
		if n := m.decls[len(m.decls)-1]; n.Name == nil {
			n.Name = c.p.spanNode(s.mod, pattern, typesys.KindIdentifier, n)
		}
	}
}

// bindTypeMembers binds interface and type literal members.
func (c *checker) bindTypeMembers(s *symbol, owner *typesys.Node, body *sitter.Node) {
	src := s.mod.src
	for _, member := range namedChildren(body) {
		switch member.Type() {
		case "property_signature":
			name := memberName(field(member, "name"), src)
			c.addMember(s, s.members, name, typesys.SymbolProperty, typesys.KindPropertySignature, member, owner)
		case "method_signature":
			name := memberName(field(member, "name"), src)
			flags, kind := methodFlags(member, typesys.KindMethodSignature)
			c.addMember(s, s.members, name, flags, kind, member, owner)
		case "call_signature":
			s.callSyntax = append(s.callSyntax, member)
		case "construct_signature":
			s.newSyntax = append(s.newSyntax, member)
		case "index_signature":
			s.indexSyntax = append(s.indexSyntax, member)
		}
	}
}

// bindEnumBody binds enum members and assigns their values: explicit numeric
// or string initializers, otherwise one more than the previous numeric value.
func (c *checker) bindEnumBody(s *symbol, owner *typesys.Node, body *sitter.Node) {
	src := s.mod.src
	next, known := 0.0, true
	for _, member := range namedChildren(body) {
		nameNode := member
		if member.Type() == "enum_assignment" {
			nameNode = field(member, "name")
		}
		m := c.addMember(s, s.members, memberName(nameNode, src), typesys.SymbolEnumMember,
			typesys.KindEnumMember, member, owner)
		if n := m.decls[len(m.decls)-1]; n.Name == nil {
			n.Name = c.p.spanNode(s.mod, nameNode, typesys.KindIdentifier, n)
		}

		value := field(member, "value")
		switch {
		case value == nil && known:
			m.typ = c.literal(typesys.TypeNumberLiteral|typesys.TypeEnumLiteral, next)
			next++
		case value == nil:
			m.typ = c.intrinsic(typesys.TypeNumber)
		case value.Type() == "string":
			m.typ = c.literal(typesys.TypeStringLiteral|typesys.TypeEnumLiteral, unquote(content(value, src)))
			known = false
		default:
			if v, ok := numericValue(value, src); ok {
				m.typ = c.literal(typesys.TypeNumberLiteral|typesys.TypeEnumLiteral, v)
				next, known = v+1, true
			} else {
				m.typ = c.intrinsic(typesys.TypeNumber)
				known = false
			}
		}
	}
}

// numericValue evaluates a number literal, optionally negated.
func numericValue(n *sitter.Node, src []byte) (float64, bool) {
	switch n.Type() {
	case "number":
		return parseNumber(content(n, src))
	case "unary_expression":
		arg := field(n, "argument")
		if arg == nil || arg.Type() != "number" {
			return 0, false
		}
		v, ok := parseNumber(content(arg, src))
		switch content(field(n, "operator"), src) {
		case "-":
			return -v, ok
		case "+":
			return v, ok
		}
	case "parenthesized_expression":
		if inner := lastNamed(n); inner != nil {
			return numericValue(inner, src)
		}
	}
	return math.NaN(), false
}

// bindObjectLiteral binds the properties and methods of an object literal.
func (c *checker) bindObjectLiteral(s *symbol, owner *typesys.Node, obj *sitter.Node) {
	src := s.mod.src
	for _, member := range namedChildren(obj) {
		switch member.Type() {
		case "pair":
			name := memberName(field(member, "key"), src)
			c.addMember(s, s.members, name, typesys.SymbolProperty, typesys.KindPropertyDeclaration, member, owner)
		case "shorthand_property_identifier":
			name := content(member, src)
			m := c.addMember(s, s.members, name, typesys.SymbolProperty, typesys.KindPropertyDeclaration, member, owner)
			m.typ = c.infer(s.mod, member, s.env, false)
			if n := m.decls[len(m.decls)-1]; n.Name == nil {
				n.Name = c.p.spanNode(s.mod, member, typesys.KindIdentifier, n)
			}
		case "method_definition":
			name := memberName(field(member, "name"), src)
			flags, kind := methodFlags(member, typesys.KindMethodDeclaration)
			c.addMember(s, s.members, name, flags, kind, member, owner)
		}
	}
}

// instantiate returns member m as seen through a generic instantiation.
func (c *checker) instantiate(m *symbol, env *typeEnv) *symbol {
	if env == nil {
		return m
	}
	key := fmt.Sprintf("%p|%s", m, env.key)
	if s, ok := c.clones[key]; ok {
		return s
	}
	s := &symbol{
		name:      m.name,
		flags:     m.flags,
		decls:     m.decls,
		valueDecl: m.valueDecl,
		mod:       m.mod,
		syntax:    m.syntax,
		env:       env,
		parent:    m.parent,
	}
	if m.flags.Has(typesys.SymbolEnumMember) {
		s.typ = m.typ
	}
	c.clones[key] = s
	return s
}

// instanceType is the declared type of a class: its instance side.
func (c *checker) instanceType(s *symbol) *tsType {
	t := &tsType{flags: typesys.TypeObject, objFlags: typesys.ObjectClass, sym: s}
	t.build = func(st *structure) { c.buildInstance(s, nil, st) }
	return t
}

// buildInstance lists own members in declaration order, then inherited
// members that are not overridden.
func (c *checker) buildInstance(s *symbol, env *typeEnv, st *structure) {
	c.bindMembers(s)
	seen := make(map[string]bool)
	for _, m := range s.members.list() {
		st.props = append(st.props, c.instantiate(m, env))
		seen[m.name] = true
	}
	c.indexInfo(s, env, st)
	for _, base := range c.baseTypes(s, env, true) {
		bs := base.structure()
		for _, bp := range bs.props {
			if !seen[bp.name] {
				st.props = append(st.props, bp)
				seen[bp.name] = true
			}
		}
		if st.strIndex == nil {
			st.strIndex = bs.strIndex
		}
		if st.numIndex == nil {
			st.numIndex = bs.numIndex
		}
	}
}

// staticType is the value side of a class: a synthetic prototype property,
// the statics, inherited statics, and the construct signatures.
func (c *checker) staticType(s *symbol) *tsType {
	t := &tsType{flags: typesys.TypeObject, objFlags: typesys.ObjectAnonymous, sym: s}
	t.build = func(st *structure) {
		c.bindMembers(s)
		proto := &symbol{name: "prototype", flags: typesys.SymbolProperty | typesys.SymbolPrototype, mod: s.mod, parent: s}
		st.props = append(st.props, proto)
		seen := map[string]bool{"prototype": true}
		for _, m := range s.statics.list() {
			st.props = append(st.props, m)
			seen[m.name] = true
		}
		bases := c.baseTypes(s, nil, true)
		for _, base := range bases {
			if base.sym == nil || !base.sym.flags.Has(typesys.SymbolClass) {
				continue
			}
			bst, ok := c.typeOfSymbol(base.sym).(*tsType)
			if !ok {
				continue
			}
			for _, bp := range bst.structure().props {
				if !seen[bp.name] {
					st.props = append(st.props, bp)
					seen[bp.name] = true
				}
			}
		}
		st.ctors = c.constructSignatures(s, bases)
	}
	return t
}

// constructSignatures prefers overload signatures over the implementation.
// A class without a constructor inherits its base class's signatures, or gets
// an implicit one with no declaration.
func (c *checker) constructSignatures(s *symbol, bases []*tsType) []typesys.Signature {
	instance := c.declaredTypeOfSymbol(s)
	owner := s.valueDecl
	if owner == nil && len(s.decls) > 0 {
		owner = s.decls[0]
	}
	var sigs []typesys.Signature
	for _, syn := range implementationHidden(s.ctorSyntax) {
		decl := c.p.declNode(s.mod, syn, typesys.KindConstructor, syn, owner)
		sigs = append(sigs, &signature{c: c, decl: decl, syn: syn, mod: s.mod, ret: instance})
	}
	if len(sigs) > 0 {
		return sigs
	}
	for _, base := range bases {
		if base.sym == nil || !base.sym.flags.Has(typesys.SymbolClass) {
			continue
		}
		bst, ok := c.typeOfSymbol(base.sym).(*tsType)
		if !ok {
			continue
		}
		env := c.bindTypeArgs(base.sym, base.args)
		for _, bs := range bst.structure().ctors {
			b, ok := bs.(*signature)
			if !ok {
				continue
			}
			sigs = append(sigs, &signature{c: c, decl: b.decl, syn: b.syn, mod: b.mod, env: env, ret: instance})
		}
		if len(sigs) > 0 {
			return sigs
		}
	}
	return []typesys.Signature{&signature{c: c, bound: true, ret: instance}}
}

// implementationHidden drops bodies when overload signatures exist.
func implementationHidden(syntax []*sitter.Node) []*sitter.Node {
	overloads := 0
	for _, syn := range syntax {
		if field(syn, "body") == nil {
			overloads++
		}
	}
	if overloads == 0 || overloads == len(syntax) {
		return syntax
	}
	out := make([]*sitter.Node, 0, overloads)
	for _, syn := range syntax {
		if field(syn, "body") == nil {
			out = append(out, syn)
		}
	}
	return out
}

// interfaceType is the declared type of an interface.
func (c *checker) interfaceType(s *symbol) *tsType {
	t := &tsType{flags: typesys.TypeObject, objFlags: typesys.ObjectInterface, sym: s}
	t.build = func(st *structure) { c.buildInterface(s, nil, st) }
	return t
}

// buildInterface lists merged members, then inherited members that are not
// redeclared.
func (c *checker) buildInterface(s *symbol, env *typeEnv, st *structure) {
	c.bindMembers(s)
	seen := make(map[string]bool)
	for _, m := range s.members.list() {
		st.props = append(st.props, c.instantiate(m, env))
		seen[m.name] = true
	}
	st.calls = c.memberSignatures(s, s.callSyntax, typesys.KindCallSignature, env)
	st.ctors = c.memberSignatures(s, s.newSyntax, typesys.KindConstructSignature, env)
	c.indexInfo(s, env, st)
	for _, base := range c.baseTypes(s, env, false) {
		bs := base.structure()
		for _, bp := range bs.props {
			if !seen[bp.name] {
				st.props = append(st.props, bp)
				seen[bp.name] = true
			}
		}
		if len(st.calls) == 0 {
			st.calls = bs.calls
		}
		if len(st.ctors) == 0 {
			st.ctors = bs.ctors
		}
		if st.strIndex == nil {
			st.strIndex = bs.strIndex
		}
		if st.numIndex == nil {
			st.numIndex = bs.numIndex
		}
	}
}

func (c *checker) memberSignatures(s *symbol, syntax []*sitter.Node, kind typesys.SyntaxKind, env *typeEnv) []typesys.Signature {
	owner := s.valueDecl
	if owner == nil && len(s.decls) > 0 {
		owner = s.decls[0]
	}
	sigs := make([]typesys.Signature, 0, len(syntax))
	for _, syn := range syntax {
		decl := c.p.declNode(s.mod, syn, kind, syn, owner)
		sigs = append(sigs, &signature{c: c, decl: decl, syn: syn, mod: s.mod, env: env})
	}
	return sigs
}

// indexInfo reads index signatures: a number key gives the number index, any
// other key the string index.
func (c *checker) indexInfo(s *symbol, env *typeEnv, st *structure) {
	for _, idx := range s.indexSyntax {
		value := c.typeFromNode(s.mod, field(idx, "type"), env)
		key := field(idx, "index_type")
		if key != nil && content(key, s.mod.src) == "number" {
			if st.numIndex == nil {
				st.numIndex = value
			}
			continue
		}
		if st.strIndex == nil {
			st.strIndex = value
		}
	}
}

// baseTypes resolves the heritage targets of a class (extends only) or an
// interface.
func (c *checker) baseTypes(s *symbol, env *typeEnv, extendsOnly bool) []*tsType {
	if c.baseDepth >= maxBaseDepth {
		return nil
	}
	c.baseDepth++
	defer func() { c.baseDepth-- }()

	var out []*tsType
	for _, decl := range s.decls {
		for _, hc := range decl.Heritage {
			if extendsOnly && hc.Token != typesys.HeritageExtends {
				continue
			}
			for _, tn := range hc.Types {
				syn, m := c.p.syntaxOf[tn], c.p.moduleOf[tn]
				if syn == nil || m == nil {
					continue
				}
				if t, ok := c.heritageType(m, syn, c.p.heritage[tn], env).(*tsType); ok && t.flags.Has(typesys.TypeObject) {
					out = append(out, t)
				}
			}
		}
	}
	return out
}

// enumType is the value side of an enum: an object of its members.
func (c *checker) enumType(s *symbol) *tsType {
	t := &tsType{flags: typesys.TypeObject, objFlags: typesys.ObjectAnonymous, sym: s}
	t.build = func(st *structure) {
		c.bindMembers(s)
		st.props = s.members.list()
	}
	return t
}

func (c *checker) enumMemberType(*symbol) typesys.Type {
	return c.intrinsic(typesys.TypeNumber)
}

// functionType is the type of a function or method: one call signature per
// overload, hiding the implementation when overloads exist.
func (c *checker) functionType(s *symbol) *tsType {
	t := &tsType{flags: typesys.TypeObject, objFlags: typesys.ObjectAnonymous, sym: s}
	t.build = func(st *structure) {
		var syntax []*sitter.Node
		decls := make(map[*sitter.Node]*typesys.Node, len(s.syntax))
		for i, syn := range s.syntax {
			if s.decls[i].Kind == typesys.KindModuleDeclaration {
				continue
			}
			syntax = append(syntax, syn)
			decls[syn] = s.decls[i]
		}
		for _, syn := range implementationHidden(syntax) {
			st.calls = append(st.calls, &signature{c: c, decl: decls[syn], syn: syn, mod: s.mod, env: s.env})
		}
	}
	return t
}
