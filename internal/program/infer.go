package program

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/tsschema/internal/typesys"
)

// infer types an initializer expression. keepLiteral preserves literal types
// as const declarations and readonly properties do; otherwise literals widen
// to their primitive.
func (c *checker) infer(m *module, expr *sitter.Node, env *typeEnv, keepLiteral bool) typesys.Type {
	if expr == nil {
		return c.anyType
	}
	raw := content(expr, m.src)
	widen := func(t typesys.Type) typesys.Type {
		if keepLiteral {
			return t
		}
		return c.widen(t)
	}
	switch expr.Type() {
	case "string":
		return widen(c.literal(typesys.TypeStringLiteral, unquote(raw)))
	case "template_string":
		if firstChildOf(expr, "template_substitution") == nil {
			return widen(c.literal(typesys.TypeStringLiteral, unquote(raw)))
		}
		return c.intrinsic(typesys.TypeString)
	case "number":
		if strings.HasSuffix(raw, "n") {
			return widen(c.literal(typesys.TypeBigIntLiteral, raw))
		}
		if v, ok := parseNumber(raw); ok {
			return widen(c.literal(typesys.TypeNumberLiteral, v))
		}
		return c.intrinsic(typesys.TypeNumber)
	case "true":
		return widen(c.literal(typesys.TypeBooleanLiteral, true))
	case "false":
		return widen(c.literal(typesys.TypeBooleanLiteral, false))
	case "null":
		return c.intrinsic(typesys.TypeNull)
	case "undefined":
		return c.intrinsic(typesys.TypeUndefined)
	case "regex":
		return c.ref(c.p.external("RegExp"), nil)
	case "parenthesized_expression", "satisfies_expression", "non_null_expression":
		kids := namedChildren(expr)
		if len(kids) == 0 {
			return c.anyType
		}
		return c.infer(m, kids[0], env, keepLiteral)
	case "as_expression":
		kids := namedChildren(expr)
		if len(kids) < 2 {
			return c.anyType
		}
		if content(kids[1], m.src) == "const" {
			return c.infer(m, kids[0], env, true)
		}
		return c.typeFromNode(m, kids[1], env)
	case "unary_expression":
		switch content(field(expr, "operator"), m.src) {
		case "!":
			return c.intrinsic(typesys.TypeBoolean)
		case "typeof":
			return c.intrinsic(typesys.TypeString)
		case "void":
			return c.intrinsic(typesys.TypeUndefined)
		case "-", "+":
			if v, ok := numericValue(expr, m.src); ok {
				return widen(c.literal(typesys.TypeNumberLiteral, v))
			}
		}
		return c.intrinsic(typesys.TypeNumber)
	case "binary_expression":
		return c.inferBinary(m, expr, env)
	case "arrow_function", "function_expression", "function", "generator_function":
		return c.closureType(m, expr, env)
	case "new_expression":
		return c.inferNew(m, expr, env)
	case "object":
		return c.objectLiteral(m, expr, env)
	case "array":
		return c.arrayLiteral(m, expr, env)
	case "identifier", "shorthand_property_identifier":
		if raw == "undefined" {
			return c.intrinsic(typesys.TypeUndefined)
		}
		if s := m.locals.get(raw); s != nil {
			if target := c.p.resolveSymbol(s); target != nil {
				return widen(c.typeOfSymbol(target))
			}
		}
		return c.anyType
	case "call_expression":
		fn := field(expr, "function")
		if fn == nil || fn.Type() != "identifier" {
			return c.anyType
		}
		callee := c.infer(m, fn, env, true)
		if sigs := callee.CallSignatures(); len(sigs) > 0 {
			return sigs[0].ReturnType()
		}
	}
	return c.anyType
}

// widen maps a literal type to its primitive.
func (c *checker) widen(t typesys.Type) typesys.Type {
	f := t.Flags()
	switch {
	case f.Has(typesys.TypeEnumLiteral):
		return t
	case f.Has(typesys.TypeStringLiteral):
		return c.intrinsic(typesys.TypeString)
	case f.Has(typesys.TypeNumberLiteral):
		return c.intrinsic(typesys.TypeNumber)
	case f.Has(typesys.TypeBooleanLiteral):
		return c.intrinsic(typesys.TypeBoolean)
	case f.Has(typesys.TypeBigIntLiteral):
		return c.intrinsic(typesys.TypeBigInt)
	}
	return t
}

func (c *checker) inferBinary(m *module, expr *sitter.Node, env *typeEnv) typesys.Type {
	switch op := content(field(expr, "operator"), m.src); op {
	case "+":
		left := c.infer(m, field(expr, "left"), env, false)
		right := c.infer(m, field(expr, "right"), env, false)
		if left.Flags().Has(typesys.TypeString) || right.Flags().Has(typesys.TypeString) {
			return c.intrinsic(typesys.TypeString)
		}
		if left.Flags().Has(typesys.TypeNumber) && right.Flags().Has(typesys.TypeNumber) {
			return c.intrinsic(typesys.TypeNumber)
		}
		return c.anyType
	case "-", "*", "/", "%", "**", "&", "|", "^", "<<", ">>", ">>>":
		return c.intrinsic(typesys.TypeNumber)
	case "==", "===", "!=", "!==", "<", ">", "<=", ">=", "instanceof", "in":
		return c.intrinsic(typesys.TypeBoolean)
	}
	return c.anyType
}

// closureType is the anonymous function type of an arrow function or
// function expression.
func (c *checker) closureType(m *module, expr *sitter.Node, env *typeEnv) typesys.Type {
	key := typeKey{node: keyOf(m.path, expr), env: env.cacheKey()}
	if t, ok := c.nodeTypes[key]; ok {
		return t
	}
	decl := c.p.spanNode(m, expr, typesys.KindFunctionExpression, nil)
	t := &tsType{flags: typesys.TypeObject, objFlags: typesys.ObjectAnonymous, origin: expr}
	t.st = &structure{calls: []typesys.Signature{&signature{c: c, decl: decl, syn: expr, mod: m, env: env}}}
	c.nodeTypes[key] = t
	return t
}

func (c *checker) inferNew(m *module, expr *sitter.Node, env *typeEnv) typesys.Type {
	ctor := field(expr, "constructor")
	if ctor == nil || ctor.Type() != "identifier" {
		return c.anyType
	}
	args := c.typeArgs(m, field(expr, "type_arguments"), env)
	return c.resolveTypeName(m, nil, content(ctor, m.src), args, env)
}

// objectLiteral is the anonymous type of an object literal; property types
// widen.
func (c *checker) objectLiteral(m *module, expr *sitter.Node, env *typeEnv) typesys.Type {
	key := typeKey{node: keyOf(m.path, expr), env: env.cacheKey()}
	if t, ok := c.nodeTypes[key]; ok {
		return t
	}
	s := &symbol{name: "__object", flags: typesys.SymbolTypeLiteral, mod: m, env: env}
	s.addDecl(c.p.spanNode(m, expr, typesys.KindExpression, nil), expr, false)
	t := &tsType{flags: typesys.TypeObject, objFlags: typesys.ObjectAnonymous, sym: s, origin: expr}
	t.build = func(st *structure) {
		c.bindMembers(s)
		for _, p := range s.members.list() {
			p.env = env
			st.props = append(st.props, p)
		}
	}
	c.nodeTypes[key] = t
	return t
}

// arrayLiteral is T[] where T is the union of the distinct widened element
// types, or any for an empty literal.
func (c *checker) arrayLiteral(m *module, expr *sitter.Node, env *typeEnv) typesys.Type {
	var elems []typesys.Type
	seen := make(map[typesys.Type]bool)
	for _, el := range namedChildren(expr) {
		if el.Type() == "spread_element" {
			return c.arrayRef("Array", c.anyType)
		}
		t := c.widen(c.infer(m, el, env, false))
		if !seen[t] {
			seen[t] = true
			elems = append(elems, t)
		}
	}
	switch len(elems) {
	case 0:
		return c.arrayRef("Array", c.anyType)
	case 1:
		return c.arrayRef("Array", elems[0])
	}
	key := typeKey{node: keyOf(m.path, expr), env: env.cacheKey()}
	u, ok := c.nodeTypes[key]
	if !ok {
		u = &tsType{flags: typesys.TypeUnion, types: elems, origin: expr}
		c.nodeTypes[key] = u
	}
	return c.arrayRef("Array", u)
}

// bindParameters declares the parameters of a signature. Destructured
// parameters are named by position; this parameters are skipped.
func (c *checker) bindParameters(m *module, syn *sitter.Node, owner *typesys.Node, env *typeEnv) []*symbol {
	var out []*symbol
	params := field(syn, "parameters")
	if params == nil && syn.Type() == "arrow_function" {
		if p := field(syn, "parameter"); p != nil {
			return []*symbol{c.bareParameter(m, p, owner, env)}
		}
	}
	for i, param := range namedChildren(params) {
		flags := typesys.SymbolParameter
		switch param.Type() {
		case "required_parameter":
		case "optional_parameter":
			flags |= typesys.SymbolOptional
		default:
			continue
		}
		pattern := field(param, "pattern")
		if pattern == nil {
			continue
		}
		var name string
		rest := false
		switch pattern.Type() {
		case "identifier":
			name = content(pattern, m.src)
		case "this":
			continue
		case "rest_pattern":
			rest = true
			if id := firstChildOf(pattern, "identifier"); id != nil {
				name = content(id, m.src)
			} else {
				name = fmt.Sprintf("__%d", i)
			}
		default:
			name = fmt.Sprintf("__%d", i)
		}
		n := c.p.declNode(m, param, typesys.KindParameter, param, owner)
		if n.Name == nil {
			n.Name = c.p.spanNode(m, pattern, typesys.KindIdentifier, n)
		}
		if rest {
			n.Flags |= typesys.NodeRest
		}
		s := &symbol{name: name, flags: flags, mod: m, env: env}
		s.addDecl(n, param, true)
		c.p.nodeSyms[n] = s
		out = append(out, s)
	}
	return out
}

// bareParameter is the single unparenthesized parameter of x => x.
func (c *checker) bareParameter(m *module, id *sitter.Node, owner *typesys.Node, env *typeEnv) *symbol {
	n := c.p.spanNode(m, id, typesys.KindParameter, owner)
	n.Pos = fullStart(id)
	n.Name = c.p.spanNode(m, id, typesys.KindIdentifier, n)
	s := &symbol{name: content(id, m.src), flags: typesys.SymbolParameter, mod: m, env: env, typ: c.anyType}
	s.addDecl(n, id, true)
	c.p.nodeSyms[n] = s
	return s
}

// returnTypeOf reads a signature's return annotation, or infers it from the
// body.
func (c *checker) returnTypeOf(m *module, syn *sitter.Node, _ *typesys.Node, env *typeEnv) typesys.Type {
	if syn == nil {
		return c.anyType
	}
	if rt := field(syn, "return_type"); rt != nil {
		return c.typeFromNode(m, rt, env)
	}
	return c.inferReturn(m, syn, env)
}

// inferReturn types an unannotated function from its body: an expression
// body's type, the first returned value, or void. Async functions return a
// Promise of that type.
func (c *checker) inferReturn(m *module, syn *sitter.Node, env *typeEnv) typesys.Type {
	body := field(syn, "body")
	if body == nil {
		return c.anyType
	}
	var t typesys.Type
	if body.Type() != "statement_block" {
		t = c.widen(c.infer(m, body, env, false))
	} else if ret := firstReturn(body); ret != nil {
		t = c.widen(c.infer(m, ret, env, false))
	} else {
		t = c.intrinsic(typesys.TypeVoid)
	}
	if hasToken(syn, "*") {
		return c.anyType
	}
	if hasToken(syn, "async") {
		return c.ref(c.p.external("Promise"), []typesys.Type{t})
	}
	return t
}

// firstReturn finds the first return statement with a value, without
// descending into nested functions or classes.
func firstReturn(n *sitter.Node) *sitter.Node {
	for _, ch := range namedChildren(n) {
		switch ch.Type() {
		case "function_declaration", "function_expression", "function", "arrow_function",
			"generator_function", "generator_function_declaration", "class_declaration", "class",
			"method_definition":
			continue
		case "return_statement":
			if kids := namedChildren(ch); len(kids) > 0 {
				return kids[0]
			}
			continue
		}
		if r := firstReturn(ch); r != nil {
			return r
		}
	}
	return nil
}
