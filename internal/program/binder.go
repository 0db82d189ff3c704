package program

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/tsschema/internal/typesys"
)

// module is one bound source file.
type module struct {
	path     string
	pf       *parsedFile
	src      []byte
	file     *typesys.SourceFile
	fileNode *typesys.Node

	locals  *symbolTable // top-level declarations and imports
	exports *symbolTable // own export declarations, in source order
	stars   []string     // export * specifiers
	// specifiers lists every module specifier the file imports or re-exports.
	specifiers []string

	exportTable *symbolTable
}

type localExport struct {
	local, exported string
}

func (p *Program) bindModule(path string, pf *parsedFile) *module {
	m := &module{
		path:    path,
		pf:      pf,
		src:     pf.src,
		file:    pf.file,
		locals:  newSymbolTable(),
		exports: newSymbolTable(),
	}
	m.fileNode = &typesys.Node{Kind: typesys.KindSourceFile, Pos: 0, End: len(pf.src), File: pf.file}
	p.modules[path] = m
	p.order = append(p.order, path)

	var pending []localExport
	for _, stmt := range namedChildren(pf.root()) {
		pending = append(pending, p.bindStatement(m, stmt)...)
	}
	for _, le := range pending {
		s := m.locals.get(le.local)
		if s == nil {
			continue
		}
		m.exports.set(le.exported, renamed(s, le.exported))
	}
	return m
}

// bindStatement binds one top-level statement and returns the local names
// it exports by reference.
func (p *Program) bindStatement(m *module, stmt *sitter.Node) []localExport {
	switch stmt.Type() {
	case "export_statement":
		return p.bindExport(m, stmt)
	case "import_statement":
		p.bindImport(m, stmt)
	case "expression_statement":
		for _, c := range namedChildren(stmt) {
			if c.Type() == "internal_module" || c.Type() == "module" {
				p.bindDeclaration(m, c, false, false)
			}
		}
	default:
		p.bindDeclaration(m, stmt, false, false)
	}
	return nil
}

func (p *Program) bindExport(m *module, stmt *sitter.Node) []localExport {
	isDefault := hasToken(stmt, "default")
	if decl := field(stmt, "declaration"); decl != nil {
		p.bindDeclaration(m, decl, true, isDefault)
		return nil
	}

	source := field(stmt, "source")
	spec := ""
	if source != nil {
		spec = unquote(content(source, m.src))
		m.specifiers = append(m.specifiers, spec)
	}

	if clause := firstChildOf(stmt, "export_clause"); clause != nil {
		var pending []localExport
		for _, es := range namedChildren(clause) {
			if es.Type() != "export_specifier" {
				continue
			}
			name := content(field(es, "name"), m.src)
			exported := name
			if alias := field(es, "alias"); alias != nil {
				exported = content(alias, m.src)
			}
			if spec == "" {
				pending = append(pending, localExport{local: name, exported: exported})
				continue
			}
			s := &symbol{
				name:  exported,
				flags: typesys.SymbolAlias,
				mod:   m,
				alias: &aliasRef{from: m.path, specifier: spec, imported: name},
			}
			s.addDecl(p.declNode(m, es, typesys.KindExportSpecifier, es, nil), es, false)
			m.exports.set(exported, s)
		}
		return pending
	}

	if ns := firstChildOf(stmt, "namespace_export"); ns != nil && spec != "" {
		nameNode := firstChildOf(ns, "identifier", "string")
		name := memberName(nameNode, m.src)
		s := &symbol{
			name:  name,
			flags: typesys.SymbolAlias,
			mod:   m,
			alias: &aliasRef{from: m.path, specifier: spec, imported: "*"},
		}
		s.addDecl(p.declNode(m, ns, typesys.KindExportSpecifier, stmt, nil), ns, false)
		m.exports.set(name, s)
		return nil
	}
	if hasToken(stmt, "*") && spec != "" {
		m.stars = append(m.stars, spec)
		return nil
	}

	if value := field(stmt, "value"); value != nil && isDefault {
		switch value.Type() {
		case "identifier":
			return []localExport{{local: content(value, m.src), exported: "default"}}
		case "function_expression", "function", "generator_function", "class":
			p.bindDeclaration(m, value, true, true)
			return nil
		}
		s := &symbol{name: "default", flags: typesys.SymbolProperty, mod: m}
		n := p.declNode(m, value, typesys.KindExpression, stmt, nil)
		n.Modifiers |= typesys.ModifierExport | typesys.ModifierDefault
		s.addDecl(n, value, true)
		p.nodeSyms[n] = s
		m.exports.set("default", s)
	}
	return nil
}

func (p *Program) bindImport(m *module, stmt *sitter.Node) {
	source := field(stmt, "source")
	if source == nil {
		return
	}
	spec := unquote(content(source, m.src))
	m.specifiers = append(m.specifiers, spec)

	clause := firstChildOf(stmt, "import_clause")
	for _, c := range namedChildren(clause) {
		switch c.Type() {
		case "identifier":
			p.bindImportName(m, c, content(c, m.src), "default", spec)
		case "namespace_import":
			if id := firstChildOf(c, "identifier"); id != nil {
				p.bindImportName(m, c, content(id, m.src), "*", spec)
			}
		case "named_imports":
			for _, is := range namedChildren(c) {
				if is.Type() != "import_specifier" {
					continue
				}
				name := content(field(is, "name"), m.src)
				local := name
				if alias := field(is, "alias"); alias != nil {
					local = content(alias, m.src)
				}
				p.bindImportName(m, is, local, name, spec)
			}
		}
	}
}

func (p *Program) bindImportName(m *module, syn *sitter.Node, local, imported, spec string) {
	s := &symbol{
		name:  local,
		flags: typesys.SymbolAlias,
		mod:   m,
		alias: &aliasRef{from: m.path, specifier: spec, imported: imported},
	}
	s.addDecl(p.declNode(m, syn, typesys.KindImportSpecifier, syn, nil), syn, false)
	m.locals.set(local, s)
}

// bindDeclaration binds a top-level declaration into the module's locals,
// and into its exports when exported.
func (p *Program) bindDeclaration(m *module, d *sitter.Node, exported, isDefault bool) {
	var flags typesys.SymbolFlags
	var kind typesys.SyntaxKind
	switch d.Type() {
	case "ambient_declaration":
		for _, c := range namedChildren(d) {
			p.bindDeclaration(m, c, exported, isDefault)
		}
		return
	case "class_declaration", "abstract_class_declaration", "class":
		flags, kind = typesys.SymbolClass, typesys.KindClassDeclaration
	case "interface_declaration":
		flags, kind = typesys.SymbolInterface, typesys.KindInterfaceDecl
	case "enum_declaration":
		flags, kind = typesys.SymbolEnum, typesys.KindEnumDeclaration
	case "type_alias_declaration":
		flags, kind = typesys.SymbolTypeAlias, typesys.KindTypeAlias
	case "function_declaration", "generator_function_declaration", "function_signature",
		"function_expression", "function", "generator_function":
		flags, kind = typesys.SymbolFunction, typesys.KindFunctionDeclaration
	case "internal_module", "module":
		flags, kind = typesys.SymbolModule, typesys.KindModuleDeclaration
	case "lexical_declaration", "variable_declaration":
		p.bindVariables(m, d, exported)
		return
	default:
		return
	}

	name := "default"
	if nameNode := field(d, "name"); nameNode != nil {
		name = unquote(content(nameNode, m.src))
	} else if !isDefault {
		return
	}

	anchor := declarationAnchor(d)
	n := p.declNode(m, d, kind, anchor, nil)
	if exported {
		n.Modifiers |= typesys.ModifierExport
	}
	if isDefault {
		n.Modifiers |= typesys.ModifierDefault
	}

	s := m.locals.get(name)
	if s == nil || s.alias != nil || s.mod != m {
		s = &symbol{name: name, mod: m}
		m.locals.set(name, s)
	}
	s.flags |= flags
	value := flags&(typesys.SymbolClass|typesys.SymbolEnum|typesys.SymbolFunction|typesys.SymbolModule) != 0
	s.addDecl(n, d, value)
	p.nodeSyms[n] = s

	if exported {
		if isDefault {
			m.exports.set("default", renamed(s, "default"))
		} else {
			m.exports.set(name, s)
		}
	}
}

func (p *Program) bindVariables(m *module, d *sitter.Node, exported bool) {
	anchor := declarationAnchor(d)
	stmt := p.declNode(m, d, typesys.KindVariableStatement, anchor, nil)
	if exported {
		stmt.Modifiers |= typesys.ModifierExport
	}
	list := &typesys.Node{
		Kind:      typesys.KindVariableDeclList,
		Pos:       stmt.Pos,
		End:       stmt.End,
		File:      m.file,
		Parent:    stmt,
		Modifiers: stmt.Modifiers,
	}
	isConst := hasToken(d, "const")

	for _, vd := range namedChildren(d) {
		if vd.Type() != "variable_declarator" {
			continue
		}
		nameNode := field(vd, "name")
		if nameNode == nil || nameNode.Type() != "identifier" {
			continue
		}
		name := content(nameNode, m.src)
		n := p.declNode(m, vd, typesys.KindVariableDeclaration, vd, list)
		n.Modifiers |= stmt.Modifiers
		if isConst {
			n.Flags |= typesys.NodeConst
			n.Modifiers |= typesys.ModifierConst
		}
		s := &symbol{name: name, flags: typesys.SymbolVariable, mod: m}
		s.addDecl(n, vd, true)
		p.nodeSyms[n] = s
		m.locals.set(name, s)
		if exported {
			m.exports.set(name, s)
		}
	}
}

// declNode builds the declaration node for syn. anchor is the outermost
// syntax owning the declaration's leading trivia.
func (p *Program) declNode(m *module, syn *sitter.Node, kind typesys.SyntaxKind, anchor *sitter.Node, parent *typesys.Node) *typesys.Node {
	key := keyOf(m.path, syn)
	if n, ok := p.nodes[key]; ok && n.Kind == kind {
		return n
	}
	if parent == nil {
		parent = m.fileNode
	}
	n := &typesys.Node{
		Kind:      kind,
		Pos:       fullStart(anchor),
		End:       int(syn.EndByte()),
		File:      m.file,
		Parent:    parent,
		Modifiers: modifiersOf(syn, anchor, m.src),
	}
	if nameNode := field(syn, "name"); nameNode != nil {
		n.Name = p.spanNode(m, nameNode, typesys.KindIdentifier, n)
	}
	if hasToken(syn, "?") {
		n.Flags |= typesys.NodeOptional
	}
	for _, tp := range namedChildren(field(syn, "type_parameters")) {
		if tp.Type() == "type_parameter" {
			n.TypeParameters = append(n.TypeParameters, p.typeParamNode(m, tp, n))
		}
	}
	n.Heritage = p.heritageOf(m, syn, n)
	if value := field(syn, "value"); value != nil && (kind == typesys.KindVariableDeclaration ||
		kind == typesys.KindPropertyDeclaration || kind == typesys.KindParameter || kind == typesys.KindEnumMember) {
		n.Initializer = p.spanNode(m, value, typesys.KindExpression, n)
		n.Initializer.Pos = fullStart(value)
	}

	p.nodes[key] = n
	p.syntaxOf[n] = syn
	p.moduleOf[n] = m
	return n
}

// spanNode builds a node covering exactly syn, without leading trivia.
func (p *Program) spanNode(m *module, syn *sitter.Node, kind typesys.SyntaxKind, parent *typesys.Node) *typesys.Node {
	n := &typesys.Node{
		Kind:   kind,
		Pos:    int(syn.StartByte()),
		End:    int(syn.EndByte()),
		File:   m.file,
		Parent: parent,
	}
	p.syntaxOf[n] = syn
	p.moduleOf[n] = m
	return n
}

// typeParamNode builds the node and symbol of a type parameter.
func (p *Program) typeParamNode(m *module, tp *sitter.Node, owner *typesys.Node) *typesys.Node {
	s := p.typeParamSymbol(m, tp)
	n := s.decls[0]
	if owner != nil && n.Parent == m.fileNode {
		n.Parent = owner
	}
	return n
}

func (p *Program) typeParamSymbol(m *module, tp *sitter.Node) *symbol {
	key := keyOf(m.path, tp)
	if s, ok := p.typeParams[key]; ok {
		return s
	}
	n := &typesys.Node{
		Kind:   typesys.KindTypeParameter,
		Pos:    fullStart(tp),
		End:    int(tp.EndByte()),
		File:   m.file,
		Parent: m.fileNode,
	}
	nameNode := field(tp, "name")
	if nameNode != nil {
		n.Name = p.spanNode(m, nameNode, typesys.KindIdentifier, n)
	}
	if c := field(tp, "constraint"); c != nil {
		if inner := lastNamed(c); inner != nil {
			n.Constraint = p.spanNode(m, inner, typesys.KindTypeNode, n)
		}
	}
	if d := field(tp, "value"); d != nil {
		if inner := lastNamed(d); inner != nil {
			n.Default = p.spanNode(m, inner, typesys.KindTypeNode, n)
			n.Default.Pos = fullStart(inner)
		}
	}
	p.syntaxOf[n] = tp
	p.moduleOf[n] = m

	s := &symbol{name: content(nameNode, m.src), flags: typesys.SymbolTypeParameter, mod: m}
	s.addDecl(n, tp, false)
	p.typeParams[key] = s
	p.nodeSyms[n] = s
	if n.Name != nil {
		p.nodeSyms[n.Name] = s
	}
	return s
}

func lastNamed(n *sitter.Node) *sitter.Node {
	kids := namedChildren(n)
	if len(kids) == 0 {
		return nil
	}
	return kids[len(kids)-1]
}

// heritageOf collects the extends and implements clauses of a class or
// interface declaration.
func (p *Program) heritageOf(m *module, syn *sitter.Node, owner *typesys.Node) []typesys.HeritageClause {
	var clauses []typesys.HeritageClause
	collect := func(clause *sitter.Node, token typesys.HeritageToken) {
		hc := typesys.HeritageClause{Token: token}
		for _, c := range namedChildren(clause) {
			if c.Type() == "type_arguments" {
				if len(hc.Types) > 0 {
					p.heritage[hc.Types[len(hc.Types)-1]] = c
				}
				continue
			}
			hc.Types = append(hc.Types, p.spanNode(m, c, typesys.KindTypeNode, owner))
		}
		if len(hc.Types) > 0 {
			clauses = append(clauses, hc)
		}
	}
	for _, c := range children(syn) {
		switch c.Type() {
		case "class_heritage":
			for _, hc := range namedChildren(c) {
				switch hc.Type() {
				case "extends_clause":
					collect(hc, typesys.HeritageExtends)
				case "implements_clause":
					collect(hc, typesys.HeritageImplements)
				}
			}
		case "extends_type_clause":
			collect(c, typesys.HeritageExtends)
		}
	}
	return clauses
}

// modifiersOf combines the modifier tokens of a declaration with those of
// the export and ambient wrappers around it.
func modifiersOf(syn, anchor *sitter.Node, src []byte) typesys.ModifierFlags {
	var mods typesys.ModifierFlags
	for _, c := range children(syn) {
		switch c.Type() {
		case "static":
			mods |= typesys.ModifierStatic
		case "readonly":
			mods |= typesys.ModifierReadonly
		case "abstract":
			mods |= typesys.ModifierAbstract
		case "async":
			mods |= typesys.ModifierAsync
		case "declare":
			mods |= typesys.ModifierAmbient
		case "accessibility_modifier":
			switch content(c, src) {
			case "private":
				mods |= typesys.ModifierPrivate
			case "protected":
				mods |= typesys.ModifierProtected
			default:
				mods |= typesys.ModifierPublic
			}
		}
	}
	switch syn.Type() {
	case "abstract_class_declaration", "abstract_method_signature":
		mods |= typesys.ModifierAbstract
	}
	if name := field(syn, "name"); name != nil && name.Type() == "private_property_identifier" {
		mods |= typesys.ModifierPrivate
	}
	for cur := syn; !sameNode(cur, anchor) && cur.Parent() != nil; {
		cur = cur.Parent()
		switch cur.Type() {
		case "export_statement":
			mods |= typesys.ModifierExport
			if hasToken(cur, "default") {
				mods |= typesys.ModifierDefault
			}
		case "ambient_declaration":
			mods |= typesys.ModifierAmbient
		}
	}
	return mods
}
