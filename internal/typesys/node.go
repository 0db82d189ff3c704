package typesys

import "strings"

// SyntaxKind names the declaration form a Node was produced from.
type SyntaxKind string

const (
	KindSourceFile          SyntaxKind = "SourceFile"
	KindClassDeclaration    SyntaxKind = "ClassDeclaration"
	KindInterfaceDecl       SyntaxKind = "InterfaceDeclaration"
	KindEnumDeclaration     SyntaxKind = "EnumDeclaration"
	KindEnumMember          SyntaxKind = "EnumMember"
	KindTypeAlias           SyntaxKind = "TypeAliasDeclaration"
	KindFunctionDeclaration SyntaxKind = "FunctionDeclaration"
	KindVariableStatement   SyntaxKind = "VariableStatement"
	KindVariableDeclList    SyntaxKind = "VariableDeclarationList"
	KindVariableDeclaration SyntaxKind = "VariableDeclaration"
	KindPropertyDeclaration SyntaxKind = "PropertyDeclaration"
	KindPropertySignature   SyntaxKind = "PropertySignature"
	KindMethodDeclaration   SyntaxKind = "MethodDeclaration"
	KindMethodSignature     SyntaxKind = "MethodSignature"
	KindGetAccessor         SyntaxKind = "GetAccessor"
	KindSetAccessor         SyntaxKind = "SetAccessor"
	KindConstructor         SyntaxKind = "Constructor"
	KindConstructSignature  SyntaxKind = "ConstructSignature"
	KindCallSignature       SyntaxKind = "CallSignature"
	KindIndexSignature      SyntaxKind = "IndexSignature"
	KindFunctionType        SyntaxKind = "FunctionType"
	KindFunctionExpression  SyntaxKind = "FunctionExpression"
	KindParameter           SyntaxKind = "Parameter"
	KindTypeParameter       SyntaxKind = "TypeParameter"
	KindExportSpecifier     SyntaxKind = "ExportSpecifier"
	KindImportSpecifier     SyntaxKind = "ImportSpecifier"
	KindModuleDeclaration   SyntaxKind = "ModuleDeclaration"
	KindExpression          SyntaxKind = "Expression"
	KindTypeNode            SyntaxKind = "TypeNode"
	KindIdentifier          SyntaxKind = "Identifier"
)

// IsClassLike reports whether the node declares a class.
func (k SyntaxKind) IsClassLike() bool { return k == KindClassDeclaration }

// NodeFlags carry per-declaration syntax facts that are not modifiers.
type NodeFlags uint8

const (
	NodeRest NodeFlags = 1 << iota
	NodeOptional
	NodeConst
)

// HeritageToken distinguishes extends from implements clauses.
type HeritageToken int

const (
	HeritageExtends HeritageToken = iota
	HeritageImplements
)

// HeritageClause is one extends or implements clause of a class or interface.
type HeritageClause struct {
	Token HeritageToken
	Types []*Node
}

// SourceFile is a loaded source file.
type SourceFile struct {
	Path string // absolute
	Text string

	lineStarts []int
}

// NewSourceFile indexes the line starts of text.
func NewSourceFile(path, text string) *SourceFile {
	f := &SourceFile{Path: path, Text: text, lineStarts: []int{0}}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			f.lineStarts = append(f.lineStarts, i+1)
		}
	}
	return f
}

// LineAndColumn returns the 0-based line and column of a byte offset.
func (f *SourceFile) LineAndColumn(pos int) (line, col int) {
	if f.lineStarts == nil {
		*f = *NewSourceFile(f.Path, f.Text)
	}
	lo, hi := 0, len(f.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if f.lineStarts[mid] <= pos {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, pos - f.lineStarts[lo]
}

// Node is a declaration in a source file.
//
// Pos is the full start of the node: it includes the leading trivia
// (whitespace and comments) that follows the previous token, which is where
// documentation comments are found.
type Node struct {
	Kind      SyntaxKind
	Pos       int
	End       int
	File      *SourceFile
	Parent    *Node
	Name      *Node
	Modifiers ModifierFlags
	Flags     NodeFlags

	TypeParameters []*Node
	Heritage       []HeritageClause

	// Initializer is the default value of a parameter or the value of a
	// variable or property.
	Initializer *Node
	// Constraint and Default belong to type parameters.
	Constraint *Node
	Default    *Node
}

// Text returns the raw source text of the node, leading trivia included.
func (n *Node) Text() string {
	if n == nil || n.File == nil || n.Pos < 0 || n.End > len(n.File.Text) || n.Pos > n.End {
		return ""
	}
	return n.File.Text[n.Pos:n.End]
}

// TrimmedText returns Text without surrounding whitespace.
func (n *Node) TrimmedText() string { return strings.TrimSpace(n.Text()) }

// Identifier returns the text of the node's name, if it has one.
func (n *Node) Identifier() string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.TrimmedText()
}
