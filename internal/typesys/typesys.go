// Package typesys defines the read-only query surface of a TypeScript type
// system: symbols with capability flags and declarations, structural types,
// signatures, and a checker answering type questions about them.
package typesys

// Symbol is a named entity: a declaration, a member, a parameter.
type Symbol interface {
	Name() string
	Flags() SymbolFlags
	// Declarations lists every declaration merged into the symbol, in source
	// order.
	Declarations() []*Node
	// ValueDeclaration is the declaration that introduces a value, or nil for
	// type-only symbols such as interfaces and type aliases.
	ValueDeclaration() *Node
}

// Type is a structural type.
type Type interface {
	Flags() TypeFlags
	ObjectFlags() ObjectFlags
	// Symbol is the symbol a type is named after, or nil for anonymous
	// intrinsic, literal and union types.
	Symbol() Symbol
	// Types lists the members of a union or intersection in declaration order.
	Types() []Type
	// LiteralValue is the value of a literal type: string, float64, bool, or
	// the source text of a bigint.
	LiteralValue() any
	CallSignatures() []Signature
	ConstructSignatures() []Signature
	Properties() []Symbol
	StringIndexType() Type
	NumberIndexType() Type
	// TypeArguments are the arguments of a reference, or the operands of
	// keyof and indexed access types.
	TypeArguments() []Type
	// AliasSymbol is the type alias the type was written through, if any.
	AliasSymbol() Symbol
}

// Signature is one call or construct signature.
type Signature interface {
	// Declaration is nil for implicit signatures such as a default
	// constructor.
	Declaration() *Node
	Parameters() []Symbol
	ReturnType() Type
}

// Checker answers type questions about symbols and declaration nodes.
type Checker interface {
	TypeOfSymbolAtLocation(sym Symbol, at *Node) Type
	DeclaredTypeOfSymbol(sym Symbol) Type
	TypeAtLocation(n *Node) Type
	SymbolAtLocation(n *Node) Symbol
	TypeToString(t Type) string
}

// Program is a loaded entry module and everything it references.
type Program interface {
	Checker() Checker
	// EntryExports lists the symbols exported by the entry module in export
	// order.
	EntryExports() []Symbol
	// ConfigDir is the directory of the project configuration governing the
	// entry file, or the entry file's directory when there is none.
	ConfigDir() string
	EntryFile() string
}
