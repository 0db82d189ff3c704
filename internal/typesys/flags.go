package typesys

import "strings"

// SymbolFlags describes the capabilities of a symbol. A symbol usually carries
// several flags at once (an accessor pair is both GetAccessor and SetAccessor,
// a class merged with an interface is both Class and Interface).
type SymbolFlags uint32

const (
	SymbolProperty SymbolFlags = 1 << iota
	SymbolMethod
	SymbolGetAccessor
	SymbolSetAccessor
	SymbolEnumMember
	SymbolClass
	SymbolInterface
	SymbolEnum
	SymbolTypeAlias
	SymbolVariable
	SymbolFunction
	SymbolTypeParameter
	SymbolParameter
	SymbolAlias
	SymbolOptional
	SymbolPrototype
	SymbolModule
	SymbolTypeLiteral
)

// SymbolPropertyOrAccessor matches plain properties and accessors.
const SymbolPropertyOrAccessor = SymbolProperty | SymbolGetAccessor | SymbolSetAccessor

var symbolFlagNames = []string{
	"Property", "Method", "GetAccessor", "SetAccessor", "EnumMember", "Class",
	"Interface", "Enum", "TypeAlias", "Variable", "Function", "TypeParameter",
	"Parameter", "Alias", "Optional", "Prototype", "Module", "TypeLiteral",
}

func (f SymbolFlags) String() string { return flagString(uint64(f), symbolFlagNames) }

// Has reports whether any of the bits in mask are set.
func (f SymbolFlags) Has(mask SymbolFlags) bool { return f&mask != 0 }

// TypeFlags classify a type.
type TypeFlags uint32

const (
	TypeAny TypeFlags = 1 << iota
	TypeUnknown
	TypeString
	TypeNumber
	TypeBigInt
	TypeESSymbol
	TypeBoolean
	TypeUndefined
	TypeNull
	TypeVoid
	TypeNever
	TypeNonPrimitive
	TypeStringLiteral
	TypeNumberLiteral
	TypeBigIntLiteral
	TypeBooleanLiteral
	TypeEnumLiteral
	TypeUnion
	TypeIntersection
	TypeTypeParameter
	TypeObject
	TypeIndex
	TypeIndexedAccess
	TypeConditional
	TypeMapped
	TypeTemplateLiteral
)

const (
	TypeLiteral             = TypeStringLiteral | TypeNumberLiteral | TypeBigIntLiteral | TypeBooleanLiteral
	TypeUnionOrIntersection = TypeUnion | TypeIntersection
)

var typeFlagNames = []string{
	"Any", "Unknown", "String", "Number", "BigInt", "ESSymbol", "Boolean", "Undefined",
	"Null", "Void", "Never", "NonPrimitive", "StringLiteral", "NumberLiteral",
	"BigIntLiteral", "BooleanLiteral", "EnumLiteral", "Union", "Intersection",
	"TypeParameter", "Object", "Index", "IndexedAccess", "Conditional", "Mapped",
	"TemplateLiteral",
}

func (f TypeFlags) String() string { return flagString(uint64(f), typeFlagNames) }

// Has reports whether any of the bits in mask are set.
func (f TypeFlags) Has(mask TypeFlags) bool { return f&mask != 0 }

// ObjectFlags refine TypeObject.
type ObjectFlags uint32

const (
	ObjectClass ObjectFlags = 1 << iota
	ObjectInterface
	// ObjectReference marks an instantiation of a named type: a reference to a
	// class, interface or enum by name, a generic instantiation, an array or a
	// tuple.
	ObjectReference
	ObjectAnonymous
	ObjectTuple
)

var objectFlagNames = []string{"Class", "Interface", "Reference", "Anonymous", "Tuple"}

func (f ObjectFlags) String() string { return flagString(uint64(f), objectFlagNames) }

// Has reports whether any of the bits in mask are set.
func (f ObjectFlags) Has(mask ObjectFlags) bool { return f&mask != 0 }

// ModifierFlags are the combined syntactic modifiers of a declaration.
type ModifierFlags uint32

const (
	ModifierExport ModifierFlags = 1 << iota
	ModifierAmbient
	ModifierDefault
	ModifierPublic
	ModifierPrivate
	ModifierProtected
	ModifierStatic
	ModifierReadonly
	ModifierAbstract
	ModifierAsync
	ModifierConst
)

var modifierFlagNames = []string{
	"Export", "Ambient", "Default", "Public", "Private", "Protected", "Static",
	"Readonly", "Abstract", "Async", "Const",
}

func (f ModifierFlags) String() string { return flagString(uint64(f), modifierFlagNames) }

// Has reports whether any of the bits in mask are set.
func (f ModifierFlags) Has(mask ModifierFlags) bool { return f&mask != 0 }

func flagString(v uint64, names []string) string {
	if v == 0 {
		return "None"
	}
	var parts []string
	for i, name := range names {
		if v&(1<<uint(i)) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}
