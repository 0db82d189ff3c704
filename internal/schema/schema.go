// Package schema defines the serializable description of a module's exported
// surface: Items combining identity metadata (the binding) with a structural
// type description.
package schema

// BindingKind is the identity discriminant of an Item.
type BindingKind string

const (
	KindClass       BindingKind = "class"
	KindEnum        BindingKind = "enum"
	KindEnumMember  BindingKind = "enummember"
	KindInterface   BindingKind = "interface"
	KindVariable    BindingKind = "variable"
	KindProperty    BindingKind = "property"
	KindMethod      BindingKind = "method"
	KindTypeAlias   BindingKind = "typealias"
	KindTypeParam   BindingKind = "typeparam"
	KindConstructor BindingKind = "constructor"
	KindFunction    BindingKind = "function"
	KindParameter   BindingKind = "parameter"
	KindReexport    BindingKind = "reexport"
)

// Structural tags that are not type names.
const (
	TypeAny          = "any"
	TypeUnknown      = "unknown"
	TypeString       = "string"
	TypeNumber       = "number"
	TypeBigInt       = "BigInt"
	TypeSymbol       = "Symbol"
	TypeBoolean      = "boolean"
	TypeUndefined    = "undefined"
	TypeNull         = "null"
	TypeVoid         = "void"
	TypeNever        = "never"
	TypeObjectKw     = "object"
	TypeUnion        = "union"
	TypeIntersection = "intersection"
	TypeFunction     = "Function"
	TypeClass        = "class"
	TypeInterface    = "interface"
	TypeObject       = "Object"
	TypeArray        = "Array"
	TypeEnum         = "enum"
	TypeTypeParam    = "typeparam"
	TypeKeyof        = "keyof"
	TypeIndexed      = "indexed"
)

// Loc is a source position: 1-based line, 0-based column, file relative to
// the extraction's base directory.
type Loc struct {
	File   string `json:"file" yaml:"file"`
	Line   int    `json:"line" yaml:"line"`
	Column int    `json:"column" yaml:"column"`
}

// Item is one node of the schema tree. The binding half (Kind, ID, and the
// source and modifier fields) is set for named entities. The type half is set
// on every node: nested types, parameters and type parameters are Items
// without a Kind.
type Item struct {
	Kind        BindingKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	ID          string      `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string      `json:"name,omitempty" yaml:"name,omitempty"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Loc         *Loc        `json:"loc,omitempty" yaml:"loc,omitempty"`
	TypeParams  []*Item     `json:"typeParams,omitempty" yaml:"typeParams,omitempty"`
	Abstract    bool        `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Readonly    bool        `json:"readonly,omitempty" yaml:"readonly,omitempty"`
	Optional    bool        `json:"optional,omitempty" yaml:"optional,omitempty"`
	Rest        bool        `json:"rest,omitempty" yaml:"rest,omitempty"`
	// Default is the raw source text of a default value.
	Default string `json:"default,omitempty" yaml:"default,omitempty"`

	Type            string  `json:"type" yaml:"type"`
	TypeSource      string  `json:"typeSource,omitempty" yaml:"typeSource,omitempty"`
	TypeParamSource string  `json:"typeParamSource,omitempty" yaml:"typeParamSource,omitempty"`
	TypeArgs        []*Item `json:"typeArgs,omitempty" yaml:"typeArgs,omitempty"`
	// Params is nil when the type has no signature and empty for a signature
	// without parameters.
	Params             ParamList `json:"params,omitzero" yaml:"params,omitempty"`
	Returns            *Item     `json:"returns,omitempty" yaml:"returns,omitempty"`
	Extends            *Item     `json:"extends,omitempty" yaml:"extends,omitempty"`
	Implements         []*Item   `json:"implements,omitempty" yaml:"implements,omitempty"`
	Construct          *Item     `json:"construct,omitempty" yaml:"construct,omitempty"`
	Properties         *Items    `json:"properties,omitempty" yaml:"properties,omitempty"`
	InstanceProperties *Items    `json:"instanceProperties,omitempty" yaml:"instanceProperties,omitempty"`
}

// ParamList holds signature parameters. Only a nil list counts as zero, so
// both encoders keep an empty list.
type ParamList []*Item

// IsZero reports whether the list is nil.
func (l ParamList) IsZero() bool { return l == nil }

// Members returns the named Items directly nested under it: the constructor,
// static properties and instance properties, in that order.
func (it *Item) Members() []*Item {
	var out []*Item
	if it.Construct != nil {
		out = append(out, it.Construct)
	}
	for _, m := range []*Items{it.Properties, it.InstanceProperties} {
		for _, child := range m.All() {
			out = append(out, child)
		}
	}
	return out
}

// Walk calls fn for it and every Item nested in it as a member, depth first,
// passing the id of the owning Item.
func (it *Item) Walk(parentID string, fn func(parentID string, it *Item)) {
	fn(parentID, it)
	for _, m := range it.Members() {
		m.Walk(it.ID, fn)
	}
}
