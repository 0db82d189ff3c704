package tsschema

import (
	"github.com/jward/tsschema/internal/extract"
	"github.com/jward/tsschema/internal/program"
	"github.com/jward/tsschema/internal/schema"
	"github.com/jward/tsschema/internal/script"
	"github.com/jward/tsschema/internal/store"
)

// Public aliases of the internal schema types. External consumers use these
// names; no conversion is needed.

type Item = schema.Item
type Items = schema.Items
type Loc = schema.Loc
type BindingKind = schema.BindingKind
type Run = store.Run
type Row = store.Row
type KindCount = store.KindCount

// NewItems returns an empty ordered mapping.
func NewItems() *Items { return schema.NewItems() }

// Binding kinds.
const (
	KindClass       = schema.KindClass
	KindEnum        = schema.KindEnum
	KindEnumMember  = schema.KindEnumMember
	KindInterface   = schema.KindInterface
	KindVariable    = schema.KindVariable
	KindProperty    = schema.KindProperty
	KindMethod      = schema.KindMethod
	KindTypeAlias   = schema.KindTypeAlias
	KindTypeParam   = schema.KindTypeParam
	KindConstructor = schema.KindConstructor
	KindFunction    = schema.KindFunction
	KindParameter   = schema.KindParameter
	KindReexport    = schema.KindReexport
)

// Errors surfaced by Gather and GatherDir. Match them with errors.Is.
var (
	ErrUnclassifiable     = extract.ErrUnclassifiable
	ErrMissingDeclaration = extract.ErrMissingDeclaration
	ErrUnsupportedType    = extract.ErrUnsupportedType
	ErrEntryNotFound      = program.ErrEntryNotFound
	ErrConfig             = program.ErrConfig
	ErrParse              = program.ErrParse
	ErrSelect             = script.ErrSelect
)
