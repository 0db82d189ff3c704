package extract

import (
	"gitlab.com/tozd/go/errors"

	"github.com/jward/tsschema/internal/schema"
	"github.com/jward/tsschema/internal/typesys"
)

// kindOrder is the classification precedence. Flags overlap (an accessor is
// also a property), so the first match wins.
var kindOrder = []struct {
	flags typesys.SymbolFlags
	kind  schema.BindingKind
}{
	{typesys.SymbolPropertyOrAccessor, schema.KindProperty},
	{typesys.SymbolMethod, schema.KindMethod},
	{typesys.SymbolEnumMember, schema.KindEnumMember},
	{typesys.SymbolClass, schema.KindClass},
	{typesys.SymbolInterface, schema.KindInterface},
	{typesys.SymbolEnum, schema.KindEnum},
	{typesys.SymbolTypeAlias, schema.KindTypeAlias},
	{typesys.SymbolVariable, schema.KindVariable},
	{typesys.SymbolTypeParameter, schema.KindTypeParam},
	{typesys.SymbolFunction, schema.KindFunction},
	{typesys.SymbolAlias, schema.KindReexport},
}

// Classify maps a symbol's flags to its binding kind.
func Classify(flags typesys.SymbolFlags) (schema.BindingKind, error) {
	for _, k := range kindOrder {
		if flags.Has(k.flags) {
			return k.kind, nil
		}
	}
	return "", errors.WithDetails(
		errors.Errorf("%w: flags %s", ErrUnclassifiable, flags),
		"flags", flags.String(),
	)
}
