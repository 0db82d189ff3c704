package extract

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"

	"github.com/jward/tsschema/internal/schema"
	"github.com/jward/tsschema/internal/typesys"
)

var primitiveTags = []struct {
	flag typesys.TypeFlags
	tag  string
}{
	{typesys.TypeAny, schema.TypeAny},
	{typesys.TypeUnknown, schema.TypeUnknown},
	{typesys.TypeString, schema.TypeString},
	{typesys.TypeNumber, schema.TypeNumber},
	{typesys.TypeBigInt, schema.TypeBigInt},
	{typesys.TypeESSymbol, schema.TypeSymbol},
	{typesys.TypeBoolean, schema.TypeBoolean},
	{typesys.TypeUndefined, schema.TypeUndefined},
	{typesys.TypeNull, schema.TypeNull},
}

// resolveType converts a type into its structural description. Union and
// intersection members share the id of the type they belong to. describe
// lets class, interface and object descriptions pick up the documentation of
// the type's own declaration.
func (w *walker) resolveType(t typesys.Type, id string, describe bool) (*schema.Item, error) {
	f := t.Flags()
	for _, p := range primitiveTags {
		if f.Has(p.flag) {
			return &schema.Item{Type: p.tag}, nil
		}
	}
	switch {
	case f.Has(typesys.TypeLiteral):
		return &schema.Item{Type: literalText(t)}, nil
	case f.Has(typesys.TypeNever):
		return &schema.Item{Type: schema.TypeNever}, nil
	case f.Has(typesys.TypeVoid):
		return &schema.Item{Type: schema.TypeVoid}, nil
	case f.Has(typesys.TypeNonPrimitive):
		return &schema.Item{Type: schema.TypeObjectKw}, nil
	case f.Has(typesys.TypeTemplateLiteral):
		return &schema.Item{Type: schema.TypeString}, nil
	case f.Has(typesys.TypeUnionOrIntersection):
		tag := schema.TypeUnion
		if f.Has(typesys.TypeIntersection) {
			tag = schema.TypeIntersection
		}
		args, err := w.resolveTypes(t.Types(), id)
		if err != nil {
			return nil, err
		}
		return &schema.Item{Type: tag, TypeArgs: args}, nil
	case f.Has(typesys.TypeTypeParameter):
		return w.typeParamRef(t), nil
	case f.Has(typesys.TypeIndex):
		args, err := w.resolveTypes(t.TypeArguments(), id)
		if err != nil {
			return nil, err
		}
		return &schema.Item{Type: schema.TypeKeyof, TypeArgs: args}, nil
	case f.Has(typesys.TypeIndexedAccess):
		args, err := w.resolveTypes(t.TypeArguments(), id)
		if err != nil {
			return nil, err
		}
		return &schema.Item{Type: schema.TypeIndexed, TypeArgs: args}, nil
	case f.Has(typesys.TypeObject):
		return w.resolveObject(t, id, describe)
	}
	return nil, w.unsupported(t, id)
}

func (w *walker) resolveTypes(types []typesys.Type, id string) ([]*schema.Item, error) {
	out := make([]*schema.Item, 0, len(types))
	for _, m := range types {
		r, err := w.resolveType(m, id, false)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (w *walker) unsupported(t typesys.Type, id string) error {
	return errors.WithDetails(
		errors.Errorf("%w: %s", ErrUnsupportedType, w.checker.TypeToString(t)),
		"id", id, "flags", t.Flags().String())
}

// literalText encodes a literal value: strings quoted, numbers and booleans
// bare, bigints as written.
func literalText(t typesys.Type) string {
	v := t.LiteralValue()
	if t.Flags().Has(typesys.TypeBigIntLiteral) {
		return fmt.Sprint(v)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// typeParamRef references a type parameter by name, with the id of its
// descriptor when the declaring scope has been described.
func (w *walker) typeParamRef(t typesys.Type) *schema.Item {
	sym := t.Symbol()
	if sym == nil {
		return &schema.Item{Type: w.checker.TypeToString(t)}
	}
	return &schema.Item{Type: sym.Name(), TypeParamSource: w.typeParamIDs[sym]}
}

// resolveObject handles object types. Anonymous and declared types are
// described structurally; references resolve to their first call signature,
// their index signature, or a named reference. Types already being expanded
// on the current path, and types nested past the depth limit, become named
// references.
func (w *walker) resolveObject(t typesys.Type, id string, describe bool) (*schema.Item, error) {
	if w.visiting[t] {
		slogctx.Debug(w.ctx, "cycle placeholder emitted", slog.String("id", id), slog.String("type", w.checker.TypeToString(t)))
		return w.placeholder(t), nil
	}
	if w.depth >= w.maxDepth {
		slogctx.Debug(w.ctx, "depth limit reached", slog.String("id", id), slog.Int("maxDepth", w.maxDepth))
		return w.placeholder(t), nil
	}
	w.visiting[t] = true
	w.depth++
	defer func() {
		delete(w.visiting, t)
		w.depth--
	}()

	if !t.ObjectFlags().Has(typesys.ObjectReference) && !indexOnly(t) {
		return w.describe(t, id, describe)
	}
	if calls := t.CallSignatures(); len(calls) > 0 {
		out := &schema.Item{Type: schema.TypeFunction}
		if err := w.addCallSignature(calls[0], out, id); err != nil {
			return nil, err
		}
		return out, nil
	}
	if s := t.StringIndexType(); s != nil {
		arg, err := w.resolveType(s, indexID(id), false)
		if err != nil {
			return nil, err
		}
		return &schema.Item{Type: schema.TypeObject, TypeArgs: []*schema.Item{arg}}, nil
	}
	if n := t.NumberIndexType(); n != nil {
		arg, err := w.resolveType(n, indexID(id), false)
		if err != nil {
			return nil, err
		}
		return &schema.Item{Type: schema.TypeArray, TypeArgs: []*schema.Item{arg}}, nil
	}
	return w.reference(t, id)
}

// indexOnly reports an anonymous object type made of nothing but an index
// signature, such as { [key: string]: V }.
func indexOnly(t typesys.Type) bool {
	if t.ObjectFlags().Has(typesys.ObjectClass|typesys.ObjectInterface) || len(t.Properties()) > 0 ||
		len(t.CallSignatures()) > 0 || len(t.ConstructSignatures()) > 0 {
		return false
	}
	if sym := t.Symbol(); sym != nil && sym.Flags().Has(typesys.SymbolClass|typesys.SymbolEnum) {
		return false
	}
	return t.StringIndexType() != nil || t.NumberIndexType() != nil
}

// reference describes a named type by name, source file and arguments.
func (w *walker) reference(t typesys.Type, id string) (*schema.Item, error) {
	sym := t.Symbol()
	if sym == nil {
		return nil, w.unsupported(t, id)
	}
	out := &schema.Item{Type: sym.Name(), TypeSource: w.typeSource(sym)}
	if args := t.TypeArguments(); len(args) > 0 {
		resolved, err := w.resolveTypes(args, id)
		if err != nil {
			return nil, err
		}
		out.TypeArgs = resolved
	}
	return out, nil
}

// placeholder names a type without expanding it.
func (w *walker) placeholder(t typesys.Type) *schema.Item {
	sym := t.AliasSymbol()
	if sym == nil {
		sym = t.Symbol()
	}
	if sym == nil || strings.HasPrefix(sym.Name(), "__") {
		return &schema.Item{Type: schema.TypeObject}
	}
	return &schema.Item{Type: sym.Name(), TypeSource: w.typeSource(sym)}
}

// typeSource is the file declaring sym, relative to the base directory.
// Built-in and external types have none.
func (w *walker) typeSource(sym typesys.Symbol) string {
	decl := declarationOf(sym)
	if decl == nil || decl.File == nil {
		return ""
	}
	return relPath(w.baseDir, decl.File.Path)
}

// addCallSignature sets the parameters and return type of a signature on
// target. Void returns are omitted.
func (w *walker) addCallSignature(sig typesys.Signature, target *schema.Item, id string) error {
	params, err := w.params(sig, id)
	if err != nil {
		return err
	}
	target.Params = params
	ret := sig.ReturnType()
	if ret.Flags().Has(typesys.TypeVoid) {
		return nil
	}
	target.Returns, err = w.resolveType(ret, id, false)
	return err
}
