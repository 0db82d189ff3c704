package extract

import (
	"log/slog"
	"regexp"

	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"

	"github.com/jward/tsschema/internal/schema"
	"github.com/jward/tsschema/internal/typesys"
)

// internalMarker excludes documented members from the output.
var internalMarker = regexp.MustCompile(`@internal\b`)

// itemForSymbol builds the Item of one symbol, or returns nil when the symbol
// is private or documented as internal.
func (w *walker) itemForSymbol(sym typesys.Symbol, parentID, sep string) (*schema.Item, error) {
	id := ChildID(parentID, sep, sym.Name())
	kind, err := Classify(sym.Flags())
	if err != nil {
		return nil, errors.WithDetails(errors.Errorf("symbol %s: %w", sym.Name(), err), "symbol", sym.Name(), "id", id)
	}

	decl := declarationOf(sym)
	if decl == nil {
		return nil, errors.WithDetails(
			errors.Errorf("%w: symbol %s", ErrMissingDeclaration, sym.Name()),
			"symbol", sym.Name(), "id", id, "flags", sym.Flags().String())
	}

	item := &schema.Item{Kind: kind, ID: id}
	typ := w.symbolType(sym)
	w.addSourceData(decl, item)
	if item.TypeParams, err = w.typeParams(decl, id); err != nil {
		return nil, err
	}

	var mods typesys.ModifierFlags
	if vd := sym.ValueDeclaration(); vd != nil {
		mods = vd.Modifiers
	}
	flags := sym.Flags()
	item.Abstract = mods.Has(typesys.ModifierAbstract)
	item.Readonly = mods.Has(typesys.ModifierReadonly) ||
		(flags.Has(typesys.SymbolGetAccessor) && !flags.Has(typesys.SymbolSetAccessor))
	item.Optional = flags.Has(typesys.SymbolOptional)
	if mods.Has(typesys.ModifierPrivate) || internalMarker.MatchString(item.Description) {
		slogctx.Debug(w.ctx, "item filtered", slog.String("id", id))
		return nil, nil
	}

	describe := kind != schema.KindProperty && kind != schema.KindMethod && kind != schema.KindVariable
	shape, err := w.resolveType(typ, id, describe)
	if err != nil {
		return nil, err
	}
	merge(item, shape)
	return item, nil
}

// merge copies the structural half of shape onto item. A description found
// on the type replaces the binding's own; type parameters stay the binding's.
func merge(item, shape *schema.Item) {
	if shape.Description != "" {
		item.Description = shape.Description
	}
	item.Type = shape.Type
	item.TypeSource = shape.TypeSource
	item.TypeParamSource = shape.TypeParamSource
	item.TypeArgs = shape.TypeArgs
	item.Params = shape.Params
	item.Returns = shape.Returns
	item.Extends = shape.Extends
	item.Implements = shape.Implements
	item.Construct = shape.Construct
	item.Properties = shape.Properties
	item.InstanceProperties = shape.InstanceProperties
}

// symbolType is the value-side type of a symbol, or its declared type for
// symbols without one, such as interfaces and type aliases.
func (w *walker) symbolType(sym typesys.Symbol) typesys.Type {
	t := w.checker.TypeOfSymbolAtLocation(sym, declarationOf(sym))
	if t.Flags().Has(typesys.TypeAny) {
		t = w.checker.DeclaredTypeOfSymbol(sym)
	}
	return t
}

func declarationOf(sym typesys.Symbol) *typesys.Node {
	if vd := sym.ValueDeclaration(); vd != nil {
		return vd
	}
	if decls := sym.Declarations(); len(decls) > 0 {
		return decls[0]
	}
	return nil
}

// addSourceData sets the description and location of a declaration. The
// comment of a variable sits before its whole statement.
func (w *walker) addSourceData(n *typesys.Node, target *schema.Item) {
	commented := n
	if n.Kind == typesys.KindVariableDeclaration && n.Parent != nil && n.Parent.Parent != nil {
		commented = n.Parent.Parent
	}
	if c := Comment(commented); c != "" {
		target.Description = c
	}
	target.Loc = Location(n, w.baseDir)
}

// typeParams describes the generic parameters a declaration declares. Each
// one is registered so references to it carry the descriptor's id.
func (w *walker) typeParams(decl *typesys.Node, id string) ([]*schema.Item, error) {
	if len(decl.TypeParameters) == 0 {
		return nil, nil
	}
	out := make([]*schema.Item, 0, len(decl.TypeParameters))
	for _, tp := range decl.TypeParameters {
		sym := w.checker.SymbolAtLocation(tp.Name)
		if sym == nil {
			return nil, errors.WithDetails(
				errors.Errorf("%w: type parameter %s", ErrMissingDeclaration, tp.Identifier()),
				"id", id)
		}
		tid := ChildID(id, SepStatic, sym.Name())
		w.typeParamIDs[sym] = tid
		item := &schema.Item{Type: schema.TypeTypeParam, Name: sym.Name(), ID: tid}
		w.addSourceData(tp, item)
		if tp.Constraint != nil {
			c, err := w.resolveType(w.checker.TypeAtLocation(tp.Constraint), id, false)
			if err != nil {
				return nil, err
			}
			item.Implements = []*schema.Item{c}
		}
		if tp.Default != nil {
			item.Default = tp.Default.TrimmedText()
		}
		out = append(out, item)
	}
	return out, nil
}

// params describes a signature's parameters. Parameter ids nest under id.
// A default value makes a parameter optional.
func (w *walker) params(sig typesys.Signature, id string) ([]*schema.Item, error) {
	params := sig.Parameters()
	out := make([]*schema.Item, 0, len(params))
	for _, p := range params {
		pid := ChildID(id, SepStatic, p.Name())
		item, err := w.resolveType(w.symbolType(p), pid, false)
		if err != nil {
			return nil, err
		}
		item.Name = p.Name()
		item.ID = pid
		if decl := p.ValueDeclaration(); decl != nil {
			w.addSourceData(decl, item)
			if decl.Initializer != nil {
				item.Default = decl.Initializer.TrimmedText()
			}
			item.Rest = decl.Flags&typesys.NodeRest != 0
		}
		item.Optional = item.Default != "" || p.Flags().Has(typesys.SymbolOptional)
		out = append(out, item)
	}
	return out, nil
}
