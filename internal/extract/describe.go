package extract

import (
	"github.com/jward/tsschema/internal/schema"
	"github.com/jward/tsschema/internal/typesys"
)

// describe expands a class, enum, interface or plain object type.
func (w *walker) describe(t typesys.Type, id string, withDoc bool) (*schema.Item, error) {
	sym := t.Symbol()
	out := &schema.Item{}
	if withDoc && sym != nil {
		if decl := declarationOf(sym); decl != nil {
			out.Description = Comment(decl)
		}
	}

	var flags typesys.SymbolFlags
	if sym != nil {
		flags = sym.Flags()
	}
	var err error
	switch {
	case flags.Has(typesys.SymbolClass):
		err = w.describeClass(t, sym, id, out)
	case flags.Has(typesys.SymbolEnum):
		out.Type = schema.TypeEnum
		err = w.gatherProperties(t.Properties(), &out.Properties, id, SepInstance)
	case flags.Has(typesys.SymbolInterface):
		err = w.describeInterface(t, sym, id, out)
	default:
		err = w.describeObject(t, id, out)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// describeClass reads the static side of a class. The instance members come
// from the return type of the first construct signature.
func (w *walker) describeClass(t typesys.Type, sym typesys.Symbol, id string, out *schema.Item) error {
	out.Type = schema.TypeClass
	ctors := t.ConstructSignatures()
	if len(ctors) > 0 {
		if decl := ctors[0].Declaration(); decl != nil {
			cid := ConstructorID(id)
			construct := &schema.Item{Kind: schema.KindConstructor, ID: cid, Type: schema.TypeFunction}
			w.addSourceData(decl, construct)
			params, err := w.params(ctors[0], cid)
			if err != nil {
				return err
			}
			construct.Params = params
			out.Construct = construct
		}
		if err := w.gatherProperties(ctors[0].ReturnType().Properties(), &out.InstanceProperties, id, SepInstance); err != nil {
			return err
		}
	}

	var statics []typesys.Symbol
	for _, p := range t.Properties() {
		if p.Name() != "prototype" {
			statics = append(statics, p)
		}
	}
	if err := w.gatherProperties(statics, &out.Properties, id, SepStatic); err != nil {
		return err
	}

	decl := declarationOf(sym)
	if decl == nil || !decl.Kind.IsClassLike() {
		return nil
	}
	for _, hc := range decl.Heritage {
		parents, err := w.heritage(hc, id)
		if err != nil {
			return err
		}
		if hc.Token == typesys.HeritageExtends {
			out.Extends = parents[0]
		} else {
			out.Implements = parents
		}
	}
	return nil
}

// describeInterface reads an interface. Every extended interface is listed
// under implements.
func (w *walker) describeInterface(t typesys.Type, sym typesys.Symbol, id string, out *schema.Item) error {
	out.Type = schema.TypeInterface
	if calls := t.CallSignatures(); len(calls) > 0 {
		if err := w.addCallSignature(calls[0], out, id); err != nil {
			return err
		}
	}
	if err := w.gatherProperties(t.Properties(), &out.Properties, id, SepInstance); err != nil {
		return err
	}
	for _, decl := range sym.Declarations() {
		for _, hc := range decl.Heritage {
			parents, err := w.heritage(hc, id)
			if err != nil {
				return err
			}
			out.Implements = append(out.Implements, parents...)
		}
	}
	return nil
}

// describeObject reads an anonymous object type. A callable type without
// properties is a Function.
func (w *walker) describeObject(t typesys.Type, id string, out *schema.Item) error {
	calls, props := t.CallSignatures(), t.Properties()
	out.Type = schema.TypeObject
	if len(calls) > 0 {
		if len(props) == 0 {
			out.Type = schema.TypeFunction
		}
		if err := w.addCallSignature(calls[0], out, id); err != nil {
			return err
		}
	}
	return w.gatherProperties(props, &out.Properties, id, SepInstance)
}

func (w *walker) heritage(hc typesys.HeritageClause, id string) ([]*schema.Item, error) {
	parents := make([]*schema.Item, 0, len(hc.Types))
	for _, n := range hc.Types {
		p, err := w.resolveType(w.checker.TypeAtLocation(n), id, false)
		if err != nil {
			return nil, err
		}
		parents = append(parents, p)
	}
	return parents, nil
}

// gatherProperties sets *target to the Items of props when there are any.
func (w *walker) gatherProperties(props []typesys.Symbol, target **schema.Items, id, sep string) error {
	if len(props) == 0 {
		return nil
	}
	*target = schema.NewItems()
	return w.gatherSymbols(props, *target, id, sep)
}
