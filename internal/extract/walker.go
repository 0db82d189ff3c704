// Package extract converts the exported symbols of a loaded program into
// schema Items.
//
// The walk is depth first and single threaded. Each exported symbol is
// classified, given a hierarchical id, annotated with its documentation
// comment and location, and merged with the structural description of its
// type. Members of classes, interfaces, enums and object types recurse
// through the same steps.
package extract

import (
	"context"
	"log/slog"

	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"

	"github.com/jward/tsschema/internal/schema"
	"github.com/jward/tsschema/internal/typesys"
)

// DefaultMaxDepth bounds how deeply object types are expanded.
const DefaultMaxDepth = 64

type walker struct {
	ctx      context.Context
	checker  typesys.Checker
	baseDir  string
	maxDepth int

	depth    int
	visiting map[typesys.Type]bool
	// typeParamIDs maps type parameter symbols to the id of their descriptor.
	typeParamIDs map[typesys.Symbol]string
}

// Option configures Gather.
type Option func(*walker)

// WithBaseDir sets the directory locations and type sources are relative
// to. It defaults to the program's configuration directory.
func WithBaseDir(dir string) Option {
	return func(w *walker) {
		if dir != "" {
			w.baseDir = dir
		}
	}
}

// WithMaxDepth bounds object type expansion. Types nested deeper are emitted
// as named references.
func WithMaxDepth(n int) Option {
	return func(w *walker) {
		if n > 0 {
			w.maxDepth = n
		}
	}
}

// Gather adds an Item for every exported symbol of prog to items, keyed by
// export name in export order. A nil items starts a new mapping. Later
// exports with the same name replace earlier ones.
func Gather(ctx context.Context, prog typesys.Program, items *schema.Items, opts ...Option) (*schema.Items, error) {
	if items == nil {
		items = schema.NewItems()
	}
	w := &walker{
		ctx:          ctx,
		checker:      prog.Checker(),
		baseDir:      prog.ConfigDir(),
		maxDepth:     DefaultMaxDepth,
		visiting:     make(map[typesys.Type]bool),
		typeParamIDs: make(map[typesys.Symbol]string),
	}
	for _, opt := range opts {
		opt(w)
	}

	exports := prog.EntryExports()
	slogctx.Debug(ctx, "exports found",
		slog.String("entry", prog.EntryFile()),
		slog.Int("count", len(exports)))
	if err := w.gatherSymbols(exports, items, "", ""); err != nil {
		return nil, err
	}
	return items, nil
}

// gatherSymbols adds an Item per symbol to target, skipping filtered ones.
func (w *walker) gatherSymbols(symbols []typesys.Symbol, target *schema.Items, parentID, sep string) error {
	for _, sym := range symbols {
		if err := w.ctx.Err(); err != nil {
			return errors.WithStack(err)
		}
		item, err := w.itemForSymbol(sym, parentID, sep)
		if err != nil {
			return err
		}
		if item != nil {
			target.Set(sym.Name(), item)
		}
	}
	return nil
}
