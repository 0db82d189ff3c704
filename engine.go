package tsschema

import (
	"context"
	"log/slog"
	"path/filepath"

	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"

	"github.com/jward/tsschema/internal/discover"
	"github.com/jward/tsschema/internal/extract"
	"github.com/jward/tsschema/internal/program"
	"github.com/jward/tsschema/internal/schema"
	"github.com/jward/tsschema/internal/script"
	"github.com/jward/tsschema/internal/store"
)

// ErrNoStore reports a query against an Engine created without WithStore.
var ErrNoStore = errors.Base("no store configured")

// Engine gathers Items from TypeScript modules. Parsed files are cached
// across calls. An Engine is not safe for concurrent Gather calls.
type Engine struct {
	store    *store.Store
	cache    *program.FileCache
	selector *script.Selector

	dbPath      string
	baseDir     string
	maxDepth    int
	cacheSize   int
	parallelism int
	keepRuns    int
	exclude     []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithBaseDir makes locations and type sources relative to dir instead of
// each program's tsconfig directory.
func WithBaseDir(dir string) Option {
	return func(e *Engine) {
		e.baseDir = dir
	}
}

// WithMaxDepth bounds how deeply object types are expanded.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		e.maxDepth = n
	}
}

// WithStore records every gathered mapping as a run in the SQLite database
// at path.
func WithStore(path string) Option {
	return func(e *Engine) {
		e.dbPath = path
	}
}

// WithSelect keeps only the top-level Items for which the Risor expression
// is truthy.
func WithSelect(expr string) Option {
	return func(e *Engine) {
		e.selector = script.NewSelector(expr)
	}
}

// WithCacheSize sets how many parsed files the Engine keeps.
func WithCacheSize(n int) Option {
	return func(e *Engine) {
		e.cacheSize = n
	}
}

// WithParallelism bounds how many programs GatherDir loads at once.
func WithParallelism(n int) Option {
	return func(e *Engine) {
		e.parallelism = n
	}
}

// WithExclude skips directories matching the gitignore-style patterns in
// GatherDir.
func WithExclude(patterns ...string) Option {
	return func(e *Engine) {
		e.exclude = append(e.exclude, patterns...)
	}
}

// WithKeepRuns prunes saved runs of an entry down to the newest n after
// each save. Zero keeps every run.
func WithKeepRuns(n int) Option {
	return func(e *Engine) {
		e.keepRuns = n
	}
}

// New creates an Engine. With WithStore the database is opened and migrated.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		selector: script.NewSelector(""),
		maxDepth: extract.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.baseDir != "" {
		abs, err := filepath.Abs(e.baseDir)
		if err != nil {
			return nil, errors.Errorf("tsschema: base dir: %w", err)
		}
		e.baseDir = abs
	}

	cache, err := program.NewFileCache(e.cacheSize)
	if err != nil {
		return nil, errors.Errorf("tsschema: %w", err)
	}
	e.cache = cache

	if e.dbPath != "" {
		s, err := store.NewStore(e.dbPath)
		if err != nil {
			return nil, errors.Errorf("tsschema: create store: %w", err)
		}
		if err := s.Migrate(); err != nil {
			s.Close()
			return nil, errors.Errorf("tsschema: migrate store: %w", err)
		}
		e.store = s
	}
	return e, nil
}

// Close releases the Engine's store.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Store returns the underlying store, or nil without WithStore.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Query returns a QueryBuilder over the Engine's store.
func (e *Engine) Query() *QueryBuilder {
	if e.store == nil {
		return &QueryBuilder{}
	}
	return &QueryBuilder{reader: e.store}
}

// Gather adds an Item for every exported binding of the module at entry to
// items, keyed by export name. A nil items starts a new mapping. Existing
// entries with the same name are replaced.
func (e *Engine) Gather(ctx context.Context, entry string, items *Items) (*Items, error) {
	prog, err := program.Load(ctx, entry, program.WithCache(e.cache))
	if err != nil {
		return nil, errors.Errorf("tsschema: load %s: %w", entry, err)
	}
	return e.gatherProgram(ctx, prog, items)
}

// GatherDir gathers every entry module found under dir into one mapping.
// Programs are loaded concurrently and walked one at a time in path order,
// so later modules replace same-named Items of earlier ones.
func (e *Engine) GatherDir(ctx context.Context, dir string, items *Items) (*Items, error) {
	entries, err := discover.Entries(dir, e.exclude)
	if err != nil {
		return nil, errors.Errorf("tsschema: discover: %w", err)
	}
	slogctx.Debug(ctx, "entries discovered", slog.String("dir", dir), slog.Int("count", len(entries)))
	if items == nil {
		items = schema.NewItems()
	}

	progs, err := e.loadPrograms(ctx, entries)
	if err != nil {
		return nil, err
	}
	for _, prog := range progs {
		if _, err := e.gatherProgram(ctx, prog, items); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// gatherProgram walks one loaded program, applies the selector, saves the
// result and merges it into items.
func (e *Engine) gatherProgram(ctx context.Context, prog *program.Program, items *Items) (*Items, error) {
	ctx = slogctx.With(ctx, slog.String("entry", prog.EntryFile()))

	gathered, err := extract.Gather(ctx, prog, nil,
		extract.WithBaseDir(e.baseDir),
		extract.WithMaxDepth(e.maxDepth))
	if err != nil {
		return nil, errors.Errorf("tsschema: gather %s: %w", prog.EntryFile(), err)
	}
	selected, err := e.selector.Select(ctx, gathered)
	if err != nil {
		return nil, errors.Errorf("tsschema: select: %w", err)
	}
	if err := e.save(ctx, prog, selected); err != nil {
		return nil, err
	}

	if items == nil {
		return selected, nil
	}
	items.Merge(selected)
	return items, nil
}

func (e *Engine) save(ctx context.Context, prog *program.Program, items *Items) error {
	if e.store == nil {
		return nil
	}
	baseDir := prog.ConfigDir()
	if e.baseDir != "" {
		baseDir = e.baseDir
	}
	runID, err := e.store.SaveRun(prog.EntryFile(), baseDir, items)
	if err != nil {
		return errors.Errorf("tsschema: save run: %w", err)
	}
	if err := e.store.SetMetadata(store.MetaToolVersion, Version); err != nil {
		return errors.Errorf("tsschema: save run: %w", err)
	}
	if e.keepRuns > 0 {
		if err := e.store.PruneRuns(prog.EntryFile(), e.keepRuns); err != nil {
			return errors.Errorf("tsschema: prune runs: %w", err)
		}
	}
	slogctx.Debug(ctx, "run saved", slog.Int64("run", runID), slog.Int("items", items.Len()))
	return nil
}
