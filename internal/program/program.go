// Package program loads a TypeScript entry module and everything it imports
// with tree-sitter, binds declarations into symbols, and answers type
// questions about them through the typesys interfaces.
package program

import (
	"context"
	"log/slog"
	"path/filepath"

	sitter "github.com/smacker/go-tree-sitter"
	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"

	"github.com/jward/tsschema/internal/typesys"
)

// Program is a loaded entry module. It implements typesys.Program.
type Program struct {
	entry     string
	configDir string
	config    *Config
	resolver  *moduleResolver
	cache     *FileCache

	modules map[string]*module
	order   []string // load order

	// Declaration nodes and the syntax they were built from.
	nodes      map[nodeKey]*typesys.Node
	syntaxOf   map[*typesys.Node]*sitter.Node
	moduleOf   map[*typesys.Node]*module
	nodeSyms   map[*typesys.Node]*symbol
	typeParams map[nodeKey]*symbol
	externals  map[string]*symbol
	heritage   map[*typesys.Node]*sitter.Node // heritage target → its type arguments

	checker *checker
}

// Option configures Load.
type Option func(*Program)

// WithCache shares a parsed-file cache between programs.
func WithCache(c *FileCache) Option {
	return func(p *Program) {
		p.cache = c
	}
}

// Load parses the entry file and every module it reaches through relative
// or tsconfig-mapped imports and re-exports.
func Load(ctx context.Context, entry string, opts ...Option) (*Program, error) {
	abs, err := filepath.Abs(entry)
	if err != nil {
		return nil, errors.WithDetails(errors.WrapWith(err, ErrEntryNotFound), "entry", entry)
	}
	if !isFile(abs) {
		return nil, errors.WithDetails(ErrEntryNotFound, "entry", entry)
	}
	if !IsSourceFile(abs) {
		return nil, errors.WithDetails(errors.Errorf("%w: not a TypeScript file", ErrParse), "entry", entry)
	}

	p := &Program{
		entry:      abs,
		modules:    make(map[string]*module),
		nodes:      make(map[nodeKey]*typesys.Node),
		syntaxOf:   make(map[*typesys.Node]*sitter.Node),
		moduleOf:   make(map[*typesys.Node]*module),
		nodeSyms:   make(map[*typesys.Node]*symbol),
		typeParams: make(map[nodeKey]*symbol),
		externals:  make(map[string]*symbol),
		heritage:   make(map[*typesys.Node]*sitter.Node),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cache == nil {
		if p.cache, err = NewFileCache(DefaultCacheSize); err != nil {
			return nil, err
		}
	}

	p.configDir = filepath.Dir(abs)
	if cfgPath := FindConfigFile(abs); cfgPath != "" {
		cfg, err := LoadConfig(cfgPath)
		if err != nil {
			return nil, err
		}
		p.config = cfg
		p.configDir = cfg.Dir
	}
	p.resolver = &moduleResolver{cfg: p.config}

	queue := []string{abs}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, errors.WithStack(err)
		}
		path := queue[0]
		queue = queue[1:]
		if _, ok := p.modules[path]; ok {
			continue
		}
		pf, err := p.cache.get(ctx, path)
		if err != nil {
			return nil, err
		}
		m := p.bindModule(path, pf)
		for _, spec := range m.specifiers {
			if target := p.resolver.resolve(path, spec); target != "" {
				queue = append(queue, target)
			}
		}
	}
	p.checker = newChecker(p)

	slogctx.Debug(ctx, "program loaded",
		slog.String("entry", abs),
		slog.String("configDir", p.configDir),
		slog.Int("modules", len(p.modules)))
	return p, nil
}

// Checker returns the program's type checker.
func (p *Program) Checker() typesys.Checker { return p.checker }

// ConfigDir is the directory of the governing tsconfig.json, or the entry
// file's directory.
func (p *Program) ConfigDir() string { return p.configDir }

// EntryFile is the absolute path of the entry module.
func (p *Program) EntryFile() string { return p.entry }

// Files lists the absolute paths of every loaded module in load order.
func (p *Program) Files() []string { return append([]string(nil), p.order...) }

// EntryExports lists the entry module's exports in export order. Exports that
// resolve to a declaration are returned as that declaration's symbol, under
// the exported name. Re-exports that cannot be followed stay alias symbols.
func (p *Program) EntryExports() []typesys.Symbol {
	m := p.modules[p.entry]
	table := p.exportsOf(m, map[*module]bool{})
	out := make([]typesys.Symbol, 0, table.len())
	for _, name := range table.names {
		s := table.get(name)
		if target := p.resolveSymbol(s); target != nil && !isModuleObject(target) {
			out = append(out, renamed(target, name))
			continue
		}
		out = append(out, renamed(p.aliasOf(s), name))
	}
	return out
}

// isModuleObject reports whether s stands for a whole module, as bound by
// namespace imports and re-exports.
func isModuleObject(s *symbol) bool {
	return s.flags.Has(typesys.SymbolModule) && len(s.decls) > 0 && s.decls[0].Kind == typesys.KindSourceFile
}

// exportsOf returns a module's own exports followed by the names it
// re-exports through export * declarations.
func (p *Program) exportsOf(m *module, visiting map[*module]bool) *symbolTable {
	if m.exportTable != nil {
		return m.exportTable
	}
	if visiting[m] {
		return m.exports
	}
	visiting[m] = true

	table := newSymbolTable()
	for _, name := range m.exports.names {
		table.set(name, m.exports.get(name))
	}
	for _, star := range m.stars {
		target := p.modules[p.resolver.resolve(m.path, star)]
		if target == nil {
			continue
		}
		sub := p.exportsOf(target, visiting)
		for _, name := range sub.names {
			if name == "default" || table.get(name) != nil {
				continue
			}
			table.set(name, sub.get(name))
		}
	}
	m.exportTable = table
	return table
}

// resolveSymbol follows renames and aliases to the declaring symbol. It
// returns nil for aliases whose module cannot be loaded.
func (p *Program) resolveSymbol(s *symbol) *symbol {
	for i := 0; s != nil && i < 64; i++ {
		switch {
		case s.alias != nil:
			s = p.resolveAlias(s)
		case s.target != nil:
			s = s.target
		default:
			return s
		}
	}
	return nil
}

// aliasOf returns the alias symbol underneath renames.
func (p *Program) aliasOf(s *symbol) *symbol {
	for s.alias == nil && s.target != nil {
		s = s.target
	}
	return s
}

func (p *Program) resolveAlias(s *symbol) *symbol {
	if s.target != nil {
		return s.target
	}
	if s.resolving {
		return nil
	}
	s.resolving = true
	defer func() { s.resolving = false }()

	tm := p.modules[p.resolver.resolve(s.alias.from, s.alias.specifier)]
	if tm == nil {
		return nil
	}
	if s.alias.imported == "*" {
		s.target = &symbol{
			name:  s.name,
			flags: typesys.SymbolModule,
			mod:   tm,
		}
		s.target.addDecl(tm.fileNode, tm.pf.root(), false)
		return s.target
	}
	exported := p.exportsOf(tm, map[*module]bool{}).get(s.alias.imported)
	if exported == nil {
		return nil
	}
	s.target = p.resolveSymbol(exported)
	return s.target
}

// external returns the shared symbol for a name declared outside the loaded
// modules, such as a global or a package import.
func (p *Program) external(name string) *symbol {
	if s, ok := p.externals[name]; ok {
		return s
	}
	s := &symbol{name: name}
	p.externals[name] = s
	return s
}
