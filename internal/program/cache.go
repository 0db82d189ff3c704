package program

import (
	"context"
	"os"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	sitter "github.com/smacker/go-tree-sitter"
	"gitlab.com/tozd/go/errors"

	"github.com/jward/tsschema/internal/typesys"
)

// DefaultCacheSize is the number of parsed files a FileCache keeps.
const DefaultCacheSize = 512

// parsedFile is one parsed source file. A sitter.Tree memoizes nodes in an
// unlocked map on every traversal, so the cache keeps a tree nobody walks
// and hands each caller its own copy.
type parsedFile struct {
	file    *typesys.SourceFile
	src     []byte
	tree    *sitter.Tree
	modTime time.Time
	size    int64
}

func (p *parsedFile) root() *sitter.Node { return p.tree.RootNode() }

// clone returns p with a private copy of its tree. The source text and line
// index are immutable and stay shared.
func (p *parsedFile) clone() *parsedFile {
	c := *p
	c.tree = p.tree.Copy()
	return &c
}

// FileCache holds parsed source files keyed by absolute path. An entry is
// reused only while the file's modification time and size are unchanged.
// Safe for concurrent use.
type FileCache struct {
	mu    sync.Mutex
	files *lru.Cache[string, *parsedFile]
}

// NewFileCache creates a cache holding up to size files.
func NewFileCache(size int) (*FileCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, *parsedFile](size)
	if err != nil {
		return nil, errors.Errorf("program: file cache: %w", err)
	}
	return &FileCache{files: c}, nil
}

// Len returns the number of cached files.
func (c *FileCache) Len() int { return c.files.Len() }

// get returns the parsed file at path, parsing it when missing or stale.
// The returned tree belongs to the caller.
func (c *FileCache) get(ctx context.Context, path string) (*parsedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.WithDetails(errors.WrapWith(err, ErrEntryNotFound), "path", path)
	}

	c.mu.Lock()
	cached, ok := c.files.Get(path)
	c.mu.Unlock()
	if ok && cached.modTime.Equal(info.ModTime()) && cached.size == info.Size() {
		return cached.clone(), nil
	}

	pf, err := parseFile(ctx, path, info)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.files.Add(path, pf)
	c.mu.Unlock()
	return pf.clone(), nil
}

func parseFile(ctx context.Context, path string, info os.FileInfo) (*parsedFile, error) {
	lang, ok := grammarForFile(path)
	if !ok {
		return nil, errors.WithDetails(errors.Errorf("%w: not a TypeScript file", ErrParse), "path", path)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithDetails(errors.WrapWith(err, ErrParse), "path", path)
	}
	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, errors.WithDetails(errors.WrapWith(err, ErrParse), "path", path)
	}
	return &parsedFile{
		file:    typesys.NewSourceFile(path, string(src)),
		src:     src,
		tree:    tree,
		modTime: info.ModTime(),
		size:    info.Size(),
	}, nil
}
