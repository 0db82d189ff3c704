package tsschema

import (
	"context"
	"log/slog"
	"runtime"

	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/jward/tsschema/internal/program"
)

// loadPrograms loads one program per entry using a bounded worker pool. The
// result is in entry order. Workers share the Engine's parse cache; the
// first failure cancels the rest.
func (e *Engine) loadPrograms(ctx context.Context, entries []string) ([]*program.Program, error) {
	progs := make([]*program.Program, len(entries))
	if len(entries) == 0 {
		return progs, nil
	}

	workers := e.parallelism
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = max(min(workers, len(entries)), 1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, entry := range entries {
		g.Go(func() error {
			prog, err := program.Load(gctx, entry, program.WithCache(e.cache))
			if err != nil {
				return errors.Errorf("tsschema: load %s: %w", entry, err)
			}
			progs[i] = prog
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	slogctx.Debug(ctx, "programs loaded",
		slog.Int("count", len(progs)),
		slog.Int("workers", workers),
		slog.Int("cachedFiles", e.cache.Len()))
	return progs, nil
}
