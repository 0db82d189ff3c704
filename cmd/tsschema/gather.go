package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"

	"github.com/jward/tsschema"
)

type gatherFlags struct {
	out      string
	baseDir  string
	maxDepth int
	selectFn string
	save     bool
	exclude  []string
}

func newGatherCmd(c *cli) *cobra.Command {
	f := &gatherFlags{}
	cmd := &cobra.Command{
		Use:   "gather <entry.ts|dir>",
		Short: "Extract the schema of a module's exports",
		Long: "Loads the entry module and everything it imports, and prints an Item for every exported binding. " +
			"Given a directory, every package entry beneath it is gathered into one mapping.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGather(cmd, c, f, args[0])
		},
	}
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "write output to a file instead of stdout")
	cmd.Flags().StringVar(&f.baseDir, "base-dir", "", "directory locations are relative to (default: tsconfig directory)")
	cmd.Flags().IntVar(&f.maxDepth, "max-depth", 0, "maximum object type expansion depth")
	cmd.Flags().StringVar(&f.selectFn, "select", "", "Risor expression over item keeping matching top-level items")
	cmd.Flags().BoolVar(&f.save, "save", false, "record the result in the database")
	cmd.Flags().StringSliceVar(&f.exclude, "exclude", nil, "gitignore-style patterns skipped in directory mode")
	return cmd
}

func runGather(cmd *cobra.Command, c *cli, f *gatherFlags, target string) error {
	ctx := cmd.Context()
	cfg := c.cfg

	maxDepth, selectFn := cfg.MaxDepth, cfg.Select
	if cmd.Flags().Changed("max-depth") {
		maxDepth = f.maxDepth
	}
	if cmd.Flags().Changed("select") {
		selectFn = f.selectFn
	}
	opts := []tsschema.Option{
		tsschema.WithBaseDir(f.baseDir),
		tsschema.WithSelect(selectFn),
		tsschema.WithParallelism(cfg.Parallelism),
		tsschema.WithExclude(cfg.Exclude...),
		tsschema.WithExclude(f.exclude...),
	}
	if maxDepth > 0 {
		opts = append(opts, tsschema.WithMaxDepth(maxDepth))
	}
	if f.save {
		opts = append(opts, tsschema.WithStore(cfg.DB))
	}

	engine, err := tsschema.New(opts...)
	if err != nil {
		return errors.Errorf("creating engine: %w", err)
	}
	defer engine.Close()

	info, err := os.Stat(target)
	if err != nil {
		return errors.WithDetails(errors.WrapWith(err, tsschema.ErrEntryNotFound), "target", target)
	}
	var items *tsschema.Items
	if info.IsDir() {
		items, err = engine.GatherDir(ctx, target, nil)
	} else {
		items, err = engine.Gather(ctx, target, nil)
	}
	if err != nil {
		return err
	}
	slogctx.Info(ctx, "gathered", slog.String("target", target), slog.Int("items", items.Len()))

	p := c.printer(cmd)
	if f.out == "" {
		return p.items(items)
	}
	if err := os.MkdirAll(filepath.Dir(f.out), 0o755); err != nil {
		return errors.Errorf("creating %s: %w", filepath.Dir(f.out), err)
	}
	file, err := os.Create(f.out)
	if err != nil {
		return errors.Errorf("creating %s: %w", f.out, err)
	}
	if err := writeAndClose(file, func(w io.Writer) error {
		p.w = w
		return p.items(items)
	}); err != nil {
		return errors.Errorf("writing %s: %w", f.out, err)
	}
	cmd.PrintErrf("Wrote %d items to %s\n", items.Len(), f.out)
	return nil
}

// writeAndClose runs write against wc and closes it. A close failure is
// reported when the write itself succeeded.
func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) error {
	if err := write(wc); err != nil {
		wc.Close()
		return err
	}
	return errors.WithStack(wc.Close())
}
