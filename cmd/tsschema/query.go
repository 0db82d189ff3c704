package main

import (
	"os"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/jward/tsschema"
)

func newQueryCmd(c *cli) *cobra.Command {
	var entry string
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query a saved extraction",
		Long:  "Run queries against the latest run saved with 'tsschema gather --save'. Lines are 1-based, columns 0-based.",
	}
	cmd.PersistentFlags().StringVar(&entry, "entry", "", "read the latest run of this entry file (default: latest run of any entry)")

	// run opens the database, scopes the QueryBuilder and hands it to fn.
	run := func(fn func(cmd *cobra.Command, q *tsschema.QueryBuilder, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine(c)
			if err != nil {
				return err
			}
			defer engine.Close()
			q := engine.Query()
			if entry != "" {
				q = q.ForEntry(entry)
			}
			return fn(cmd, q, args)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "item <id>",
		Short: "Show one item by id",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, q *tsschema.QueryBuilder, args []string) error {
			row, err := q.Item(args[0])
			if err != nil {
				return err
			}
			if row == nil {
				return errors.Errorf("no item with id %q", args[0])
			}
			return c.printer(cmd).rows([]*tsschema.Row{row})
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "kind <kind>",
		Short: "List items of one binding kind",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, q *tsschema.QueryBuilder, args []string) error {
			rows, err := q.Kind(tsschema.BindingKind(args[0]))
			if err != nil {
				return err
			}
			return c.printer(cmd).rows(rows)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "children [id]",
		Short: "List the members of an item, or the top-level items",
		Args:  cobra.MaximumNArgs(1),
		RunE: run(func(cmd *cobra.Command, q *tsschema.QueryBuilder, args []string) error {
			var id string
			if len(args) > 0 {
				id = args[0]
			}
			rows, err := q.Children(id)
			if err != nil {
				return err
			}
			return c.printer(cmd).rows(rows)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "search <pattern>",
		Short: "List items whose id matches a glob",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, q *tsschema.QueryBuilder, args []string) error {
			rows, err := q.Search(args[0])
			if err != nil {
				return err
			}
			return c.printer(cmd).rows(rows)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "summary",
		Short: "Count the items of the latest run per kind",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, q *tsschema.QueryBuilder, _ []string) error {
			s, err := q.Summary()
			if err != nil {
				return err
			}
			if s == nil {
				return errors.New("no saved runs (run 'tsschema gather --save' first)")
			}
			return c.printer(cmd).summary(summaryToCLI(s))
		}),
	})
	return cmd
}

// openEngine opens the configured database, which must already exist.
func openEngine(c *cli) (*tsschema.Engine, error) {
	if _, err := os.Stat(c.cfg.DB); os.IsNotExist(err) {
		return nil, errors.Errorf("database not found: %s (run 'tsschema gather --save' first)", c.cfg.DB)
	}
	engine, err := tsschema.New(tsschema.WithStore(c.cfg.DB))
	if err != nil {
		return nil, errors.Errorf("opening database: %w", err)
	}
	return engine, nil
}
