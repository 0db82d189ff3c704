package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/jward/tsschema"
	"github.com/jward/tsschema/internal/config"
	"github.com/jward/tsschema/internal/logging"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// cli holds the flags shared by every command and the configuration they
// resolve to.
type cli struct {
	db       string
	format   string
	logLevel string
	noColor  bool
	config   string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "tsschema",
		Short:         "Describe the exported surface of TypeScript modules",
		Long:          "tsschema walks the exports of a TypeScript entry module and emits a structural schema of every exported binding.",
		Version:       tsschema.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&c.db, "db", "", "database path (default: tsschema.db)")
	root.PersistentFlags().StringVar(&c.format, "format", "", "output format: json|yaml|text|pretty (default: json)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: debug|info|warn|error")
	root.PersistentFlags().BoolVar(&c.noColor, "no-color", false, "disable colored log output")
	root.PersistentFlags().StringVar(&c.config, "config", "", "configuration file (default: nearest "+config.FileName+")")

	root.AddCommand(newGatherCmd(c))
	root.AddCommand(newQueryCmd(c))
	return root
}

// setup resolves the configuration, lets flags override it, and installs
// the logger on the command's context.
func (c *cli) setup(cmd *cobra.Command) error {
	cwd, err := os.Getwd()
	if err != nil {
		return errors.Errorf("getting cwd: %w", err)
	}
	cfg, err := config.Load(cwd, c.config)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DB = c.db
	}
	if flags.Changed("format") {
		cfg.Format = c.format
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = c.logLevel
	}
	if err := validateFormat(cfg.Format); err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logging.Setup(ctx, cmd.ErrOrStderr(), logging.Options{Level: level, NoColor: c.noColor})
	cmd.SetContext(ctx)
	c.cfg = cfg
	return nil
}

// printer returns the output printer for the resolved format.
func (c *cli) printer(cmd *cobra.Command) *printer {
	return &printer{w: cmd.OutOrStdout(), format: c.cfg.Format}
}
