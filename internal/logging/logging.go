// Package logging builds the slog handler used by the command line: tint
// for terminal output, wrapped so attributes carried on the context are
// emitted.
package logging

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"
)

// ErrLevel reports an unknown log level name.
var ErrLevel = errors.Base("unknown log level")

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// ParseLevel maps a level name to a slog level. The empty name is warn.
func ParseLevel(name string) (slog.Level, error) {
	if name == "" {
		return slog.LevelWarn, nil
	}
	lvl, ok := levels[strings.ToLower(name)]
	if !ok {
		return 0, errors.WithDetails(
			errors.Errorf("%w: %q", ErrLevel, name),
			"valid", strings.Join(slices.Sorted(maps.Keys(levels)), ","))
	}
	return lvl, nil
}

// Options configures the handler.
type Options struct {
	Level   slog.Level
	NoColor bool
}

// NewLogger returns a logger writing tinted lines to w. Color is disabled
// when requested or when w is not a terminal.
func NewLogger(w io.Writer, opts Options) *slog.Logger {
	noColor := opts.NoColor
	if f, ok := w.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		noColor = true
	}
	handler := tint.NewHandler(w, &tint.Options{
		Level:       opts.Level,
		TimeFormat:  "15:04:05.000",
		NoColor:     noColor,
		ReplaceAttr: formatErrorDetails,
	})
	return slog.New(slogctx.NewHandler(handler, nil))
}

// Setup installs a logger as the default and on the returned context.
func Setup(ctx context.Context, w io.Writer, opts Options) context.Context {
	logger := NewLogger(w, opts)
	slog.SetDefault(logger)
	return slogctx.NewCtx(ctx, logger)
}

// formatErrorDetails expands the details attached to an error attribute.
func formatErrorDetails(_ []string, a slog.Attr) slog.Attr {
	if a.Key != "err" && a.Key != "error" {
		return a
	}
	err, ok := a.Value.Any().(error)
	if !ok {
		return a
	}
	details := errors.AllDetails(err)
	if len(details) == 0 {
		return a
	}
	attrs := []slog.Attr{slog.String("msg", err.Error())}
	for _, k := range slices.Sorted(maps.Keys(details)) {
		attrs = append(attrs, slog.Any(k, details[k]))
	}
	return slog.Attr{Key: a.Key, Value: slog.GroupValue(attrs...)}
}
