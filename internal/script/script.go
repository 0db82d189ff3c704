// Package script evaluates Risor predicates over extracted Items. A
// predicate sees the Item as the global item (a map shaped like the Item's
// JSON encoding) and its key in the mapping as name; a truthy result keeps
// the Item.
package script

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/object"
	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"

	"github.com/jward/tsschema/internal/schema"
)

// ErrSelect reports a predicate that failed to compile or evaluate.
var ErrSelect = errors.Base("select predicate failed")

// Selector is a compiled-once, evaluated-per-Item predicate.
type Selector struct {
	source string
	extra  map[string]any
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithGlobal exposes an additional global to the predicate.
func WithGlobal(name string, value any) SelectorOption {
	return func(s *Selector) {
		s.extra[name] = value
	}
}

// NewSelector returns a Selector for a Risor expression. An empty expression
// keeps every Item.
func NewSelector(source string, opts ...SelectorOption) *Selector {
	s := &Selector{source: strings.TrimSpace(source), extra: make(map[string]any)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Source returns the predicate's expression.
func (s *Selector) Source() string { return s.source }

// Match evaluates the predicate for one Item.
func (s *Selector) Match(ctx context.Context, name string, it *schema.Item) (bool, error) {
	if s.source == "" {
		return true, nil
	}
	obj, err := ItemObject(it)
	if err != nil {
		return false, errors.WithDetails(errors.WrapWith(err, ErrSelect), "name", name)
	}
	globals := s.buildGlobals(ctx, name, obj)
	opts := make([]risor.Option, 0, len(globals))
	for k, v := range globals {
		opts = append(opts, risor.WithGlobal(k, v))
	}

	result, err := risor.Eval(ctx, s.source, opts...)
	if err != nil {
		return false, errors.WithDetails(
			errors.Errorf("%w: %s", ErrSelect, err.Error()),
			"name", name, "select", s.source)
	}
	if e, ok := result.(*object.Error); ok {
		return false, errors.WithDetails(
			errors.Errorf("%w: %s", ErrSelect, e.Inspect()),
			"name", name, "select", s.source)
	}
	return result.IsTruthy(), nil
}

// Select returns the entries of items the predicate keeps, in order.
func (s *Selector) Select(ctx context.Context, items *schema.Items) (*schema.Items, error) {
	if s.source == "" {
		return items, nil
	}
	out, err := items.Filter(func(name string, it *schema.Item) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, errors.WithStack(err)
		}
		return s.Match(ctx, name, it)
	})
	if err != nil {
		return nil, err
	}
	slogctx.Debug(ctx, "items selected",
		slog.String("select", s.source),
		slog.Int("kept", out.Len()),
		slog.Int("total", items.Len()))
	return out, nil
}

// buildGlobals constructs the full set of globals exposed to a predicate.
func (s *Selector) buildGlobals(ctx context.Context, name string, item object.Object) map[string]any {
	globals := map[string]any{
		"item":     item,
		"name":     object.NewString(name),
		"has_kind": makeHasKindFn(),
		"log":      mustProxy(&logObject{ctx: ctx}),
	}
	for k, v := range s.extra {
		globals[k] = v
	}
	return globals
}

// ItemObject converts an Item into the Risor map a predicate sees.
func ItemObject(it *schema.Item) (object.Object, error) {
	data, err := json.Marshal(it)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, errors.WithStack(err)
	}
	return toObject(v), nil
}
