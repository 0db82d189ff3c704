package script

import (
	"context"
	"fmt"
	"math"

	"github.com/risor-io/risor/object"
	slogctx "github.com/veqryn/slog-context"
)

// toObject converts decoded JSON into Risor values. Whole numbers become
// ints so line and column comparisons behave.
func toObject(v any) object.Object {
	switch v := v.(type) {
	case map[string]any:
		m := make(map[string]object.Object, len(v))
		for k, e := range v {
			m[k] = toObject(e)
		}
		return object.NewMap(m)
	case []any:
		l := make([]object.Object, 0, len(v))
		for _, e := range v {
			l = append(l, toObject(e))
		}
		return object.NewList(l)
	case string:
		return object.NewString(v)
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return object.NewInt(int64(v))
		}
		return object.NewFloat(v)
	case bool:
		return object.NewBool(v)
	}
	return object.Nil
}

// makeHasKindFn creates the "has_kind" host function.
//
// has_kind(item, kind, ...) → bool
func makeHasKindFn() *object.Builtin {
	return object.NewBuiltin("has_kind", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 2 {
			return object.Errorf("has_kind: expected at least 2 arguments, got %d", len(args))
		}
		m, ok := args[0].(*object.Map)
		if !ok {
			return object.Errorf("has_kind: item must be a map, got %s", args[0].Type())
		}
		kind, ok := m.Get("kind").(*object.String)
		if !ok {
			return object.False
		}
		for _, arg := range args[1:] {
			want, ok := arg.(*object.String)
			if !ok {
				return object.Errorf("has_kind: kind must be a string, got %s", arg.Type())
			}
			if want.Value() == kind.Value() {
				return object.True
			}
		}
		return object.False
	})
}

// logObject provides log.info/warn/error methods for predicates, writing to
// the logger carried by the evaluation context.
type logObject struct {
	ctx context.Context
}

func (l *logObject) Info(msg string)  { slogctx.Info(l.ctx, msg) }
func (l *logObject) Warn(msg string)  { slogctx.Warn(l.ctx, msg) }
func (l *logObject) Error(msg string) { slogctx.Error(l.ctx, msg) }

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("script: proxy error: %v", err))
	}
	return p
}
