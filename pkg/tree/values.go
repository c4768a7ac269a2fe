package tree

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/vango-dev/vtree/pkg/expr"
)

// Adapt exposes a typed expression as an Expression[any] so it can be used
// as a template option value.
func Adapt[T any](e expr.Expression[T]) expr.Expression[any] {
	return &adapted[T]{inner: e}
}

type adapted[T any] struct {
	inner expr.Expression[T]
}

func (a *adapted[T]) Evaluate(args ...any) any         { return a.inner.Evaluate(args...) }
func (a *adapted[T]) EvaluateChecked(args ...any) bool { return a.inner.EvaluateChecked(args...) }
func (a *adapted[T]) Value() any                       { return a.inner.Value() }
func (a *adapted[T]) Previous() any                    { return a.inner.Previous() }
func (a *adapted[T]) Changed() bool                    { return a.inner.Changed() }
func (a *adapted[T]) TrySet(v any) bool {
	tv, ok := v.(T)
	return ok && a.inner.TrySet(tv)
}

var (
	nodeType  = reflect.TypeOf((*Node)(nil))
	scopeType = reflect.TypeOf((*Scope)(nil))
)

// toExpression converts a raw option value into an expression evaluated
// with the owning node as its only argument.
//
// Accepted getters: func() T, func(*Node) T and func(*Scope) T for any T.
// Expressions get a per-node view, so one expression can feed several
// nodes with independent change tracking. Anything else becomes a constant.
func toExpression(v any) expr.Expression[any] {
	switch f := v.(type) {
	case expr.Expression[any]:
		return expr.NewDynamic(func(args ...any) any { return f.Evaluate(args...) })
	case func() any:
		return expr.NewDynamic(func(...any) any { return f() })
	case func(*Node) any:
		return expr.NewDynamic(func(args ...any) any { return f(argNode(args)) })
	case func(*Scope) any:
		return expr.NewDynamic(func(args ...any) any { return f(argNode(args).Scope()) })
	case func() string:
		return expr.NewDynamic(func(...any) any { return f() })
	case func() bool:
		return expr.NewDynamic(func(...any) any { return f() })
	case func(*Node) string:
		return expr.NewDynamic(func(args ...any) any { return f(argNode(args)) })
	case func(*Node) bool:
		return expr.NewDynamic(func(args ...any) any { return f(argNode(args)) })
	case nil:
		return expr.NewConstant[any](nil)
	}

	rv := reflect.ValueOf(v)
	if get, ok := reflectGetter(rv); ok {
		return expr.NewDynamic(get)
	}
	return expr.NewConstant(v)
}

// reflectGetter adapts getter funcs of other result types and typed
// expressions.
func reflectGetter(fn reflect.Value) (expr.Getter[any], bool) {
	if !fn.IsValid() {
		return nil, false
	}
	if m := fn.MethodByName("Evaluate"); m.IsValid() && m.Type().IsVariadic() && m.Type().NumOut() == 1 {
		return func(args ...any) any {
			in := make([]reflect.Value, len(args))
			for i, a := range args {
				in[i] = reflect.ValueOf(&a).Elem()
			}
			return m.Call(in)[0].Interface()
		}, true
	}
	t := fn.Type()
	if t.Kind() != reflect.Func || t.NumOut() != 1 || t.NumIn() > 1 || t.IsVariadic() {
		return nil, false
	}
	if t.NumIn() == 0 {
		return func(...any) any { return fn.Call(nil)[0].Interface() }, true
	}
	switch t.In(0) {
	case nodeType:
		return func(args ...any) any {
			return fn.Call([]reflect.Value{reflect.ValueOf(argNode(args))})[0].Interface()
		}, true
	case scopeType:
		return func(args ...any) any {
			return fn.Call([]reflect.Value{reflect.ValueOf(argNode(args).Scope())})[0].Interface()
		}, true
	}
	return nil, false
}

func argNode(args []any) *Node {
	if len(args) > 0 {
		if n, ok := args[0].(*Node); ok {
			return n
		}
	}
	return nil
}

// evaluateOnce resolves a value the way compile-time context bindings are
// resolved: expressions and getters are evaluated a single time.
func evaluateOnce(v any, n *Node) any {
	if _, ok := v.(expr.Expression[any]); !ok {
		rv := reflect.ValueOf(v)
		if !rv.IsValid() || (rv.Kind() != reflect.Func && !rv.MethodByName("Evaluate").IsValid()) {
			return v
		}
	}
	return toExpression(v).Evaluate(n)
}

// truthy reports whether v counts as true in conditions and switches.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	}
	return true
}

// stringify converts a value to its output text.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}

// classNames flattens a dynamic class value into class names.
func classNames(v any) []string {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return strings.Fields(x)
	case []string:
		var out []string
		for _, s := range x {
			out = append(out, strings.Fields(s)...)
		}
		return out
	case []any:
		var out []string
		for _, s := range x {
			out = append(out, classNames(s)...)
		}
		return out
	default:
		return strings.Fields(stringify(v))
	}
}

// asList normalizes a single value or a slice of values.
func asList(v any) []any {
	switch x := v.(type) {
	case nil:
		return nil
	case []any:
		return x
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Func {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return []any{v}
}
