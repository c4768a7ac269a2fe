package tree

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/vango-dev/vtree/pkg/expr"
)

// listItem is one element of a list source.
type listItem struct {
	value  any
	key    any // map key, for map and Pairs sources
	hasKey bool
}

// KeyFunc extracts an item identity for keyed lists.
type KeyFunc func(item any, index int) any

// listState repeats its child templates once per source item. Each item is
// a Dynamic node holding the item bindings in its own scope.
type listState struct {
	source    expr.Expression[any]
	templates []*Template
	keyFn     KeyFunc
	as        string
	indexAs   string

	keys map[any]*Node
}

func newListState(t *Template) (*listState, error) {
	src, _ := t.arg(0)
	o := t.opts()
	s := &listState{
		source:    toExpression(src),
		templates: t.Children,
		as:        o.As,
		indexAs:   o.IndexAs,
	}
	if s.as == "" {
		s.as = "item"
	}
	if s.indexAs == "" {
		s.indexAs = "index"
	}
	if o.Key != nil {
		fn, err := toKeyFunc(o.Key)
		if err != nil {
			return nil, errInvalidOption("key", err)
		}
		s.keyFn = fn
	}
	return s, nil
}

func toKeyFunc(v any) (KeyFunc, error) {
	switch f := v.(type) {
	case KeyFunc:
		return f, nil
	case func(any, int) any:
		return f, nil
	case func(any) any:
		return func(item any, _ int) any { return f(item) }, nil
	case string:
		return func(item any, _ int) any { return field(item, f) }, nil
	}
	return nil, fmt.Errorf("unsupported key %T", v)
}

// field reads name from a map or struct item.
func field(item any, name string) any {
	if m, ok := item.(map[string]any); ok {
		return m[name]
	}
	rv := reflect.ValueOf(item)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			if v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key())); v.IsValid() {
				return v.Interface()
			}
		}
	case reflect.Struct:
		if f := rv.FieldByName(name); f.IsValid() && f.CanInterface() {
			return f.Interface()
		}
	}
	return nil
}

// normalizeKey makes k usable as a map key.
func normalizeKey(k any) any {
	if k == nil {
		return nil
	}
	if t := reflect.TypeOf(k); t.Comparable() {
		// interface-typed array elements can still panic on hashing
		if t.Kind() != reflect.Array && t.Kind() != reflect.Struct {
			return k
		}
	}
	return fmt.Sprintf("%#v", k)
}

// listItems expands a source value.
func listItems(v any) ([]listItem, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case Pairs:
		out := make([]listItem, len(x))
		for i, p := range x {
			out[i] = listItem{value: p.Value, key: p.Key, hasKey: true}
		}
		return out, nil
	case []any:
		out := make([]listItem, len(x))
		for i, item := range x {
			out[i] = listItem{value: item}
		}
		return out, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return countItems(int(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return countItems(int(rv.Uint())), nil
	case reflect.Slice, reflect.Array:
		out := make([]listItem, rv.Len())
		for i := range out {
			out[i] = listItem{value: rv.Index(i).Interface()}
		}
		return out, nil
	case reflect.Map:
		keys := rv.MapKeys()
		sortValues(keys)
		out := make([]listItem, len(keys))
		for i, k := range keys {
			out[i] = listItem{value: rv.MapIndex(k).Interface(), key: k.Interface(), hasKey: true}
		}
		return out, nil
	}
	return nil, errInvalidArg(KindList, v)
}

func isCount(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func countItems(n int) []listItem {
	if n < 0 {
		n = 0
	}
	out := make([]listItem, n)
	for i := range out {
		out[i] = listItem{value: i}
	}
	return out
}

func sortValues(keys []reflect.Value) {
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		switch a.Kind() {
		case reflect.String:
			return a.String() < b.String()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return a.Int() < b.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return a.Uint() < b.Uint()
		case reflect.Float32, reflect.Float64:
			return a.Float() < b.Float()
		}
		return fmt.Sprint(a.Interface()) < fmt.Sprint(b.Interface())
	})
}

// locals returns the scope bindings of the item at index i.
func (s *listState) locals(it listItem, i int) map[string]any {
	vars := map[string]any{s.as: it.value, s.indexAs: i}
	if it.hasKey {
		vars["key"] = it.key
	}
	return vars
}

func (s *listState) bind(c *Node, it listItem, i int) {
	for k, v := range s.locals(it, i) {
		c.scope.Set(k, v)
	}
}

func (s *listState) itemTemplate() *Template {
	return &Template{
		Kind:    KindDynamic,
		Args:    []any{s.templates},
		Options: &Options{Once: true},
	}
}

func (s *listState) recompute(n *Node) error {
	// counts reconcile on every pass
	if !s.source.EvaluateChecked(n) && !isCount(s.source.Value()) {
		return nil
	}
	items, err := listItems(s.source.Value())
	if err != nil {
		return err
	}
	if s.keyFn != nil {
		err = s.reconcileKeyed(n, items)
	} else {
		err = s.reconcile(n, items)
	}
	for _, c := range n.Children() {
		n.InvokeHook(HookItemReady, nil, c)
	}
	return err
}

// reconcile updates items in place, compiles new trailing items and
// destroys surplus ones.
func (s *listState) reconcile(n *Node, items []listItem) error {
	c := n.engine.compilerFor(n)
	for i, it := range items {
		if i < len(n.children) {
			s.bind(n.children[i], it, i)
			continue
		}
		if _, err := c.compileScoped(n, s.itemTemplate(), s.locals(it, i)); err != nil {
			return err
		}
	}
	for len(n.children) > len(items) {
		n.RemoveChildAt(len(n.children)-1, true)
	}
	return nil
}

// reconcileKeyed reuses the child of every surviving key. A reused child is
// flagged for reflow only when its position changed.
func (s *listState) reconcileKeyed(n *Node, items []listItem) error {
	old := n.takeChildren()
	position := make(map[*Node]int, len(old))
	for i, c := range old {
		position[c] = i
	}

	c := n.engine.compilerFor(n)
	next := make(map[any]*Node, len(items))
	var firstErr error
	for i, it := range items {
		k := normalizeKey(s.keyFn(it.value, i))
		if prev, ok := s.keys[k]; ok {
			if _, dup := next[k]; !dup {
				delete(s.keys, k)
				n.adopt(prev)
				if position[prev] != i {
					prev.reflow = true
				}
				s.bind(prev, it, i)
				next[k] = prev
				continue
			}
		}
		if _, dup := next[k]; dup {
			n.engine.logger.Warn("duplicate list key", "node", n.String(), "key", k)
		}
		child, err := c.compileScoped(n, s.itemTemplate(), s.locals(it, i))
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if _, dup := next[k]; !dup {
			next[k] = child
		}
	}

	for _, stale := range s.keys {
		stale.safeDestroy()
	}
	// children compiled before keyed mode took over have no key entry
	for _, o := range old {
		if o.parent != n.handle && !o.destroyed {
			o.safeDestroy()
		}
	}
	s.keys = next
	return firstErr
}

func (s *listState) destroy(*Node) { s.keys = nil }

// adopt appends a child that was detached from n, leaving its reflow flag
// and scope untouched.
func (n *Node) adopt(c *Node) {
	n.children = append(n.children, c)
	c.parent = n.handle
}
