package tree

import (
	"slices"
	"sort"

	"github.com/vango-dev/vtree/pkg/dom"
	"github.com/vango-dev/vtree/pkg/expr"
)

// binding is a named option expression.
type binding struct {
	name string
	expr expr.Expression[any]
}

func bindings(m map[string]any, skip string) []binding {
	names := make([]string, 0, len(m))
	for k := range m {
		if k != skip {
			names = append(names, k)
		}
	}
	sort.Strings(names)

	out := make([]binding, len(names))
	for i, k := range names {
		out[i] = binding{name: k, expr: toExpression(m[k])}
	}
	return out
}

type pendingListener struct {
	name string
	fn   Handler
}

// elementState backs Element nodes and component hosts.
type elementState struct {
	tag    string
	el     *dom.Node
	attrs  []binding
	props  []binding
	styles []binding
	class  classUnit

	pending  []pendingListener
	removers []func()
}

func newElementState(tag string, o *Options) (*elementState, error) {
	s := &elementState{
		tag:    tag,
		attrs:  bindings(o.Attrs, "class"),
		props:  bindings(o.Props, ""),
		styles: bindings(o.Styles, ""),
	}
	s.class = newClassUnit(o.Class, o.Attrs["class"])
	for _, name := range sortedKeys(o.Events) {
		hs, err := toHandlers(o.Events[name])
		if err != nil {
			return nil, err
		}
		for _, h := range hs {
			s.pending = append(s.pending, pendingListener{name: name, fn: h})
		}
	}
	return s, nil
}

func (n *Node) elementState() *elementState {
	switch s := n.state.(type) {
	case *elementState:
		return s
	case *componentState:
		return &s.elementState
	}
	return nil
}

func (s *elementState) listen(n *Node, name string, h Handler) {
	if s.el == nil {
		s.pending = append(s.pending, pendingListener{name: name, fn: h})
		return
	}
	s.removers = append(s.removers, s.el.AddEventListener(name, func(ev *dom.Event) {
		n.runHandler(h, &Event{Name: name, Node: n, DOM: ev})
	}))
}

func (s *elementState) recompute(n *Node) error {
	if s.el == nil {
		s.el = n.engine.document.CreateElement(s.tag)
		n.output = []*dom.Node{s.el}
		n.hasOutput = true
		n.reflow = true

		pending := s.pending
		s.pending = nil
		for _, p := range pending {
			s.listen(n, p.name, p.fn)
		}
	}

	for _, b := range s.attrs {
		if !b.expr.EvaluateChecked(n) {
			continue
		}
		switch v := b.expr.Value().(type) {
		case nil:
			s.el.RemoveAttribute(b.name)
		case bool:
			if v {
				s.el.SetAttribute(b.name, "")
			} else {
				s.el.RemoveAttribute(b.name)
			}
		default:
			s.el.SetAttribute(b.name, stringify(v))
		}
	}

	for _, b := range s.props {
		if b.expr.EvaluateChecked(n) {
			s.el.SetProperty(b.name, b.expr.Value())
		}
	}

	for _, b := range s.styles {
		if !b.expr.EvaluateChecked(n) {
			continue
		}
		if v := b.expr.Value(); truthy(v) {
			s.el.SetStyle(b.name, stringify(v))
		} else {
			s.el.RemoveStyle(b.name)
		}
	}

	s.class.apply(n, s.el)
	return nil
}

func (s *elementState) destroy(*Node) {
	for _, remove := range s.removers {
		remove()
	}
	s.removers = nil
	s.pending = nil
	s.el = nil
}

// =============================================================================
// Class unit
// =============================================================================

type classSwitch struct {
	name string
	expr expr.Expression[any]
}

// classUnit combines dynamic class names and boolean switches into one
// class list.
type classUnit struct {
	dynamic  []expr.Expression[any]
	switches []classSwitch
	applied  bool
}

func newClassUnit(class, attr any) classUnit {
	var u classUnit
	u.add(class)
	if attr != nil {
		u.dynamic = append(u.dynamic, toExpression(attr))
	}
	return u
}

func (u *classUnit) add(v any) {
	switch x := v.(type) {
	case nil:
	case string, []string:
		u.dynamic = append(u.dynamic, expr.NewConstant[any](x))
	case []any:
		for _, item := range x {
			u.add(item)
		}
	case map[string]any:
		for _, k := range sortedKeys(x) {
			u.switches = append(u.switches, classSwitch{name: k, expr: toExpression(x[k])})
		}
	case map[string]bool:
		for _, k := range sortedKeys(x) {
			u.switches = append(u.switches, classSwitch{name: k, expr: expr.NewConstant[any](x[k])})
		}
	default:
		u.dynamic = append(u.dynamic, toExpression(v))
	}
}

func (u *classUnit) empty() bool {
	return len(u.dynamic) == 0 && len(u.switches) == 0
}

// apply rewrites the class list when any contributing expression changed.
func (u *classUnit) apply(n *Node, el *dom.Node) {
	if u.empty() {
		return
	}
	changed := !u.applied
	for _, e := range u.dynamic {
		if e.EvaluateChecked(n) {
			changed = true
		}
	}
	for _, sw := range u.switches {
		if sw.expr.EvaluateChecked(n) {
			changed = true
		}
	}
	u.applied = true
	if !changed {
		return
	}

	var list []string
	for _, e := range u.dynamic {
		for _, name := range classNames(e.Value()) {
			if !slices.Contains(list, name) {
				list = append(list, name)
			}
		}
	}
	for _, sw := range u.switches {
		if truthy(sw.expr.Value()) && !slices.Contains(list, sw.name) {
			list = append(list, sw.name)
		}
	}
	el.SetClassList(list)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
