package tree

import "strings"

// componentState is an element host plus the instance of a registered
// component definition.
type componentState struct {
	elementState
	def        *ComponentDefinition
	controller Controller
	events     eventTable
}

// Definition returns the component definition of a component node.
func (n *Node) Definition() *ComponentDefinition {
	if s, ok := n.state.(*componentState); ok {
		return s.def
	}
	return nil
}

// Controller returns the controller of a component node, or nil.
func (n *Node) Controller() Controller {
	if s, ok := n.state.(*componentState); ok {
		return s.controller
	}
	return nil
}

func (s *componentState) destroy(n *Node) {
	s.elementState.destroy(n)
	s.events = eventTable{}
}

// resolveComponent finds the definition named by a component template.
func (e *Engine) resolveComponent(t *Template) (*ComponentDefinition, error) {
	a, _ := t.arg(0)
	switch v := a.(type) {
	case *ComponentDefinition:
		if v == nil {
			return nil, errInvalidArg(KindComponent, a)
		}
		return v, nil
	case string:
		if e.components != nil {
			if d, ok := e.components.Component(v); ok {
				return d, nil
			}
		}
		return nil, errUnknownComponent(v)
	}
	return nil, errInvalidArg(KindComponent, a)
}

func hostTag(d *ComponentDefinition) string {
	if d.Tag != "" {
		return d.Tag
	}
	return strings.ToLower(d.Name)
}

// componentProps splits caller props into declared props, bound into the
// component scope, and element properties.
func componentProps(d *ComponentDefinition, o *Options, n *Node) (scoped, element map[string]any) {
	scoped = make(map[string]any, len(d.Props))
	for name, def := range d.Props {
		v, ok := o.Props[name]
		if !ok {
			v = def.Default
		}
		v = evaluateOnce(v, n)
		if def.Getter != nil {
			v = def.Getter(v, n)
		}
		scoped[name] = v
	}
	for name, v := range o.Props {
		if _, declared := d.Props[name]; declared {
			continue
		}
		if element == nil {
			element = make(map[string]any)
		}
		element[name] = v
	}
	return scoped, element
}

// slotContent routes caller children by Options.Slot. Children without a
// slot name go to the default slot "".
func slotContent(children []*Template, scope *Scope) map[string][]*Template {
	out := make(map[string][]*Template)
	for _, c := range children {
		name := ""
		if c.Options != nil {
			name = c.Options.Slot
		}
		cc := *c
		cc.scope = scope
		out[name] = append(out[name], &cc)
	}
	return out
}

// fillSlots replaces Slot placeholders in templates with caller content.
// It reports whether any placeholder was found.
func fillSlots(templates []*Template, content map[string][]*Template) ([]*Template, bool) {
	found := false
	out := make([]*Template, len(templates))
	for i, t := range templates {
		if t.Kind == KindSlot {
			found = true
			name, _ := t.arg(0)
			slot, _ := name.(string)
			args := []any{t.Children}
			if c, ok := content[slot]; ok {
				args = []any{c}
			}
			// fallback content compiles in the component scope, caller
			// content carries its own
			out[i] = &Template{Kind: KindDynamic, Args: args, Options: &Options{Once: true, Alias: "slot:" + slot}}
			continue
		}
		if len(t.Children) > 0 {
			children, ok := fillSlots(t.Children, content)
			if ok {
				c := *t
				c.Children = children
				t = &c
				found = true
			}
		}
		out[i] = t
	}
	return out, found
}

// initComponent runs the controller lifecycle after the subtree compiled.
func (n *Node) initComponent() {
	s := n.state.(*componentState)
	if s.controller != nil {
		if err := guard(func() error { return s.controller.Init(n) }); err != nil {
			n.engine.logError("E204", n, err, "component", s.def.Name, "stage", "init")
		}
	}
	n.InvokeHook(HookInit, nil)
	if p, ok := s.controller.(PostIniter); ok {
		if err := guard(func() error { return p.PostInit(n) }); err != nil {
			n.engine.logError("E204", n, err, "component", s.def.Name, "stage", "postinit")
		}
	}
}

// guard runs fn, converting a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return fn()
}
