package tree

import "fmt"

// compileState is one frame of the compile stack.
type compileState struct {
	node       *Node
	scope      *Scope
	dependency Handle
}

// compiler turns templates into nodes. Variants that compile content at
// render time get a compiler rooted at themselves.
type compiler struct {
	engine *Engine
	stack  []compileState
}

func (e *Engine) compilerFor(n *Node) *compiler {
	c := &compiler{engine: e}
	if n != nil {
		c.push(compileState{node: n, scope: n.scope, dependency: n.childDependency()})
	}
	return c
}

func (c *compiler) push(s compileState) { c.stack = append(c.stack, s) }

func (c *compiler) pop() { c.stack = c.stack[:len(c.stack)-1] }

func (c *compiler) top() compileState {
	if len(c.stack) == 0 {
		return compileState{}
	}
	return c.stack[len(c.stack)-1]
}

// compileChildren compiles templates in order and appends them to parent.
// Compilation stops at the first error.
func (c *compiler) compileChildren(parent *Node, templates []*Template, scope *Scope) ([]*Node, error) {
	c.push(compileState{node: parent, scope: scope, dependency: parent.childDependency()})
	defer c.pop()

	out := make([]*Node, 0, len(templates))
	for _, t := range templates {
		if t == nil {
			continue
		}
		n, err := c.compile(t, nil)
		if err != nil {
			return out, err
		}
		parent.adopt(n)
		out = append(out, n)
	}
	return out, nil
}

// compileScoped compiles t as a child of parent with raw local bindings.
// Locals are bound as given, without evaluation.
func (c *compiler) compileScoped(parent *Node, t *Template, locals map[string]any) (*Node, error) {
	c.push(compileState{node: parent, scope: parent.scope, dependency: parent.childDependency()})
	defer c.pop()

	n, err := c.compile(t, locals)
	if err != nil {
		return nil, err
	}
	parent.adopt(n)
	return n, nil
}

// compile builds the node for t. The node is not attached to a parent.
func (c *compiler) compile(t *Template, locals map[string]any) (*Node, error) {
	e := c.engine
	top := c.top()

	switch t.Kind {
	case KindRoot:
		return nil, errInvalidTemplate(t, "roots are created with Engine.NewRoot")
	case KindSlot:
		return nil, errInvalidTemplate(t, "slots are only valid inside component templates")
	}

	var def *ComponentDefinition
	if t.Kind == KindComponent {
		d, err := e.resolveComponent(t)
		if err != nil {
			return nil, err
		}
		def = d
		merged := t.clone()
		merged.Options = mergeOptions(d.Options, t.Options)
		t = merged
	}

	// directives transform the template before anything is built from it
	bound, t, err := c.precompile(t)
	if err != nil {
		return nil, err
	}
	o := t.opts()

	n := &Node{
		engine:     e,
		kind:       t.Kind,
		template:   t,
		alias:      o.Alias,
		reflow:     true,
		directives: bound,
		dependency: top.dependency,
		scope:      top.scope,
	}
	n.handle = e.arena.insert(n)

	fail := func(err error) (*Node, error) {
		n.safeDestroy()
		return nil, err
	}

	if err := c.bindScope(n, t, def, locals); err != nil {
		return fail(err)
	}
	if err := c.construct(n, t, def); err != nil {
		return fail(err)
	}

	for _, d := range n.directives {
		if err := d.directive.Postcompile(n, d.value); err != nil {
			return fail(errInvalidOption(d.name, err))
		}
	}

	for _, name := range sortedKeys(o.Hooks) {
		fns, err := toHookFuncs(o.Hooks[name])
		if err != nil {
			return fail(errInvalidOption("hooks", err))
		}
		for _, fn := range fns {
			n.Hook(name, fn)
		}
	}

	switch t.Kind {
	case KindElement:
		if _, err := c.compileChildren(n, t.Children, n.scope); err != nil {
			return fail(err)
		}
	case KindComponent:
		if err := c.compileComponent(n, t, def, top.scope); err != nil {
			return fail(err)
		}
	}

	n.InvokeHook(HookCompiled, nil)
	e.metrics.NodeCompiled(n.kind)
	return n, nil
}

// precompile instantiates the template's directives in priority order and
// lets each transform the template.
func (c *compiler) precompile(t *Template) ([]boundDirective, *Template, error) {
	ds := t.opts().Directives
	if len(ds) == 0 {
		return nil, t, nil
	}
	bound := make([]boundDirective, 0, len(ds))
	for _, name := range sortedKeys(ds) {
		var factory DirectiveFactory
		if c.engine.directives != nil {
			factory, _ = c.engine.directives.Directive(name)
		}
		if factory == nil {
			return nil, nil, errUnknownDirective(name)
		}
		bound = append(bound, boundDirective{name: name, value: ds[name], directive: factory()})
	}
	sortDirectives(bound)

	for _, d := range bound {
		next, err := d.directive.Precompile(t, d.value)
		if err != nil {
			return nil, nil, errInvalidOption(d.name, err)
		}
		if next != nil {
			t = next
		}
	}
	return bound, t, nil
}

// bindScope gives n its own scope when the template declares bindings.
func (c *compiler) bindScope(n *Node, t *Template, def *ComponentDefinition, locals map[string]any) error {
	isolated := false
	if t.scope != nil {
		n.scope = t.scope
		isolated = true
	}
	if def != nil && def.ContextMode == ContextIsolate {
		n.scope = nil
		isolated = true
	}

	if len(locals) > 0 || isolated || def != nil {
		n.scope = n.scope.Child(locals)
		n.scope.isolated = isolated
		n.ownScope = true
	}

	if def != nil {
		for _, k := range sortedKeys(def.Context) {
			n.scope.Set(k, evaluateOnce(def.Context[k], n))
		}
	}
	ctx := t.opts().Context
	if len(ctx) > 0 && !n.ownScope {
		n.scope = n.scope.Child(nil)
		n.ownScope = true
	}
	for _, k := range sortedKeys(ctx) {
		n.scope.Set(k, evaluateOnce(ctx[k], n))
	}
	return nil
}

// construct attaches the variant state for t.
func (c *compiler) construct(n *Node, t *Template, def *ComponentDefinition) error {
	o := t.opts()
	switch t.Kind {
	case KindElement:
		a, _ := t.arg(0)
		tag, ok := a.(string)
		if !ok || tag == "" {
			return errInvalidArg(KindElement, a)
		}
		s, err := newElementState(tag, o)
		if err != nil {
			return errInvalidOption("events", err)
		}
		n.state = s

	case KindText:
		if err := noChildren(t); err != nil {
			return err
		}
		a, _ := t.arg(0)
		n.state = &textState{value: toExpression(a)}

	case KindEmpty:
		if err := noChildren(t); err != nil {
			return err
		}
		n.state = emptyState{}

	case KindConditional:
		s, err := newConditionalState(t)
		if err != nil {
			return err
		}
		n.state = s

	case KindList:
		s, err := newListState(t)
		if err != nil {
			return err
		}
		n.state = s

	case KindDynamic:
		if err := noChildren(t); err != nil {
			return err
		}
		a, _ := t.arg(0)
		n.state = &dynamicState{source: toExpression(a), once: o.Once}

	case KindFragment:
		if err := noChildren(t); err != nil {
			return err
		}
		a, _ := t.arg(0)
		n.state = &fragmentState{content: toExpression(a), sanitize: o.Sanitize}
		n.endpoint = true

	case KindComponent:
		scoped, props := componentProps(def, o, n)
		for k, v := range scoped {
			n.scope.Set(k, v)
		}
		host := *o
		host.Props = props
		host.Events = nil
		es, err := newElementState(hostTag(def), &host)
		if err != nil {
			return err
		}
		s := &componentState{elementState: *es, def: def}
		if def.New != nil {
			s.controller = def.New()
		}
		n.state = s
		for _, name := range sortedKeys(o.Events) {
			hs, err := toHandlers(o.Events[name])
			if err != nil {
				return errInvalidOption("events", err)
			}
			for _, h := range hs {
				n.On(name, h)
			}
		}

	default:
		return errInvalidTemplate(t, fmt.Sprintf("unknown kind %d", t.Kind))
	}
	return nil
}

func noChildren(t *Template) error {
	if len(t.Children) > 0 {
		return errInvalidTemplate(t, "children are not allowed")
	}
	return nil
}

// compileComponent compiles the component's template with caller children
// routed into its slots, then runs the controller lifecycle.
func (c *compiler) compileComponent(n *Node, t *Template, def *ComponentDefinition, callerScope *Scope) error {
	if len(t.Children) > 0 && !def.AcceptsChildren {
		return errInvalidTemplate(t, fmt.Sprintf("component %q does not accept children", def.Name))
	}

	templates := def.Template
	if tp, ok := n.Controller().(Templater); ok {
		var custom []*Template
		err := guard(func() error {
			custom = tp.Template(n)
			return nil
		})
		if err != nil {
			n.engine.logError("E204", n, err, "component", def.Name, "stage", "template")
		} else {
			templates = custom
		}
	}

	content := slotContent(t.Children, callerScope)
	filled, found := fillSlots(templates, content)
	if !found {
		for _, ch := range t.Children {
			cc := *ch
			cc.scope = callerScope
			filled = append(filled, &cc)
		}
	}

	if _, err := c.compileChildren(n, filled, n.scope); err != nil {
		return err
	}
	n.initComponent()
	return nil
}
