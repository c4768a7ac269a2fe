package tree

// ContextMode selects how a component scope relates to its caller's.
type ContextMode uint8

const (
	// ContextInherit chains the component scope to the caller's scope.
	ContextInherit ContextMode = iota

	// ContextIsolate starts the component scope empty.
	ContextIsolate
)

// PropDef declares a component prop. Getter, when set, computes the bound
// value from the prop's resolved value once at compile time.
type PropDef struct {
	Default any
	Getter  func(value any, n *Node) any
}

// Controller is the per-instance behavior of a component.
type Controller interface {
	// Init runs once after the component's subtree is compiled.
	Init(n *Node) error
}

// Templater lets a controller replace the definition's template.
type Templater interface {
	Template(n *Node) []*Template
}

// PostIniter runs after Init and the init hook.
type PostIniter interface {
	PostInit(n *Node) error
}

// ComponentDefinition describes a registered component.
type ComponentDefinition struct {
	// Name is the registered name.
	Name string

	// Tag is the host element tag (default Name).
	Tag string

	// Template is the component's built-in content. It may hold Slot
	// placeholders.
	Template []*Template

	// Context holds bindings added to every instance's scope.
	Context map[string]any

	// ContextMode selects inherit or isolate scoping.
	ContextMode ContextMode

	// New creates the instance controller. Optional.
	New func() Controller

	// Props declares the props bound into the instance scope.
	Props map[string]PropDef

	// Options are defaults merged under the caller's options.
	Options *Options

	// AcceptsChildren allows callers to pass children.
	AcceptsChildren bool
}

// ComponentRegistry resolves component names.
type ComponentRegistry interface {
	Component(name string) (*ComponentDefinition, bool)
}

// ComponentMap is a map-backed ComponentRegistry.
type ComponentMap map[string]*ComponentDefinition

// Component implements ComponentRegistry.
func (m ComponentMap) Component(name string) (*ComponentDefinition, bool) {
	d, ok := m[name]
	return d, ok
}

// Register adds d under its name.
func (m ComponentMap) Register(d *ComponentDefinition) {
	m[d.Name] = d
}

// mergeOptions layers over on top of base. Attrs, props, styles, context and
// directives merge as unions with over winning, classes combine, events and
// hooks concatenate base first.
func mergeOptions(base, over *Options) *Options {
	if base == nil && over == nil {
		return &Options{}
	}
	if base == nil {
		o := *over
		return &o
	}
	if over == nil {
		o := *base
		return &o
	}

	out := *over
	out.Attrs = unionMap(base.Attrs, over.Attrs)
	out.Props = unionMap(base.Props, over.Props)
	out.Styles = unionMap(base.Styles, over.Styles)
	out.Context = unionMap(base.Context, over.Context)
	out.Directives = unionMap(base.Directives, over.Directives)
	out.Events = concatMap(base.Events, over.Events)
	out.Hooks = concatMap(base.Hooks, over.Hooks)

	switch {
	case base.Class == nil:
	case over.Class == nil:
		out.Class = base.Class
	default:
		out.Class = []any{base.Class, over.Class}
	}

	if out.Alias == "" {
		out.Alias = base.Alias
	}
	if out.Key == nil {
		out.Key = base.Key
	}
	if out.As == "" {
		out.As = base.As
	}
	if out.IndexAs == "" {
		out.IndexAs = base.IndexAs
	}
	out.Once = out.Once || base.Once
	out.Cache = out.Cache || base.Cache
	out.Sanitize = out.Sanitize || base.Sanitize
	return &out
}

func unionMap(a, b map[string]any) map[string]any {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func concatMap(a, b map[string]any) map[string]any {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if prev, ok := out[k]; ok {
			out[k] = append(append([]any(nil), asList(prev)...), asList(v)...)
		} else {
			out[k] = v
		}
	}
	return out
}
