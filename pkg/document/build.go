package document

import (
	"regexp"
	"strings"

	"github.com/vango-dev/vtree/pkg/tree"
)

// Program is a document compiled into engine templates.
type Program struct {
	// Templates are the body templates, compiled into a root.
	Templates []*tree.Template

	// Components holds the document's component definitions.
	Components tree.ComponentMap
}

// Build converts the document into templates reading from state. changed
// is called after an event action wrote to state.
func (d *Document) Build(state *State, changed func()) (*Program, error) {
	return d.build(state, changed, false)
}

// build is Build with sanitizing forced on every html entry when sanitize
// is set.
func (d *Document) build(state *State, changed func(), sanitize bool) (*Program, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if changed == nil {
		changed = func() {}
	}
	b := &builder{
		state:    state,
		changed:  changed,
		sanitize: sanitize,
		partials: make(map[string][]*tree.Template, len(d.Partials)),
	}
	for name, entries := range d.Partials {
		b.partials[name] = b.entries(entries)
	}

	components := make(tree.ComponentMap, len(d.Components))
	for name, c := range d.Components {
		components.Register(b.component(name, c))
	}
	return &Program{Templates: b.entries(d.Template), Components: components}, nil
}

type builder struct {
	state    *State
	changed  func()
	sanitize bool
	partials map[string][]*tree.Template
}

func (b *builder) component(name string, c *Component) *tree.ComponentDefinition {
	def := &tree.ComponentDefinition{
		Name:            name,
		Tag:             c.Tag,
		Template:        b.entries(c.Template),
		Context:         b.values(c.Context),
		AcceptsChildren: c.AcceptsChildren || hasSlot(c.Template),
	}
	if c.Isolate {
		def.ContextMode = tree.ContextIsolate
	}
	if len(c.Props) > 0 {
		def.Props = make(map[string]tree.PropDef, len(c.Props))
		for prop, v := range c.Props {
			def.Props[prop] = tree.PropDef{Default: b.value(v)}
		}
	}
	if c.Class != nil || len(c.Attrs) > 0 {
		def.Options = &tree.Options{Class: b.class(c.Class), Attrs: b.values(c.Attrs)}
	}
	return def
}

func hasSlot(entries []*Entry) bool {
	for _, e := range entries {
		if e == nil {
			continue
		}
		if e.Slot != nil || hasSlot(e.Then) || hasSlot(e.Else) || hasSlot(e.Children) {
			return true
		}
	}
	return false
}

func (b *builder) entries(entries []*Entry) []*tree.Template {
	out := make([]*tree.Template, 0, len(entries))
	for _, e := range entries {
		out = append(out, b.entry(e))
	}
	return out
}

func (b *builder) entry(e *Entry) *tree.Template {
	kind, _ := e.kind()
	opts := b.options(e)
	children := b.entries(e.Children)

	switch kind {
	case "element":
		return tree.Element(e.Element, opts, children...)
	case "text":
		return tree.Text(b.value(*e.Text))
	case "html":
		opts.Sanitize = e.Sanitize || b.sanitize
		return tree.Fragment(b.value(*e.HTML), opts)
	case "if":
		cond := b.condition(e.If)
		then := append(b.entries(e.Then), children...)
		if len(e.Else) == 0 {
			return tree.If(cond, opts, then...)
		}
		return tree.Choose(opts,
			tree.Branch{When: cond, Then: then},
			tree.Branch{Then: b.entries(e.Else)},
		)
	case "each":
		opts.Key = e.Key
		opts.As = e.As
		opts.IndexAs = e.IndexAs
		return tree.Each(b.path(e.Each), opts, children...)
	case "dynamic":
		return tree.Dynamic(b.partial(e.Dynamic), opts)
	case "component":
		return tree.Component(e.Component, opts, children...)
	case "slot":
		return tree.Slot(*e.Slot, children...)
	default:
		return tree.Empty()
	}
}

func (b *builder) options(e *Entry) *tree.Options {
	o := &tree.Options{
		Attrs:   b.values(e.Attrs),
		Styles:  b.values(e.Styles),
		Props:   b.values(e.Props),
		Context: b.values(e.Context),
		Class:   b.class(e.Class),
		Alias:   e.Alias,
		Once:    e.Once,
		Cache:   e.Cache,
		Slot:    e.Into,
	}
	if len(e.On) > 0 {
		o.Events = make(map[string]any, len(e.On))
		for name, raw := range e.On {
			a, _ := parseAction(raw)
			o.Events[name] = b.handler(a)
		}
	}
	return o
}

func (b *builder) handler(a action) tree.Handler {
	return func(*tree.Event) error {
		if err := a.apply(b.state); err != nil {
			return err
		}
		b.changed()
		return nil
	}
}

// partial resolves a state path to a partial name. Each partial's
// templates are built once, so an unchanged name never recompiles.
func (b *builder) partial(path string) func(*tree.Node) any {
	get := b.path(path)
	return func(n *tree.Node) any {
		name, _ := get(n).(string)
		if t, ok := b.partials[name]; ok {
			return t
		}
		return nil
	}
}

// condition reads a path, negated by a leading "!".
func (b *builder) condition(path string) func(*tree.Node) any {
	path = strings.TrimSpace(path)
	if rest, ok := strings.CutPrefix(path, "!"); ok {
		get := b.path(rest)
		return func(n *tree.Node) any { return !truthy(get(n)) }
	}
	return b.path(path)
}

// path returns a getter resolving a dotted path against the node's scope
// first and the state second.
func (b *builder) path(path string) func(*tree.Node) any {
	parts := splitPath(path)
	return func(n *tree.Node) any {
		v, _ := b.resolve(n, parts)
		return v
	}
}

func (b *builder) resolve(n *tree.Node, parts []string) (any, bool) {
	if len(parts) == 0 {
		return nil, false
	}
	if v, ok := n.Lookup(parts[0]); ok {
		return lookupPath(v, parts[1:])
	}
	return lookupPath(b.state.Snapshot(), parts)
}

var placeholder = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)

// value interpolates strings. A string that is exactly one placeholder
// yields the raw value; other strings with placeholders yield text.
func (b *builder) value(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	matches := placeholder.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}
	if len(matches) == 1 && matches[0][0] == 0 && matches[0][1] == len(s) {
		return b.path(s[matches[0][2]:matches[0][3]])
	}

	type segment struct {
		literal string
		get     func(*tree.Node) any
	}
	var segments []segment
	last := 0
	for _, m := range matches {
		if m[0] > last {
			segments = append(segments, segment{literal: s[last:m[0]]})
		}
		segments = append(segments, segment{get: b.path(s[m[2]:m[3]])})
		last = m[1]
	}
	if last < len(s) {
		segments = append(segments, segment{literal: s[last:]})
	}
	return func(n *tree.Node) any {
		var sb strings.Builder
		for _, seg := range segments {
			if seg.get == nil {
				sb.WriteString(seg.literal)
				continue
			}
			if v := seg.get(n); v != nil {
				sb.WriteString(text(v))
			}
		}
		return sb.String()
	}
}

func (b *builder) values(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = b.value(v)
	}
	return out
}

func (b *builder) class(v any) any {
	switch x := v.(type) {
	case string:
		return b.value(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = b.value(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for name, cond := range x {
			if s, ok := cond.(string); ok && !placeholder.MatchString(s) {
				out[name] = b.condition(s)
				continue
			}
			out[name] = b.value(cond)
		}
		return out
	}
	return v
}
