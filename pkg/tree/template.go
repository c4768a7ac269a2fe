package tree

// Template is an immutable descriptor compiled into a Node.
//
// Args depends on Kind:
//
//	KindElement      tag string
//	KindText         value (string, any value, func or expression)
//	KindConditional  condition + Children, or one Branch per argument
//	KindList         source (count, slice, array, map or Pairs)
//	KindDynamic      *Template, []*Template, or a func/expression producing them
//	KindFragment     markup string, *dom.Node, []*dom.Node, or a func producing them
//	KindComponent    registered name string, or *ComponentDefinition
//	KindSlot         optional slot name
//
// Templates are never modified by the compiler, so one template can be
// compiled any number of times.
type Template struct {
	Kind     Kind
	Args     []any
	Options  *Options
	Children []*Template

	// scope overrides the lexical scope the template compiles in. Set only
	// for slot content, which keeps the caller's scope.
	scope *Scope
}

// Options is the per-template options record.
type Options struct {
	// Attrs maps attribute names to values. false or nil removes the
	// attribute, true renders it presence-only.
	Attrs map[string]any

	// Props maps element property names to values. On components, declared
	// props are bound into the component scope instead.
	Props map[string]any

	// Styles maps inline style properties to values. Falsy values clear them.
	Styles map[string]any

	// Class is a string, []string, []any, map[string]any of boolean switches,
	// or a func/expression yielding a string or []string.
	Class any

	// Events maps event names to a handler or a list of handlers.
	Events map[string]any

	// Hooks maps hook names to a HookFunc or a list of them.
	Hooks map[string]any

	// Context adds local bindings to the node's scope. Expressions and funcs
	// are evaluated once at compile time.
	Context map[string]any

	// Alias names the node for RenderByAlias and FindByAlias.
	Alias string

	// Key extracts an identity from list items: a field or map key name,
	// func(item any) any or func(item any, index int) any.
	Key any

	// As and IndexAs rename the per-item bindings of a list
	// (default "item" and "index"). Map sources also bind "key".
	As      string
	IndexAs string

	// Once stops a dynamic node after its first successful compile.
	Once bool

	// Cache keeps discarded conditional branches off-tree for reuse.
	Cache bool

	// Sanitize strips scripting content from fragment markup.
	Sanitize bool

	// Slot routes a component child into the named slot.
	Slot string

	// Directives maps registered directive names to their option values.
	Directives map[string]any
}

// Branch is one arm of a multi-branch conditional. A nil When marks the
// default branch and is only valid last.
type Branch struct {
	When any
	Then []*Template
}

// Pair is one entry of an ordered key/value list source.
type Pair struct {
	Key   any
	Value any
}

// Pairs is an ordered mapping usable as a list source.
type Pairs []Pair

func (t *Template) opts() *Options {
	if t.Options == nil {
		return &Options{}
	}
	return t.Options
}

func (t *Template) arg(i int) (any, bool) {
	if i < len(t.Args) {
		return t.Args[i], true
	}
	return nil, false
}

// clone returns a shallow copy safe to modify.
func (t *Template) clone() *Template {
	c := *t
	c.Args = append([]any(nil), t.Args...)
	c.Children = append([]*Template(nil), t.Children...)
	if t.Options != nil {
		o := *t.Options
		c.Options = &o
	}
	return &c
}

// =============================================================================
// Constructors
// =============================================================================

// Element creates an element template.
func Element(tag string, opts *Options, children ...*Template) *Template {
	return &Template{Kind: KindElement, Args: []any{tag}, Options: opts, Children: children}
}

// Text creates a text template.
func Text(value any) *Template {
	return &Template{Kind: KindText, Args: []any{value}}
}

// Empty creates a template that renders nothing.
func Empty() *Template {
	return &Template{Kind: KindEmpty}
}

// If creates a single-branch conditional.
func If(cond any, opts *Options, children ...*Template) *Template {
	return &Template{Kind: KindConditional, Args: []any{cond}, Options: opts, Children: children}
}

// Choose creates a multi-branch conditional.
func Choose(opts *Options, branches ...Branch) *Template {
	args := make([]any, len(branches))
	for i, b := range branches {
		args[i] = b
	}
	return &Template{Kind: KindConditional, Args: args, Options: opts}
}

// Each creates a list template repeating children per source item.
func Each(source any, opts *Options, children ...*Template) *Template {
	return &Template{Kind: KindList, Args: []any{source}, Options: opts, Children: children}
}

// Dynamic creates a template whose content is produced at render time.
func Dynamic(source any, opts *Options) *Template {
	return &Template{Kind: KindDynamic, Args: []any{source}, Options: opts}
}

// Fragment creates a raw content template.
func Fragment(content any, opts *Options) *Template {
	return &Template{Kind: KindFragment, Args: []any{content}, Options: opts}
}

// Component creates a component template by registered name or definition.
func Component(nameOrDef any, opts *Options, children ...*Template) *Template {
	return &Template{Kind: KindComponent, Args: []any{nameOrDef}, Options: opts, Children: children}
}

// Slot creates a slot placeholder for component templates. Children are the
// fallback content used when the caller routes nothing to the slot.
func Slot(name string, fallback ...*Template) *Template {
	return &Template{Kind: KindSlot, Args: []any{name}, Children: fallback}
}
