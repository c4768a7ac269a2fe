package tree

import "sort"

// Directive is a pluggable compile hook attached to a template through an
// option key named after it.
type Directive interface {
	// Priority orders directives on one template; lower runs first.
	Priority() int

	// Precompile may return a transformed copy of t. It must not modify t.
	Precompile(t *Template, value any) (*Template, error)

	// Postcompile runs once the node exists, before its children compile.
	Postcompile(n *Node, value any) error

	// Destroy releases the directive when its node is destroyed.
	Destroy() error
}

// DirectiveFactory creates one directive instance per node.
type DirectiveFactory func() Directive

// DirectiveRegistry resolves directive names.
type DirectiveRegistry interface {
	Directive(name string) (DirectiveFactory, bool)
}

// DirectiveMap is a map-backed DirectiveRegistry.
type DirectiveMap map[string]DirectiveFactory

// Directive implements DirectiveRegistry.
func (m DirectiveMap) Directive(name string) (DirectiveFactory, bool) {
	f, ok := m[name]
	return f, ok
}

// boundDirective pairs an instance with its option value.
type boundDirective struct {
	name      string
	value     any
	directive Directive
}

func sortDirectives(ds []boundDirective) {
	sort.SliceStable(ds, func(i, j int) bool {
		return ds[i].directive.Priority() < ds[j].directive.Priority()
	})
}

// BaseDirective provides no-op implementations to embed in directives.
type BaseDirective struct{}

func (BaseDirective) Priority() int { return 0 }

func (BaseDirective) Precompile(t *Template, _ any) (*Template, error) { return t, nil }

func (BaseDirective) Postcompile(*Node, any) error { return nil }

func (BaseDirective) Destroy() error { return nil }
