package tree

import (
	"github.com/vango-dev/vtree/pkg/dom"
	"github.com/vango-dev/vtree/pkg/expr"
)

// =============================================================================
// Text
// =============================================================================

type textState struct {
	value expr.Expression[any]
	node  *dom.Node
}

func (s *textState) recompute(n *Node) error {
	changed := s.value.EvaluateChecked(n)
	if s.node == nil {
		s.node = n.engine.document.CreateText(stringify(s.value.Value()))
		n.output = []*dom.Node{s.node}
		n.hasOutput = true
		n.reflow = true
		return nil
	}
	if changed {
		s.node.SetData(stringify(s.value.Value()))
	}
	return nil
}

func (s *textState) destroy(*Node) { s.node = nil }

// =============================================================================
// Empty
// =============================================================================

type emptyState struct{}

func (emptyState) recompute(*Node) error { return nil }
func (emptyState) destroy(*Node)         {}

// =============================================================================
// Dynamic
// =============================================================================

type dynamicState struct {
	source expr.Expression[any]
	once   bool
	done   bool
}

func (s *dynamicState) recompute(n *Node) error {
	if s.once && s.done {
		return nil
	}
	if !s.source.EvaluateChecked(n) && s.done {
		return nil
	}
	templates, err := toTemplates(s.source.Value())
	if err != nil {
		return err
	}
	n.destroyChildren()
	n.reflow = true
	if _, err := n.engine.compilerFor(n).compileChildren(n, templates, n.scope); err != nil {
		return err
	}
	s.done = true
	return nil
}

func (s *dynamicState) destroy(*Node) {}

func toTemplates(v any) ([]*Template, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case *Template:
		if x == nil {
			return nil, nil
		}
		return []*Template{x}, nil
	case []*Template:
		return x, nil
	}
	return nil, errInvalidArg(KindDynamic, v)
}

// =============================================================================
// Fragment
// =============================================================================

type fragmentState struct {
	content  expr.Expression[any]
	sanitize bool
}

func (s *fragmentState) recompute(n *Node) error {
	if !s.content.EvaluateChecked(n) {
		return nil
	}
	var nodes []*dom.Node
	switch v := s.content.Value().(type) {
	case nil:
	case string:
		parsed, err := dom.ParseFragment(n.engine.document, v, s.sanitize)
		if err != nil {
			return err
		}
		nodes = parsed
	case *dom.Node:
		if v != nil {
			nodes = []*dom.Node{v}
		}
	case []*dom.Node:
		nodes = v
	default:
		return errInvalidArg(KindFragment, v)
	}
	n.output = nodes
	n.hasOutput = true
	n.reflow = true
	return nil
}

func (s *fragmentState) destroy(*Node) {}

// =============================================================================
// Root
// =============================================================================

type rootState struct {
	container *dom.Node
}

func (*rootState) recompute(*Node) error { return nil }

func (s *rootState) destroy(*Node) {
	if s.container != nil {
		s.container.RemoveChildren()
		s.container = nil
	}
}

// Mount binds container as the root's output, clearing its existing
// children, and renders when autoRender is set.
func (n *Node) Mount(container *dom.Node, autoRender bool) error {
	s, ok := n.state.(*rootState)
	if !ok {
		return errNotRoot(n)
	}
	if container == nil || container.Type != dom.ElementNode {
		return errInvalidArg(KindRoot, container)
	}
	if s.container != nil {
		n.Unmount()
	}
	container.RemoveChildren()
	s.container = container
	n.output = []*dom.Node{container}
	n.hasOutput = true
	n.reflow = false
	for _, c := range n.children {
		c.reflow = true
	}

	var err error
	if autoRender {
		err = n.engine.Render(n)
	}
	n.InvokeHook(HookMount, nil, container)
	return err
}

// Unmount clears the container and releases it.
func (n *Node) Unmount() {
	s, ok := n.state.(*rootState)
	if !ok || s.container == nil {
		return
	}
	container := s.container
	container.RemoveChildren()
	s.container = nil
	n.output = nil
	n.hasOutput = false
	n.InvokeHook(HookUnmount, nil, container)
}

// IsMounted reports whether the root is bound to a container.
func (n *Node) IsMounted() bool {
	s, ok := n.state.(*rootState)
	return ok && s.container != nil
}

// Container returns the mounted container, or nil.
func (n *Node) Container() *dom.Node {
	if s, ok := n.state.(*rootState); ok {
		return s.container
	}
	return nil
}
