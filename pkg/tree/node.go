package tree

import (
	"fmt"

	"github.com/vango-dev/vtree/pkg/dom"
)

// variant is the per-kind behavior of a node. The set of implementations is
// closed: one per Kind.
type variant interface {
	recompute(n *Node) error
	destroy(n *Node)
}

// Node is a unit of the reactive tree.
//
// A node owns its children and its output handles. Parent and dependency are
// non-owning handles resolved through the engine arena.
type Node struct {
	engine   *Engine
	handle   Handle
	kind     Kind
	state    variant
	template *Template

	output    []*dom.Node
	hasOutput bool

	parent     Handle
	children   []*Node
	dependency Handle

	scope    *Scope
	ownScope bool

	directives []boundDirective
	hooks      hookTable

	alias     string
	reflow    bool
	endpoint  bool
	destroyed bool
}

// =============================================================================
// Accessors
// =============================================================================

// Kind returns the node variant.
func (n *Node) Kind() Kind { return n.kind }

// Engine returns the engine that compiled the node.
func (n *Node) Engine() *Engine { return n.engine }

// Handle returns the node's arena handle.
func (n *Node) Handle() Handle { return n.handle }

// Template returns the template the node was compiled from.
func (n *Node) Template() *Template { return n.template }

// Parent returns the parent node, or nil.
func (n *Node) Parent() *Node { return n.engine.arena.get(n.parent) }

// Dependency returns the nearest enclosing component, or nil.
func (n *Node) Dependency() *Node { return n.engine.arena.get(n.dependency) }

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// ChildCount returns the number of children.
func (n *Node) ChildCount() int { return len(n.children) }

// Child returns the child at i, or nil.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// Scope returns the node's lexical scope.
func (n *Node) Scope() *Scope {
	if n == nil {
		return nil
	}
	return n.scope
}

// Lookup resolves name in the node's scope chain.
func (n *Node) Lookup(name string) (any, bool) {
	return n.Scope().Lookup(name)
}

// SetContext binds name on the node's own scope, creating one chained to
// the shared scope on first use.
func (n *Node) SetContext(name string, v any) {
	if !n.ownScope {
		n.scope = n.scope.Child(nil)
		n.ownScope = true
		for _, c := range n.children {
			c.rescope(n.scope)
		}
	}
	n.scope.Set(name, v)
}

// Output returns the output handles owned by the node.
func (n *Node) Output() []*dom.Node { return n.output }

// Element returns the node's output element for Element, Component and
// mounted Root nodes.
func (n *Node) Element() *dom.Node {
	if len(n.output) == 1 && n.output[0].Type == dom.ElementNode {
		return n.output[0]
	}
	return nil
}

// Alias returns the alias set through Options.Alias.
func (n *Node) Alias() string { return n.alias }

// Reflow reports whether the node's output shape changed since the last sync.
func (n *Node) Reflow() bool { return n.reflow }

// Endpoint reports whether the sync pass treats the node's output as opaque.
func (n *Node) Endpoint() bool { return n.endpoint }

// Destroyed reports whether Destroy ran.
func (n *Node) Destroyed() bool { return n.destroyed }

func (n *Node) String() string {
	if n.alias != "" {
		return fmt.Sprintf("%s(%s)", n.kind, n.alias)
	}
	return n.kind.String()
}

// =============================================================================
// Child management
// =============================================================================

// AddChild appends c, detaching it from its current parent first.
func (n *Node) AddChild(c *Node) {
	n.InsertChild(c, len(n.children))
}

// InsertChild inserts c at index i (clamped to the child count).
func (n *Node) InsertChild(c *Node, i int) {
	if c == nil || c == n || c.destroyed || c.isAncestorOf(n) {
		return
	}
	if p := c.Parent(); p != nil {
		p.detachChild(c)
	}
	if i < 0 {
		i = 0
	}
	if i > len(n.children) {
		i = len(n.children)
	}
	n.children = append(n.children, nil)
	copy(n.children[i+1:], n.children[i:])
	n.children[i] = c

	c.parent = n.handle
	c.setDependency(n.childDependency())
	c.rescope(n.scope)
	c.reflow = true
}

// RemoveChild detaches c and destroys it when destroy is set. It reports
// whether c was a child of n.
func (n *Node) RemoveChild(c *Node, destroy bool) bool {
	if !n.detachChild(c) {
		return false
	}
	if destroy {
		c.Destroy()
	}
	return true
}

// RemoveChildAt removes the child at index i and returns it.
func (n *Node) RemoveChildAt(i int, destroy bool) *Node {
	c := n.Child(i)
	if c == nil {
		return nil
	}
	n.RemoveChild(c, destroy)
	return c
}

// Remove detaches n from its parent.
func (n *Node) Remove(destroy bool) {
	if p := n.Parent(); p != nil {
		p.RemoveChild(n, destroy)
		return
	}
	if destroy {
		n.Destroy()
	}
}

func (n *Node) detachChild(c *Node) bool {
	for i, ch := range n.children {
		if ch == c {
			n.children = append(n.children[:i], n.children[i+1:]...)
			c.parent = Handle{}
			return true
		}
	}
	return false
}

// takeChildren detaches every child and returns them.
func (n *Node) takeChildren() []*Node {
	out := n.children
	n.children = nil
	for _, c := range out {
		c.parent = Handle{}
	}
	return out
}

// destroyChildren destroys every child.
func (n *Node) destroyChildren() {
	for _, c := range n.takeChildren() {
		c.safeDestroy()
	}
}

func (n *Node) isAncestorOf(other *Node) bool {
	for p := other; p != nil; p = p.Parent() {
		if p == n {
			return true
		}
	}
	return false
}

// childDependency is the dependency inherited by n's children.
func (n *Node) childDependency() Handle {
	if n.kind == KindComponent {
		return n.handle
	}
	return n.dependency
}

func (n *Node) setDependency(d Handle) {
	n.dependency = d
	if n.kind == KindComponent {
		return
	}
	for _, c := range n.children {
		c.setDependency(d)
	}
}

// rescope re-chains the node to a new enclosing scope. Nodes with their own
// scope keep their bindings; nodes sharing a scope adopt s.
func (n *Node) rescope(s *Scope) {
	if n.ownScope {
		if !n.scope.isolated {
			n.scope.parent = s
		}
		return
	}
	n.scope = s
	for _, c := range n.children {
		c.rescope(s)
	}
}

// =============================================================================
// Destruction
// =============================================================================

// Destroy fires the destroy hook, destroys the children, releases directives
// and output handles and detaches the node. Output handles stay in the
// output tree until the next sync removes them.
func (n *Node) Destroy() {
	if n.destroyed {
		return
	}
	if p := n.Parent(); p != nil {
		p.detachChild(n)
	}
	n.destroy()
}

func (n *Node) destroy() {
	n.InvokeHook(HookDestroy, nil)
	n.destroyChildren()
	if n.state != nil {
		n.state.destroy(n)
	}
	for _, d := range n.directives {
		if err := d.directive.Destroy(); err != nil {
			n.engine.logError("E202", n, err, "directive", d.name)
		}
	}
	n.directives = nil
	n.output = nil
	n.hasOutput = false
	n.destroyed = true
	n.engine.arena.release(n.handle)
}

// safeDestroy destroys a detached node, logging a panic instead of
// propagating it.
func (n *Node) safeDestroy() {
	defer func() {
		if r := recover(); r != nil {
			n.destroyed = true
			n.engine.arena.release(n.handle)
			n.engine.logError("E202", n, panicError(r))
		}
	}()
	n.destroy()
}

// =============================================================================
// Queries
// =============================================================================

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the visited node's descendants.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children() {
		c.Walk(fn)
	}
}

// FindByAlias returns the first node in document order with the alias.
func (n *Node) FindByAlias(alias string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.alias == alias {
			found = c
			return false
		}
		return true
	})
	return found
}

// FindAllByAlias returns every node with the alias in document order.
func (n *Node) FindAllByAlias(alias string) []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		if c.alias == alias {
			out = append(out, c)
		}
		return true
	})
	return out
}

// =============================================================================
// Rendering
// =============================================================================

// Recompute runs the node's own recompute step without touching children.
func (n *Node) Recompute() error {
	if n.destroyed || n.state == nil {
		return nil
	}
	return n.state.recompute(n)
}

// Render recomputes the subtree and syncs the output tree.
func (n *Node) Render() error {
	return n.engine.Render(n)
}

// RenderByAlias renders the first node with the alias, or every one when
// all is set. It returns the number of nodes rendered.
func (n *Node) RenderByAlias(alias string, all bool) (int, error) {
	var targets []*Node
	if all {
		targets = n.FindAllByAlias(alias)
	} else if t := n.FindByAlias(alias); t != nil {
		targets = []*Node{t}
	}
	for _, t := range targets {
		if err := n.engine.Render(t); err != nil {
			return 0, err
		}
	}
	return len(targets), nil
}

// Compile compiles templates as new children of n, in n's scope.
func (n *Node) Compile(templates ...*Template) ([]*Node, error) {
	return n.engine.compilerFor(n).compileChildren(n, templates, n.scope)
}
