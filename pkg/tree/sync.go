package tree

import (
	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/dom"
)

// renderPass carries the state of one render.
type renderPass struct {
	engine   *Engine
	stats    RenderStats
	firstErr error
}

// =============================================================================
// Compute
// =============================================================================

// compute recomputes n and then its children in pre-order. A failing node's
// descendants are skipped.
func (r *renderPass) compute(n *Node) {
	if n.destroyed {
		return
	}
	r.stats.Computed++
	if err := safeRecompute(n); err != nil {
		r.stats.ComputeErrors++
		r.engine.metrics.ComputeFailed(n.kind)
		r.engine.logError("E201", n, err)
		if r.firstErr == nil {
			r.firstErr = errors.New("E201").WithDetailf("%s node", n).Wrap(err)
		}
		return
	}
	for _, c := range n.Children() {
		r.compute(c)
	}
}

func safeRecompute(n *Node) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = panicError(rec)
		}
	}()
	return n.Recompute()
}

// =============================================================================
// Sync
// =============================================================================

// syncRoot picks where syncing starts: n itself when it owns output that is
// already in place, otherwise the nearest ancestor owning output.
func syncRoot(n *Node) *Node {
	if n.hasOutput && !n.reflow && !n.endpoint {
		return n
	}
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.hasOutput && !p.endpoint {
			return p
		}
	}
	return n
}

// boundary is an output-owning descendant placed directly in a container.
type boundary struct {
	node   *Node
	reflow bool
}

// segment is a run of boundaries sharing one reflow state.
type segment struct {
	reflow bool
	nodes  []*Node
}

func (s segment) handles() []*dom.Node {
	var out []*dom.Node
	for _, n := range s.nodes {
		out = append(out, n.output...)
	}
	return out
}

// sync reconciles the output children of n's container with the output of
// its boundary descendants.
func (r *renderPass) sync(n *Node) {
	if n.endpoint || n.destroyed {
		return
	}
	container := n.Element()
	if !n.hasOutput || container == nil {
		for _, c := range n.children {
			r.sync(c)
		}
		return
	}

	segments := collectSegments(collectBoundaries(n, false, nil))

	switch {
	case len(segments) == 0:
		container.RemoveChildren()

	case !anyReflow(segments):
		var expected []*dom.Node
		for _, s := range segments {
			expected = append(expected, s.handles()...)
		}
		if len(expected) != container.ChildCount() {
			cursor := r.match(n, container, container.FirstChild(), expected)
			removeFrom(container, cursor, nil)
		}
		for _, s := range segments {
			r.syncNodes(s.nodes)
		}

	case len(segments) == 1:
		container.RemoveChildren()
		s := segments[0]
		r.syncNodes(s.nodes)
		for _, h := range s.handles() {
			container.AppendChild(h)
		}

	default:
		r.syncMixed(n, container, segments)
	}
}

func (r *renderPass) syncNodes(nodes []*Node) {
	for _, c := range nodes {
		r.sync(c)
	}
}

// syncMixed walks one cursor through the container, replacing reflow
// segments wholesale and trimming non-reflow segments.
func (r *renderPass) syncMixed(n *Node, container *dom.Node, segments []segment) {
	cursor := container.FirstChild()
	for i, s := range segments {
		if !s.reflow {
			cursor = r.match(n, container, cursor, s.handles())
			r.syncNodes(s.nodes)
			continue
		}

		anchor := anchorAfter(container, segments[i+1:])
		removeFrom(container, cursor, anchor)
		r.syncNodes(s.nodes)
		for _, h := range s.handles() {
			container.InsertBefore(h, anchor)
		}
		cursor = anchor
	}
	removeFrom(container, cursor, nil)
}

// anchorAfter returns the first handle of the next non-reflow segment that
// is still in container.
func anchorAfter(container *dom.Node, rest []segment) *dom.Node {
	for _, s := range rest {
		if s.reflow {
			continue
		}
		for _, h := range s.handles() {
			if h.Parent() == container {
				return h
			}
		}
	}
	return nil
}

// match advances cursor over expected handles. Live children that are not
// expected are removed; expected handles missing from the container are
// reinserted and reported as structural mismatches. It returns the cursor
// after the last expected handle.
func (r *renderPass) match(n *Node, container, cursor *dom.Node, expected []*dom.Node) *dom.Node {
	for _, h := range expected {
		for cursor != nil && cursor != h {
			if h.Parent() != container {
				break
			}
			next := cursor.NextSibling()
			container.RemoveChild(cursor)
			cursor = next
		}
		if cursor == h {
			cursor = cursor.NextSibling()
			continue
		}
		r.mismatch(n, h)
		container.InsertBefore(h, cursor)
	}
	return cursor
}

func (r *renderPass) mismatch(n *Node, h *dom.Node) {
	r.stats.Mismatches++
	r.engine.metrics.StructuralMismatch()
	r.engine.logger.Warn(errors.New("E301").Message,
		"code", "E301",
		"node", n.String(),
		"handle", h.Type.String(),
	)
}

// removeFrom removes container children from cursor up to stop.
func removeFrom(container, cursor, stop *dom.Node) {
	for cursor != nil && cursor != stop {
		next := cursor.NextSibling()
		container.RemoveChild(cursor)
		cursor = next
	}
}

// collectBoundaries finds the output-owning descendants of n, passing
// through nodes without output. inherited carries reflow from the nodes
// passed through.
func collectBoundaries(n *Node, inherited bool, out []boundary) []boundary {
	for _, c := range n.children {
		if c.destroyed {
			continue
		}
		reflow := inherited || c.reflow
		switch {
		case c.hasOutput:
			out = append(out, boundary{node: c, reflow: reflow})
		case c.endpoint:
		default:
			out = collectBoundaries(c, reflow, out)
		}
	}
	return out
}

func collectSegments(bs []boundary) []segment {
	var out []segment
	for _, b := range bs {
		if k := len(out); k > 0 && out[k-1].reflow == b.reflow {
			out[k-1].nodes = append(out[k-1].nodes, b.node)
			continue
		}
		out = append(out, segment{reflow: b.reflow, nodes: []*Node{b.node}})
	}
	return out
}

func anyReflow(segments []segment) bool {
	for _, s := range segments {
		if s.reflow {
			return true
		}
	}
	return false
}

// =============================================================================
// Reset
// =============================================================================

// resetReflow clears reflow flags in n's subtree. keepSelf preserves n's own
// flag, which belongs to a sync started further up.
func resetReflow(n *Node, keepSelf bool) {
	if !keepSelf {
		n.reflow = false
	}
	for _, c := range n.children {
		resetReflow(c, false)
	}
}
