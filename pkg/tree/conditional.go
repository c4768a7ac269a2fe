package tree

import "github.com/vango-dev/vtree/pkg/expr"

type condBranch struct {
	when expr.Expression[any] // nil for the default branch
	then []*Template
}

// conditionalState shows the children of the first branch whose condition
// is truthy. With caching, children of the branch being left are kept
// off-tree and reattached when the branch is selected again.
type conditionalState struct {
	branches []condBranch
	active   int
	cache    bool
	cached   map[int][]*Node
}

func newConditionalState(t *Template) (*conditionalState, error) {
	s := &conditionalState{active: -1, cache: t.opts().Cache}

	if len(t.Args) == 1 {
		if _, ok := t.Args[0].(Branch); !ok {
			s.branches = []condBranch{{when: toExpression(t.Args[0]), then: t.Children}}
			return s, nil
		}
	}
	if len(t.Children) > 0 {
		return nil, errInvalidTemplate(t, "conditional branches carry their own children")
	}
	for i, a := range t.Args {
		b, ok := a.(Branch)
		if !ok {
			return nil, errInvalidArg(KindConditional, a)
		}
		if b.When == nil && i != len(t.Args)-1 {
			return nil, errInvalidTemplate(t, "default branch must be last")
		}
		cb := condBranch{then: b.Then}
		if b.When != nil {
			cb.when = toExpression(b.When)
		}
		s.branches = append(s.branches, cb)
	}
	return s, nil
}

func (s *conditionalState) selected(n *Node) int {
	for i, b := range s.branches {
		if b.when == nil || truthy(b.when.Evaluate(n)) {
			return i
		}
	}
	return -1
}

// Active returns the index of the shown branch, or -1.
func (s *conditionalState) Active() int { return s.active }

func (s *conditionalState) recompute(n *Node) error {
	sel := s.selected(n)
	if sel == s.active {
		return nil
	}

	old := n.takeChildren()
	if s.cache && s.active >= 0 && len(old) > 0 {
		if s.cached == nil {
			s.cached = make(map[int][]*Node)
		}
		s.cached[s.active] = old
	} else {
		for _, c := range old {
			c.safeDestroy()
		}
	}
	s.active = sel
	n.reflow = true
	if sel < 0 {
		return nil
	}

	if nodes, ok := s.cached[sel]; ok {
		delete(s.cached, sel)
		for _, c := range nodes {
			n.AddChild(c)
		}
		return nil
	}
	if _, err := n.engine.compilerFor(n).compileChildren(n, s.branches[sel].then, n.scope); err != nil {
		n.destroyChildren()
		s.active = -1
		return err
	}
	return nil
}

func (s *conditionalState) destroy(*Node) {
	for _, nodes := range s.cached {
		for _, c := range nodes {
			c.safeDestroy()
		}
	}
	s.cached = nil
}
