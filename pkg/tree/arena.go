package tree

// Handle is a stable, non-owning reference to a node held by an Engine.
// A handle to a destroyed node resolves to nil, even after its slot is
// reused.
type Handle struct {
	index uint32
	gen   uint32
}

// Valid reports whether h was issued by an arena.
func (h Handle) Valid() bool { return h.gen != 0 }

type arenaSlot struct {
	node *Node
	gen  uint32
}

// arena owns every live node of an engine. Parent and dependency links are
// handles into it.
type arena struct {
	slots []arenaSlot
	free  []uint32
	live  int
}

func (a *arena) insert(n *Node) Handle {
	a.live++
	if k := len(a.free); k > 0 {
		i := a.free[k-1]
		a.free = a.free[:k-1]
		s := &a.slots[i]
		s.gen++
		s.node = n
		return Handle{index: i, gen: s.gen}
	}
	a.slots = append(a.slots, arenaSlot{node: n, gen: 1})
	return Handle{index: uint32(len(a.slots) - 1), gen: 1}
}

func (a *arena) get(h Handle) *Node {
	if !h.Valid() || int(h.index) >= len(a.slots) {
		return nil
	}
	s := a.slots[h.index]
	if s.gen != h.gen {
		return nil
	}
	return s.node
}

func (a *arena) release(h Handle) {
	if a.get(h) == nil {
		return
	}
	a.slots[h.index].node = nil
	a.free = append(a.free, h.index)
	a.live--
}
