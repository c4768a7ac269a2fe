package dom

// MutationType classifies a single output tree mutation.
type MutationType uint8

const (
	MutationInsert MutationType = iota + 1
	MutationRemove
	MutationAttribute
	MutationProperty
	MutationStyle
	MutationClass
	MutationCharacterData
)

// String returns the string representation of the MutationType.
func (t MutationType) String() string {
	switch t {
	case MutationInsert:
		return "Insert"
	case MutationRemove:
		return "Remove"
	case MutationAttribute:
		return "Attribute"
	case MutationProperty:
		return "Property"
	case MutationStyle:
		return "Style"
	case MutationClass:
		return "Class"
	case MutationCharacterData:
		return "CharacterData"
	default:
		return "Unknown"
	}
}

// Mutation describes one change applied to the output tree.
type Mutation struct {
	Type   MutationType
	Target *Node  // node whose state changed (the parent for Insert/Remove)
	Node   *Node  // inserted or removed child
	Key    string // attribute, property or style name
}

// Structural reports whether the mutation changed the tree shape.
func (m Mutation) Structural() bool {
	return m.Type == MutationInsert || m.Type == MutationRemove
}

// Observer receives mutations as they are applied.
type Observer interface {
	Observe(m Mutation)
}

// ObserverFunc adapts a function into an Observer.
type ObserverFunc func(m Mutation)

// Observe implements Observer.
func (f ObserverFunc) Observe(m Mutation) { f(m) }

// Recorder is an Observer that keeps every mutation it sees.
type Recorder struct {
	Mutations []Mutation
	next      Observer
}

// NewRecorder creates a recorder that forwards to next when non-nil.
func NewRecorder(next Observer) *Recorder {
	return &Recorder{next: next}
}

// Observe implements Observer.
func (r *Recorder) Observe(m Mutation) {
	r.Mutations = append(r.Mutations, m)
	if r.next != nil {
		r.next.Observe(m)
	}
}

// Len returns the number of recorded mutations.
func (r *Recorder) Len() int { return len(r.Mutations) }

// Count returns the number of recorded mutations of type t.
func (r *Recorder) Count(t MutationType) int {
	n := 0
	for _, m := range r.Mutations {
		if m.Type == t {
			n++
		}
	}
	return n
}

// Reset discards recorded mutations.
func (r *Recorder) Reset() { r.Mutations = r.Mutations[:0] }

// Counter is an Observer that only counts mutations.
type Counter struct {
	Total      int
	Structural int
}

// Observe implements Observer.
func (c *Counter) Observe(m Mutation) {
	c.Total++
	if m.Structural() {
		c.Structural++
	}
}
