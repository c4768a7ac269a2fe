package dom

// Event is dispatched to listeners bound on elements.
type Event struct {
	Type          string
	Target        *Node
	CurrentTarget *Node
	Detail        map[string]any

	stopped bool
}

// NewEvent creates an event of the given type.
func NewEvent(typ string, detail map[string]any) *Event {
	return &Event{Type: typ, Detail: detail}
}

// StopPropagation prevents the event from bubbling further.
func (e *Event) StopPropagation() { e.stopped = true }

// Stopped reports whether StopPropagation was called.
func (e *Event) Stopped() bool { return e.stopped }

// Listener handles a dispatched event.
type Listener func(e *Event)

type listener struct {
	id int
	fn Listener
}

// AddEventListener binds fn to events of type typ and returns a function that
// unbinds it.
func (n *Node) AddEventListener(typ string, fn Listener) (remove func()) {
	if n.listeners == nil {
		n.listeners = make(map[string][]*listener)
	}
	n.nextLID++
	id := n.nextLID
	n.listeners[typ] = append(n.listeners[typ], &listener{id: id, fn: fn})

	return func() {
		list := n.listeners[typ]
		for i, l := range list {
			if l.id == id {
				n.listeners[typ] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// ListenerCount returns the number of listeners bound for typ.
func (n *Node) ListenerCount(typ string) int {
	return len(n.listeners[typ])
}

// Dispatch delivers e to n and then bubbles it up through n's ancestors until
// a listener stops propagation.
func (n *Node) Dispatch(e *Event) {
	if e.Target == nil {
		e.Target = n
	}
	for cur := n; cur != nil && !e.stopped; cur = cur.parent {
		list := cur.listeners[e.Type]
		if len(list) == 0 {
			continue
		}
		e.CurrentTarget = cur
		// Listeners added while dispatching wait for the next event
		snapshot := make([]*listener, len(list))
		copy(snapshot, list)
		for _, l := range snapshot {
			l.fn(e)
		}
	}
}
