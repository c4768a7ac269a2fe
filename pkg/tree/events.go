package tree

import (
	"fmt"

	"github.com/vango-dev/vtree/pkg/dom"
)

// Event is delivered to element and component handlers.
type Event struct {
	// Name is the event name.
	Name string

	// Node is the node that bound the handler.
	Node *Node

	// DOM is the output tree event for element events, nil for emits.
	DOM *dom.Event

	// Args are the arguments passed to Emit.
	Args []any
}

// Handler handles an element or component event.
type Handler func(e *Event) error

// HandlerID identifies a component event handler.
type HandlerID uint64

// toHandlers normalizes an Options.Events value.
func toHandlers(v any) ([]Handler, error) {
	var out []Handler
	for _, item := range asList(v) {
		switch f := item.(type) {
		case Handler:
			out = append(out, f)
		case func(*Event) error:
			out = append(out, f)
		case func(*Event):
			out = append(out, func(e *Event) error { f(e); return nil })
		case func() error:
			out = append(out, func(*Event) error { return f() })
		case func():
			out = append(out, func(*Event) error { f(); return nil })
		default:
			return nil, fmt.Errorf("unsupported event handler %T", item)
		}
	}
	return out, nil
}

// runHandler calls h with a per-call error boundary. Failures are logged.
func (n *Node) runHandler(h Handler, e *Event) (ok bool) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = panicError(r)
			}
		}()
		return h(e)
	}()
	if err != nil {
		n.engine.logError("E203", n, err, "event", e.Name)
		return false
	}
	return true
}

// Listen binds h to the node's output element for the named event. Element
// and component nodes that have not materialized yet bind on first compute.
// It reports false for kinds without an element.
func (n *Node) Listen(name string, h Handler) bool {
	es := n.elementState()
	if es == nil {
		return false
	}
	es.listen(n, name, h)
	return true
}

// eventEntry is one handler in a component event table.
type eventEntry struct {
	id HandlerID
	fn Handler
}

// eventTable is a component's named event multimap.
type eventTable struct {
	entries map[string][]*eventEntry
	nextID  HandlerID
}

// On registers h for events emitted on a component node. It returns 0 on
// other kinds.
func (n *Node) On(name string, h Handler) HandlerID {
	c, ok := n.state.(*componentState)
	if !ok {
		return 0
	}
	t := &c.events
	if t.entries == nil {
		t.entries = make(map[string][]*eventEntry)
	}
	t.nextID++
	t.entries[name] = append(t.entries[name], &eventEntry{id: t.nextID, fn: h})
	return t.nextID
}

// Off removes a handler registered with On.
func (n *Node) Off(name string, id HandlerID) bool {
	c, ok := n.state.(*componentState)
	if !ok {
		return false
	}
	list := c.events.entries[name]
	for i, e := range list {
		if e.id == id {
			c.events.entries[name] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// Emit calls the component's handlers for name in registration order and
// returns how many ran without failing. Failing handlers are logged.
func (n *Node) Emit(name string, args ...any) int {
	c, ok := n.state.(*componentState)
	if !ok {
		return 0
	}
	list := c.events.entries[name]
	snapshot := make([]*eventEntry, len(list))
	copy(snapshot, list)

	succeeded := 0
	for _, e := range snapshot {
		if n.runHandler(e.fn, &Event{Name: name, Node: n, Args: args}) {
			succeeded++
		}
	}
	return succeeded
}
