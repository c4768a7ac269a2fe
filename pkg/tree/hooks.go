package tree

import "fmt"

// Hook names fired by the engine.
const (
	HookCompiled  = "compiled"   // node and its subtree finished compiling
	HookDestroy   = "destroy"    // node is about to be destroyed
	HookItemReady = "item:ready" // list child reconciled; args[0] is the child
	HookMount     = "mount"      // root bound to a container
	HookUnmount   = "unmount"    // root released its container
	HookInit      = "init"       // component controller initialized
)

// HookFlags modify how a hook handler is registered.
type HookFlags uint8

const (
	// HookOnce removes the handler after its first invocation.
	HookOnce HookFlags = 1 << iota
)

// HookID identifies a registered hook handler.
type HookID uint64

// HookFunc handles a hook invocation.
type HookFunc func(n *Node, msg *HookMessage, args ...any) error

// HookMessage travels with a hook invocation. Broadcast delivers the hook to
// every descendant after the node itself; Stop ends the broadcast.
type HookMessage struct {
	Broadcast bool
	Value     any

	stopped bool
}

// Stop ends a broadcast after the current node.
func (m *HookMessage) Stop() { m.stopped = true }

// Stopped reports whether Stop was called.
func (m *HookMessage) Stopped() bool { return m != nil && m.stopped }

type hookEntry struct {
	id    HookID
	fn    HookFunc
	flags HookFlags
}

// hookTable is an ordered multimap from hook name to handlers.
type hookTable struct {
	entries map[string][]*hookEntry
	nextID  HookID
}

func (h *hookTable) add(name string, fn HookFunc, flags HookFlags) HookID {
	if h.entries == nil {
		h.entries = make(map[string][]*hookEntry)
	}
	h.nextID++
	h.entries[name] = append(h.entries[name], &hookEntry{id: h.nextID, fn: fn, flags: flags})
	return h.nextID
}

func (h *hookTable) remove(name string, id HookID) bool {
	list := h.entries[name]
	for i, e := range list {
		if e.id == id {
			h.entries[name] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// take returns the handlers for name, dropping once-handlers from the table.
func (h *hookTable) take(name string) []*hookEntry {
	list := h.entries[name]
	if len(list) == 0 {
		return nil
	}
	out := make([]*hookEntry, len(list))
	copy(out, list)

	kept := list[:0:0]
	for _, e := range list {
		if e.flags&HookOnce == 0 {
			kept = append(kept, e)
		}
	}
	h.entries[name] = kept
	return out
}

// Hook registers fn for the named hook.
func (n *Node) Hook(name string, fn HookFunc, flags ...HookFlags) HookID {
	var f HookFlags
	for _, fl := range flags {
		f |= fl
	}
	return n.hooks.add(name, fn, f)
}

// Unhook removes a handler registered with Hook.
func (n *Node) Unhook(name string, id HookID) bool {
	return n.hooks.remove(name, id)
}

// UnhookAll removes every handler registered for name.
func (n *Node) UnhookAll(name string) {
	delete(n.hooks.entries, name)
}

// InvokeHook calls the handlers registered for name in order. A failing
// handler is logged and does not stop the others. When msg requests a
// broadcast, the hook is then invoked on every child.
func (n *Node) InvokeHook(name string, msg *HookMessage, args ...any) {
	for _, e := range n.hooks.take(name) {
		if err := callHook(e.fn, n, msg, args); err != nil {
			n.engine.logError("E203", n, err, "hook", name)
		}
	}
	if msg == nil || !msg.Broadcast || msg.stopped {
		return
	}
	for _, c := range n.Children() {
		if msg.stopped {
			return
		}
		c.InvokeHook(name, msg, args...)
	}
}

func callHook(fn HookFunc, n *Node, msg *HookMessage, args []any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return fn(n, msg, args...)
}

// toHookFuncs normalizes an Options.Hooks value.
func toHookFuncs(v any) ([]HookFunc, error) {
	var out []HookFunc
	for _, item := range asList(v) {
		switch f := item.(type) {
		case HookFunc:
			out = append(out, f)
		case func(*Node, *HookMessage, ...any) error:
			out = append(out, f)
		case func(*Node) error:
			out = append(out, func(n *Node, _ *HookMessage, _ ...any) error { return f(n) })
		case func(*Node):
			out = append(out, func(n *Node, _ *HookMessage, _ ...any) error { f(n); return nil })
		case func():
			out = append(out, func(*Node, *HookMessage, ...any) error { f(); return nil })
		default:
			return nil, fmt.Errorf("unsupported hook handler %T", item)
		}
	}
	return out, nil
}
