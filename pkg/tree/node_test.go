package tree

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/vtree/pkg/dom"
)

func TestNode_Hooks(t *testing.T) {
	e := newTestEngine()
	root, _ := mount(t, e, nil, Element("div", nil, Element("p", nil), Element("p", nil)))

	var visited []Kind
	record := func(n *Node, _ *HookMessage, _ ...any) error {
		visited = append(visited, n.Kind())
		return nil
	}
	root.Walk(func(n *Node) bool {
		n.Hook("ping", record)
		return true
	})

	root.InvokeHook("ping", &HookMessage{Broadcast: true})
	if diff := cmp.Diff([]Kind{KindRoot, KindElement, KindElement, KindElement}, visited); diff != "" {
		t.Errorf("broadcast mismatch (-want +got):\n%s", diff)
	}

	visited = nil
	root.InvokeHook("ping", nil)
	if len(visited) != 1 {
		t.Errorf("non-broadcast reached %d nodes, want 1", len(visited))
	}

	visited = nil
	stop := func(n *Node, msg *HookMessage, _ ...any) error {
		msg.Stop()
		return nil
	}
	div := root.Child(0)
	div.Hook("halt", stop)
	div.Child(0).Hook("halt", record)
	div.InvokeHook("halt", &HookMessage{Broadcast: true})
	if len(visited) != 0 {
		t.Error("Stop() did not end the broadcast")
	}
}

func TestNode_HookFlagsAndErrors(t *testing.T) {
	e := newTestEngine()
	n, err := e.Compile(Element("div", nil))
	if err != nil {
		t.Fatal(err)
	}

	calls := 0
	n.Hook("x", func(*Node, *HookMessage, ...any) error { calls++; return nil }, HookOnce)
	n.Hook("x", func(*Node, *HookMessage, ...any) error { panic("bad hook") })
	id := n.Hook("x", func(*Node, *HookMessage, ...any) error { return errors.New("failed") })

	n.InvokeHook("x", nil)
	n.InvokeHook("x", nil)
	if calls != 1 {
		t.Errorf("once hook ran %d times, want 1", calls)
	}
	if !n.Unhook("x", id) || n.Unhook("x", id) {
		t.Error("Unhook() did not remove exactly once")
	}
}

// releaseDirective fails on Destroy, by error or by panic.
type releaseDirective struct {
	BaseDirective
	panics bool
}

func (d *releaseDirective) Destroy() error {
	if d.panics {
		panic("release panicked")
	}
	return errors.New("release failed")
}

func TestNode_DestroyErrorsContinue(t *testing.T) {
	var logs bytes.Buffer
	e := NewEngine(
		WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))),
		WithDirectives(DirectiveMap{
			"fails":  func() Directive { return &releaseDirective{} },
			"panics": func() Directive { return &releaseDirective{panics: true} },
		}),
	)
	root, container := mount(t, e, nil,
		Element("ul", nil,
			Element("li", &Options{Directives: map[string]any{"fails": true}}),
			Element("li", &Options{Directives: map[string]any{"panics": true}}, Element("b", nil)),
			Element("li", nil),
		),
	)
	ul := root.Child(0)
	items := ul.Children()
	nested := items[1].Child(0)
	before := e.LiveNodes()

	ul.Destroy()

	for i, n := range append(items, ul, nested) {
		if !n.Destroyed() {
			t.Errorf("node %d (%s) not destroyed", i, n)
		}
	}
	if got, want := e.LiveNodes(), before-5; got != want {
		t.Errorf("LiveNodes() = %d, want %d", got, want)
	}
	if got := strings.Count(logs.String(), `"code":"E202"`); got != 2 {
		t.Errorf("E202 logged %d times, want 2:\n%s", got, logs.String())
	}

	if err := root.Render(); err != nil {
		t.Fatal(err)
	}
	assertHTML(t, container, "")
}

func TestNode_LifecycleHooksFromOptions(t *testing.T) {
	e := newTestEngine()
	var events []string
	on := func(name string) func(*Node) {
		return func(*Node) { events = append(events, name) }
	}

	root, _ := mount(t, e, nil, Element("div", &Options{
		Alias: "box",
		Hooks: map[string]any{
			HookCompiled: on("compiled"),
			HookDestroy:  on("destroy"),
		},
	}))
	root.FindByAlias("box").Remove(true)

	if diff := cmp.Diff([]string{"compiled", "destroy"}, events); diff != "" {
		t.Errorf("hooks mismatch (-want +got):\n%s", diff)
	}
}

func TestNode_ElementEvents(t *testing.T) {
	e := newTestEngine()
	clicks := 0
	root, container := mount(t, e, nil,
		Element("form", &Options{Events: map[string]any{"submit": func() { clicks += 10 }}},
			Element("button", &Options{Events: map[string]any{
				"click": []any{
					func(ev *Event) { clicks++ },
					func(ev *Event) error { return errors.New("handler failed") },
				},
			}}),
		),
	)

	button := container.FirstChild().FirstChild()
	button.Dispatch(dom.NewEvent("click", nil))
	if clicks != 1 {
		t.Errorf("clicks = %d, want 1", clicks)
	}

	form := root.Child(0)
	if !form.Listen("reset", func(ev *Event) error {
		if ev.Node != form || ev.DOM == nil {
			t.Error("event does not carry its node and DOM event")
		}
		clicks = 0
		return nil
	}) {
		t.Fatal("Listen() on element returned false")
	}
	container.FirstChild().Dispatch(dom.NewEvent("reset", nil))
	if clicks != 0 {
		t.Errorf("clicks = %d after reset", clicks)
	}

	form.Destroy()
	if n := button.ListenerCount("click"); n != 0 {
		t.Errorf("destroy left %d listeners", n)
	}
}

func TestNode_ArenaHandles(t *testing.T) {
	e := newTestEngine()
	root := e.NewRoot(nil)
	nodes, err := root.Compile(Element("a", nil), Element("b", nil))
	if err != nil {
		t.Fatal(err)
	}

	h := nodes[0].Handle()
	if e.Node(h) != nodes[0] || nodes[0].Parent() != root {
		t.Fatal("handle does not resolve to its node")
	}
	live := e.LiveNodes()

	nodes[0].Destroy()
	if e.Node(h) != nil {
		t.Error("destroyed handle still resolves")
	}
	if e.LiveNodes() != live-1 {
		t.Errorf("LiveNodes() = %d, want %d", e.LiveNodes(), live-1)
	}

	// a reused slot must not revive the old handle
	fresh, _ := root.Compile(Element("c", nil))
	if e.Node(h) != nil || e.Node(fresh[0].Handle()) != fresh[0] {
		t.Error("slot reuse broke handle resolution")
	}
}

func TestNode_ChildManagement(t *testing.T) {
	e := newTestEngine()
	root := e.NewRoot(map[string]any{"lang": "en"})
	nodes, err := root.Compile(Element("a", &Options{Alias: "a"}), Element("b", &Options{Alias: "b"}))
	if err != nil {
		t.Fatal(err)
	}
	a, b := nodes[0], nodes[1]

	b.AddChild(a)
	if a.Parent() != b || root.ChildCount() != 1 {
		t.Fatal("AddChild() did not move the node")
	}
	if got, _ := a.Lookup("lang"); got != "en" {
		t.Errorf("moved node lost its scope: %v", got)
	}

	a.AddChild(b)
	if b.Parent() != root {
		t.Error("AddChild() created a cycle")
	}

	c := e.NewRoot(nil)
	c.InsertChild(a, 0)
	if a.Parent() != c || b.ChildCount() != 0 {
		t.Error("InsertChild() did not detach from the old parent")
	}

	if got := c.RemoveChildAt(0, false); got != a || a.Destroyed() || a.Parent() != nil {
		t.Error("RemoveChildAt(false) should detach without destroying")
	}
	if c.RemoveChild(a, true) {
		t.Error("RemoveChild() of a non-child reported success")
	}
}

func TestNode_FindAndWalk(t *testing.T) {
	e := newTestEngine()
	root, _ := mount(t, e, nil,
		Element("ul", nil,
			Element("li", &Options{Alias: "item"}, Text("1")),
			Element("li", &Options{Alias: "item"}, Text("2")),
		),
	)

	all := root.FindAllByAlias("item")
	if len(all) != 2 || root.FindByAlias("item") != all[0] {
		t.Fatalf("FindAllByAlias() = %v", all)
	}

	var kinds []Kind
	root.Walk(func(n *Node) bool {
		kinds = append(kinds, n.Kind())
		return n.Kind() != KindElement || n.Alias() == ""
	})
	want := []Kind{KindRoot, KindElement, KindElement, KindElement}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("Walk mismatch (-want +got):\n%s", diff)
	}
}

func TestNode_ScopeContext(t *testing.T) {
	e := newTestEngine()
	calls := 0
	root, container := mount(t, e, map[string]any{"name": "world"},
		Element("p", &Options{Context: map[string]any{
			"greeting": func(s *Scope) any { calls++; return "hello " + s.Get("name").(string) },
		}},
			Text(func(s *Scope) any { return s.Get("greeting") }),
		),
	)
	root.Render()
	root.Render()

	assertHTML(t, container, "<p>hello world</p>")
	if calls != 1 {
		t.Errorf("context getter ran %d times, want 1", calls)
	}

	p := root.Child(0)
	p.SetContext("greeting", "bye")
	root.Render()
	assertHTML(t, container, "<p>bye</p>")
	if _, ok := root.Scope().Local("greeting"); ok {
		t.Error("SetContext leaked into the enclosing scope")
	}
}

func TestNode_Extensions(t *testing.T) {
	e := newTestEngine(WithExtension(KindElement, "tag", func(n *Node, _ ...any) (any, error) {
		return n.Element().Tag, nil
	}))
	n, err := e.Compile(Element("aside", nil))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Render(n); err != nil {
		t.Fatal(err)
	}
	got, err := n.Call("tag")
	if err != nil || got != "aside" {
		t.Errorf("Call(tag) = %v, %v", got, err)
	}
	if _, err := n.Call("missing"); err == nil {
		t.Error("Call(missing) returned no error")
	}
}

func TestScope(t *testing.T) {
	outer := NewScope(map[string]any{"a": 1, "b": 2})
	inner := outer.Child(map[string]any{"b": 3, "c": 4})

	if got := inner.Get("a"); got != 1 {
		t.Errorf("Get(a) = %v", got)
	}
	if got := inner.Get("b"); got != 3 {
		t.Errorf("Get(b) = %v, want shadowed 3", got)
	}
	if _, ok := inner.Local("a"); ok {
		t.Error("Local(a) found an outer binding")
	}
	if diff := cmp.Diff([]string{"b", "c", "a"}, inner.Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
	var none *Scope
	if _, ok := none.Lookup("a"); ok {
		t.Error("nil scope lookup succeeded")
	}
}
