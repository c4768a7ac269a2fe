package tree

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/dom"
	"github.com/vango-dev/vtree/pkg/expr"
)

type row struct {
	ID   int
	Name string
}

func itemText(field string) *Template {
	return Text(func(s *Scope) any { return fmt.Sprint(s.Get(field)) })
}

func TestList_KeyedRetainsNodes(t *testing.T) {
	e := newTestEngine()
	items := expr.NewReference[any]([]any{
		map[string]any{"k": "a"},
		map[string]any{"k": "b"},
		map[string]any{"k": "c"},
	})

	root, container := mount(t, e, nil,
		Element("ul", nil,
			Each(items, &Options{Key: "k", Alias: "list"},
				Element("li", nil, Text(func(s *Scope) any { return field(s.Get("item"), "k") })),
			),
		),
	)
	assertHTML(t, container, "<ul><li>a</li><li>b</li><li>c</li></ul>")

	list := root.FindByAlias("list")
	before := list.Children()
	a, b, c := before[0], before[1], before[2]

	items.TrySet([]any{map[string]any{"k": "c"}, map[string]any{"k": "a"}})
	if err := root.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	after := list.Children()
	if len(after) != 2 || after[0] != c || after[1] != a {
		t.Fatalf("children = %v, want the nodes of c and a", after)
	}
	if !b.Destroyed() {
		t.Error("node for key b was not destroyed")
	}
	if got := c.Scope().Get("index"); got != 0 {
		t.Errorf("c index = %v, want 0", got)
	}
	if got := a.Scope().Get("index"); got != 1 {
		t.Errorf("a index = %v, want 1", got)
	}
	assertHTML(t, container, "<ul><li>c</li><li>a</li></ul>")
}

func TestList_KeyedUnchangedPositionNotReflowed(t *testing.T) {
	e := newTestEngine()
	rows := expr.NewReference[any]([]row{{1, "one"}, {2, "two"}})

	root, container := mount(t, e, nil,
		Element("ul", nil,
			Each(rows, &Options{Key: "ID", As: "row"},
				Element("li", nil, Text(func(s *Scope) any { return s.Get("row").(row).Name })),
			),
		),
	)

	rec := record(e)
	rows.TrySet([]row{{1, "uno"}, {2, "two"}, {3, "three"}})
	root.Render()

	assertHTML(t, container, "<ul><li>uno</li><li>two</li><li>three</li></ul>")
	// the new item's text goes into its li, the li goes into the list
	if got := rec.Count(dom.MutationInsert); got != 2 {
		t.Errorf("inserts = %d, want 2", got)
	}
	if got := rec.Count(dom.MutationRemove); got != 0 {
		t.Errorf("removals = %d, want 0", got)
	}
	if got := rec.Count(dom.MutationCharacterData); got != 1 {
		t.Errorf("text updates = %d, want 1", got)
	}
}

func TestList_UnkeyedShrink(t *testing.T) {
	e := newTestEngine()
	count := expr.NewReference[any](5)

	root, container := mount(t, e, nil,
		Element("ol", nil,
			Each(count, &Options{Alias: "list"}, Element("li", nil, itemText("index"))),
		),
	)
	assertHTML(t, container, "<ol><li>0</li><li>1</li><li>2</li><li>3</li><li>4</li></ol>")

	list := root.FindByAlias("list")
	before := list.Children()
	ol := container.FirstChild()
	handles := ol.Children()

	rec := record(e)
	count.TrySet(3)
	root.Render()

	after := list.Children()
	if len(after) != 3 {
		t.Fatalf("children = %d, want 3", len(after))
	}
	for i := range after {
		if after[i] != before[i] {
			t.Errorf("child %d was replaced", i)
		}
	}
	for _, gone := range before[3:] {
		if !gone.Destroyed() {
			t.Error("trailing child was not destroyed")
		}
	}
	if rec.Len() != 2 || rec.Count(dom.MutationRemove) != 2 {
		t.Fatalf("mutations = %+v, want exactly 2 removals", rec.Mutations)
	}
	removed := []*dom.Node{rec.Mutations[0].Node, rec.Mutations[1].Node}
	if removed[0] != handles[3] || removed[1] != handles[4] {
		t.Error("removed handles are not the trailing items")
	}
	assertHTML(t, container, "<ol><li>0</li><li>1</li><li>2</li></ol>")
}

func TestList_Sources(t *testing.T) {
	tests := []struct {
		name   string
		source any
		text   *Template
		want   string
	}{
		{
			name:   "count",
			source: 3,
			text:   itemText("item"),
			want:   "012",
		},
		{
			name:   "slice",
			source: []string{"x", "y"},
			text:   itemText("item"),
			want:   "xy",
		},
		{
			name:   "map sorted by key",
			source: map[string]int{"b": 2, "a": 1},
			text:   Text(func(s *Scope) any { return fmt.Sprintf("%v=%v;", s.Get("key"), s.Get("item")) }),
			want:   "a=1;b=2;",
		},
		{
			name:   "pairs keep order",
			source: Pairs{{Key: "z", Value: 26}, {Key: "a", Value: 1}},
			text:   Text(func(s *Scope) any { return fmt.Sprintf("%v%v", s.Get("key"), s.Get("item")) }),
			want:   "z26a1",
		},
		{
			name:   "nil",
			source: nil,
			text:   itemText("item"),
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine()
			_, container := mount(t, e, nil, Element("p", nil, Each(tt.source, nil, tt.text)))
			assertHTML(t, container, "<p>"+tt.want+"</p>")
		})
	}
}

func TestList_InvalidSource(t *testing.T) {
	e := newTestEngine()
	root := e.NewRoot(nil)
	if _, err := root.Compile(Element("p", nil, Each("nope", nil, Text("x")))); err != nil {
		t.Fatal(err)
	}
	err := root.Mount(e.Document().CreateElement("div"), true)
	if !errors.HasCode(err, "E103") {
		t.Errorf("error = %v, want E103", err)
	}
}

func TestList_ItemReadyHook(t *testing.T) {
	e := newTestEngine()
	var ready []any
	hook := func(_ *Node, _ *HookMessage, args ...any) error {
		ready = append(ready, args[0].(*Node).Scope().Get("item"))
		return nil
	}
	mount(t, e, nil,
		Element("p", nil,
			Each([]string{"a", "b"}, &Options{Hooks: map[string]any{HookItemReady: HookFunc(hook)}}, itemText("item")),
		),
	)
	if diff := cmp.Diff([]any{"a", "b"}, ready); diff != "" {
		t.Errorf("item:ready mismatch (-want +got):\n%s", diff)
	}
}

func TestList_CountSourceReconcilesEveryRender(t *testing.T) {
	e := newTestEngine()
	ready := 0
	hook := func(*Node, *HookMessage, ...any) error {
		ready++
		return nil
	}
	root, container := mount(t, e, nil,
		Element("ul", nil,
			Each(3, &Options{Hooks: map[string]any{HookItemReady: HookFunc(hook)}},
				Element("li", nil, Text(func(s *Scope) any { return s.Get("index") })),
			),
		),
	)
	if ready != 3 {
		t.Fatalf("item:ready after mount = %d, want 3", ready)
	}
	list := root.Child(0).Child(0)
	first := list.Children()

	rec := record(e)
	if err := root.Render(); err != nil {
		t.Fatal(err)
	}
	if ready != 6 {
		t.Errorf("item:ready after second render = %d, want 6", ready)
	}
	for i, c := range list.Children() {
		if c != first[i] {
			t.Errorf("child %d was recompiled", i)
		}
	}
	if rec.Len() != 0 {
		t.Errorf("unchanged count produced %d mutations", rec.Len())
	}
	assertHTML(t, container, "<ul><li>0</li><li>1</li><li>2</li></ul>")
}

func TestList_DuplicateKeys(t *testing.T) {
	e := newTestEngine()
	items := expr.NewReference[any]([]string{"x", "x", "y"})
	root, container := mount(t, e, nil,
		Element("p", nil, Each(items, &Options{Key: func(item any) any { return item }}, itemText("item"))),
	)
	assertHTML(t, container, "<p>xxy</p>")

	items.TrySet([]string{"y", "x"})
	root.Render()
	assertHTML(t, container, "<p>yx</p>")
}

func TestNormalizeKey(t *testing.T) {
	if got := normalizeKey([]int{1}); got != "[]int{1}" {
		t.Errorf("normalizeKey(slice) = %v", got)
	}
	if got := normalizeKey(7); got != 7 {
		t.Errorf("normalizeKey(7) = %v", got)
	}
}
