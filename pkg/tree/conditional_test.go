package tree

import (
	"testing"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/expr"
)

func TestConditional_CacheReusesChildren(t *testing.T) {
	e := newTestEngine()
	show := expr.NewReference[any](true)

	root, container := mount(t, e, nil,
		Element("div", nil,
			If(show, &Options{Cache: true, Alias: "cond"}, Element("span", nil, Text("x"))),
		),
	)
	cond := root.FindByAlias("cond")
	first := cond.Children()
	if len(first) != 1 {
		t.Fatalf("children = %d, want 1", len(first))
	}
	live := e.LiveNodes()

	for round := 0; round < 2; round++ {
		show.TrySet(false)
		root.Render()
		assertHTML(t, container, "<div></div>")
		if cond.ChildCount() != 0 {
			t.Fatalf("round %d: hidden branch still attached", round)
		}

		show.TrySet(true)
		root.Render()
		assertHTML(t, container, "<div><span>x</span></div>")
		if cond.Child(0) != first[0] {
			t.Fatalf("round %d: branch was recompiled", round)
		}
		if first[0].Destroyed() {
			t.Fatalf("round %d: cached branch was destroyed", round)
		}
	}
	if e.LiveNodes() != live {
		t.Errorf("LiveNodes() = %d, want %d", e.LiveNodes(), live)
	}

	cond.Destroy()
	if !first[0].Destroyed() {
		t.Error("destroying the conditional left its children alive")
	}
}

func TestConditional_WithoutCacheRecompiles(t *testing.T) {
	e := newTestEngine()
	show := expr.NewReference[any](true)

	root, _ := mount(t, e, nil,
		Element("div", nil, If(show, &Options{Alias: "cond"}, Text("x"))),
	)
	cond := root.FindByAlias("cond")
	first := cond.Child(0)

	show.TrySet(false)
	root.Render()
	if !first.Destroyed() {
		t.Error("discarded branch was not destroyed")
	}

	show.TrySet(true)
	root.Render()
	if cond.Child(0) == first {
		t.Error("branch was reused without caching")
	}
}

func TestConditional_Branches(t *testing.T) {
	e := newTestEngine()
	state := "loading"
	is := func(v string) func() bool {
		return func() bool { return state == v }
	}

	root, container := mount(t, e, nil,
		Element("p", nil,
			Choose(nil,
				Branch{When: is("loading"), Then: []*Template{Text("Loading")}},
				Branch{When: is("error"), Then: []*Template{Text("Failed")}},
				Branch{Then: []*Template{Text("Done")}},
			),
		),
	)
	assertHTML(t, container, "<p>Loading</p>")

	tests := []struct {
		state string
		want  string
	}{
		{"error", "<p>Failed</p>"},
		{"ready", "<p>Done</p>"},
		{"loading", "<p>Loading</p>"},
	}
	for _, tt := range tests {
		state = tt.state
		root.Render()
		assertHTML(t, container, tt.want)
	}
}

func TestConditional_InvalidTemplates(t *testing.T) {
	e := newTestEngine()

	_, err := e.Compile(Choose(nil, Branch{Then: []*Template{Text("a")}}, Branch{When: true}))
	if !errors.HasCode(err, "E101") {
		t.Errorf("default branch not last: error = %v, want E101", err)
	}

	_, err = e.Compile(&Template{Kind: KindConditional, Args: []any{Branch{When: true}, "nope"}})
	if !errors.HasCode(err, "E103") {
		t.Errorf("non-branch argument: error = %v, want E103", err)
	}
	if e.LiveNodes() != 0 {
		t.Errorf("failed compiles leaked %d nodes", e.LiveNodes())
	}
}
