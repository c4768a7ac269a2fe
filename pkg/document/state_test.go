package document

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestState_SetCopiesOnWrite(t *testing.T) {
	s := NewState(map[string]any{
		"user":  map[string]any{"name": "ada", "tags": []any{"a", "b"}},
		"count": 1,
	})
	before := s.Snapshot()

	if err := s.Set("user.name", "grace"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("user.tags.1", "c"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("prefs.theme", "dark"); err != nil {
		t.Fatal(err)
	}

	want := map[string]any{
		"user":  map[string]any{"name": "ada", "tags": []any{"a", "b"}},
		"count": 1,
	}
	if diff := cmp.Diff(want, before); diff != "" {
		t.Errorf("snapshot modified (-want +got):\n%s", diff)
	}

	for path, want := range map[string]any{
		"user.name":   "grace",
		"user.tags.1": "c",
		"prefs.theme": "dark",
		"count":       1,
	} {
		got, ok := s.Get(path)
		if !ok || got != want {
			t.Errorf("Get(%q) = %v, %v; want %v", path, got, ok, want)
		}
	}
	if s.Version() != 3 {
		t.Errorf("Version() = %d, want 3", s.Version())
	}
}

func TestState_SetErrors(t *testing.T) {
	s := NewState(map[string]any{"n": 1, "list": []any{1}})
	for _, path := range []string{"", "n.x", "list.5"} {
		if err := s.Set(path, true); err == nil {
			t.Errorf("Set(%q) succeeded, want error", path)
		}
	}
}

func TestState_GetStructFields(t *testing.T) {
	type user struct{ Name string }
	s := NewState(map[string]any{"u": &user{Name: "ada"}, "m": map[string]int{"k": 2}})

	if got, _ := s.Get("u.Name"); got != "ada" {
		t.Errorf("Get(u.Name) = %v", got)
	}
	if got, _ := s.Get("m.k"); got != 2 {
		t.Errorf("Get(m.k) = %v", got)
	}
	if _, ok := s.Get("u.missing"); ok {
		t.Error("Get(u.missing) found a value")
	}
}

func TestActions(t *testing.T) {
	s := NewState(map[string]any{"n": 1, "f": 1.5})
	for _, raw := range []string{"toggle:open", "inc:n", "inc:f", "dec:fresh", "set:name=ada", "set:list=[1, 2]"} {
		a, err := parseAction(raw)
		if err != nil {
			t.Fatalf("parseAction(%q) error = %v", raw, err)
		}
		if err := a.apply(s); err != nil {
			t.Fatalf("apply(%q) error = %v", raw, err)
		}
	}

	want := map[string]any{
		"n":     2,
		"f":     2.5,
		"open":  true,
		"fresh": -1,
		"name":  "ada",
		"list":  []any{1, 2},
	}
	if diff := cmp.Diff(want, s.Snapshot()); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}

	for _, raw := range []string{"toggle", "jump:x", "set:x", "set:=1"} {
		if _, err := parseAction(raw); err == nil {
			t.Errorf("parseAction(%q) succeeded, want error", raw)
		}
	}

	bad, _ := parseAction("inc:name")
	if err := bad.apply(s); err == nil {
		t.Error("inc on a string succeeded")
	}
}

func TestState_MergeAndUpdate(t *testing.T) {
	s := NewState(map[string]any{"a": 1, "b": 2})
	s.Merge(map[string]any{"b": 3, "c": 4})
	s.Update(func(values map[string]any) { delete(values, "a") })

	if diff := cmp.Diff(map[string]any{"b": 3, "c": 4}, s.Snapshot()); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
	if s.Version() != 2 {
		t.Errorf("Version() = %d, want 2", s.Version())
	}
}
