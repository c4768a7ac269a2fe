package document

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/vtree/internal/errors"
)

// State is the mutable data a document renders from. Writes copy every map
// on the written path, so a snapshot is never modified after it was taken
// and changed branches get a new identity.
type State struct {
	mu      sync.RWMutex
	values  map[string]any
	version uint64
}

// NewState creates a state holding a copy of initial.
func NewState(initial map[string]any) *State {
	values := make(map[string]any, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &State{values: values}
}

// Get resolves a dotted path such as "user.name" or "items.0.title".
func (s *State) Get(path string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lookupPath(s.values, splitPath(path))
}

// Snapshot returns the current top-level values. The map must not be
// modified.
func (s *State) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values
}

// Version increments on every write.
func (s *State) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Set stores v at path, creating intermediate maps as needed.
func (s *State) Set(path string, v any) error {
	parts := splitPath(path)
	if len(parts) == 0 {
		return errors.New("E103").WithDetail("empty state path")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := setPath(s.values, parts, v)
	if err != nil {
		return errors.New("E103").WithDetailf("cannot set %q", path).Wrap(err)
	}
	s.values = values
	s.version++
	return nil
}

// Merge replaces the top-level keys present in values.
func (s *State) Merge(values map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[string]any, len(s.values)+len(values))
	for k, v := range s.values {
		next[k] = v
	}
	for k, v := range values {
		next[k] = v
	}
	s.values = next
	s.version++
}

// Update runs fn on a mutable copy of the top-level values and stores the
// result.
func (s *State) Update(fn func(values map[string]any)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[string]any, len(s.values))
	for k, v := range s.values {
		next[k] = v
	}
	fn(next)
	s.values = next
	s.version++
}

func (s *State) toggle(path string) error {
	v, _ := s.Get(path)
	b, _ := v.(bool)
	return s.Set(path, !b)
}

func (s *State) inc(path string, by float64) error {
	v, _ := s.Get(path)
	switch x := v.(type) {
	case nil:
		return s.Set(path, int(by))
	case int:
		return s.Set(path, x+int(by))
	case float64:
		return s.Set(path, x+by)
	}
	return errors.New("E103").WithDetailf("%q holds %T, not a number", path, v)
}

func splitPath(path string) []string {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// lookupPath descends through maps, slices and struct fields.
func lookupPath(v any, parts []string) (any, bool) {
	for _, p := range parts {
		switch x := v.(type) {
		case map[string]any:
			next, ok := x[p]
			if !ok {
				return nil, false
			}
			v = next
			continue
		case []any:
			i, err := strconv.Atoi(p)
			if err != nil || i < 0 || i >= len(x) {
				return nil, false
			}
			v = x[i]
			continue
		}
		next, ok := reflectField(v, p)
		if !ok {
			return nil, false
		}
		v = next
	}
	return v, true
}

func reflectField(v any, name string) (any, bool) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		mv := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !mv.IsValid() {
			return nil, false
		}
		return mv.Interface(), true
	case reflect.Struct:
		f := rv.FieldByName(name)
		if !f.IsValid() || !f.CanInterface() {
			return nil, false
		}
		return f.Interface(), true
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(name)
		if err != nil || i < 0 || i >= rv.Len() {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	}
	return nil, false
}

// setPath returns a copy of m with v stored at parts.
func setPath(m map[string]any, parts []string, v any) (map[string]any, error) {
	next := make(map[string]any, len(m)+1)
	for k, val := range m {
		next[k] = val
	}
	if len(parts) == 1 {
		next[parts[0]] = v
		return next, nil
	}
	switch child := m[parts[0]].(type) {
	case nil:
		sub, err := setPath(nil, parts[1:], v)
		if err != nil {
			return nil, err
		}
		next[parts[0]] = sub
	case map[string]any:
		sub, err := setPath(child, parts[1:], v)
		if err != nil {
			return nil, err
		}
		next[parts[0]] = sub
	case []any:
		i, err := strconv.Atoi(parts[1])
		if err != nil || i < 0 || i >= len(child) {
			return nil, fmt.Errorf("index %q out of range", parts[1])
		}
		list := append([]any(nil), child...)
		if len(parts) == 2 {
			list[i] = v
		} else {
			item, _ := list[i].(map[string]any)
			sub, err := setPath(item, parts[2:], v)
			if err != nil {
				return nil, err
			}
			list[i] = sub
		}
		next[parts[0]] = list
	default:
		return nil, fmt.Errorf("%q holds %T", parts[0], child)
	}
	return next, nil
}

// action is a parsed event action.
type action struct {
	op    string
	path  string
	value any
}

// parseAction parses "toggle:path", "inc:path", "dec:path" or
// "set:path=value". Set values are decoded as YAML scalars.
func parseAction(s string) (action, error) {
	op, rest, ok := strings.Cut(s, ":")
	if !ok || rest == "" {
		return action{}, fmt.Errorf("action %q: expected op:path", s)
	}
	a := action{op: op, path: rest}
	switch op {
	case "toggle", "inc", "dec":
	case "set":
		path, raw, ok := strings.Cut(rest, "=")
		if !ok || path == "" {
			return action{}, fmt.Errorf("action %q: expected set:path=value", s)
		}
		a.path = path
		if err := yaml.Unmarshal([]byte(raw), &a.value); err != nil {
			return action{}, fmt.Errorf("action %q: %w", s, err)
		}
	default:
		return action{}, fmt.Errorf("unknown action %q", op)
	}
	return a, nil
}

func (a action) apply(s *State) error {
	switch a.op {
	case "toggle":
		return s.toggle(a.path)
	case "inc":
		return s.inc(a.path, 1)
	case "dec":
		return s.inc(a.path, -1)
	default:
		return s.Set(a.path, a.value)
	}
}
