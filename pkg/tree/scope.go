package tree

import (
	"maps"
	"slices"
)

// Scope is a lexical context: local bindings plus a non-owning pointer to
// the enclosing scope. Lookups walk the chain outward.
type Scope struct {
	parent *Scope
	vars   map[string]any

	// isolated scopes never re-chain when their node is re-parented
	isolated bool
}

// NewScope creates a root scope holding vars.
func NewScope(vars map[string]any) *Scope {
	return &Scope{vars: maps.Clone(vars)}
}

// Child creates a scope chained to s.
func (s *Scope) Child(vars map[string]any) *Scope {
	return &Scope{parent: s, vars: maps.Clone(vars)}
}

// Parent returns the enclosing scope.
func (s *Scope) Parent() *Scope {
	if s == nil {
		return nil
	}
	return s.parent
}

// Lookup finds name in s or its ancestors.
func (s *Scope) Lookup(name string) (any, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Get returns the value bound to name, or nil.
func (s *Scope) Get(name string) any {
	v, _ := s.Lookup(name)
	return v
}

// Local returns a binding defined directly on s.
func (s *Scope) Local(name string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.vars[name]
	return v, ok
}

// Set binds name on s itself, shadowing any outer binding.
func (s *Scope) Set(name string, v any) {
	if s.vars == nil {
		s.vars = make(map[string]any)
	}
	s.vars[name] = v
}

// Names returns every name visible from s, innermost scope first and
// sorted within a scope.
func (s *Scope) Names() []string {
	seen := make(map[string]bool)
	var out []string
	for cur := s; cur != nil; cur = cur.parent {
		for _, k := range slices.Sorted(maps.Keys(cur.vars)) {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}
