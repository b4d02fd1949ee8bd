package vm

import (
	"sort"
	"sync"
)

// Scope is a binding table for script variables.
// Lookups fall back to the parent scope. The global scope of an execution
// has no parent; each function call gets a child of the global scope.
type Scope struct {
	variables map[string]any
	parent    *Scope
	mu        sync.RWMutex
}

// NewScope creates a new scope with an optional parent scope.
func NewScope(parent *Scope) *Scope {
	return &Scope{
		variables: make(map[string]any),
		parent:    parent,
	}
}

// Get retrieves a variable, searching this scope first and then the parents.
func (s *Scope) Get(name string) (any, bool) {
	s.mu.RLock()
	value, ok := s.variables[name]
	s.mu.RUnlock()
	if ok {
		return value, true
	}

	if s.parent != nil {
		return s.parent.Get(name)
	}
	return nil, false
}

// Set updates the variable in the nearest scope that already holds it,
// or creates it in this scope.
func (s *Scope) Set(name string, value any) {
	s.mu.Lock()
	if _, ok := s.variables[name]; ok {
		s.variables[name] = value
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	if s.parent != nil && s.parent.Has(name) {
		s.parent.Set(name, value)
		return
	}

	s.SetLocal(name, value)
}

// GetLocal retrieves a variable from this scope only.
func (s *Scope) GetLocal(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.variables[name]
	return value, ok
}

// SetLocal binds a variable in this scope only. Used for function parameters.
func (s *Scope) SetLocal(name string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variables[name] = value
}

// Has reports whether the variable exists in this scope or any parent.
func (s *Scope) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Parent returns the parent scope, or nil for a root scope.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Keys returns the sorted variable names of this scope (not including parent).
func (s *Scope) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.variables))
	for k := range s.variables {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// Size returns the number of variables in this scope (not including parent).
func (s *Scope) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.variables)
}
