package statekit

import "reflect"

// Scope is a hierarchical value registry: a consumer asks for a type and
// receives the nearest ancestor-provided instance of that type, or
// nothing. Notifiers are plain values to a Scope; providing one makes it
// discoverable without implementing any lookup in the notifier itself.
//
// Like the notifier core, a Scope is confined to one logical thread of
// control.
type Scope struct {
	parent *Scope
	values map[any]any
}

// NewScope creates a scope under parent. A nil parent creates a root.
func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent}
}

// Parent returns the parent scope, or nil for a root.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// SetValue registers value under key in this scope, shadowing any
// ancestor registration for the same key.
func (s *Scope) SetValue(key, value any) {
	if s.values == nil {
		s.values = make(map[any]any)
	}
	s.values[key] = value
}

// Value returns the value for key from this scope or the nearest
// ancestor, or nil if no scope in the chain provides it.
func (s *Scope) Value(key any) any {
	if s.values != nil {
		if v, ok := s.values[key]; ok {
			return v
		}
	}
	if s.parent != nil {
		return s.parent.Value(key)
	}
	return nil
}

// Provide registers v in s keyed by its static type T.
func Provide[T any](s *Scope, v T) {
	s.SetValue(typeKey[T](), v)
}

// Lookup returns the nearest provided T, walking from s toward the root.
func Lookup[T any](s *Scope) (T, bool) {
	v, ok := s.Value(typeKey[T]()).(T)
	return v, ok
}

// typeKey returns the registry key for type T. Using the reflect.Type
// keeps distinct instantiations distinct even when T is an interface.
func typeKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
