// Package layers holds the layer store: the single owner of loaded geometry.
package layers

import (
	"fmt"

	"layered/internal/geom"
)

// DuplicateNameError is returned when a name is already taken.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string { return fmt.Sprintf("layer %q already exists", e.Name) }

// NotFoundError is returned for a lookup miss.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("layer %q not found", e.Name) }

// Store maps layer names to layers and remembers insertion order.
// It is owned by the UI loop and is not safe for concurrent use.
type Store struct {
	layers map[string]*geom.Layer
	order  []string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{layers: make(map[string]*geom.Layer)}
}

// Put stores l under name. An existing name fails unless overwrite is set, in which
// case the data is replaced and the original position kept.
func (s *Store) Put(name string, l *geom.Layer, overwrite bool) error {
	if l == nil {
		return fmt.Errorf("layer %q: nil layer", name)
	}
	_, exists := s.layers[name]
	if exists && !overwrite {
		return &DuplicateNameError{Name: name}
	}
	l.Name = name
	s.layers[name] = l
	if !exists {
		s.order = append(s.order, name)
	}
	return nil
}

// Get returns the layer stored under name.
func (s *Store) Get(name string) (*geom.Layer, error) {
	l, ok := s.layers[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return l, nil
}

// Has reports whether name is stored.
func (s *Store) Has(name string) bool {
	_, ok := s.layers[name]
	return ok
}

// Remove deletes name.
func (s *Store) Remove(name string) error {
	if _, ok := s.layers[name]; !ok {
		return &NotFoundError{Name: name}
	}
	delete(s.layers, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Names returns layer names in insertion order.
func (s *Store) Names() []string {
	return append([]string(nil), s.order...)
}

// Layers returns the layers in insertion order.
func (s *Store) Layers() []*geom.Layer {
	out := make([]*geom.Layer, 0, len(s.order))
	for _, n := range s.order {
		out = append(out, s.layers[n])
	}
	return out
}

// Len returns the number of stored layers.
func (s *Store) Len() int { return len(s.order) }

// UniqueName returns base, or base with the smallest "-N" suffix not yet taken.
func (s *Store) UniqueName(base string) string {
	if !s.Has(base) {
		return base
	}
	for i := 2; ; i++ {
		n := fmt.Sprintf("%s-%d", base, i)
		if !s.Has(n) {
			return n
		}
	}
}
