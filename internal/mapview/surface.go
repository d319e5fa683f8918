// Package mapview is the map surface: the set of layers on the map, their combined
// bounds, click picking and the braille canvas they are drawn on.
package mapview

import (
	"errors"

	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"

	"layered/internal/geom"
	"layered/internal/layers"
)

// Source resolves layers by name. The layer store satisfies it.
type Source interface {
	Get(name string) (*geom.Layer, error)
}

type hit struct {
	layer   string
	feature int
}

// Surface tracks which layers are on the map. Geometry stays in the Source and is
// looked up whenever bounds, the pick index or the frame are rebuilt.
type Surface struct {
	src    Source
	order  []string
	hidden map[string]bool

	bounds    orb.Bound
	hasBounds bool
	index     *rtree.RTreeG[hit]

	dirty bool

	zoom    float64
	offsetX int
	offsetY int

	marker    orb.Point
	hasMarker bool
}

// New creates an empty surface reading layers from src.
func New(src Source) *Surface {
	return &Surface{
		src:    src,
		hidden: make(map[string]bool),
		index:  &rtree.RTreeG[hit]{},
		zoom:   1.0,
	}
}

// AddLayer puts a stored layer on the map. A name already on the map is rejected with
// layers.DuplicateNameError; use Refresh after replacing its data instead.
func (s *Surface) AddLayer(name string) error {
	if s.Has(name) {
		return &layers.DuplicateNameError{Name: name}
	}
	if _, err := s.src.Get(name); err != nil {
		return err
	}
	s.order = append(s.order, name)
	return s.recompute()
}

// RemoveLayer takes a layer off the map.
func (s *Surface) RemoveLayer(name string) error {
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			delete(s.hidden, name)
			return s.recompute()
		}
	}
	return &layers.NotFoundError{Name: name}
}

// Refresh rebuilds derived state after the named layer's data changed in the source.
func (s *Surface) Refresh(name string) error {
	if !s.Has(name) {
		return &layers.NotFoundError{Name: name}
	}
	return s.recompute()
}

// Has reports whether name is on the map.
func (s *Surface) Has(name string) bool {
	for _, n := range s.order {
		if n == name {
			return true
		}
	}
	return false
}

// Names returns the layers on the map in insertion order.
func (s *Surface) Names() []string { return append([]string(nil), s.order...) }

// Visible reports whether name is drawn and pickable.
func (s *Surface) Visible(name string) bool { return s.Has(name) && !s.hidden[name] }

// SetVisible shows or hides a layer. Hidden layers still count toward bounds.
func (s *Surface) SetVisible(name string, visible bool) error {
	if !s.Has(name) {
		return &layers.NotFoundError{Name: name}
	}
	if s.hidden[name] == !visible {
		return nil
	}
	if visible {
		delete(s.hidden, name)
	} else {
		s.hidden[name] = true
	}
	s.dirty = true
	return nil
}

// ToggleVisible flips visibility and returns the new state.
func (s *Surface) ToggleVisible(name string) (bool, error) {
	v := !s.Visible(name)
	return v, s.SetVisible(name, v)
}

// Bounds returns the union of all active layers' extents.
func (s *Surface) Bounds() (orb.Bound, bool) { return s.bounds, s.hasBounds }

// Dirty reports whether the surface changed since the last Redraw.
func (s *Surface) Dirty() bool { return s.dirty }

// SetMarker highlights a location on the next redraw.
func (s *Surface) SetMarker(p orb.Point) {
	s.marker, s.hasMarker = p, true
	s.dirty = true
}

// ClearMarker removes the highlight.
func (s *Surface) ClearMarker() {
	if s.hasMarker {
		s.hasMarker = false
		s.dirty = true
	}
}

// recompute rebuilds bounds and the pick index from the source.
func (s *Surface) recompute() error {
	s.bounds, s.hasBounds = orb.Bound{}, false
	s.index = &rtree.RTreeG[hit]{}
	var errs []error
	for _, name := range s.order {
		l, err := s.src.Get(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if b, ok := l.Bound(); ok {
			if !s.hasBounds {
				s.bounds, s.hasBounds = b, true
			} else {
				s.bounds = s.bounds.Union(b)
			}
		}
		for i, f := range l.Features {
			if geom.Empty(f.Geometry) {
				continue
			}
			fb := f.Geometry.Bound()
			s.index.Insert(fb.Min, fb.Max, hit{layer: name, feature: i})
		}
	}
	s.dirty = true
	return errors.Join(errs...)
}
