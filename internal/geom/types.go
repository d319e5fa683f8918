package geom

import (
	"github.com/paulmach/orb"
)

// Kind is the layer kind. Only vector layers exist today.
type Kind string

const KindVector Kind = "vector"

// DefaultCRS is assumed for GeoJSON (RFC 7946), CSV and generated data.
const DefaultCRS = "EPSG:4326"

// Feature is one geometry plus its attribute row.
type Feature struct {
	Geometry orb.Geometry
	Props    map[string]any
}

// Layer is a named collection of features sharing a style and attribute schema.
type Layer struct {
	Name     string
	Kind     Kind
	Features []Feature
	// Columns lists attribute keys in first-seen order.
	Columns []string
	Style   Style
	CRS     string
	Source  string
	// Skipped counts input records the loader could not turn into features.
	Skipped int
}

// NewLayer builds a vector layer and derives its column order from the features.
func NewLayer(name string, features []Feature, style Style) *Layer {
	l := &Layer{
		Name:     name,
		Kind:     KindVector,
		Features: features,
		Style:    style,
		CRS:      DefaultCRS,
	}
	l.Columns = columnsOf(features)
	return l
}

// Len returns the feature count.
func (l *Layer) Len() int { return len(l.Features) }

// Bound returns the union of all non-empty feature bounds.
// ok is false when the layer has no usable geometry.
func (l *Layer) Bound() (b orb.Bound, ok bool) {
	for _, f := range l.Features {
		if Empty(f.Geometry) {
			continue
		}
		fb := f.Geometry.Bound()
		if !ok {
			b, ok = fb, true
			continue
		}
		b = b.Union(fb)
	}
	return b, ok
}

// Row returns a copy of the i-th attribute row.
func (l *Layer) Row(i int) map[string]any {
	row := make(map[string]any, len(l.Features[i].Props))
	for k, v := range l.Features[i].Props {
		row[k] = v
	}
	return row
}

// Clone copies the layer header and feature slice. Geometries are shared.
func (l *Layer) Clone(name string) *Layer {
	c := *l
	c.Name = name
	c.Features = append([]Feature(nil), l.Features...)
	c.Columns = append([]string(nil), l.Columns...)
	return &c
}

// Empty reports whether g carries no coordinates.
func Empty(g orb.Geometry) bool {
	if g == nil {
		return true
	}
	switch v := g.(type) {
	case orb.Point:
		return false
	case orb.MultiPoint:
		return len(v) == 0
	case orb.LineString:
		return len(v) == 0
	case orb.MultiLineString:
		for _, ls := range v {
			if len(ls) > 0 {
				return false
			}
		}
		return true
	case orb.Ring:
		return len(v) == 0
	case orb.Polygon:
		return len(v) == 0 || len(v[0]) == 0
	case orb.MultiPolygon:
		for _, p := range v {
			if len(p) > 0 && len(p[0]) > 0 {
				return false
			}
		}
		return true
	case orb.Collection:
		for _, c := range v {
			if !Empty(c) {
				return false
			}
		}
		return true
	case orb.Bound:
		return false
	}
	return true
}
