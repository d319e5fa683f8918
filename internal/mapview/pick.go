package mapview

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"layered/internal/geom"
)

// LayerHits is the set of attribute rows one layer contributed to a pick.
type LayerHits struct {
	Layer string
	Rows  []map[string]any
}

// Pick returns, for every visible layer with at least one feature under p, the
// matching attribute rows. Layers come in insertion order, rows in feature order.
//
// Polygons match by containment (boundary inclusive); points and lines match when
// within tol of p. Empty geometries are skipped.
func (s *Surface) Pick(p orb.Point, tol float64) []LayerHits {
	if tol < 0 {
		tol = 0
	}
	lo := [2]float64{p[0] - tol, p[1] - tol}
	hi := [2]float64{p[0] + tol, p[1] + tol}
	candidates := map[string][]int{}
	s.index.Search(lo, hi, func(_, _ [2]float64, h hit) bool {
		if !s.hidden[h.layer] {
			candidates[h.layer] = append(candidates[h.layer], h.feature)
		}
		return true
	})

	var out []LayerHits
	for _, name := range s.order {
		idx := candidates[name]
		if len(idx) == 0 {
			continue
		}
		l, err := s.src.Get(name)
		if err != nil {
			continue
		}
		sort.Ints(idx)
		var rows []map[string]any
		for _, i := range idx {
			if i >= len(l.Features) {
				continue
			}
			if Contains(l.Features[i].Geometry, p, tol) {
				rows = append(rows, l.Row(i))
			}
		}
		if len(rows) > 0 {
			out = append(out, LayerHits{Layer: name, Rows: rows})
		}
	}
	return out
}

// Contains is the containment predicate used for picking.
func Contains(g orb.Geometry, p orb.Point, tol float64) bool {
	if geom.Empty(g) {
		return false
	}
	switch v := g.(type) {
	case orb.Polygon:
		return polygonContains(v, p)
	case orb.MultiPolygon:
		for _, poly := range v {
			if polygonContains(poly, p) {
				return true
			}
		}
	case orb.Ring:
		return planar.RingContains(v, p)
	case orb.Bound:
		return v.Contains(p)
	case orb.Point, orb.MultiPoint, orb.LineString, orb.MultiLineString:
		return planar.DistanceFrom(v, p) <= tol
	case orb.Collection:
		for _, c := range v {
			if Contains(c, p, tol) {
				return true
			}
		}
	}
	return false
}

// polygonContains counts points on any ring, holes included, as inside.
func polygonContains(poly orb.Polygon, p orb.Point) bool {
	for _, r := range poly {
		if len(r) > 0 && planar.DistanceFrom(orb.LineString(r), p) == 0 {
			return true
		}
	}
	return planar.PolygonContains(poly, p)
}
