// Package analysis holds the vector operations offered from the query line.
package analysis

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/geo"

	"layered/internal/geom"
)

// DefaultSegments is the vertex count of a buffer circle.
const DefaultSegments = 32

// ErrNoFeatures is returned when an operation leaves nothing to show.
var ErrNoFeatures = errors.New("no features in result")

// Result is a derived layer plus the number of input features left out of it.
type Result struct {
	Layer   *geom.Layer
	Skipped int
}

var bufferStyle = geom.Style{Color: "#f59e0b", Opacity: 0.4, Size: 1, Border: "#b45309"}

// Buffer replaces every point with a geodesic circle of the given radius. Features
// that are not points are skipped and counted.
func Buffer(l *geom.Layer, meters float64, segments int) (Result, error) {
	if meters <= 0 {
		return Result{}, fmt.Errorf("buffer distance must be positive, got %v", meters)
	}
	if segments < 3 {
		segments = DefaultSegments
	}
	var (
		out     []geom.Feature
		skipped int
	)
	for i, f := range l.Features {
		var g orb.Geometry
		switch v := f.Geometry.(type) {
		case orb.Point:
			g = circle(v, meters, segments)
		case orb.MultiPoint:
			mp := make(orb.MultiPolygon, 0, len(v))
			for _, p := range v {
				mp = append(mp, circle(p, meters, segments))
			}
			if len(mp) > 0 {
				g = mp
			}
		}
		if g == nil {
			skipped++
			continue
		}
		row := l.Row(i)
		row["buffer_m"] = meters
		out = append(out, geom.Feature{Geometry: g, Props: row})
	}
	if len(out) == 0 {
		return Result{Skipped: skipped}, fmt.Errorf("buffer %s: %w", l.Name, ErrNoFeatures)
	}
	res := geom.NewLayer(fmt.Sprintf("%s buffer %gm", l.Name, meters), out, bufferStyle)
	res.CRS = l.CRS
	res.Source = "buffer:" + l.Name
	return Result{Layer: res, Skipped: skipped}, nil
}

// circle is a counter-clockwise ring around c.
func circle(c orb.Point, meters float64, segments int) orb.Polygon {
	ring := make(orb.Ring, 0, segments+1)
	for i := 0; i < segments; i++ {
		bearing := 360 - float64(i)*360/float64(segments)
		ring = append(ring, geo.PointAtBearingAndDistance(c, bearing, meters))
	}
	ring = append(ring, ring[0])
	return orb.Polygon{ring}
}

// Clip cuts every geometry to b. Features entirely outside are dropped and counted.
func Clip(l *geom.Layer, b orb.Bound) (Result, error) {
	var (
		out     []geom.Feature
		skipped int
	)
	for i, f := range l.Features {
		if geom.Empty(f.Geometry) {
			skipped++
			continue
		}
		// clip uses its input as scratch space
		g := clip.Geometry(b, orb.Clone(f.Geometry))
		if geom.Empty(g) {
			skipped++
			continue
		}
		out = append(out, geom.Feature{Geometry: g, Props: l.Row(i)})
	}
	if len(out) == 0 {
		return Result{Skipped: skipped}, fmt.Errorf("clip %s: %w", l.Name, ErrNoFeatures)
	}
	res := geom.NewLayer(l.Name+" clip", out, l.Style)
	res.CRS = l.CRS
	res.Source = "clip:" + l.Name
	return Result{Layer: res, Skipped: skipped}, nil
}
