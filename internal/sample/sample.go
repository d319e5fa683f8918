// Package sample generates the demonstration layers shown on startup: a grid of
// districts over San Francisco and a scatter of points of interest.
package sample

import (
	"fmt"
	"math/rand"

	"github.com/paulmach/orb"

	"layered/internal/geom"
)

const (
	AdminLayer = "Admin Boundaries"
	POILayer   = "Points of Interest"
)

// Extent is the area both layers cover.
var Extent = orb.Bound{Min: orb.Point{-122.5, 37.5}, Max: orb.Point{-122.2, 37.8}}

// POITypes are the categories a point of interest is drawn from.
var POITypes = []string{"School", "Hospital", "Park", "Mall"}

var (
	adminStyle = geom.MustStyle(map[string]any{"color": "#add8e6", "border": "#0000ff", "opacity": 0.3})
	poiStyle   = geom.MustStyle(map[string]any{"color": "#ff0000", "size": 2})
)

// AdminBoundaries splits Extent into a 3x3 grid of districts with a random
// population in [1000, 50000).
func AdminBoundaries(rng *rand.Rand) *geom.Layer {
	dx := (Extent.Max[0] - Extent.Min[0]) / 3
	dy := (Extent.Max[1] - Extent.Min[1]) / 3
	fs := make([]geom.Feature, 0, 9)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			left := Extent.Min[0] + float64(i)*dx
			right := Extent.Min[0] + float64(i+1)*dx
			bottom := Extent.Min[1] + float64(j)*dy
			top := Extent.Min[1] + float64(j+1)*dy
			ring := orb.Ring{{left, bottom}, {right, bottom}, {right, top}, {left, top}, {left, bottom}}
			fs = append(fs, geom.Feature{
				Geometry: orb.Polygon{ring},
				Props: map[string]any{
					"name":       fmt.Sprintf("District %d", i*3+j+1),
					"population": 1000 + rng.Intn(49000),
				},
			})
		}
	}
	l := geom.NewLayer(AdminLayer, fs, adminStyle)
	l.Source = "sample"
	return l
}

// PointsOfInterest scatters n named points of a random type over Extent.
func PointsOfInterest(rng *rand.Rand, n int) *geom.Layer {
	fs := make([]geom.Feature, 0, n)
	for i := 0; i < n; i++ {
		p := orb.Point{
			Extent.Min[0] + rng.Float64()*(Extent.Max[0]-Extent.Min[0]),
			Extent.Min[1] + rng.Float64()*(Extent.Max[1]-Extent.Min[1]),
		}
		fs = append(fs, geom.Feature{
			Geometry: p,
			Props: map[string]any{
				"name": fmt.Sprintf("POI %d", i+1),
				"type": POITypes[rng.Intn(len(POITypes))],
			},
		})
	}
	l := geom.NewLayer(POILayer, fs, poiStyle)
	l.Source = "sample"
	return l
}
