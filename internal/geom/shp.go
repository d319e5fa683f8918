package geom

import (
	"os"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
)

// loadShapefile reads a .shp with its .dbf attributes and .prj name.
func loadShapefile(path string) (*Layer, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	fields := r.Fields()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.String()
	}
	var features []Feature
	for r.Next() {
		n, s := r.Shape()
		props := make(map[string]any, len(cols))
		for k, name := range cols {
			props[name] = cellValue(r.ReadAttribute(n, k))
		}
		features = append(features, Feature{Geometry: fromShape(s), Props: props})
	}
	l := NewLayer("", features, DefaultStyle())
	l.Columns = cols
	l.CRS = projectionName(strings.TrimSuffix(path, ".shp") + ".prj")
	return l, nil
}

// fromShape converts a shapefile record; unknown shape types become nil geometry.
func fromShape(s shp.Shape) orb.Geometry {
	switch v := s.(type) {
	case *shp.Point:
		return orb.Point{v.X, v.Y}
	case *shp.PointZ:
		return orb.Point{v.X, v.Y}
	case *shp.PointM:
		return orb.Point{v.X, v.Y}
	case *shp.MultiPoint:
		mp := make(orb.MultiPoint, 0, len(v.Points))
		for _, p := range v.Points {
			mp = append(mp, orb.Point{p.X, p.Y})
		}
		return mp
	case *shp.PolyLine:
		return lines(splitParts(v.Points, v.Parts))
	case *shp.PolyLineZ:
		return lines(splitParts(v.Points, v.Parts))
	case *shp.Polygon:
		return polygons(splitParts(v.Points, v.Parts))
	case *shp.PolygonZ:
		return polygons(splitParts(v.Points, v.Parts))
	}
	return nil
}

func splitParts(points []shp.Point, parts []int32) [][]orb.Point {
	out := make([][]orb.Point, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start > end || int(end) > len(points) {
			continue
		}
		part := make([]orb.Point, 0, end-start)
		for _, p := range points[start:end] {
			part = append(part, orb.Point{p.X, p.Y})
		}
		out = append(out, part)
	}
	return out
}

func lines(parts [][]orb.Point) orb.Geometry {
	if len(parts) == 1 {
		return orb.LineString(parts[0])
	}
	mls := make(orb.MultiLineString, 0, len(parts))
	for _, p := range parts {
		mls = append(mls, orb.LineString(p))
	}
	return mls
}

// polygons groups rings: clockwise rings start a polygon, counter-clockwise rings
// are holes of the polygon before them.
func polygons(parts [][]orb.Point) orb.Geometry {
	var mp orb.MultiPolygon
	for _, p := range parts {
		ring := orb.Ring(p)
		if len(mp) == 0 || ring.Orientation() == orb.CW {
			mp = append(mp, orb.Polygon{ring})
			continue
		}
		last := len(mp) - 1
		mp[last] = append(mp[last], ring)
	}
	if len(mp) == 1 {
		return mp[0]
	}
	return mp
}

// projectionName returns the first quoted name in a .prj file, or "" when absent.
func projectionName(prj string) string {
	data, err := os.ReadFile(prj)
	if err != nil {
		return ""
	}
	s := string(data)
	i := strings.Index(s, `"`)
	if i < 0 {
		return ""
	}
	j := strings.Index(s[i+1:], `"`)
	if j < 0 {
		return ""
	}
	return s[i+1 : i+1+j]
}
