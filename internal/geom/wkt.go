package geom

import (
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb/encoding/wkt"
)

// ParseWKT turns pasted WKT (POINT, MULTIPOINT, LINESTRING, POLYGON, MULTI*,
// GEOMETRYCOLLECTION) into a single-feature layer.
func ParseWKT(name, text string) (*Layer, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil, errors.New("empty wkt")
	}
	g, err := wkt.Unmarshal(s)
	if err != nil {
		return nil, fmt.Errorf("wkt: %w", err)
	}
	if Empty(g) {
		return nil, errors.New("wkt: no coordinates parsed")
	}
	l := NewLayer(name, []Feature{{
		Geometry: g,
		Props:    map[string]any{"type": g.GeoJSONType()},
	}}, DefaultStyle())
	l.Source = "wkt"
	return l, nil
}
