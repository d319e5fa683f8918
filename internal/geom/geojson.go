package geom

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/paulmach/orb/geojson"
)

// header peeks at the members needed to dispatch a GeoJSON document.
type header struct {
	Type string `json:"type"`
	CRS  *struct {
		Properties struct {
			Name string `json:"name"`
		} `json:"properties"`
	} `json:"crs"`
}

// loadGeoJSON reads a FeatureCollection, a single Feature or a bare geometry.
func loadGeoJSON(path string) (*Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	features, crs, err := ParseGeoJSON(data)
	if err != nil {
		return nil, err
	}
	l := NewLayer("", features, DefaultStyle())
	l.CRS = crs
	return l, nil
}

// ParseGeoJSON decodes a GeoJSON document into features and its CRS name.
// Features without geometry are kept so the row count matches the file.
func ParseGeoJSON(data []byte) ([]Feature, string, error) {
	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, "", fmt.Errorf("geojson: %w", err)
	}
	crs := DefaultCRS
	if h.CRS != nil && h.CRS.Properties.Name != "" {
		crs = h.CRS.Properties.Name
	}
	switch h.Type {
	case "":
		return nil, "", errors.New("geojson: missing type")
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, "", fmt.Errorf("geojson: %w", err)
		}
		out := make([]Feature, 0, len(fc.Features))
		for _, f := range fc.Features {
			out = append(out, fromGeoJSON(f))
		}
		return out, crs, nil
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, "", fmt.Errorf("geojson: %w", err)
		}
		return []Feature{fromGeoJSON(f)}, crs, nil
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, "", fmt.Errorf("geojson: %w", err)
		}
		return []Feature{{Geometry: g.Geometry(), Props: map[string]any{}}}, crs, nil
	}
}

func fromGeoJSON(f *geojson.Feature) Feature {
	props := make(map[string]any, len(f.Properties))
	for k, v := range f.Properties {
		props[k] = v
	}
	return Feature{Geometry: f.Geometry, Props: props}
}
