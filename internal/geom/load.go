package geom

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnsupported is wrapped by LoadError for unknown file extensions.
var ErrUnsupported = errors.New("unsupported file type")

// Extensions lists the file types Load understands.
var Extensions = []string{".shp", ".geojson", ".json", ".csv"}

// Supported reports whether path has a loadable extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// LayerName derives the default layer name from a path: base name without extension.
func LayerName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load reads a vector file into a layer. An empty name falls back to LayerName(path).
func Load(path, name string) (*Layer, error) {
	if name == "" {
		name = LayerName(path)
	}
	var (
		l   *Layer
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".geojson", ".json":
		l, err = loadGeoJSON(path)
	case ".csv":
		l, err = loadCSV(path)
	case ".shp":
		l, err = loadShapefile(path)
	default:
		return nil, &LoadError{Path: path, Err: fmt.Errorf("%w: %q", ErrUnsupported, ext)}
	}
	if err != nil {
		var mc *MissingCoordinateColumnsError
		var le *LoadError
		if errors.As(err, &mc) || errors.As(err, &le) {
			return nil, err
		}
		return nil, &LoadError{Path: path, Err: err}
	}
	l.Name = name
	l.Kind = KindVector
	l.Source = path
	if l.Style == (Style{}) {
		l.Style = DefaultStyle()
	}
	return l, nil
}

// columnsOf unions attribute keys across features, keeping first-seen order.
// Keys new to a single feature are added alphabetically.
func columnsOf(features []Feature) []string {
	var cols []string
	seen := map[string]bool{}
	for _, f := range features {
		keys := make([]string, 0, len(f.Props))
		for k := range f.Props {
			if !seen[k] {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			seen[k] = true
			cols = append(cols, k)
		}
	}
	return cols
}
