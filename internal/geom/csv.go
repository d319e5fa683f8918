package geom

import (
	"encoding/csv"
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// loadCSV reads a CSV with latitude/longitude columns and returns a point layer.
// Column detection: an exact lat|latitude and lon|longitude name wins, otherwise the
// first header containing "lat" / "lon" (case-insensitive). Rows whose coordinates do
// not parse are counted in Layer.Skipped.
func loadCSV(path string) (*Layer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	recs, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, errors.New("empty csv")
	}
	header := recs[0]
	idxLat, idxLon := coordinateColumns(header)
	if idxLat == -1 || idxLon == -1 {
		return nil, &MissingCoordinateColumnsError{Path: path, Columns: header}
	}
	var (
		features []Feature
		skipped  int
	)
	for _, row := range recs[1:] {
		if idxLon >= len(row) || idxLat >= len(row) {
			skipped++
			continue
		}
		lon, err1 := strconv.ParseFloat(strings.TrimSpace(row[idxLon]), 64)
		lat, err2 := strconv.ParseFloat(strings.TrimSpace(row[idxLat]), 64)
		if err1 != nil || err2 != nil {
			skipped++
			continue
		}
		props := make(map[string]any, len(header))
		for i, h := range header {
			if i >= len(row) {
				props[h] = ""
				continue
			}
			props[h] = cellValue(row[i])
		}
		features = append(features, Feature{Geometry: orb.Point{lon, lat}, Props: props})
	}
	l := NewLayer("", features, DefaultStyle())
	l.Columns = append([]string(nil), header...)
	l.Skipped = skipped
	return l, nil
}

func coordinateColumns(header []string) (idxLat, idxLon int) {
	idxLat, idxLon = -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "lat", "latitude":
			if idxLat == -1 {
				idxLat = i
			}
		case "lon", "longitude":
			if idxLon == -1 {
				idxLon = i
			}
		}
	}
	for i, h := range header {
		lh := strings.ToLower(h)
		if idxLat == -1 && strings.Contains(lh, "lat") {
			idxLat = i
		}
		if idxLon == -1 && strings.Contains(lh, "lon") {
			idxLon = i
		}
	}
	return idxLat, idxLon
}

func cellValue(s string) any {
	s = strings.Trim(s, " \t\x00")
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
