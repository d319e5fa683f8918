package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"layered/internal/metrics"
)

const usgsSample = `{
  "type": "FeatureCollection",
  "metadata": {"count": 2},
  "features": [
    {"type": "Feature",
     "properties": {"mag": 2.4, "place": "10 km N of Ridgecrest, CA", "time": 1700000000000},
     "geometry": {"type": "Point", "coordinates": [-117.6, 35.7, 8.1]}},
    {"type": "Feature",
     "properties": {"mag": 4.1, "place": "Tonga", "time": 1700000100000},
     "geometry": {"type": "Point", "coordinates": [-174.2, -20.1, 35]}}
  ]
}`

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestSource(t *testing.T, url string) (*Source, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	s := NewSource(Options{
		URL:     url,
		Timeout: 2 * time.Second,
		Seed:    42,
		Logger:  quietLogger(),
		Metrics: m,
	})
	return s, m
}

func TestEarthquakesLive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = io.WriteString(w, usgsSample)
	}))
	defer srv.Close()

	s, m := newTestSource(t, srv.URL)
	l := s.Earthquakes(context.Background())
	if l.Len() != 2 {
		t.Fatalf("features = %d, want 2", l.Len())
	}
	if l.Name != EarthquakeLayer || l.Source != srv.URL {
		t.Errorf("name/source = %q/%q", l.Name, l.Source)
	}
	row := l.Row(0)
	if row["magnitude"] != 2.4 || row["place"] != "10 km N of Ridgecrest, CA" {
		t.Errorf("row = %v", row)
	}
	if row["time"] != "2023-11-14T22:13:20Z" {
		t.Errorf("time = %v", row["time"])
	}
	if p := l.Features[1].Geometry.(orb.Point); p != (orb.Point{-174.2, -20.1}) {
		t.Errorf("point = %v", p)
	}
	if got := testutil.ToFloat64(m.FeedFetches.WithLabelValues("earthquake", metrics.OutcomeLive)); got != 1 {
		t.Errorf("live fetches = %v", got)
	}
}

func TestEarthquakesFallback(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"malformed", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"type": "FeatureCollection", "features": [`)
		}},
		{"empty", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"type": "FeatureCollection", "features": []}`)
		}},
		{"slow", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			s, m := newTestSource(t, srv.URL)
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()
			l := s.Earthquakes(ctx)
			assertSynthetic(t, l, 10)
			if got := testutil.ToFloat64(m.FeedFetches.WithLabelValues("earthquake", metrics.OutcomeFallback)); got != 1 {
				t.Errorf("fallback fetches = %v", got)
			}
		})
	}
}

func TestEarthquakesUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	s, _ := newTestSource(t, url)
	assertSynthetic(t, s.Earthquakes(context.Background()), 10)
}

func TestFetchErrorWraps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s, _ := newTestSource(t, srv.URL)
	_, err := s.fetch(context.Background())
	var fe *FetchError
	if !errors.As(err, &fe) || fe.URL != srv.URL {
		t.Fatalf("err = %v, want FetchError for %s", err, srv.URL)
	}
}

func assertSynthetic(t *testing.T, l interface {
	Len() int
	Row(int) map[string]any
}, n int) {
	t.Helper()
	if l.Len() != n {
		t.Fatalf("features = %d, want %d", l.Len(), n)
	}
	for i := 0; i < n; i++ {
		mag, ok := l.Row(i)["magnitude"].(float64)
		if !ok || mag < 1 || mag > 5 {
			t.Errorf("row %d magnitude = %v", i, l.Row(i)["magnitude"])
		}
	}
}

func TestSyntheticCoordinates(t *testing.T) {
	s, _ := newTestSource(t, "")
	l := s.SyntheticEarthquakes(50)
	for i, f := range l.Features {
		p := f.Geometry.(orb.Point)
		if p[0] < -180 || p[0] > 180 || p[1] < -90 || p[1] > 90 {
			t.Errorf("feature %d at %v", i, p)
		}
	}
	if l.Row(3)["place"] != "Sample Location 3" {
		t.Errorf("place = %v", l.Row(3)["place"])
	}
}

func TestWeather(t *testing.T) {
	s, _ := newTestSource(t, "")
	l := s.Weather(20)
	if l.Len() != 20 || l.Name != WeatherLayer {
		t.Fatalf("len/name = %d/%q", l.Len(), l.Name)
	}
	if l.Row(0)["station_id"] != "ST000" || l.Row(19)["station_id"] != "ST019" {
		t.Errorf("station ids = %v, %v", l.Row(0)["station_id"], l.Row(19)["station_id"])
	}
	for i := 0; i < l.Len(); i++ {
		row := l.Row(i)
		temp := row["temperature"].(float64)
		hum := row["humidity"].(float64)
		if temp < -10 || temp > 35 || hum < 30 || hum > 100 {
			t.Errorf("row %d out of range: %v", i, row)
		}
	}
}

func TestSnapshotDispatch(t *testing.T) {
	s, _ := newTestSource(t, "")
	if l := s.Snapshot(context.Background(), KindWeather); l.Name != WeatherLayer || l.Len() != 20 {
		t.Errorf("weather snapshot = %s/%d", l.Name, l.Len())
	}
	if l := s.Snapshot(context.Background(), KindEarthquake); l.Name != EarthquakeLayer || l.Len() != 10 {
		t.Errorf("earthquake snapshot = %s/%d", l.Name, l.Len())
	}
}
