// Package feed produces point snapshots for the real-time layers: earthquakes from
// the USGS summary feed (or a synthetic stand-in) and simulated weather stations.
package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/paulmach/orb"

	"layered/internal/geom"
	"layered/internal/metrics"
)

// Kind identifies a feed.
type Kind string

const (
	KindEarthquake Kind = "earthquake"
	KindWeather    Kind = "weather"
)

// Layer names the feeds publish under.
const (
	EarthquakeLayer = "Earthquakes"
	WeatherLayer    = "Weather Stations"
)

// LayerName returns the layer a feed kind is stored under.
func (k Kind) LayerName() string {
	if k == KindWeather {
		return WeatherLayer
	}
	return EarthquakeLayer
}

var (
	earthquakeStyle = geom.Style{Color: "#ef4444", Opacity: 0.7, Size: 2}
	weatherStyle    = geom.Style{Color: "#3b82f6", Opacity: 0.6, Size: 2}
)

// FetchError describes a failed live fetch. It is logged and counted, never returned
// to callers of Earthquakes.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.URL, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// Options configures a Source.
type Options struct {
	URL             string
	Timeout         time.Duration
	SyntheticQuakes int
	WeatherStations int
	// Seed for the synthetic generators; zero seeds from the clock.
	Seed    int64
	Client  *http.Client
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Source fetches and synthesizes feed snapshots. It is safe for concurrent use.
type Source struct {
	url       string
	client    *http.Client
	synthetic int
	stations  int
	log       *slog.Logger
	metrics   *metrics.Metrics

	mu  sync.Mutex
	rng *rand.Rand

	now func() time.Time
}

// NewSource builds a Source from o, filling unset fields with defaults.
func NewSource(o Options) *Source {
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.Client == nil {
		o.Client = &http.Client{Timeout: o.Timeout}
	}
	if o.SyntheticQuakes <= 0 {
		o.SyntheticQuakes = 10
	}
	if o.WeatherStations <= 0 {
		o.WeatherStations = 20
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return &Source{
		url:       o.URL,
		client:    o.Client,
		synthetic: o.SyntheticQuakes,
		stations:  o.WeatherStations,
		log:       o.Logger.With("component", "feed"),
		metrics:   o.Metrics,
		rng:       rand.New(rand.NewSource(o.Seed)),
		now:       time.Now,
	}
}

// Snapshot produces a fresh layer for kind.
func (s *Source) Snapshot(ctx context.Context, kind Kind) *geom.Layer {
	if kind == KindWeather {
		return s.Weather(s.stations)
	}
	return s.Earthquakes(ctx)
}

// Earthquakes fetches the live feed. Any failure, including an empty feed, is
// replaced by a synthetic snapshot, so the result is never nil or empty.
func (s *Source) Earthquakes(ctx context.Context) *geom.Layer {
	l, err := s.fetch(ctx)
	if err != nil {
		s.log.Warn("earthquake feed unavailable, using synthetic data", "error", err)
		s.metrics.Fetch(string(KindEarthquake), metrics.OutcomeFallback)
		return s.SyntheticEarthquakes(s.synthetic)
	}
	s.metrics.Fetch(string(KindEarthquake), metrics.OutcomeLive)
	s.log.Debug("earthquake feed fetched", "features", l.Len())
	return l
}

func (s *Source) fetch(ctx context.Context) (*geom.Layer, error) {
	if s.url == "" {
		return nil, &FetchError{URL: s.url, Err: fmt.Errorf("no feed url")}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, &FetchError{URL: s.url, Err: err}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: s.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: s.url, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: s.url, Err: fmt.Errorf("read body: %w", err)}
	}
	features, _, err := geom.ParseGeoJSON(body)
	if err != nil {
		return nil, &FetchError{URL: s.url, Err: err}
	}

	out := make([]geom.Feature, 0, len(features))
	for _, f := range features {
		p, ok := f.Geometry.(orb.Point)
		if !ok {
			continue
		}
		props := map[string]any{
			"magnitude": f.Props["mag"],
			"place":     f.Props["place"],
			"time":      epochMillis(f.Props["time"]),
		}
		out = append(out, geom.Feature{Geometry: orb.Point{p[0], p[1]}, Props: props})
	}
	if len(out) == 0 {
		return nil, &FetchError{URL: s.url, Err: fmt.Errorf("feed has no point features")}
	}
	l := geom.NewLayer(EarthquakeLayer, out, earthquakeStyle)
	l.Source = s.url
	return l, nil
}

// epochMillis renders the USGS millisecond timestamp as RFC 3339.
func epochMillis(v any) any {
	ms, ok := v.(float64)
	if !ok {
		return v
	}
	return time.UnixMilli(int64(ms)).UTC().Format(time.RFC3339)
}

// SyntheticEarthquakes generates n quakes with magnitude in [1,5] anywhere on the globe.
func (s *Source) SyntheticEarthquakes(n int) *geom.Layer {
	now := s.now().UTC().Format(time.RFC3339)
	s.mu.Lock()
	fs := make([]geom.Feature, 0, n)
	for i := 0; i < n; i++ {
		fs = append(fs, geom.Feature{
			Geometry: s.randomPoint(),
			Props: map[string]any{
				"magnitude": uniform(s.rng, 1.0, 5.0),
				"place":     fmt.Sprintf("Sample Location %d", i),
				"time":      now,
			},
		})
	}
	s.mu.Unlock()
	l := geom.NewLayer(EarthquakeLayer, fs, earthquakeStyle)
	l.Source = "synthetic"
	return l
}

// Weather simulates n stations ST000, ST001, ...
func (s *Source) Weather(n int) *geom.Layer {
	s.mu.Lock()
	fs := make([]geom.Feature, 0, n)
	for i := 0; i < n; i++ {
		fs = append(fs, geom.Feature{
			Geometry: s.randomPoint(),
			Props: map[string]any{
				"station_id":  fmt.Sprintf("ST%03d", i),
				"temperature": uniform(s.rng, -10, 35),
				"humidity":    uniform(s.rng, 30, 100),
			},
		})
	}
	s.mu.Unlock()
	l := geom.NewLayer(WeatherLayer, fs, weatherStyle)
	l.Source = "synthetic"
	return l
}

// randomPoint must be called with mu held.
func (s *Source) randomPoint() orb.Point {
	return orb.Point{uniform(s.rng, -180, 180), uniform(s.rng, -90, 90)}
}

func uniform(r *rand.Rand, lo, hi float64) float64 { return lo + r.Float64()*(hi-lo) }
