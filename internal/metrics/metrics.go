package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcomes.
const (
	OutcomeLive     = "live"
	OutcomeFallback = "fallback"
)

// Metrics is the set of collectors the viewer updates. Components accept a nil
// *Metrics and skip recording.
type Metrics struct {
	FeedFetches   *prometheus.CounterVec
	FeedRefreshes *prometheus.CounterVec
	Layers        prometheus.Gauge
	Picks         prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FeedFetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "layered",
			Subsystem: "feed",
			Name:      "fetch_total",
			Help:      "Feed snapshot fetches by outcome",
		}, []string{"feed", "outcome"}),
		FeedRefreshes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "layered",
			Subsystem: "feed",
			Name:      "refresh_total",
			Help:      "Scheduled feed refreshes published to subscribers",
		}, []string{"feed"}),
		Layers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "layered",
			Name:      "layers",
			Help:      "Layers currently in the store",
		}),
		Picks: f.NewCounter(prometheus.CounterOpts{
			Namespace: "layered",
			Name:      "picks_total",
			Help:      "Map click picks",
		}),
	}
}

func (m *Metrics) Fetch(feed, outcome string) {
	if m != nil {
		m.FeedFetches.WithLabelValues(feed, outcome).Inc()
	}
}

func (m *Metrics) Refresh(feed string) {
	if m != nil {
		m.FeedRefreshes.WithLabelValues(feed).Inc()
	}
}

func (m *Metrics) SetLayers(n int) {
	if m != nil {
		m.Layers.Set(float64(n))
	}
}

func (m *Metrics) Pick() {
	if m != nil {
		m.Picks.Inc()
	}
}

// Handler serves g in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done. An empty addr returns at once.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, log *slog.Logger) error {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() {
		log.Info("metrics listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
