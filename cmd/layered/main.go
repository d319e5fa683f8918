package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"layered/internal/assist"
	"layered/internal/config"
	"layered/internal/dashboard"
	"layered/internal/feed"
	"layered/internal/geom"
	"layered/internal/layers"
	"layered/internal/logging"
	"layered/internal/mapview"
	"layered/internal/metrics"
	"layered/internal/sample"
	"layered/internal/tui"
)

const samplePOIs = 20

func main() {
	root := &cobra.Command{
		Use:           "layered [file...]",
		Short:         "Terminal geospatial viewer with live feeds and a dashboard",
		Long:          "Opens shapefiles, GeoJSON and CSV files as map layers. Live earthquake and weather feeds\nand a statistics dashboard are toggled from inside the viewer.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args)
		},
	}
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "layered:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, paths []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, closer, err := logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	if err != nil {
		return err
	}
	defer closer.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mt := metrics.New(reg)

	src := feed.NewSource(feed.Options{
		URL:             cfg.Feeds.EarthquakeURL,
		Timeout:         cfg.Feeds.Timeout,
		SyntheticQuakes: cfg.Feeds.SyntheticQuakes,
		WeatherStations: cfg.Feeds.WeatherStations,
		Logger:          log,
		Metrics:         mt,
	})
	poller := feed.NewPoller(src, feed.PollerOptions{
		Tick: cfg.Feeds.TickInterval,
		Refresh: map[feed.Kind]time.Duration{
			feed.KindEarthquake: cfg.Feeds.EarthquakeRefresh,
			feed.KindWeather:    cfg.Feeds.WeatherRefresh,
		},
		Logger:  log,
		Metrics: mt,
	})
	updates := poller.Subscribe()

	store := layers.NewStore()
	surface := mapview.New(store)
	var failed []string
	add := func(l *geom.Layer) {
		if err := store.Put(l.Name, l, false); err != nil {
			log.Warn("layer rejected", "layer", l.Name, "error", err)
			failed = append(failed, err.Error())
			return
		}
		if err := surface.AddLayer(l.Name); err != nil {
			log.Warn("layer not shown", "layer", l.Name, "error", err)
		}
	}

	if cfg.Sample.Enabled {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		add(sample.AdminBoundaries(rng))
		add(sample.PointsOfInterest(rng, samplePOIs))
	}
	for _, p := range paths {
		l, err := geom.Load(p, "")
		if err != nil {
			log.Warn("load failed", "path", p, "error", err)
			failed = append(failed, err.Error())
			continue
		}
		log.Info("loaded", "path", p, "layer", l.Name, "features", l.Len(), "skipped", l.Skipped)
		if l.Skipped > 0 {
			failed = append(failed, fmt.Sprintf("%s: %d rows skipped", l.Name, l.Skipped))
		}
		add(l)
	}
	mt.SetLayers(store.Len())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return poller.Run(gctx) })
	g.Go(func() error { return metrics.Serve(gctx, cfg.Metrics.Addr, reg, log) })
	g.Go(func() error {
		// quitting the UI stops everything else
		defer cancel()
		defer poller.Unsubscribe(updates)
		m := tui.New(tui.Deps{
			Ctx:        gctx,
			Store:      store,
			Surface:    surface,
			Dashboard:  dashboard.New(dashboardOptions(cfg.Dashboard, log)),
			Responder:  assist.Default(),
			Poller:     poller,
			Updates:    updates,
			Metrics:    mt,
			Logger:     log,
			ExportPath: cfg.Dashboard.ExportPath,
			Status:     strings.Join(failed, "; "),
		})
		p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(gctx))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("ui: %w", err)
		}
		return nil
	})

	err = g.Wait()
	log.Info("shutdown", "error", err)
	return err
}

func dashboardOptions(c config.DashboardConfig, log *slog.Logger) dashboard.Options {
	o := dashboard.Options{Bins: c.Bins, Logger: log}
	if c.HistogramField != "" {
		o.Distribution = dashboard.AttributeValues{Field: c.HistogramField}
	}
	if c.CategoryField != "" {
		o.Categories = dashboard.AttributeCategories{Field: c.CategoryField}
	}
	return o
}
