package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func defaults(t *testing.T) *Config {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	cfg, err := FromViper(v)
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := defaults(t)
	if cfg.Feeds.EarthquakeURL != DefaultEarthquakeURL {
		t.Errorf("earthquake url = %q", cfg.Feeds.EarthquakeURL)
	}
	if cfg.Feeds.Timeout != 10*time.Second {
		t.Errorf("timeout = %v", cfg.Feeds.Timeout)
	}
	if cfg.Feeds.TickInterval != 30*time.Second || cfg.Feeds.EarthquakeRefresh != time.Minute || cfg.Feeds.WeatherRefresh != 5*time.Minute {
		t.Errorf("intervals = %+v", cfg.Feeds)
	}
	if cfg.Feeds.WeatherStations != 20 || cfg.Feeds.SyntheticQuakes != 10 {
		t.Errorf("counts = %+v", cfg.Feeds)
	}
	if cfg.Dashboard.Bins != 20 || cfg.Dashboard.ExportPath != "dashboard.html" {
		t.Errorf("dashboard = %+v", cfg.Dashboard)
	}
	if !cfg.Sample.Enabled {
		t.Error("sample data should be enabled by default")
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("LAYERED_FEEDS_TICK_INTERVAL", "5s")
	t.Setenv("LAYERED_DASHBOARD_HISTOGRAM_FIELD", "magnitude")
	t.Setenv("LAYERED_SAMPLE_ENABLED", "false")
	cfg := defaults(t)
	if cfg.Feeds.TickInterval != 5*time.Second {
		t.Errorf("tick = %v", cfg.Feeds.TickInterval)
	}
	if cfg.Dashboard.HistogramField != "magnitude" {
		t.Errorf("histogram field = %q", cfg.Dashboard.HistogramField)
	}
	if cfg.Sample.Enabled {
		t.Error("sample should be disabled")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"relative url", func(c *Config) { c.Feeds.EarthquakeURL = "/feed" }, "feeds.earthquake_url"},
		{"zero timeout", func(c *Config) { c.Feeds.Timeout = 0 }, "feeds.timeout"},
		{"zero tick", func(c *Config) { c.Feeds.TickInterval = 0 }, "feeds.tick_interval"},
		{"no stations", func(c *Config) { c.Feeds.WeatherStations = 0 }, "feeds.weather_stations"},
		{"no bins", func(c *Config) { c.Dashboard.Bins = -1 }, "dashboard.bins"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestValidateCollectsAll(t *testing.T) {
	cfg := defaults(t)
	cfg.Feeds.Timeout = 0
	cfg.Dashboard.Bins = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, k := range []string{"feeds.timeout", "dashboard.bins"} {
		if !strings.Contains(err.Error(), k) {
			t.Errorf("missing %s in %v", k, err)
		}
	}
}
