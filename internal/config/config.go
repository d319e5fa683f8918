package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultEarthquakeURL is the USGS summary feed of the past hour.
const DefaultEarthquakeURL = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_hour.geojson"

// Config holds all application configuration.
type Config struct {
	Feeds     FeedsConfig     `mapstructure:"feeds"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Sample    SampleConfig    `mapstructure:"sample"`
}

type FeedsConfig struct {
	EarthquakeURL     string        `mapstructure:"earthquake_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	TickInterval      time.Duration `mapstructure:"tick_interval"`
	EarthquakeRefresh time.Duration `mapstructure:"earthquake_refresh"`
	WeatherRefresh    time.Duration `mapstructure:"weather_refresh"`
	WeatherStations   int           `mapstructure:"weather_stations"`
	SyntheticQuakes   int           `mapstructure:"synthetic_quakes"`
}

type DashboardConfig struct {
	Bins int `mapstructure:"bins"`
	// HistogramField switches the distribution panel from mock data to a numeric
	// attribute. Empty keeps the mock.
	HistogramField string `mapstructure:"histogram_field"`
	CategoryField  string `mapstructure:"category_field"`
	ExportPath     string `mapstructure:"export_path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type SampleConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load reads .env, an optional config.yaml and LAYERED_* environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load() // OK if missing

	v := viper.New()
	SetDefaults(v)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return FromViper(v)
}

// SetDefaults registers every key with its default so env overrides resolve.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("feeds.earthquake_url", DefaultEarthquakeURL)
	v.SetDefault("feeds.timeout", 10*time.Second)
	v.SetDefault("feeds.tick_interval", 30*time.Second)
	v.SetDefault("feeds.earthquake_refresh", 60*time.Second)
	v.SetDefault("feeds.weather_refresh", 300*time.Second)
	v.SetDefault("feeds.weather_stations", 20)
	v.SetDefault("feeds.synthetic_quakes", 10)
	v.SetDefault("dashboard.bins", 20)
	v.SetDefault("dashboard.histogram_field", "")
	v.SetDefault("dashboard.category_field", "")
	v.SetDefault("dashboard.export_path", "dashboard.html")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "layered.log")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("sample.enabled", true)
}

// FromViper applies the environment overrides to v, decodes and validates it.
func FromViper(v *viper.Viper) (*Config, error) {
	// Environment variables: LAYERED_FEEDS_TICK_INTERVAL → feeds.tick_interval
	v.SetEnvPrefix("LAYERED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every field is present and sane.
func (c *Config) Validate() error {
	var errs []string

	if u, err := url.Parse(c.Feeds.EarthquakeURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("feeds.earthquake_url must be an absolute URL, got %q", c.Feeds.EarthquakeURL))
	}
	if c.Feeds.Timeout <= 0 {
		errs = append(errs, "feeds.timeout must be positive")
	}
	if c.Feeds.TickInterval <= 0 {
		errs = append(errs, "feeds.tick_interval must be positive")
	}
	if c.Feeds.EarthquakeRefresh <= 0 {
		errs = append(errs, "feeds.earthquake_refresh must be positive")
	}
	if c.Feeds.WeatherRefresh <= 0 {
		errs = append(errs, "feeds.weather_refresh must be positive")
	}
	if c.Feeds.WeatherStations <= 0 {
		errs = append(errs, fmt.Sprintf("feeds.weather_stations must be positive, got %d", c.Feeds.WeatherStations))
	}
	if c.Feeds.SyntheticQuakes <= 0 {
		errs = append(errs, fmt.Sprintf("feeds.synthetic_quakes must be positive, got %d", c.Feeds.SyntheticQuakes))
	}
	if c.Dashboard.Bins <= 0 {
		errs = append(errs, fmt.Sprintf("dashboard.bins must be positive, got %d", c.Dashboard.Bins))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
