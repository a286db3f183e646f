// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers defaults, an optional .env file, an optional YAML file and env vars.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"time"

	"github.com/okian/gradeadjust/internal/domain/grading"
	"github.com/okian/gradeadjust/pkg/metrics"
)

// Config contains process configuration. It is read once at startup and never
// mutated afterwards.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// MinGrade and MaxGrade bound the accepted grade, inclusive.
	MinGrade int `koanf:"min_grade"`
	MaxGrade int `koanf:"max_grade"`

	// FastBelowSeconds and SlowAboveSeconds are the time thresholds of the rules.
	FastBelowSeconds float64 `koanf:"fast_below_seconds"`
	SlowAboveSeconds float64 `koanf:"slow_above_seconds"`

	// CORSAllowedOrigins lists origins allowed to call the API from browsers.
	// Comma separated when supplied via env.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// MetricsNamespace prefixes every Prometheus metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`

	// MetricsEnabled turns metric recording on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsRefreshInterval is how often system gauges are sampled, e.g. "15s".
	MetricsRefreshInterval time.Duration `koanf:"metrics_refresh_interval"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		MinGrade:           grading.DefaultMinGrade,
		MaxGrade:           grading.DefaultMaxGrade,
		FastBelowSeconds:   grading.DefaultFastBelow,
		SlowAboveSeconds:   grading.DefaultSlowAbove,
		CORSAllowedOrigins: []string{"*"},

		MetricsNamespace:       metrics.DefaultNamespace,
		MetricsEnabled:         true,
		MetricsRefreshInterval: 10 * time.Second,
	}
}

// GradingOptions converts the rule settings into grading options.
func (c *Config) GradingOptions() []grading.Option {
	return []grading.Option{
		grading.WithGradeBounds(c.MinGrade, c.MaxGrade),
		grading.WithTimeThresholds(c.FastBelowSeconds, c.SlowAboveSeconds),
	}
}

// MetricsOptions converts the metrics settings into metrics options.
func (c *Config) MetricsOptions() []metrics.Option {
	return []metrics.Option{
		metrics.WithNamespace(c.MetricsNamespace),
		metrics.WithMetricsEnabled(c.MetricsEnabled),
		metrics.WithRefreshInterval(c.MetricsRefreshInterval),
	}
}
