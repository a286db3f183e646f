// Package probe replays a grid of requests against a running grade
// adjustment service and checks every answer against the local rules.
package probe

import (
	"errors"
	"time"

	"github.com/okian/gradeadjust/internal/domain/grading"
	"github.com/okian/gradeadjust/pkg/logger"
)

// Defaults used by the probe binary.
const (
	DefaultBaseURL = "http://localhost:9080"
	DefaultTimeout = 5 * time.Second
	DefaultWait    = 30 * time.Second
)

// Probe errors.
var (
	ErrNotReady = errors.New("service not ready")
	ErrMismatch = errors.New("scenario mismatch")
)

// Config holds configuration for a probe run.
type Config struct {
	BaseURL string        // Base URL of the service
	Timeout time.Duration // Per request timeout
	Wait    time.Duration // How long to wait for the service to come up
	Verbose bool          // Print every scenario, not just failures

	// Rules the service is expected to apply. Zero value means grading.Default().
	Rules grading.Rules
	// Logger for progress messages. Nil means discard.
	Logger logger.Logger
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.BaseURL == "" {
		out.BaseURL = DefaultBaseURL
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	if out.Wait <= 0 {
		out.Wait = DefaultWait
	}
	if out.Rules == (grading.Rules{}) {
		out.Rules = grading.Default()
	}
	if out.Logger == nil {
		out.Logger = logger.Nop()
	}
	return out
}
