// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/okian/gradeadjust/internal/domain/grading"
	"github.com/okian/gradeadjust/internal/domain/model"
	"github.com/okian/gradeadjust/pkg/logger"
	"github.com/okian/gradeadjust/pkg/metrics"
)

// Status payload served on the root route.
const (
	StatusRunning = "API is running"
	StatusMessage = "Use /predict endpoint with grade and time_taken parameters"
)

// Rejection kinds, used as metric labels and stats keys.
const (
	KindMissingParameter = "missing_parameter"
	KindInvalidFormat    = "invalid_format"
	KindOutOfRange       = "out_of_range"
	KindInternal         = "internal_error"
)

// Service implements the API dependencies for the grade adjustment system.
// It holds no per-request state; counters exist only for observability.
type Service struct {
	rules   grading.Rules
	metrics *metrics.Manager
	logger  logger.Logger
	now     func() time.Time

	predictions atomic.Int64
	byRule      map[model.Rule]*atomic.Int64
	rejections  map[string]*atomic.Int64
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRules sets the grading rules. Rules are copied and never mutated.
func WithRules(rules grading.Rules) Option {
	return func(s *Service) {
		s.rules = rules
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics manager. Defaults to the global manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		rules:   grading.Default(),
		metrics: metrics.Default(),
		logger:  logger.Nop(),
		now:     time.Now,
		byRule: map[model.Rule]*atomic.Int64{
			model.RuleFaster:    new(atomic.Int64),
			model.RuleSlower:    new(atomic.Int64),
			model.RuleUnchanged: new(atomic.Int64),
		},
		rejections: map[string]*atomic.Int64{
			KindMissingParameter: new(atomic.Int64),
			KindInvalidFormat:    new(atomic.Int64),
			KindOutOfRange:       new(atomic.Int64),
			KindInternal:         new(atomic.Int64),
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Rules returns the active grading rules.
func (s *Service) Rules() grading.Rules {
	return s.rules
}

// GetStatus returns the fixed liveness payload.
func (s *Service) GetStatus(_ context.Context) model.Status {
	return model.Status{Status: StatusRunning, Message: StatusMessage}
}

// Predict validates the raw query values and applies the grading rules.
// Returned errors match grading.ErrMissingParameter, grading.ErrInvalidFormat
// or grading.ErrOutOfRange.
func (s *Service) Predict(ctx context.Context, grade, timeTaken string) (model.Prediction, error) {
	start := s.now()

	p, err := s.rules.Predict(grade, timeTaken)
	if err != nil {
		kind := KindOf(err)
		s.RecordRejection(kind)
		s.logger.Debug(ctx, "prediction rejected",
			logger.String("kind", kind),
			logger.String("grade", grade),
			logger.String("time_taken", timeTaken),
			logger.Error(err),
		)
		return model.Prediction{}, err
	}

	s.predictions.Add(1)
	s.byRule[p.Rule].Add(1)
	latencyMs := float64(s.now().Sub(start).Microseconds()) / 1000
	s.metrics.RecordPrediction(string(p.Rule), p.Adjustment, p.Input.TimeTaken, latencyMs)

	s.logger.Debug(ctx, "prediction served",
		logger.Int("grade", p.Input.OriginalGrade),
		logger.Float64("time_taken", p.Input.TimeTaken),
		logger.Int("adjusted_grade", p.AdjustedGrade),
		logger.String("rule", string(p.Rule)),
	)
	return p, nil
}

// RecordRejection counts a rejected request of the given kind.
func (s *Service) RecordRejection(kind string) {
	if c, ok := s.rejections[kind]; ok {
		c.Add(1)
	}
	s.metrics.RecordRejection(kind)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	byRule := make(map[string]int64, len(s.byRule))
	for rule, c := range s.byRule {
		byRule[string(rule)] = c.Load()
	}
	rejections := make(map[string]int64, len(s.rejections))
	for kind, c := range s.rejections {
		rejections[kind] = c.Load()
	}

	return map[string]interface{}{
		"predictions_total": s.predictions.Load(),
		"predictions":       byRule,
		"rejections":        rejections,
		"rules": map[string]interface{}{
			"min_grade":          s.rules.MinGrade,
			"max_grade":          s.rules.MaxGrade,
			"fast_below_seconds": s.rules.FastBelow,
			"slow_above_seconds": s.rules.SlowAbove,
		},
	}
}

// KindOf classifies an error returned by Predict.
func KindOf(err error) string {
	switch {
	case errors.Is(err, grading.ErrMissingParameter):
		return KindMissingParameter
	case errors.Is(err, grading.ErrInvalidFormat):
		return KindInvalidFormat
	case errors.Is(err, grading.ErrOutOfRange):
		return KindOutOfRange
	default:
		return KindInternal
	}
}
