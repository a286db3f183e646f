package grading

// Default rule configuration.
const (
	DefaultMinGrade  = 1
	DefaultMaxGrade  = 10
	DefaultFastBelow = 60.0
	DefaultSlowAbove = 90.0
)

// Option applies a configuration option to Rules.
type Option func(*Rules)

// WithGradeBounds sets the inclusive grade domain.
func WithGradeBounds(minGrade, maxGrade int) Option {
	return func(r *Rules) {
		r.MinGrade = minGrade
		r.MaxGrade = maxGrade
	}
}

// WithTimeThresholds sets the fast and slow time thresholds in seconds.
func WithTimeThresholds(fastBelow, slowAbove float64) Option {
	return func(r *Rules) {
		r.FastBelow = fastBelow
		r.SlowAbove = slowAbove
	}
}
