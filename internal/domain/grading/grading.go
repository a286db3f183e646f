// Package grading turns a raw grade and completion time into an adjusted grade.
//
// Rules is an immutable value: build it once at startup and share it freely
// between requests. Every method is a pure function of its receiver and inputs.
package grading

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/okian/gradeadjust/internal/domain/model"
)

// Query parameter names understood by ParseRequest.
const (
	ParamGrade     = "grade"
	ParamTimeTaken = "time_taken"
)

// Rules holds the grade domain and the time thresholds.
type Rules struct {
	MinGrade  int
	MaxGrade  int
	FastBelow float64 // time strictly below earns a step up
	SlowAbove float64 // time strictly above costs a step down
}

// New builds Rules from defaults and options and validates the result.
func New(opts ...Option) (Rules, error) {
	r := Rules{
		MinGrade:  DefaultMinGrade,
		MaxGrade:  DefaultMaxGrade,
		FastBelow: DefaultFastBelow,
		SlowAbove: DefaultSlowAbove,
	}
	for _, opt := range opts {
		opt(&r)
	}
	if err := r.Validate(); err != nil {
		return Rules{}, err
	}
	return r, nil
}

// Default returns the stock rules: grades 1..10, thresholds 60s and 90s.
func Default() Rules {
	r, _ := New()
	return r
}

// Validate checks the rule configuration is coherent.
func (r Rules) Validate() error {
	switch {
	case r.MinGrade >= r.MaxGrade:
		return fmt.Errorf("%w: min grade %d must be below max grade %d", ErrInvalidRules, r.MinGrade, r.MaxGrade)
	case r.FastBelow < 0 || math.IsNaN(r.FastBelow) || math.IsInf(r.FastBelow, 0):
		return fmt.Errorf("%w: fast threshold %v must be a non-negative number", ErrInvalidRules, r.FastBelow)
	case math.IsNaN(r.SlowAbove) || math.IsInf(r.SlowAbove, 0):
		return fmt.Errorf("%w: slow threshold %v must be a finite number", ErrInvalidRules, r.SlowAbove)
	case r.FastBelow > r.SlowAbove:
		return fmt.Errorf("%w: fast threshold %v exceeds slow threshold %v", ErrInvalidRules, r.FastBelow, r.SlowAbove)
	}
	return nil
}

// ParseRequest validates raw query values and returns a typed Request.
// Both values are checked for presence before either is parsed.
func (r Rules) ParseRequest(grade, timeTaken string) (model.Request, error) {
	if grade == "" || timeTaken == "" {
		field := ParamGrade
		if grade != "" {
			field = ParamTimeTaken
		}
		return model.Request{}, newValidationError(ErrMissingParameter, field, "Missing required parameters", nil)
	}

	g, err := strconv.Atoi(strings.TrimSpace(grade))
	if errors.Is(err, strconv.ErrRange) {
		// well-formed but wider than int: a bounds failure, not a format one
		return model.Request{}, newValidationError(ErrOutOfRange, ParamGrade, r.gradeRangeMsg(), err)
	}
	if err != nil {
		return model.Request{}, newValidationError(ErrInvalidFormat, ParamGrade,
			fmt.Sprintf("Invalid input format: grade %q is not an integer", grade), err)
	}
	t, err := strconv.ParseFloat(strings.TrimSpace(timeTaken), 64)
	if err != nil {
		return model.Request{}, newValidationError(ErrInvalidFormat, ParamTimeTaken,
			fmt.Sprintf("Invalid input format: time_taken %q is not a number", timeTaken), err)
	}
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return model.Request{}, newValidationError(ErrInvalidFormat, ParamTimeTaken,
			fmt.Sprintf("Invalid input format: time_taken %q is not a finite number", timeTaken), nil)
	}

	req := model.Request{CurrentGrade: g, TimeTaken: t}
	if err := r.Check(req); err != nil {
		return model.Request{}, err
	}
	return req, nil
}

// Check enforces the grade domain and non-negative time, in that order.
func (r Rules) Check(req model.Request) error {
	if req.CurrentGrade < r.MinGrade || req.CurrentGrade > r.MaxGrade {
		return newValidationError(ErrOutOfRange, ParamGrade, r.gradeRangeMsg(), nil)
	}
	if req.TimeTaken < 0 {
		return newValidationError(ErrOutOfRange, ParamTimeTaken, "Time taken cannot be negative", nil)
	}
	return nil
}

func (r Rules) gradeRangeMsg() string {
	return fmt.Sprintf("Grade must be between %d and %d", r.MinGrade, r.MaxGrade)
}

// Adjust applies the threshold rules to a validated request.
func (r Rules) Adjust(req model.Request) model.Prediction {
	adjusted := req.CurrentGrade
	rule := model.RuleUnchanged

	switch {
	case req.TimeTaken < r.FastBelow:
		adjusted = min(req.CurrentGrade+1, r.MaxGrade)
		rule = model.RuleFaster
	case req.TimeTaken > r.SlowAbove:
		adjusted = max(req.CurrentGrade-1, r.MinGrade)
		rule = model.RuleSlower
	}

	return model.Prediction{
		Status:        model.StatusSuccess,
		AdjustedGrade: adjusted,
		Adjustment:    adjusted - req.CurrentGrade,
		Rule:          rule,
		Input: model.Input{
			OriginalGrade: req.CurrentGrade,
			TimeTaken:     req.TimeTaken,
		},
	}
}

// Predict parses, validates and adjusts in one step.
func (r Rules) Predict(grade, timeTaken string) (model.Prediction, error) {
	req, err := r.ParseRequest(grade, timeTaken)
	if err != nil {
		return model.Prediction{}, err
	}
	return r.Adjust(req), nil
}
