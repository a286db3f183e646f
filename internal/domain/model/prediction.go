// Package model contains domain models passed between layers.
package model

// Rule identifies which threshold branch produced an adjustment.
type Rule string

// Rules applied by the grader.
const (
	RuleFaster    Rule = "faster"    // finished under the fast threshold
	RuleSlower    Rule = "slower"    // finished over the slow threshold
	RuleUnchanged Rule = "unchanged" // finished inside the neutral band
)

// StatusSuccess is the status marker of a successful prediction.
const StatusSuccess = "success"

// Request is a validated prediction request. It lives for a single call.
type Request struct {
	CurrentGrade int     // grade supplied by the caller
	TimeTaken    float64 // seconds, non-negative and finite
}

// Input echoes the original request in a prediction.
type Input struct {
	OriginalGrade int     `json:"original_grade"`
	TimeTaken     float64 `json:"time_taken"`
}

// Prediction is the outcome of applying the grading rules to a Request.
type Prediction struct {
	Status        string `json:"status"`
	AdjustedGrade int    `json:"adjusted_grade"`
	Adjustment    int    `json:"adjustment"`
	Rule          Rule   `json:"-"`
	Input         Input  `json:"input_data"`
}

// Status is the liveness payload served on the root route.
type Status struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
