package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/gradeadjust/pkg/logger"
)

// Result is the outcome of one scenario.
type Result struct {
	Scenario  Scenario
	GotStatus int
	GotGrade  int
	GotCode   string
	Latency   time.Duration
	Err       error
}

// Pass reports whether the service answered as expected.
func (r Result) Pass() bool {
	if r.Err != nil || r.GotStatus != r.Scenario.WantStatus {
		return false
	}
	if r.GotStatus == http.StatusOK {
		return r.GotGrade == r.Scenario.WantGrade
	}
	return r.GotCode == r.Scenario.WantCode
}

// Report summarises a run.
type Report struct {
	Results  []Result
	Passed   int
	Failed   int
	Duration time.Duration
}

// Run waits for the service, replays the scenario grid and writes a report
// to out. It returns ErrMismatch when any scenario failed.
func Run(ctx context.Context, cfg *Config, out io.Writer) (Report, error) {
	c := cfg.withDefaults()
	log := c.Logger

	log.Info(ctx, "starting probe",
		logger.String("baseURL", c.BaseURL),
		logger.String("timeout", c.Timeout.String()),
		logger.String("wait", c.Wait.String()),
		logger.Any("verbose", c.Verbose))

	cl := newClient(c.BaseURL, c.Timeout)
	notify := func(err error, next time.Duration) {
		log.Debug(ctx, "service not ready yet", logger.Error(err), logger.String("retryIn", next.String()))
	}
	if err := cl.waitReady(ctx, c.Wait, notify); err != nil {
		return Report{}, err
	}
	log.Info(ctx, "service is ready")

	start := time.Now()
	scenarios := Scenarios(c.Rules)
	report := Report{Results: make([]Result, 0, len(scenarios))}

	for _, s := range scenarios {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("probe interrupted: %w", err)
		}
		t0 := time.Now()
		code, pr, err := cl.predict(ctx, s)
		res := Result{
			Scenario:  s,
			GotStatus: code,
			GotGrade:  pr.AdjustedGrade,
			GotCode:   pr.Code,
			Latency:   time.Since(t0),
			Err:       err,
		}
		if res.Pass() {
			report.Passed++
		} else {
			report.Failed++
			log.Warn(ctx, "scenario mismatch",
				logger.String("query", s.Query()),
				logger.Int("wantStatus", s.WantStatus),
				logger.Int("gotStatus", code))
		}
		report.Results = append(report.Results, res)
	}
	report.Duration = time.Since(start)

	writeReport(out, report, c.Verbose)

	if report.Failed > 0 {
		return report, fmt.Errorf("%w: %d of %d scenarios failed", ErrMismatch, report.Failed, len(report.Results))
	}
	return report, nil
}
