package probe

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/gradeadjust/internal/adapters/http/api"
	service "github.com/okian/gradeadjust/internal/app"
	"github.com/okian/gradeadjust/internal/domain/grading"
	"github.com/okian/gradeadjust/pkg/metrics"
)

func newServiceServer(rules grading.Rules) *httptest.Server {
	registry := prometheus.NewRegistry()
	m := metrics.NewManager(metrics.WithPrometheusRegistry(registry))
	svc := service.New(service.WithRules(rules), service.WithMetrics(m))
	h := api.NewServer(svc, svc, api.WithMetrics(m), api.WithGatherer(registry)).Handler(context.Background())
	return httptest.NewServer(h)
}

func TestScenarios(t *testing.T) {
	Convey("Given the default rules", t, func() {
		scenarios := Scenarios(grading.Default())

		Convey("Then every rule branch is covered", func() {
			names := map[string]bool{}
			for _, s := range scenarios {
				names[s.Name] = true
			}
			So(names["faster"], ShouldBeTrue)
			So(names["slower"], ShouldBeTrue)
			So(names["unchanged"], ShouldBeTrue)
		})

		Convey("And the edges are clamped", func() {
			for _, s := range scenarios {
				if s.Grade == "10" && s.TimeTaken == "0" {
					So(s.WantGrade, ShouldEqual, 10)
				}
				if s.Grade == "1" && s.TimeTaken == "91" {
					So(s.WantGrade, ShouldEqual, 1)
				}
			}
		})

		Convey("And the thresholds themselves leave the grade alone", func() {
			for _, s := range scenarios {
				if s.TimeTaken == "60" || s.TimeTaken == "90" {
					So(s.Name, ShouldEqual, "unchanged")
				}
			}
		})

		Convey("And missing values are left out of the query", func() {
			s := Scenario{Grade: "5"}
			So(s.Query(), ShouldEqual, "grade=5")
		})
	})

	Convey("Given custom rules", t, func() {
		rules, err := grading.New(grading.WithGradeBounds(0, 5), grading.WithTimeThresholds(30, 45))
		So(err, ShouldBeNil)

		Convey("Then the grid follows them", func() {
			var above Scenario
			for _, s := range Scenarios(rules) {
				if s.Name == "grade above max" {
					above = s
				}
			}
			So(above.Grade, ShouldEqual, "6")
			So(above.WantCode, ShouldEqual, "out_of_range")
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running service", t, func() {
		srv := newServiceServer(grading.Default())
		defer srv.Close()

		var out bytes.Buffer
		cfg := &Config{BaseURL: srv.URL, Timeout: time.Second, Wait: time.Second, Verbose: true}

		Convey("When probing it", func() {
			report, err := Run(context.Background(), cfg, &out)

			Convey("Then every scenario passes", func() {
				So(err, ShouldBeNil)
				So(report.Failed, ShouldEqual, 0)
				So(report.Passed, ShouldEqual, len(report.Results))
				So(out.String(), ShouldContainSubstring, "PASS")
				So(out.String(), ShouldContainSubstring, "0 failed")
			})
		})
	})

	Convey("Given a service running different rules", t, func() {
		rules, err := grading.New(grading.WithTimeThresholds(10, 20))
		So(err, ShouldBeNil)
		srv := newServiceServer(rules)
		defer srv.Close()

		var out bytes.Buffer
		cfg := &Config{BaseURL: srv.URL, Timeout: time.Second, Wait: time.Second}

		Convey("When probing it with the default rules", func() {
			report, err := Run(context.Background(), cfg, &out)

			Convey("Then mismatches are reported", func() {
				So(errors.Is(err, ErrMismatch), ShouldBeTrue)
				So(report.Failed, ShouldBeGreaterThan, 0)
				So(out.String(), ShouldContainSubstring, "FAIL")
				So(out.String(), ShouldNotContainSubstring, "PASS ")
			})
		})
	})

	Convey("Given a service that never becomes ready", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		cfg := &Config{BaseURL: srv.URL, Timeout: time.Second, Wait: 300 * time.Millisecond}

		Convey("When probing it", func() {
			_, err := Run(context.Background(), cfg, &bytes.Buffer{})

			Convey("Then the wait gives up", func() {
				So(errors.Is(err, ErrNotReady), ShouldBeTrue)
				var se *StatusError
				So(errors.As(err, &se), ShouldBeTrue)
				So(se.StatusCode, ShouldEqual, http.StatusServiceUnavailable)
			})
		})
	})
}

func TestResult(t *testing.T) {
	Convey("Given scenario results", t, func() {
		ok := Scenario{WantStatus: http.StatusOK, WantGrade: 6}
		bad := Scenario{WantStatus: http.StatusBadRequest, WantCode: "out_of_range"}

		Convey("Then matching answers pass", func() {
			So(Result{Scenario: ok, GotStatus: 200, GotGrade: 6}.Pass(), ShouldBeTrue)
			So(Result{Scenario: bad, GotStatus: 400, GotCode: "out_of_range"}.Pass(), ShouldBeTrue)
		})

		Convey("And anything else fails", func() {
			So(Result{Scenario: ok, GotStatus: 200, GotGrade: 5}.Pass(), ShouldBeFalse)
			So(Result{Scenario: bad, GotStatus: 400, GotCode: "invalid_format"}.Pass(), ShouldBeFalse)
			So(Result{Scenario: ok, Err: errors.New("refused")}.Pass(), ShouldBeFalse)
		})

		Convey("And the report renders them", func() {
			var out bytes.Buffer
			writeReport(&out, Report{
				Results: []Result{{Scenario: ok, GotStatus: 500, GotCode: "internal_error"}},
				Failed:  1,
			}, false)
			So(strings.Contains(out.String(), "500 internal_error"), ShouldBeTrue)
			So(out.String(), ShouldContainSubstring, "1 failed")
		})
	})
}
