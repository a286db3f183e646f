package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/okian/gradeadjust/internal/adapters/http/api"
	service "github.com/okian/gradeadjust/internal/app"
	"github.com/okian/gradeadjust/internal/domain/model"
	"github.com/okian/gradeadjust/pkg/logger"
	"github.com/okian/gradeadjust/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing
type mockDeps struct {
	prediction model.Prediction
	err        error
	panicWith  any
	rejections []string
}

func (m *mockDeps) GetStatus(ctx context.Context) model.Status {
	return model.Status{Status: "API is running", Message: "mock"}
}

func (m *mockDeps) Predict(ctx context.Context, grade, timeTaken string) (model.Prediction, error) {
	if m.panicWith != nil {
		panic(m.panicWith)
	}
	return m.prediction, m.err
}

func (m *mockDeps) RecordRejection(kind string) {
	m.rejections = append(m.rejections, kind)
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

type predictBody struct {
	Status        string `json:"status"`
	AdjustedGrade int    `json:"adjusted_grade"`
	Adjustment    int    `json:"adjustment"`
	Input         struct {
		OriginalGrade int     `json:"original_grade"`
		TimeTaken     float64 `json:"time_taken"`
	} `json:"input_data"`
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func newTestHandler(deps api.Dependencies, stats api.StatsProvider) http.Handler {
	registry := prometheus.NewRegistry()
	server := api.NewServer(deps, stats,
		api.WithMetrics(metrics.NewManager(metrics.WithPrometheusRegistry(registry))),
		api.WithGatherer(registry),
		api.WithLogger(logger.Nop()),
	)
	return server.Handler(context.Background())
}

func newServiceHandler() http.Handler {
	registry := prometheus.NewRegistry()
	m := metrics.NewManager(metrics.WithPrometheusRegistry(registry))
	svc := service.New(service.WithMetrics(m))
	server := api.NewServer(svc, svc, api.WithMetrics(m), api.WithGatherer(registry))
	return server.Handler(context.Background())
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) errorBody {
	var body errorBody
	So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
	return body
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		deps := &mockDeps{}
		stats := &mockStatsProvider{stats: map[string]interface{}{"predictions_total": 0}}
		h := newTestHandler(deps, stats)

		Convey("When registering routes on an existing router", func() {
			r := chi.NewRouter()
			api.NewServer(deps, stats).Register(context.Background(), r)

			Convey("Then the router serves the root route", func() {
				So(get(r, "/").Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When calling the root route", func() {
			w := get(h, "/")

			Convey("Then the status payload is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
				So(w.Body.String(), ShouldContainSubstring, `"status":"API is running"`)
			})
		})

		Convey("And health endpoint should expose metrics", func() {
			_ = get(h, "/")
			w := get(h, "/healthz")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "gradeadjust_predictor_http_requests_total")
		})

		Convey("And stats endpoint should be accessible", func() {
			w := get(h, "/stats")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "predictions_total")
		})

		Convey("And unknown routes should return a JSON 404", func() {
			w := get(h, "/unknown")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			body := decodeError(w)
			So(body.Code, ShouldEqual, "not_found")
			So(body.Error, ShouldEqual, "Not Found")
		})

		Convey("And other methods should be rejected", func() {
			req := httptest.NewRequest(http.MethodPost, "/predict?grade=5&time_taken=30", strings.NewReader(""))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(w.Header().Get("Allow"), ShouldEqual, "GET, HEAD")
			So(decodeError(w).Code, ShouldEqual, "method_not_allowed")
		})

		Convey("And HEAD should be answered like GET", func() {
			for _, path := range []string{"/", "/predict?grade=5&time_taken=30", "/stats"} {
				req := httptest.NewRequest(http.MethodHead, path, http.NoBody)
				w := httptest.NewRecorder()
				h.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
			}
		})
	})
}

func TestPredictHandler(t *testing.T) {
	Convey("Given an API server backed by the real service", t, func() {
		h := newServiceHandler()

		Convey("When the task is finished quickly", func() {
			w := get(h, "/predict?grade=5&time_taken=30")

			Convey("Then the grade goes up", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body predictBody
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Status, ShouldEqual, "success")
				So(body.AdjustedGrade, ShouldEqual, 6)
				So(body.Adjustment, ShouldEqual, 1)
				So(body.Input.OriginalGrade, ShouldEqual, 5)
				So(body.Input.TimeTaken, ShouldEqual, 30.0)
			})

			Convey("And the rule is not leaked into the payload", func() {
				So(w.Body.String(), ShouldNotContainSubstring, "rule")
			})
		})

		Convey("When running the documented scenarios", func() {
			cases := []struct {
				query           string
				adjusted, delta int
			}{
				{"grade=5&time_taken=95", 4, -1},
				{"grade=5&time_taken=75", 5, 0},
				{"grade=10&time_taken=10", 10, 0},
				{"grade=1&time_taken=100", 1, 0},
			}

			Convey("Then each response matches", func() {
				for _, c := range cases {
					w := get(h, "/predict?"+c.query)
					So(w.Code, ShouldEqual, http.StatusOK)
					var body predictBody
					So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
					So(body.AdjustedGrade, ShouldEqual, c.adjusted)
					So(body.Adjustment, ShouldEqual, c.delta)
				}
			})
		})

		Convey("When a parameter is missing", func() {
			for _, q := range []string{"", "grade=5", "time_taken=30", "grade=&time_taken=30", "grade=abc"} {
				w := get(h, "/predict?"+q)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				body := decodeError(w)
				So(body.Code, ShouldEqual, "missing_parameter")
				So(body.Error, ShouldEqual, "Missing required parameters")
			}
		})

		Convey("When the grade is not a number", func() {
			w := get(h, "/predict?grade=abc&time_taken=30")

			Convey("Then an invalid format error is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				body := decodeError(w)
				So(body.Code, ShouldEqual, "invalid_format")
				So(body.Error, ShouldStartWith, "Invalid input format")
				So(body.Error, ShouldContainSubstring, "grade")
			})
		})

		Convey("When time_taken is not a number", func() {
			w := get(h, "/predict?grade=5&time_taken=soon")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w).Code, ShouldEqual, "invalid_format")
		})

		Convey("When values are out of range", func() {
			cases := map[string]string{
				"grade=0&time_taken=30":                    "Grade must be between 1 and 10",
				"grade=11&time_taken=30":                   "Grade must be between 1 and 10",
				"grade=99999999999999999999&time_taken=30": "Grade must be between 1 and 10",
				"grade=5&time_taken=-5":                    "Time taken cannot be negative",
			}
			for q, msg := range cases {
				w := get(h, "/predict?"+q)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				body := decodeError(w)
				So(body.Code, ShouldEqual, "out_of_range")
				So(body.Error, ShouldEqual, msg)
			}
		})

		Convey("When a request id is supplied", func() {
			req := httptest.NewRequest(http.MethodGet, "/predict?grade=5&time_taken=30", http.NoBody)
			req.Header.Set(api.HeaderRequestID, "abc-123")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then it is echoed back", func() {
				So(w.Header().Get(api.HeaderRequestID), ShouldEqual, "abc-123")
			})
		})

		Convey("When no request id is supplied", func() {
			w := get(h, "/predict?grade=5&time_taken=30")

			Convey("Then one is minted", func() {
				So(len(w.Header().Get(api.HeaderRequestID)), ShouldEqual, 36)
			})
		})

		Convey("When stats are read after traffic", func() {
			_ = get(h, "/predict?grade=5&time_taken=30")
			_ = get(h, "/predict?grade=0&time_taken=30")
			w := get(h, "/stats")

			Convey("Then the counters reflect it", func() {
				var stats map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
				So(stats["predictions_total"], ShouldEqual, 1.0)
				So(stats["rejections"].(map[string]any)["out_of_range"], ShouldEqual, 1.0)
			})
		})
	})
}

func TestPredictHandlerFailures(t *testing.T) {
	Convey("Given a service that fails unexpectedly", t, func() {
		deps := &mockDeps{err: errors.New("disk on fire")}
		h := newTestHandler(deps, &mockStatsProvider{})

		Convey("When predicting", func() {
			w := get(h, "/predict?grade=5&time_taken=30")

			Convey("Then a 500 with a server error message is returned", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				body := decodeError(w)
				So(body.Code, ShouldEqual, "internal_error")
				So(body.Error, ShouldEqual, "Server error: disk on fire")
			})
		})
	})

	Convey("Given a service that panics", t, func() {
		deps := &mockDeps{panicWith: "boom"}
		h := newTestHandler(deps, &mockStatsProvider{})

		Convey("When predicting", func() {
			w := get(h, "/predict?grade=5&time_taken=30")

			Convey("Then the panic becomes a 500", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				body := decodeError(w)
				So(body.Code, ShouldEqual, "internal_error")
				So(body.Error, ShouldEqual, "Server error: boom")
				So(deps.rejections, ShouldResemble, []string{"internal_error"})
			})

			Convey("And later requests are still served", func() {
				deps.panicWith = nil
				deps.prediction = model.Prediction{Status: "success", AdjustedGrade: 6, Adjustment: 1}
				w := get(h, "/predict?grade=5&time_taken=30")
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestCORS(t *testing.T) {
	Convey("Given a server restricted to one origin", t, func() {
		svc := service.New()
		h := api.NewServer(svc, svc, api.WithAllowedOrigins([]string{"https://school.example"})).Handler(context.Background())

		Convey("When a browser from that origin calls predict", func() {
			req := httptest.NewRequest(http.MethodGet, "/predict?grade=5&time_taken=30", http.NoBody)
			req.Header.Set("Origin", "https://school.example")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then the origin is allowed", func() {
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "https://school.example")
			})
		})

		Convey("When a browser from another origin calls predict", func() {
			req := httptest.NewRequest(http.MethodGet, "/predict?grade=5&time_taken=30", http.NoBody)
			req.Header.Set("Origin", "https://elsewhere.example")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then no allow header is sent", func() {
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldBeEmpty)
			})
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Given API error helpers", t, func() {
		cause := errors.New("cause")

		Convey("Then kinds and causes are both reachable", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: cause")
		})

		Convey("And Wrap marks errors internal", func() {
			So(errors.Is(api.Wrap("api.op", cause), api.ErrInternal), ShouldBeTrue)
		})

		Convey("And NewKind has no cause", func() {
			So(api.NewKind("api.op", api.ErrNotFound).Error(), ShouldEqual, "api.op: not found")
		})
	})
}
