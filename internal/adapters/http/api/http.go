// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/okian/gradeadjust/internal/domain/grading"
	"github.com/okian/gradeadjust/internal/domain/model"
	"github.com/okian/gradeadjust/pkg/logger"
	"github.com/okian/gradeadjust/pkg/metrics"
)

// Error codes returned in the "code" field of error responses.
const (
	CodeMissingParameter = "missing_parameter"
	CodeInvalidFormat    = "invalid_format"
	CodeOutOfRange       = "out_of_range"
	CodeInternal         = "internal_error"
	CodeNotFound         = "not_found"
	CodeMethodNotAllowed = "method_not_allowed"
)

// corsMaxAge is the preflight cache lifetime in seconds.
const corsMaxAge = 300

// allowedMethods is the Allow header sent with 405 responses. Every route is
// read only; HEAD is served by the GET handler.
const allowedMethods = "GET, HEAD"

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	GetStatus(ctx context.Context) model.Status
	Predict(ctx context.Context, grade, timeTaken string) (model.Prediction, error)
	RecordRejection(kind string)
}

// Server wires HTTP routes for the business API.
type Server struct {
	statusHandler  *StatusHandler
	predictHandler *PredictHandler
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler

	deps           Dependencies
	metrics        *metrics.Manager
	logger         logger.Logger
	allowedOrigins []string
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithMetrics sets the metrics manager used by the middleware.
func WithMetrics(m *metrics.Manager) ServerOption {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithGatherer sets the registry exposed on /healthz.
func WithGatherer(g prometheus.Gatherer) ServerOption {
	return func(s *Server) {
		if g != nil {
			s.healthHandler = NewHealthHandler(g)
		}
	}
}

// WithLogger sets the logger used for request and panic logging.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAllowedOrigins sets the CORS allow list.
func WithAllowedOrigins(origins []string) ServerOption {
	return func(s *Server) {
		if len(origins) > 0 {
			s.allowedOrigins = origins
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		statusHandler:  NewStatusHandler(deps),
		predictHandler: NewPredictHandler(deps),
		healthHandler:  NewHealthHandler(metrics.GetRegistry()),
		statsHandler:   NewStatsHandler(statsProvider),
		deps:           deps,
		metrics:        metrics.Default(),
		logger:         logger.Nop(),
		allowedOrigins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.predictHandler.logger = s.logger
	return s
}

// Register attaches all HTTP routes and middleware to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Use(middleware.RealIP)
	r.Use(middleware.GetHead)
	r.Use(RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", HeaderRequestID},
		ExposedHeaders: []string{HeaderRequestID},
		MaxAge:         corsMaxAge,
	}))

	r.Get("/", s.instrument("root", s.statusHandler.HandleStatus))
	r.Get("/predict", s.instrument("predict", s.predictHandler.HandlePredict))
	r.Get("/healthz", s.instrument("healthz", s.healthHandler.HandleHealth))
	r.Get("/stats", s.instrument("stats", s.statsHandler.HandleStats))

	r.NotFound(s.instrument("not_found", func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, ErrNotFound)
	}))
	r.MethodNotAllowed(s.instrument("method_not_allowed", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Allow", allowedMethods)
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, errors.New(http.StatusText(http.StatusMethodNotAllowed)))
	}))
}

// Handler builds a chi router with every route registered.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	s.Register(ctx, r)
	return r
}

// instrument wraps a handler with metrics and panic recovery.
func (s *Server) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	onPanic := func() {
		s.metrics.RecordHTTPPanic()
		s.deps.RecordRejection(CodeInternal)
	}
	return MetricsMiddleware(s.metrics, Recoverer(s.logger, onPanic, next), endpoint)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, errorResponse{Error: publicMessage(status, err), Code: code})
}

// publicMessage picks the caller-facing text for err.
func publicMessage(status int, err error) string {
	if err == nil {
		return http.StatusText(status)
	}
	var verr *grading.ValidationError
	if errors.As(err, &verr) {
		return verr.Msg
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Kind == ErrInternal && apiErr.Err != nil {
		return "Server error: " + apiErr.Err.Error()
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusText(http.StatusNotFound)
	}
	return err.Error()
}

// classify maps a predict error to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, grading.ErrMissingParameter):
		return http.StatusBadRequest, CodeMissingParameter
	case errors.Is(err, grading.ErrInvalidFormat):
		return http.StatusBadRequest, CodeInvalidFormat
	case errors.Is(err, grading.ErrOutOfRange):
		return http.StatusBadRequest, CodeOutOfRange
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
