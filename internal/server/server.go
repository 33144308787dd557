// Package server exposes the solve pipeline over HTTP.
//
// Routes:
//
//	POST /v1/solve          solve an instance, body is a pipeline.Options document
//	GET  /v1/runs           list recorded runs (?status=&limit=)
//	GET  /v1/runs/{id}      one run record
//	GET  /v1/runs/{id}/log  the annealing log of a successful run
//	GET  /healthz           liveness and build version
//	GET  /metrics           Prometheus exposition
//
// Errors are answered as {"error": ..., "code": ...} with the status derived
// from the error code.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/flamecast/pkg/buildinfo"
	"github.com/matzehuels/flamecast/pkg/embed"
	fcerrors "github.com/matzehuels/flamecast/pkg/errors"
	"github.com/matzehuels/flamecast/pkg/observability"
	"github.com/matzehuels/flamecast/pkg/pipeline"
	"github.com/matzehuels/flamecast/pkg/runstore"
)

// MaxRequestBytes bounds the size of a solve request body.
const MaxRequestBytes = 8 << 20

// Server serves the HTTP API over a pipeline runner.
type Server struct {
	runner   *pipeline.Runner
	logger   *log.Logger
	gatherer prometheus.Gatherer
	router   chi.Router
}

// New creates a server. A nil gatherer serves the default Prometheus
// registry on /metrics.
func New(runner *pipeline.Runner, logger *log.Logger, gatherer prometheus.Gatherer) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s := &Server{runner: runner, logger: logger, gatherer: gatherer}
	s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/solve", s.handleSolve)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Get("/runs/{id}/log", s.handleGetRunLog)
	})

	s.router = r
}

// observe logs every request and reports it to the HTTP hooks under its
// route pattern, so that path parameters do not explode label cardinality.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		elapsed := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, route, status, elapsed)
		s.logger.Debug("request", "method", r.Method, "route", route, "status", status,
			"duration", elapsed, "request_id", middleware.GetReqID(r.Context()))
	})
}

// =============================================================================
// Handlers
// =============================================================================

// SolveResponse is the body of a successful POST /v1/solve.
type SolveResponse struct {
	RunID        string               `json:"run_id"`
	InstanceHash string               `json:"instance_hash"`
	CacheKey     string               `json:"cache_key"`
	CacheHit     bool                 `json:"cache_hit"`
	InitialCost  float64              `json:"initial_cost"`
	FinalCost    float64              `json:"final_cost"`
	Stats        SolveStats           `json:"stats"`
	Solution     embed.GraphEmbedding `json:"solution"`
}

// SolveStats mirrors pipeline.Stats with JSON names.
type SolveStats struct {
	Sources    int     `json:"sources"`
	Vertices   int     `json:"vertices"`
	Accepted   int     `json:"accepted"`
	Iterations int     `json:"iterations"`
	BuildSecs  float64 `json:"build_seconds"`
	SolveSecs  float64 `json:"solve_seconds"`
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		s.writeError(w, fcerrors.Wrap(fcerrors.ErrCodeInvalidFormat, err, "decode request: %v", err))
		return
	}
	opts.Logger = s.logger.With("request_id", middleware.GetReqID(r.Context()))
	if err := opts.ValidateForAPI(); err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.runner.Solve(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SolveResponse{
		RunID:        result.RunID,
		InstanceHash: result.InstanceHash,
		CacheKey:     result.CacheKey,
		CacheHit:     result.CacheHit,
		InitialCost:  result.Log.InitialCost,
		FinalCost:    result.Cost,
		Stats: SolveStats{
			Sources:    result.Stats.Sources,
			Vertices:   result.Stats.Vertices,
			Accepted:   result.Stats.Accepted,
			Iterations: result.Stats.Iterations,
			BuildSecs:  result.Stats.BuildTime.Seconds(),
			SolveSecs:  result.Stats.SolveTime.Seconds(),
		},
		Solution: result.Solution,
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	opts := runstore.ListOptions{Status: runstore.Status(r.URL.Query().Get("status"))}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, fcerrors.New(fcerrors.ErrCodeInvalidInput, "limit must be a positive integer, got %q", v))
			return
		}
		opts.Limit = n
	}
	runs, err := s.runner.Runs(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if runs == nil {
		runs = []*runstore.Run{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.runner.Run(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleGetRunLog(w http.ResponseWriter, r *http.Request) {
	l, err := s.runner.RunLog(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

// =============================================================================
// Responses
// =============================================================================

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := fcerrors.HTTPStatus(err)
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		status = http.StatusRequestEntityTooLarge
	}
	if status >= 500 {
		s.logger.Error("request failed", "err", err)
	}
	s.writeJSON(w, status, errorResponse{Error: fcerrors.UserMessage(err), Code: string(fcerrors.GetCode(err))})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response", "err", err)
	}
}
