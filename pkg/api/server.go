// Package api serves one loaded experiment over HTTP as JSON.
//
// Routes:
//
//	GET  /api/ping
//	GET  /api/summary?window=
//	GET  /api/lineages
//	GET  /api/lineages/tree.svg?min_divisions=&detailed=
//	GET  /api/positions/{t}
//	GET  /api/fate?x=&y=&z=&t=
//	GET  /api/issues
//	POST /api/issues/validate
//	POST /api/issues/dismiss?x=&y=&z=&t=
//
// Errors are returned as {"code": ..., "message": ...} with the status from
// [errors.HTTPStatus].
package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/celltrack/pkg/core/experiment"
	"github.com/matzehuels/celltrack/pkg/observability"
	"github.com/matzehuels/celltrack/pkg/pipeline"
)

const shutdownTimeout = 5 * time.Second

// Server holds the experiment shared by all requests. The links graph is
// not safe for concurrent mutation, so handlers take mu: readers share it,
// marker updates hold it exclusively.
type Server struct {
	mu     sync.RWMutex
	exp    *experiment.Experiment
	runner *pipeline.Runner
	logger *log.Logger
}

// New creates a server for exp. A nil runner renders without caching.
func New(exp *experiment.Experiment, runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	s := &Server{exp: exp, runner: runner, logger: logger}
	s.warm()
	return s
}

// warm builds the track index in layout order. Tracks are derived lazily,
// so without this the first readers would race to build it.
func (s *Server) warm() {
	s.exp.Links.SortTracksByX()
	s.exp.Links.FindStartingTracks()
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(hooksMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", handlePing)
		r.Get("/summary", s.handleSummary)
		r.Get("/lineages", s.handleLineages)
		r.Get("/lineages/tree.svg", s.handleTree)
		r.Get("/positions/{t}", s.handlePositions)
		r.Get("/fate", s.handleFate)
		r.Get("/issues", s.handleIssues)
		r.Post("/issues/validate", s.handleValidate)
		r.Post("/issues/dismiss", s.handleDismiss)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("serving experiment", "name", s.exp.Name, "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// hooksMiddleware reports requests to the observability hooks. The route
// pattern is only known after routing, so the response hook gets it while
// the request hook sees the raw path.
func hooksMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		observability.HTTP().OnRequest(ctx, r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(ctx); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		observability.HTTP().OnResponse(ctx, r.Method, route, status, time.Since(start))
	})
}
