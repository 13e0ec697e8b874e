// Package server exposes the jsontree pipeline and sessions over HTTP.
//
// Routes:
//
//	GET    /healthz                    liveness probe
//	GET    /metrics                    Prometheus metrics
//	POST   /v1/layout                  document → serialized layout
//	POST   /v1/render                  document → artifact bytes
//	POST   /v1/sessions                document → new session
//	GET    /v1/sessions/{id}           current session state
//	PUT    /v1/sessions/{id}           replace the session's document
//	POST   /v1/sessions/{id}/search    {"query": ...} → search outcome
//	DELETE /v1/sessions/{id}           remove the session
//
// Documents are sent as the raw request body. A YAML body is recognized by
// a yaml Content-Type or a ?filename= ending in .yaml/.yml. Failures are
// reported as {"error": CODE, "message": text}.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/jsontree/pkg/pipeline"
	"github.com/matzehuels/jsontree/pkg/session"
)

// Config wires a Server to its dependencies.
type Config struct {
	// Runner executes the pipeline. Required.
	Runner *pipeline.Runner

	// Sessions manages viewer sessions. Required.
	Sessions *session.Manager

	// Defaults supplies limits and layout/render defaults for requests.
	Defaults pipeline.Options

	// Gatherer serves /metrics. Nil means prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// Timeout bounds each request. Zero means 30s.
	Timeout time.Duration

	Logger *log.Logger
}

// Server is the HTTP API.
type Server struct {
	runner   *pipeline.Runner
	sessions *session.Manager
	defaults pipeline.Options
	logger   *log.Logger
	router   chi.Router
}

// New creates a server and its routes.
func New(cfg Config) *Server {
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Defaults.MaxBytes == 0 {
		cfg.Defaults.MaxBytes = pipeline.DefaultMaxBytes
	}

	s := &Server{
		runner:   cfg.Runner,
		sessions: cfg.Sessions,
		defaults: cfg.Defaults,
		logger:   cfg.Logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Timeout))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)
		r.Post("/render", s.handleRender)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Put("/", s.handleReplaceSession)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/search", s.handleSearch)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, errNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "METHOD_NOT_ALLOWED", Message: "method not allowed"})
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
