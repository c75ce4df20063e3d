// Package server exposes the solve pipeline over HTTP.
//
// Routes:
//
//	POST /v1/solve       solve an instance, archive the run, return the outcome
//	GET  /v1/runs        list archived runs (?name=&status=&limit=)
//	GET  /v1/runs/{id}   fetch one archived run
//	GET  /healthz        liveness and build version
//
// Errors are returned as {"code": ..., "message": ...} with a status
// derived from the error code.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/platepack/pkg/observability"
	"github.com/matzehuels/platepack/pkg/pipeline"
	"github.com/matzehuels/platepack/pkg/store"
)

// Option applies a configuration option to the server.
type Option func(s *Server)

// WithStore archives every solve in st.
func WithStore(st store.Store) Option {
	return func(s *Server) { s.store = st }
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithLimits caps the budget and instance size a request may use.
// maxCells bounds the placement grid width·max_length·n, which sizes both
// encodings.
func WithLimits(maxTimeoutMS, maxCircuits, maxCells int) Option {
	return func(s *Server) {
		if maxTimeoutMS > 0 {
			s.maxTimeoutMS = maxTimeoutMS
		}
		if maxCircuits > 0 {
			s.maxCircuits = maxCircuits
		}
		if maxCells > 0 {
			s.maxCells = maxCells
		}
	}
}

// WithConcurrency bounds simultaneous solves. Excess requests wait until a
// slot frees or their context ends.
func WithConcurrency(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.slots = make(chan struct{}, n)
		}
	}
}

// WithDefaults sets the solve options applied under each request's own.
func WithDefaults(opts pipeline.Options) Option {
	return func(s *Server) { s.defaults = opts }
}

// Server handles API requests. It is safe for concurrent use.
type Server struct {
	runner       *pipeline.Runner
	store        store.Store
	logger       *log.Logger
	defaults     pipeline.Options
	maxTimeoutMS int
	maxCircuits  int
	maxCells     int
	slots        chan struct{}
}

// Server defaults.
const (
	defaultMaxTimeoutMS = 60000
	defaultMaxCircuits  = 64
	defaultMaxCells     = 50000
	defaultConcurrency  = 2
	shutdownTimeout     = 10 * time.Second
)

// New creates a server around runner.
func New(runner *pipeline.Runner, options ...Option) *Server {
	s := &Server{
		runner:       runner,
		logger:       runner.Logger,
		maxTimeoutMS: defaultMaxTimeoutMS,
		maxCircuits:  defaultMaxCircuits,
		maxCells:     defaultMaxCells,
		slots:        make(chan struct{}, defaultConcurrency),
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/solve", s.handleSolve)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
	})
	return r
}

// ListenAndServe serves on addr until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// detached collects the engine searches a request left running when its
// budget ran out.
type detached struct {
	mu     sync.Mutex
	exited []<-chan struct{}
}

func (d *detached) add(exited <-chan struct{}) {
	d.mu.Lock()
	d.exited = append(d.exited, exited)
	d.mu.Unlock()
}

// release frees a solver slot once every search in d has exited.
func (s *Server) release(d *detached) {
	d.mu.Lock()
	pending := d.exited
	d.mu.Unlock()
	if len(pending) == 0 {
		<-s.slots
		return
	}
	s.logger.Debug("holding solver slot for detached searches", "searches", len(pending))
	go func() {
		for _, ch := range pending {
			<-ch
		}
		<-s.slots
	}()
}

// observe reports requests to the HTTP hooks and the debug log.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, route, status, time.Since(start))
		s.logger.Debug("request", "method", r.Method, "route", route, "status", status,
			"duration", time.Since(start), "request_id", middleware.GetReqID(r.Context()))
	})
}
