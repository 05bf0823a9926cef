// Package server exposes a running layout over HTTP.
//
// The server owns a [scheduler.Driver]. Handlers never touch the scheduler
// directly: reads come from the driver's published snapshot and writes are
// submitted as driver commands, so the simulation keeps a single owner.
//
// Routes:
//
//	GET  /healthz                 liveness and build info
//	GET  /metrics                 Prometheus metrics (when a registry is set)
//	GET  /api/v1/runs             loaded runs with labels and outcomes
//	PUT  /api/v1/runs             replace runs with a results file body
//	POST /api/v1/runs/fetch       replace runs from a remote source
//	GET  /api/v1/selection        current selection
//	PUT  /api/v1/selection        select a run ({"run_id": n} or null)
//	GET  /api/v1/viewport         container size and viewport transform
//	PUT  /api/v1/viewport         resize the container
//	GET  /api/v1/scene            current frame (?format=json|svg|dot|png)
//	GET  /api/v1/graph            hop graph in its wire format
//	GET  /api/v1/summary          win/loss summary of the loaded runs
package server

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/hopgraph/pkg/runs"
	"github.com/matzehuels/hopgraph/pkg/scheduler"
	"github.com/matzehuels/hopgraph/pkg/source"
)

// Defaults for [Options].
const (
	DefaultAddr            = ":8080"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
	DefaultMaxBodyBytes    = 64 << 20
)

// Options configures a Server.
type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
	// Registry is served at /metrics; nil disables the endpoint.
	Registry *prometheus.Registry
	// Source configures remote fetches for /api/v1/runs/fetch.
	Source source.Options
	Logger *log.Logger
}

func (o Options) withDefaults() Options {
	if o.Addr == "" {
		o.Addr = DefaultAddr
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = DefaultReadTimeout
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = DefaultShutdownTimeout
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

// Server serves one scheduler over HTTP.
type Server struct {
	driver *scheduler.Driver
	opts   Options
	logger *log.Logger
	router chi.Router
}

// New creates a server for d. The driver is started by [Server.Run].
func New(d *scheduler.Driver, opts Options) *Server {
	opts = opts.withDefaults()
	s := &Server{
		driver: d,
		opts:   opts,
		logger: opts.Logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.opts.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/runs", s.handleGetRuns)
		r.Put("/runs", s.handlePutRuns)
		r.Post("/runs/fetch", s.handleFetchRuns)
		r.Get("/selection", s.handleGetSelection)
		r.Put("/selection", s.handlePutSelection)
		r.Get("/viewport", s.handleGetViewport)
		r.Put("/viewport", s.handlePutViewport)
		r.Get("/scene", s.handleScene)
		r.Get("/graph", s.handleGraph)
		r.Get("/summary", s.handleSummary)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// SetResults installs rf as the served run set. It reports whether the
// layout was rebuilt.
func (s *Server) SetResults(ctx context.Context, rf *runs.ResultsFile) (bool, error) {
	return s.driver.SetResults(ctx, rf)
}

// Run starts the driver and listens on the configured address until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is like [Server.Run] on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  2 * s.opts.WriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := s.driver.Run(ctx)
		if stderrors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		s.logger.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
