// Package server exposes the current topology scene over HTTP.
//
// Routes:
//
//	GET  /healthz          liveness and poller state
//	GET  /api/snapshot     full poller snapshot (state, error, scene)
//	GET  /api/scene        scene JSON; 503 until the first successful fetch
//	GET  /api/scene.svg    scene rendered by Graphviz
//	GET  /api/scene.dot    scene as DOT source
//	GET  /api/legend       health legend
//	GET  /api/nodes/{id}   one node mark with its hover text
//	GET  /api/events       server-sent snapshot stream
//	POST /api/refresh      request an immediate fetch
//	GET  /metrics          Prometheus exposition, when a registry is set
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/topoview/pkg/errors"
	"github.com/matzehuels/topoview/pkg/metrics"
	"github.com/matzehuels/topoview/pkg/poller"
)

// Source is the snapshot provider the server reads from. *poller.Poller
// implements it.
type Source interface {
	Snapshot() poller.Snapshot
	Subscribe() (<-chan poller.Snapshot, func())
	Refresh()
}

// DefaultHeartbeat is the interval of SSE keep-alive comments.
const DefaultHeartbeat = 15 * time.Second

const shutdownTimeout = 5 * time.Second

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records request metrics in r and serves it on /metrics.
func WithMetrics(r *metrics.Registry) Option {
	return func(s *Server) { s.metrics = r }
}

// WithHeartbeat sets the SSE keep-alive interval.
func WithHeartbeat(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.heartbeat = d
		}
	}
}

// Server serves scenes from a [Source].
type Server struct {
	src       Source
	logger    *log.Logger
	metrics   *metrics.Registry
	heartbeat time.Duration
	router    chi.Router
}

// New creates a server for src.
func New(src Source, opts ...Option) *Server {
	s := &Server{
		src:       src,
		logger:    log.Default(),
		heartbeat: DefaultHeartbeat,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/snapshot", s.handleSnapshot)
		r.Get("/scene", s.handleScene)
		r.Get("/scene.svg", s.handleSceneSVG)
		r.Get("/scene.dot", s.handleSceneDOT)
		r.Get("/legend", s.handleLegend)
		r.Get("/nodes/{id}", s.handleNode)
		r.Get("/events", s.handleEvents)
		r.Post("/refresh", s.handleRefresh)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. Open event streams end when ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Serving topology", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(errors.ErrCodeInternal, err, "listen on %s", addr)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "shutdown")
	}
	s.logger.Debug("Server stopped")
	return nil
}

// instrument records request count and latency per route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if s.metrics != nil {
			s.metrics.RecordHTTPRequest(r.Method, route, strconv.Itoa(status), time.Since(start))
		}
		s.logger.Debug("Request", "method", r.Method, "route", route, "status", status, "took", time.Since(start).Round(time.Microsecond))
	})
}

type errorBody struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code"`
	State string      `json:"state,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.logger.Debug("Write response", "err", err)
	}
}

// writeError answers with the status mapped from err's code. Causes are
// logged, not sent.
func (s *Server) writeError(w http.ResponseWriter, err *errors.Error) {
	if err.Cause != nil {
		s.logger.Debug("Request failed", "code", err.Code, "err", err.Cause)
	}
	s.writeJSON(w, err.Code.HTTPStatus(), errorBody{Error: err.Message, Code: err.Code})
}
