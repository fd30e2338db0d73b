// Package httpserver exposes liveness, readiness and Prometheus metrics on a
// side port next to the bot.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/notebot/core/logger"
)

const requestTimeout = 5 * time.Second

// Check is a named readiness probe.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Deps are the collaborators of the HTTP server.
type Deps struct {
	Checks    []Check
	Gatherer  prometheus.Gatherer
	StartTime time.Time
}

// Server wraps the HTTP server.
type Server struct {
	http *http.Server
}

// New builds the router and server listening on addr.
func New(addr string, d Deps) *Server {
	if d.StartTime.IsZero() {
		d.StartTime = time.Now()
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	return &Server{http: &http.Server{
		Addr:              addr,
		Handler:           NewRouter(d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}}
}

// NewRouter returns the chi router serving /healthz, /readyz and /metrics.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.GetHead)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(accessLog)

	r.Get("/healthz", healthz(d.StartTime))
	r.Get("/readyz", readyz(d.Checks))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	return r
}

// Start serves until Stop is called. It returns once the listener is bound
// so bind errors surface to the caller.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	logger.HTTP.Info("http server listening",
		slog.String("event", "http.listen"),
		slog.String("addr", ln.Addr().String()),
	)
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.HTTP.Error("http server stopped",
				slog.String("event", "http.serve"),
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}()
	return nil
}

// Stop gracefully shuts the server down within ctx.
func (s *Server) Stop(ctx context.Context) error {
	logger.HTTP.Info("http server shutting down", slog.String("event", "http.shutdown"))
	return s.http.Shutdown(ctx)
}
