// Package server is the HTTP surface of the onboarding assistant.
package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/sadreammm/Helply/internal/config"
	"github.com/sadreammm/Helply/internal/metrics"
	"github.com/sadreammm/Helply/pkg/cerr"
	"github.com/sadreammm/Helply/pkg/clog"
	"github.com/sadreammm/Helply/server/handlers"
	"github.com/sadreammm/Helply/server/middleware"
)

type Server struct {
	mu       sync.Mutex
	server   *http.Server
	env      *config.BaseEnv
	handlers *handlers.Handlers
	limiter  *middleware.RateLimiter
	metrics  *metrics.Metrics
}

// NewServer builds the server. A nil metrics leaves /metrics unmounted.
func NewServer(env *config.BaseEnv, h *handlers.Handlers, m *metrics.Metrics) *Server {
	return &Server{
		env:      env,
		handlers: h,
		limiter:  middleware.NewRateLimiter(env.RateLimit, time.Minute),
		metrics:  m,
	}
}

// Handler returns the full middleware stack around the routes
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		clog.SlogChiMiddleware(clog.WithChiFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health" && r.URL.Path != "/metrics"
		})),
		chimw.Recoverer,
		s.limiter.Limit,
	)
	if s.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	}
	r.Group(func(r chi.Router) {
		r.Use(cerr.NewJSONChiMiddleware())
		s.handlers.Routes(r)
	})

	return cors.New(cors.Options{
		AllowedOrigins:   s.env.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(r)
}

// ListenAndServe serves until Shutdown. ctx is the base context of every
// request and also stops the rate limiter's eviction loop.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	go func() { _ = s.limiter.Run(ctx) }()

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()
	return srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
