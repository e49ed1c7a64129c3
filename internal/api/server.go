package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/engine-control/esc/internal/auth"
	"github.com/engine-control/esc/internal/observability"
	"github.com/engine-control/esc/internal/supervisor"
)

// TelemetryPort is the minimal interface the server needs from the hub.
type TelemetryPort interface {
	Subscribe(w http.ResponseWriter, r *http.Request) error
}

// Server is the maintenance HTTP server.
type Server struct {
	httpServer *http.Server
	supervisor supervisor.Port
	telemetry  TelemetryPort
	authMW     *auth.Middleware
	log        zerolog.Logger
	startTime  time.Time

	readTimeout time.Duration
	idleTimeout time.Duration
}

// NewServer creates a maintenance API server.
func NewServer(sup supervisor.Port, telemetry TelemetryPort, authMW *auth.Middleware, log zerolog.Logger, readTimeout, idleTimeout time.Duration) *Server {
	return &Server{
		supervisor:  sup,
		telemetry:   telemetry,
		authMW:      authMW,
		log:         log.With().Str("component", "api").Logger(),
		startTime:   time.Now(),
		readTimeout: readTimeout,
		idleTimeout: idleTimeout,
	}
}

// Handler builds the full route tree wrapped in the request middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())
	return observability.HTTPMiddleware(s.log, mux)
}

// Start serves until the listener fails or Stop is called.
// WriteTimeout stays zero so the SSE stream is not cut off.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		ReadTimeout: s.readTimeout,
		IdleTimeout: s.idleTimeout,
	}

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}
