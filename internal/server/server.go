// Package server exposes the bridge over HTTP: the callback endpoint the
// auth redirects land on, the session push/pull/logout operations the
// extension's native-messaging host calls, and the event-ingest endpoint.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/squareft/authbridge/internal/bridge"
	"github.com/squareft/authbridge/internal/callback"
	"github.com/squareft/authbridge/internal/config"
	"github.com/squareft/authbridge/internal/logger"
	"github.com/squareft/authbridge/internal/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// shutdownTimeout is the maximum time to wait for server shutdown
	shutdownTimeout = 5 * time.Second
)

// Server is the HTTP surface of the bridge.
type Server struct {
	config   *config.Config
	machine  *callback.Machine
	bridge   *bridge.Bridge
	recorder *telemetry.Recorder
	gatherer prometheus.Gatherer
}

func NewServer(
	cfg *config.Config,
	machine *callback.Machine,
	br *bridge.Bridge,
	recorder *telemetry.Recorder,
	gatherer prometheus.Gatherer,
) *Server {
	return &Server{
		config:   cfg,
		machine:  machine,
		bridge:   br,
		recorder: recorder,
		gatherer: gatherer,
	}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/auth/callback", s.handleCallback)

	r.Route("/session", func(r chi.Router) {
		r.Post("/push", s.handleSessionPush)
		r.Get("/pull", s.handleSessionPull)
		r.Post("/logout", s.handleSessionLogout)
	})

	r.Post("/events", s.handleEvents)

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	return r
}

// Start runs the HTTP server until the context is cancelled, then shuts down
// gracefully and drains the event queue.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}

	// Channel for server errors
	errChan := make(chan error, 1)

	go func() {
		logger.Info("Starting server", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server", zap.Duration("timeout", shutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.recorder.FlushNow(shutdownCtx)

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil

	case err := <-errChan:
		return err
	}
}

// requestLogger logs one line per request through the global zap logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
		)
	})
}

// Module provides the HTTP server dependencies
var Module = fx.Module("server",
	fx.Provide(
		NewServer,
	),
)
