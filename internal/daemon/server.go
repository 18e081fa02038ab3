// Package daemon runs the local dashboard: a localhost-only HTTP server that
// exposes the live session, history and stats as JSON, plus an SSE feed of
// tracker events. It is presentation glue; the tracker never depends on it.
package daemon

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/flowzoneai/flowzone/internal/config"
	"github.com/flowzoneai/flowzone/internal/logger"
	"github.com/flowzoneai/flowzone/internal/session"
	"github.com/flowzoneai/flowzone/internal/store"
)

// Server is the dashboard HTTP server.
type Server struct {
	httpServer  *http.Server
	handlers    *Handlers
	broadcaster *Broadcaster
	lifecycle   *Lifecycle
	port        int
}

// NewServer wires the dashboard around an existing tracker and store. The
// returned server's Broadcaster should be registered as the tracker's event
// sink so live events reach SSE clients.
func NewServer(cfg *config.Config, tracker *session.Tracker, st store.Store, version string) *Server {
	handlers := NewHandlers(tracker, st, version)
	broadcaster := NewBroadcaster()
	lifecycle := NewLifecycle(cfg.Settings.Daemon)

	port := cfg.Settings.Daemon.Port
	if port == 0 {
		port = config.DefaultDaemonPort
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handlers.Health)
	mux.HandleFunc("GET /api/session", handlers.Session)
	mux.HandleFunc("POST /api/session/start", handlers.StartSession)
	mux.HandleFunc("POST /api/session/stop", handlers.StopSession)
	mux.HandleFunc("GET /api/history", handlers.History)
	mux.HandleFunc("GET /api/stats", handlers.Stats)
	mux.HandleFunc("GET /api/export", handlers.Export)
	mux.HandleFunc("GET /sse/events", broadcaster.ServeHTTP)

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("127.0.0.1:%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		handlers:    handlers,
		broadcaster: broadcaster,
		lifecycle:   lifecycle,
		port:        port,
	}
}

// Broadcaster returns the SSE broadcaster so it can be wired as the tracker's
// event sink.
func (s *Server) Broadcaster() *Broadcaster {
	return s.broadcaster
}

// Start writes the PID file and begins serving in the background.
func (s *Server) Start(ctx context.Context) error {
	if err := s.lifecycle.WritePID(); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}

	s.broadcaster.Start(ctx)

	logger.Info().
		Int("port", s.port).
		Str("url", fmt.Sprintf("http://127.0.0.1:%d", s.port)).
		Msg("Starting flowzone dashboard daemon")

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("Server error")
		}
	}()

	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	logger.Info().Msg("Stopping flowzone dashboard daemon")

	s.broadcaster.Stop()
	_ = s.lifecycle.RemovePID()

	return s.httpServer.Shutdown(ctx)
}

// Port returns the serving port.
func (s *Server) Port() int {
	return s.port
}

// Lifecycle returns the lifecycle manager.
func (s *Server) Lifecycle() *Lifecycle {
	return s.lifecycle
}
