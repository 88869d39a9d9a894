// Package server exposes the reconciled listing set over HTTP and
// WebSocket for UI consumption.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/suimarket/kioskwatch/internal/server/handler"
	"github.com/suimarket/kioskwatch/internal/server/middleware"
	"github.com/suimarket/kioskwatch/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled
}

// Handlers aggregates the HTTP handlers the server registers.
type Handlers struct {
	Health   *handler.HealthHandler
	Listings *handler.ListingsHandler
}

// Server is the headless HTTP + WebSocket API server for kioskwatch.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered, wiring up the
// logging, CORS, and auth middleware and attaching the WebSocket hub.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Listing endpoints behind auth.
	authed := middleware.Auth(cfg.APIKey)
	mux.Handle("GET /api/listings", authed(http.HandlerFunc(handlers.Listings.List)))
	mux.Handle("GET /api/listings/snapshots", authed(http.HandlerFunc(handlers.Listings.ListSnapshots)))

	// WebSocket push channel.
	mux.HandleFunc("GET /ws", wsHub.HandleWS)

	var root http.Handler = mux
	root = middleware.CORS(cfg.CORSOrigins)(root)
	root = middleware.Logging(logger)(root)

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           root,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger.With(slog.String("component", "server")),
	}
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully with a 10-second drain window.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("http server listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	s.logger.Info("http server stopped")
	return ctx.Err()
}
