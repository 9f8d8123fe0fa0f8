package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ignite/dm-planner/internal/config"
	"github.com/ignite/dm-planner/internal/pkg/logger"
)

// Server wraps the HTTP server.
type Server struct {
	httpServer *http.Server
}

// NewServer creates a server listening on the configured host and port.
func NewServer(cfg config.ServerConfig, h *Handlers, allowedOrigins []string) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.GetHost(), cfg.Port),
			Handler:      SetupRoutes(h, allowedOrigins),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 90 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	logger.Info("api server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
