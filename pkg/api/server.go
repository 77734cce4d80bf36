package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/memvault/memvault/internal/logger"
	"github.com/memvault/memvault/pkg/capsulestore"
	"github.com/memvault/memvault/pkg/config"
	"github.com/memvault/memvault/pkg/sharingcore"
	"github.com/memvault/memvault/pkg/upload"
)

// Server provides the HTTP binding over a capsule catalog, upload
// service, and sharing ledger.
//
// The server is created in a stopped state. Call Start to begin serving
// requests; it blocks until ctx is cancelled, then shuts down gracefully.
type Server struct {
	server       *http.Server
	config       config.APIConfig
	shutdownOnce sync.Once
}

// Deps bundles the engine collaborators the router dispatches into.
type Deps struct {
	Capsules capsulestore.Store
	Uploads  *upload.Service
	Sharing  sharingcore.Store
}

// NewServer creates a configured but not yet started Server.
func NewServer(cfg config.APIConfig, deps Deps) *Server {
	router := NewRouter(deps)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &Server{server: httpServer, config: cfg}
}

// Start serves requests until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("API server shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Stop initiates graceful shutdown. Safe to call multiple times and
// concurrently with Start.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("API server shutdown error: %w", err)
			logger.Error("API server shutdown error", "error", err)
		} else {
			logger.Info("API server stopped gracefully")
		}
	})
	return shutdownErr
}

// Port returns the configured TCP port.
func (s *Server) Port() int {
	return s.config.Port
}
