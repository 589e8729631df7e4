// Package server provides the HTTP API for Clipseek.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/clipseek/clipseek/internal/config"
	"github.com/clipseek/clipseek/internal/hint"
	"github.com/clipseek/clipseek/internal/search"
	"github.com/clipseek/clipseek/internal/storage"
)

// Server is the HTTP server for the Clipseek API.
type Server struct {
	engine  *search.Engine
	hints   *hint.Index
	storage storage.Storage
	config  *config.ServerConfig
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *search.Engine,
	hints *hint.Index,
	storage storage.Storage,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		engine:  engine,
		hints:   hints,
		storage: storage,
		config:  cfg,
		logger:  logger,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/videos", s.handleAddVideo)
	r.Get("/api/v1/videos", s.handleListVideos)
	r.Get("/api/v1/search", s.handleSearch)
	r.Get("/api/v1/hints", s.handleHints)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
