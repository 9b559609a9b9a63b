// Package server provides the HTTP API for Turbott.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tarunagarwal/turbott/internal/config"
	"github.com/tarunagarwal/turbott/internal/keyword"
	"github.com/tarunagarwal/turbott/internal/session"
	"go.uber.org/zap"
)

// Server is the HTTP server for the Turbott API.
type Server struct {
	session *session.Session
	keyword *keyword.Index
	config  *config.ServerConfig
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server around a session. keywordIdx may be nil, in
// which case the keyword search endpoint reports not implemented.
func NewServer(
	sess *session.Session,
	keywordIdx *keyword.Index,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		session: sess,
		keyword: keywordIdx,
		config:  cfg,
		logger:  logger,
	}
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/ask", s.handleAsk)
	r.Post("/api/v1/documents", s.handleAddText)
	r.Post("/api/v1/ingest", s.handleIngest)
	r.Get("/api/v1/history", s.handleHistory)
	r.Delete("/api/v1/history", s.handleClearHistory)
	r.Post("/api/v1/export", s.handleExport)
	r.Get("/api/v1/search", s.handleKeywordSearch)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
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
