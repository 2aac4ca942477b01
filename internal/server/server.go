// Package server exposes the chat, routing and analytics operations over
// HTTP.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bwengye/bwengye/internal/analytics"
	"github.com/bwengye/bwengye/internal/auth"
	"github.com/bwengye/bwengye/internal/catalog"
	"github.com/bwengye/bwengye/internal/chat"
	"github.com/bwengye/bwengye/internal/inference"
)

// Server wires the HTTP surface to the application components.
type Server struct {
	db           *gorm.DB
	orchestrator *chat.Orchestrator
	catalog      *catalog.Catalog
	provider     inference.Provider
	sink         analytics.Sink
	verifier     auth.Verifier
	port         int
	out          io.Writer
	engine       *gin.Engine
}

// Opts holds parameters for creating a Server.
type Opts struct {
	DB           *gorm.DB
	Orchestrator *chat.Orchestrator
	Catalog      *catalog.Catalog
	Provider     inference.Provider
	Sink         analytics.Sink
	Verifier     auth.Verifier
	Port         int
	Out          io.Writer
}

// New creates a Server and registers its routes.
func New(opts Opts) (*Server, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("server: db is required")
	}
	if opts.Orchestrator == nil {
		return nil, fmt.Errorf("server: orchestrator is required")
	}
	if opts.Catalog == nil {
		return nil, fmt.Errorf("server: catalog is required")
	}
	if opts.Provider == nil {
		return nil, fmt.Errorf("server: provider is required")
	}
	if opts.Verifier == nil {
		return nil, fmt.Errorf("server: verifier is required")
	}
	port := opts.Port
	if port <= 0 {
		port = 8080
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		db:           opts.DB,
		orchestrator: opts.Orchestrator,
		catalog:      opts.Catalog,
		provider:     opts.Provider,
		sink:         opts.Sink,
		verifier:     opts.Verifier,
		port:         port,
		out:          out,
		engine:       engine,
	}
	s.registerRoutes()
	return s, nil
}

// Handler returns the server's HTTP handler, for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully, draining in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(s.out, "server: listening on %s\n", addr)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
