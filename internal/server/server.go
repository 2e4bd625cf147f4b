// Package server serves the voices API: the Azure voice catalog filtered,
// sorted and grouped the way the voice cache expects it.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/prosodify/prosodify/internal/azure"
)

// Config configures the voices API server.
type Config struct {
	Addr     string
	Filter   azure.Filter
	CacheTTL time.Duration // how long an organized catalog is reused
}

// Server wraps the HTTP server.
type Server struct {
	httpServer *http.Server
	voices     *VoicesHandler
	logger     *log.Logger
}

// New creates a server backed by lister.
func New(cfg Config, lister VoiceLister, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default().WithPrefix("server")
	}

	voices := NewVoicesHandler(lister, cfg.Filter, cfg.CacheTTL, logger)
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           newRouter(voices, lister, logger),
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
			ReadHeaderTimeout: 10 * time.Second,
			MaxHeaderBytes:    1 << 20, // 1MiB
		},
		voices: voices,
		logger: logger,
	}
}

func newRouter(voices *VoicesHandler, lister VoiceLister, logger *log.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger), ErrorHandler(logger))

	api := r.Group("/api")
	api.GET("/voices", voices.HandleVoices)
	api.HEAD("/voices", voices.HandleVoicesHead)
	api.GET("/voice-styles", voices.HandleStyles)

	r.GET("/healthz", func(c *gin.Context) {
		configured := true
		if a, ok := lister.(*azure.Client); ok {
			configured = a.Configured()
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "azure": configured})
	})

	return r
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Invalidate drops cached catalogs so the next request asks Azure again.
func (s *Server) Invalidate() {
	s.voices.Invalidate()
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Voices API listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down voices API")
	return s.httpServer.Shutdown(ctx)
}
