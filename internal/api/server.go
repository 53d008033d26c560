package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coclip/coclip-agent/internal/catalog"
	"github.com/coclip/coclip-agent/internal/interaction"
	"github.com/coclip/coclip-agent/internal/pipeline"
	"github.com/coclip/coclip-agent/internal/playback"
	"github.com/coclip/coclip-agent/internal/timeline"
)

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// ServerConfig carries everything the handlers reach. Document, Controller
// and Clock are required; the catalog side may be nil in tests that only
// exercise the timeline.
type ServerConfig struct {
	Port       int
	Document   *timeline.Document
	Controller *interaction.Controller
	Clock      *playback.Clock
	Media      playback.AssetServer
	Catalog    *catalog.Service
	Repository catalog.Repository
	Runner     *catalog.Runner
	Doctor     *pipeline.CachedDoctor
	ExportDir  string
	Logger     *slog.Logger
	StartTime  time.Time
	Version    string
	DeviceID   string
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:        fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:     router,
			ReadTimeout: 15 * time.Second,
			// Media responses stream for as long as the renderer reads.
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
