package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"ichimoku-monitor/internal/monitor"
	"ichimoku-monitor/internal/state"
	"ichimoku-monitor/internal/strategy"
)

// Server exposes read-only monitoring state over HTTP
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	logger     zerolog.Logger

	monitor  *monitor.Monitor
	detector *strategy.Detector
	store    *state.Store
	started  time.Time

	host string
	port int
}

func NewServer(host string, port int, mon *monitor.Monitor, det *strategy.Detector, store *state.Store, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		router:   router,
		logger:   logger.With().Str("component", "APIServer").Logger(),
		monitor:  mon,
		detector: det,
		store:    store,
		started:  time.Now(),
		host:     host,
		port:     port,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api/v1")
	{
		api.GET("/status", s.handleStatus)
		api.GET("/strategy", s.handleStrategy)
		api.GET("/state", s.handleState)
	}
}

// Start runs the server until Shutdown is called
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info().Str("addr", addr).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

// handleStatus reports the latest detection results per symbol
func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.monitor.Status())
}

// handleStrategy reports the active strategy definition
func (s *Server) handleStrategy(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":       s.detector.Name(),
		"parameters": s.detector.Parameters(),
		"rules":      s.detector.Rules(),
	})
}

// handleState reports the persisted signal records
func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.All())
}
