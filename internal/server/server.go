package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mcptap/internal/sink"
	"mcptap/internal/stats"
)

// Server broadcasts the proxy's plain log lines to WebSocket subscribers
// and exposes session counters over HTTP.
type Server struct {
	engine *gin.Engine
	hub    *sink.Hub
	stats  *stats.Collector
	addr   string
}

// New creates a broadcast server reading from the given hub.
func New(h *sink.Hub, c *stats.Collector, addr string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine: engine,
		hub:    h,
		stats:  c,
		addr:   addr,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		snap := s.stats.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"status":        "ok",
			"uptime":        snap.Uptime,
			"total":         snap.Total,
			"subscribers":   snap.Subscribers,
			"dropped_lines": snap.DroppedLines,
		})
	})

	s.engine.GET("/api/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.stats.Snapshot())
	})

	s.engine.GET("/ws", s.handleWebSocket)
}

// Start runs the server. Blocks until the listener fails or is closed.
func (s *Server) Start() error {
	return s.engine.Run(s.addr)
}
