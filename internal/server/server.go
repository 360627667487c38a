// Package server exposes the scan orchestrator over HTTP. All error
// responses use a structured envelope carrying a machine-readable code.
package server

import (
	"log/slog"
	"net/http"
	"sync"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"

	"github.com/kestrelsec/scanflow/internal/engine"
	"github.com/kestrelsec/scanflow/internal/metrics"
	"github.com/kestrelsec/scanflow/internal/store"
	"github.com/kestrelsec/scanflow/internal/util"
	"github.com/kestrelsec/scanflow/pkg/events"
)

// Server implements the HTTP API for the orchestrator
type Server struct {
	engine  *engine.Engine
	store   *store.Store
	metrics *metrics.Aggregator
	hub     *events.Hub
	sockets util.Set[*Client]
	mu      sync.Mutex
}

// NewServer creates an HTTP API server over the given collaborators
func NewServer(
	eng *engine.Engine, st *store.Store, agg *metrics.Aggregator,
	hub *events.Hub,
) *Server {
	return &Server{
		engine:  eng,
		store:   st,
		metrics: agg,
		hub:     hub,
		sockets: util.Set[*Client]{},
	}
}

// SetupRoutes configures and returns the HTTP router with all API endpoints
func (s *Server) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(c *gin.Context, l *slog.Logger) *slog.Logger {
			return slog.Default()
		}),
	))

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set(
			"Access-Control-Allow-Methods",
			"GET, POST, PUT, DELETE, OPTIONS",
		)
		c.Writer.Header().Set(
			"Access-Control-Allow-Headers",
			"Content-Type, Authorization",
		)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	// Health check
	router.GET("/health", s.handleHealth)

	// Flow endpoints
	flows := router.Group("/flows")
	{
		flows.POST("", s.createFlow)
		flows.GET("", s.listFlows)
		flows.GET("/active", s.listActiveFlows)
		flows.POST("/query", s.queryFlows)
		flows.GET("/:flowID", s.getFlow)
		flows.GET("/:flowID/logs", s.getFlowLogs)
		flows.GET("/:flowID/results", s.getFlowResults)
	}

	// Fleet metrics
	router.GET("/metrics", s.getMetrics)

	// WebSocket event feed
	router.GET("/ws", s.handleWebSocket)

	return router
}

func (s *Server) registerWebSocket(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sockets.Add(c)
}

func (s *Server) unregisterWebSocket(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sockets.Remove(c)
}

// CloseWebSockets closes all active WebSocket connections.
func (s *Server) CloseWebSockets() {
	s.mu.Lock()
	conns := make([]*Client, 0, len(s.sockets))
	for c := range s.sockets {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}
