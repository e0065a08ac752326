// Package server exposes the job pipeline over HTTP: job enqueue and
// inspection, usage and badge snapshots, and the SSE event stream.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/raphaelgruber/lifelog/internal/events"
	"github.com/raphaelgruber/lifelog/internal/models"
	"github.com/raphaelgruber/lifelog/internal/ratelimit"
)

// Enqueuer accepts new jobs, satisfied by *jobs.Dispatcher.
type Enqueuer interface {
	Enqueue(ctx context.Context, kind string, params map[string]string) (*models.Job, error)
}

// Store is the read surface the HTTP handlers need.
type Store interface {
	GetJob(ctx context.Context, id string) (*models.Job, error)
	ListJobs(ctx context.Context, limit int) ([]models.Job, error)
	BadgeCounts(ctx context.Context) (map[string]int, error)
}

// UsageSource reports rate budget usage, satisfied by *ratelimit.Tracker.
type UsageSource interface {
	Snapshot() ratelimit.Usage
}

// Server wires the HTTP routes to the pipeline components.
type Server struct {
	dispatcher Enqueuer
	store      Store
	usage      UsageSource
	hub        *events.Hub
	adminToken string
	logger     *slog.Logger

	// exit is swapped out in tests.
	exit func(code int)
}

func New(dispatcher Enqueuer, store Store, usage UsageSource, hub *events.Hub, adminToken string, logger *slog.Logger) *Server {
	return &Server{
		dispatcher: dispatcher,
		store:      store,
		usage:      usage,
		hub:        hub,
		adminToken: adminToken,
		logger:     logger,
		exit:       os.Exit,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	api := r.Group("/api")
	{
		api.POST("/jobs", s.enqueueJob)
		api.GET("/jobs", s.listJobs)
		api.GET("/jobs/:id", s.getJob)
		api.GET("/events", s.streamEvents)
		api.GET("/usage", s.getUsage)
		api.GET("/badges", s.getBadges)
		api.POST("/admin/restart", s.adminRestart)
	}
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}

// HTTPServer wraps the router in an http.Server listening on port.
func (s *Server) HTTPServer(port string) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
