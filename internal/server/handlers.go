package server

import (
	"crypto/subtle"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultJobListLimit = 50

type enqueueRequest struct {
	Kind   string            `json:"kind" binding:"required"`
	Params map[string]string `json:"params"`
}

func (s *Server) enqueueJob(c *gin.Context) {
	var req enqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := s.dispatcher.Enqueue(c.Request.Context(), req.Kind, req.Params)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, job)
}

func (s *Server) listJobs(c *gin.Context) {
	limit := defaultJobListLimit
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	jobs, err := s.store.ListJobs(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func (s *Server) getJob(c *gin.Context) {
	job, err := s.store.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) getUsage(c *gin.Context) {
	c.JSON(http.StatusOK, s.usage.Snapshot())
}

func (s *Server) getBadges(c *gin.Context) {
	badges, err := s.store.BadgeCounts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"badges": badges})
}

// streamEvents serves the SSE feed. The hub pushes a "connected" event
// first; the stream ends when the client goes away or the hub drops it
// for falling behind.
func (s *Server) streamEvents(c *gin.Context) {
	id, ch := s.hub.Register()
	defer s.hub.Unregister(id)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Kind, ev.Payload)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// adminRestart exits the process after flushing the response, letting
// the process supervisor bring it back up. Requires the configured
// bearer token.
func (s *Server) adminRestart(c *gin.Context) {
	if s.adminToken == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin restart not configured"})
		return
	}
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	s.logger.Info("restart requested, exiting shortly")
	c.JSON(http.StatusOK, gin.H{"status": "restarting"})

	go func() {
		time.Sleep(500 * time.Millisecond)
		s.exit(0)
	}()
}
