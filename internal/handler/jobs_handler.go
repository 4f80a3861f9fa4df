// internal/handler/jobs_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"device-service/internal/server"
)

// JobsHandler exposes the label server's connection/job counters and
// recent-jobs history over the admin HTTP surface.
type JobsHandler struct {
	srv *server.Server
}

// NewJobsHandler creates a jobs handler.
func NewJobsHandler(srv *server.Server) *JobsHandler {
	return &JobsHandler{srv: srv}
}

// RegisterRoutes registers job-counter and recent-jobs routes.
func (h *JobsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/jobs/recent", h.RecentJobs)
	router.GET("/jobs/stats", h.Stats)
}

// RecentJobs returns the most recently completed print jobs.
func (h *JobsHandler) RecentJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": h.srv.RecentJobs()})
}

// Stats returns connection and job-throughput counters.
func (h *JobsHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"active_connections": h.srv.ActiveConnections(),
		"total_jobs":         h.srv.TotalJobs(),
	})
}
