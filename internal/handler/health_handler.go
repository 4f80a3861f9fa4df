// internal/handler/health_handler.go
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"device-service/internal/serialio"
	"device-service/internal/storage"
)

// HealthHandler serves the admin surface's health/readiness/liveness
// endpoints, trimmed from the teacher's database-centric health handler to
// cover this driver's two dependencies: the SQLite template store and the
// printer/scale serial ports.
type HealthHandler struct {
	store  *storage.Store
	serial *serialio.Manager
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(store *storage.Store, serial *serialio.Manager) *HealthHandler {
	return &HealthHandler{store: store, serial: serial}
}

// RegisterRoutes registers health check routes.
func (h *HealthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/health", h.HealthCheck)
	router.GET("/ready", h.ReadinessCheck)
	router.GET("/live", h.LivenessCheck)
}

// HealthResponse reports the driver's dependency health.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

// CheckResult reports the outcome of one dependency check.
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthCheck reports the combined health of storage and both serial ports.
// @Summary Health check
// @Description Report storage and serial port health
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	health := &HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Checks:    make(map[string]CheckResult),
	}

	health.Checks["storage"] = h.storageCheck()
	health.Checks["printer"] = h.portCheck("printer", h.serial.PrinterOpen())
	health.Checks["scale"] = h.portCheck("scale", h.serial.ScaleOpen())

	if health.Checks["storage"].Status != "healthy" || health.Checks["printer"].Status != "healthy" {
		health.Status = "unhealthy"
	}

	statusCode := http.StatusOK
	if health.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, health)
}

// storageCheck probes the database with a lookup that will never match a
// real slot; ErrNotFound proves the connection is reachable, any other
// error means the database itself is unhealthy.
func (h *HealthHandler) storageCheck() CheckResult {
	_, err := h.store.GetTemplate(-1)
	if err == nil || errors.Is(err, storage.ErrNotFound) {
		return CheckResult{Status: "healthy"}
	}
	return CheckResult{Status: "unhealthy", Message: err.Error()}
}

func (h *HealthHandler) portCheck(name string, open bool) CheckResult {
	if !open {
		return CheckResult{Status: "unhealthy", Message: name + " serial port not open"}
	}
	return CheckResult{Status: "healthy"}
}

// ReadinessCheck reports whether the driver can accept print jobs.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	if !h.serial.PrinterOpen() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "printer not available",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "timestamp": time.Now()})
}

// LivenessCheck reports that the process is alive and serving requests.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive", "timestamp": time.Now()})
}
