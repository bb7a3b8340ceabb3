package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// APIVersion is the current version of the API
const APIVersion = "1.0.0"

// HealthHandler handles health check and readiness endpoints.
type HealthHandler struct {
	startTime time.Time
	env       string
}

// NewHealthHandler creates a new HealthHandler instance.
func NewHealthHandler(env string) *HealthHandler {
	return &HealthHandler{
		startTime: time.Now(),
		env:       env,
	}
}

// HealthResponse represents the basic health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// InfoResponse represents the API information response.
type InfoResponse struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Uptime      string `json:"uptime"`
}

// Health handles GET /health. Basic liveness check, always 200 OK.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "healthy",
	})
}

// Ready handles GET /health/ready. The service keeps no connections or
// state of its own, so readiness follows liveness.
func (h *HealthHandler) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "ready",
	})
}

// Info handles GET /api/v1/info.
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		Version:     APIVersion,
		Environment: h.env,
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
	})
}
