package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler serves liveness with a database check
type HealthHandler struct {
	db      Pinger
	service string
	version string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db Pinger, service, version string) *HealthHandler {
	return &HealthHandler{db: db, service: service, version: version}
}

// Health reports service status
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	body := gin.H{
		"status":   "ok",
		"service":  h.service,
		"version":  h.version,
		"database": "up",
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if h.db == nil || h.db.PingContext(ctx) != nil {
		body["status"] = "degraded"
		body["database"] = "down"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}

	c.JSON(http.StatusOK, body)
}
