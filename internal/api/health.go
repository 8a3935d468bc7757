// Package api provides the read-only HTTP status surface of vchain.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/vchain/internal/db"
)

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	store     StatusStore
	log       *logrus.Logger
	version   string
	backend   string
	startTime time.Time
}

// NewHealthHandler creates a HealthHandler. backend names the configured store.
func NewHealthHandler(store StatusStore, log *logrus.Logger, version, backend string) *HealthHandler {
	return &HealthHandler{
		store:     store,
		log:       log,
		version:   version,
		backend:   backend,
		startTime: time.Now(),
	}
}

type healthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Backend       string  `json:"backend"`
	SchemaVersion int     `json:"schema_version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Liveness handles GET /api/v1/health.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:        "ok",
		Version:       h.version,
		Backend:       h.backend,
		SchemaVersion: db.SchemaVersion(),
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	})
}

// Readiness handles GET /api/v1/ready and pings the edge store.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	resp := readinessResponse{Status: "ready", Checks: map[string]string{"store": "ok"}}
	status := http.StatusOK

	if h.store == nil {
		resp.Checks["store"] = "not_configured"
		resp.Status = "not_ready"
		status = http.StatusServiceUnavailable
	} else if err := h.store.Ping(ctx); err != nil {
		h.log.WithError(err).Error("readiness: store ping failed")
		resp.Checks["store"] = "error"
		resp.Status = "not_ready"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, resp)
}
