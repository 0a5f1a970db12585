package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/haven-care/carehome-api/internal/service"
	"github.com/haven-care/carehome-api/pkg/response"
)

// MetricsHandler exposes operational endpoints: Prometheus scrape, health
// probes and an admin snapshot.
type MetricsHandler struct {
	metrics *service.MetricsService
	started time.Time
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, started: time.Now()}
}

// Prometheus serves the Prometheus scrape endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health godoc
// @Summary Liveness probe
// @Tags Operations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /health [get]
func (h *MetricsHandler) Health(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(h.started).String(),
	}, nil)
}

// Snapshot godoc
// @Summary Aggregate system metrics snapshot
// @Description Platform administration view of request, cache and query metrics
// @Tags Operations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/metrics [get]
func (h *MetricsHandler) Snapshot(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}
