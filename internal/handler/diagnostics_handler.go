package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-web/internal/middleware"
	"github.com/noah-isme/sma-adp-web/internal/models"
	"github.com/noah-isme/sma-adp-web/pkg/response"
)

type diagnosticsService interface {
	Collect(ctx context.Context) models.Diagnostics
	FlushCache(ctx context.Context) (int64, error)
}

// DiagnosticsHandler exposes cache, database and runtime statistics to administrators.
type DiagnosticsHandler struct {
	service diagnosticsService
}

// NewDiagnosticsHandler constructs the handler.
func NewDiagnosticsHandler(svc diagnosticsService) *DiagnosticsHandler {
	return &DiagnosticsHandler{service: svc}
}

// Page renders the diagnostics page.
func (h *DiagnosticsHandler) Page(c *gin.Context) {
	diag := h.service.Collect(c.Request.Context())
	renderPage(c, http.StatusOK, "diagnostics", gin.H{"Diag": diag})
}

// JSON godoc
// @Summary Diagnostics snapshot
// @Tags Diagnostics
// @Produce json
// @Success 200 {object} models.Diagnostics
// @Failure 403 {object} response.ErrorBody
// @Router /api/admin/diagnostics [get]
func (h *DiagnosticsHandler) JSON(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Collect(c.Request.Context()))
}

// FlushCache empties the application cache.
func (h *DiagnosticsHandler) FlushCache(c *gin.Context) {
	removed, err := h.service.FlushCache(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	redirectWithFlash(c, "/admin/diagnostics", middleware.FlashSuccess, fmt.Sprintf("cache flushed, %d keys removed", removed))
}

type pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler answers liveness and readiness probes.
type HealthHandler struct {
	db pinger
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(db pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health godoc
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready godoc
// @Summary Readiness check
// @Description Pings the database
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if h.db == nil || h.db.PingContext(ctx) != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
