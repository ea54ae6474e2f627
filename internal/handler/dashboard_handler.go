package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-web/internal/middleware"
	"github.com/noah-isme/sma-adp-web/internal/models"
	"github.com/noah-isme/sma-adp-web/internal/service"
)

type dashboardService interface {
	View(ctx context.Context, user *models.SessionUser) (*service.DashboardView, error)
}

// DashboardHandler wires the dashboard service to the home page.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Home renders the counters for the signed-in user.
func (h *DashboardHandler) Home(c *gin.Context) {
	view, err := h.service.View(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		renderError(c, err)
		return
	}
	middleware.SetCacheHit(c, view.Cached)
	renderPage(c, http.StatusOK, "dashboard", gin.H{"View": view})
}
