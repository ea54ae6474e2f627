package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-web/internal/middleware"
	"github.com/noah-isme/sma-adp-web/internal/models"
	"github.com/noah-isme/sma-adp-web/internal/service"
	appErrors "github.com/noah-isme/sma-adp-web/pkg/errors"
	"github.com/noah-isme/sma-adp-web/pkg/export"
)

type exportService interface {
	Exportable(entity string) bool
	CanExport(entity string, role models.UserRole) bool
	Export(ctx context.Context, entity string, format export.Format, filters service.ExportFilters) (*service.ExportFile, error)
}

// ExportHandler downloads list pages as CSV, PDF, XLSX or printable HTML.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs an ExportHandler.
func NewExportHandler(svc exportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Export serves /export/:entity?format=... using the list filters from the query string.
func (h *ExportHandler) Export(c *gin.Context) {
	entity := c.Param("entity")
	if !h.service.Exportable(entity) {
		renderError(c, appErrors.Clone(appErrors.ErrNotFound, "unknown export type"))
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		renderError(c, appErrors.Wrap(err, appErrors.ErrUnsupportedFormat.Code, appErrors.ErrUnsupportedFormat.Status, appErrors.ErrUnsupportedFormat.Message))
		return
	}
	if !h.service.CanExport(entity, middleware.CurrentUser(c).Role) {
		redirectWithFlash(c, "/", middleware.FlashError, "you do not have permission to export that list")
		return
	}
	file, err := h.service.Export(c.Request.Context(), entity, format, exportFilters(c))
	if err != nil {
		renderError(c, err)
		return
	}
	disposition := "inline"
	if file.Attachment {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
