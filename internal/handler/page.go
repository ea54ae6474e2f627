package handler

import (
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-web/internal/middleware"
	appErrors "github.com/noah-isme/sma-adp-web/pkg/errors"
	"github.com/noah-isme/sma-adp-web/pkg/export"
	"github.com/noah-isme/sma-adp-web/pkg/observability"
	"github.com/noah-isme/sma-adp-web/pkg/response"
	"github.com/noah-isme/sma-adp-web/pkg/validation"
)

const schoolNameKey = "schoolName"

const (
	msgInvalidSubmission = "invalid form submission"
	msgInvalidInput      = "invalid form input, check the dates and amounts"
)

// SchoolName exposes the school name to every rendered page.
func SchoolName(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(schoolNameKey, name)
		c.Next()
	}
}

// renderPage renders a page inside the layout. The signed-in user, pending flashes and the
// school name are always available to templates.
func renderPage(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["User"] = middleware.CurrentUser(c)
	data["Flashes"] = middleware.Flashes(c)
	data["SchoolName"] = c.GetString(schoolNameKey)
	c.HTML(status, name, data)
}

// renderError shows the error page. Internal failures are reported and replaced by a generic message.
func renderError(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		reportErr(c, err)
		appErr = appErrors.Clone(appErr, appErrors.ErrInternal.Message)
	}
	renderPage(c, appErr.Status, "error", gin.H{
		"Status":  appErr.Status,
		"Heading": http.StatusText(appErr.Status),
		"Message": appErr.Message,
	})
}

// formFailure maps a failed write to the status and inline message of the re-rendered form.
func formFailure(c *gin.Context, err error) (int, string) {
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		reportErr(c, err)
		return http.StatusInternalServerError, appErrors.ErrInternal.Message
	}
	return http.StatusOK, appErr.Message
}

func reportErr(c *gin.Context, err error) {
	_ = c.Error(err)
	observability.CaptureErr(err)
}

func isNotFound(err error) bool {
	return appErrors.FromError(err).Code == appErrors.ErrNotFound.Code
}

// submitted reports whether the POST carries the submit marker of a form.
func submitted(c *gin.Context, marker string) bool {
	_, ok := c.GetPostForm(marker)
	return ok
}

// redirectWithFlash finishes a successful write with Post/Redirect/Get.
func redirectWithFlash(c *gin.Context, location, kind, message string) {
	if err := middleware.AddFlash(c, kind, message); err != nil {
		_ = c.Error(err)
	}
	c.Redirect(http.StatusFound, location)
}

// dateParam parses an optional YYYY-MM-DD query parameter. Malformed values are ignored.
func dateParam(c *gin.Context, key string) *time.Time {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	t, err := time.Parse(export.DateLayout, raw)
	if err != nil {
		return nil
	}
	return &t
}

// exportQuery carries the list filters over to the export links, minus the format flag.
func exportQuery(c *gin.Context) template.URL {
	values := c.Request.URL.Query()
	values.Del("format")
	return template.URL(values.Encode()) //nolint:gosec
}

func today() string {
	return export.Date(validation.Today())
}

// NotFound answers unmatched routes with JSON under /api and the error page elsewhere.
func NotFound(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	renderError(c, appErrors.Clone(appErrors.ErrNotFound, "the page you requested does not exist"))
}
