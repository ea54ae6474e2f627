package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-adp-web/pkg/errors"
	"github.com/noah-isme/sma-adp-web/pkg/middleware/requestid"
	"github.com/noah-isme/sma-adp-web/pkg/observability"
	"github.com/noah-isme/sma-adp-web/pkg/response"
)

const panicPage = `<!doctype html><html><head><title>Error</title></head><body><h1>Something went wrong</h1><p>%s</p><p><a href="/">Back to dashboard</a></p></body></html>`

// Recovery reports panics to Sentry and answers with a generic 500.
func Recovery(logr *zap.Logger) gin.HandlerFunc {
	if logr == nil {
		logr = zap.NewNop()
	}
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			observability.CapturePanic(recovered)
			logr.Error("panic recovered",
				zap.Any("panic", recovered),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Value(c)),
				zap.Stack("stack"),
			)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			if strings.HasPrefix(c.Request.URL.Path, "/api/") {
				response.Error(c, appErrors.ErrInternal)
				c.Abort()
				return
			}
			c.Data(http.StatusInternalServerError, "text/html; charset=utf-8", []byte(fmt.Sprintf(panicPage, appErrors.ErrInternal.Message)))
			c.Abort()
		}()
		c.Next()
	}
}
