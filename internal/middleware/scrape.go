package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-web/internal/models"
	appErrors "github.com/noah-isme/sma-adp-web/pkg/errors"
	"github.com/noah-isme/sma-adp-web/pkg/response"
)

// RequireScrapeToken admits a request carrying "Authorization: Bearer <token>" or a
// signed-in admin. An empty token disables bearer access.
func RequireScrapeToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token != "" {
			header := c.GetHeader("Authorization")
			if bearer, ok := strings.CutPrefix(header, "Bearer "); ok &&
				subtle.ConstantTimeCompare([]byte(strings.TrimSpace(bearer)), []byte(token)) == 1 {
				c.Next()
				return
			}
		}
		if CurrentUser(c).HasRole(models.RoleAdmin) {
			c.Next()
			return
		}
		c.Header("WWW-Authenticate", `Bearer realm="metrics"`)
		response.Abort(c, appErrors.ErrUnauthorized)
	}
}
