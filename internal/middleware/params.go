package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequireUUIDParam stops requests whose path parameter cannot be a row id. Every table
// is keyed by UUID, so such a request is answered by notFound before reaching SQL.
func RequireUUIDParam(name string, notFound gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if uuid.Validate(c.Param(name)) != nil {
			notFound(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
