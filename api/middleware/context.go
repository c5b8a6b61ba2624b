package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/customeros/mailgate/internal/utils"
)

// CustomContextMiddleware copies the trace id and tenant from gin keys onto the request context
func CustomContextMiddleware(appSource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := utils.WithCustomContextFromGinRequest(c, appSource)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
