package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/customeros/mailgate/internal/utils"
)

const HeaderTraceID = "X-Trace-Id"

// TraceIDMiddleware assigns the request trace id and echoes it on every response.
func TraceIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := utils.GenerateTraceID()
		c.Set(utils.GinKeyTraceID, traceID)
		c.Header(HeaderTraceID, traceID)
		c.Next()
	}
}
