package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/customeros/mailgate/internal/utils"
)

var tenantHeaders = []string{HeaderTenant, "Tenant", "TenantName"}

// TenantHeaderMiddleware reads the caller's tenant handle. Authentication decides whether it is valid.
func TenantHeaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := ""
		for _, header := range tenantHeaders {
			if value := c.GetHeader(header); value != "" {
				tenant = value
				break
			}
		}

		c.Set(utils.GinKeyTenantName, tenant)
		c.Next()
	}
}
