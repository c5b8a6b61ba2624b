package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/customeros/mailgate/dto"
	mailgate_errors "github.com/customeros/mailgate/errors"
	"github.com/customeros/mailgate/internal/logger"
	"github.com/customeros/mailgate/internal/utils"
	"github.com/customeros/mailgate/services/tenant"
)

const (
	HeaderAPIKey = "X-Mailgate-Api-Key"
	HeaderTenant = "X-Tenant"
)

// APIKeyConfig holds the configuration for tenant API key authentication
type APIKeyConfig struct {
	HeaderName string
	Resolver   *tenant.CallerResolver
	Log        logger.Logger
}

// APIKeyMiddleware authenticates the caller against the tenant named in the tenant header.
// On success the tenant id and handle are stored on the gin context.
func APIKeyMiddleware(config APIKeyConfig) gin.HandlerFunc {
	if config.HeaderName == "" {
		config.HeaderName = HeaderAPIKey
	}
	return func(c *gin.Context) {
		apiKey := strings.TrimSpace(c.GetHeader(config.HeaderName))
		handle := c.GetString(utils.GinKeyTenantName)

		found, err := config.Resolver.Resolve(c.Request.Context(), apiKey, handle)
		if err != nil {
			if mailgate_errors.HTTPStatus(err) != http.StatusUnauthorized {
				config.Log.Err("tenant lookup failed", err)
			}
			c.AbortWithStatusJSON(mailgate_errors.HTTPStatus(err), dto.ErrorResponse{
				Error:   mailgate_errors.PublicMessage(err),
				TraceID: c.GetString(utils.GinKeyTraceID),
			})
			return
		}

		c.Set(utils.GinKeyTenantID, found.ID)
		c.Set(utils.GinKeyTenantName, found.Name)
		c.Next()
	}
}
