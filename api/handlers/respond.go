package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/customeros/mailgate/dto"
	mailgate_errors "github.com/customeros/mailgate/errors"
	"github.com/customeros/mailgate/internal/logger"
	"github.com/customeros/mailgate/internal/utils"
)

// respondError writes the stable error body. Internal failures are logged with their cause and answered generically.
func respondError(c *gin.Context, log logger.Logger, err error) {
	status := mailgate_errors.HTTPStatus(err)
	traceID := c.GetString(utils.GinKeyTraceID)
	if status == http.StatusInternalServerError {
		log.Logger().Error("request failed",
			zap.String("traceId", traceID),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(status, dto.ErrorResponse{
		Error:   mailgate_errors.PublicMessage(err),
		TraceID: traceID,
	})
}
