package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/customeros/mailgate/config"
	"github.com/customeros/mailgate/dto"
	mailgate_errors "github.com/customeros/mailgate/errors"
	"github.com/customeros/mailgate/internal/logger"
	"github.com/customeros/mailgate/internal/tracing"
	"github.com/customeros/mailgate/internal/utils"
	"github.com/customeros/mailgate/services/ingestion"
)

type InboundHandler struct {
	cfg       *config.IngestConfig
	log       logger.Logger
	ingestion *ingestion.Service
}

func NewInboundHandler(cfg *config.IngestConfig, log logger.Logger, ingestion *ingestion.Service) *InboundHandler {
	return &InboundHandler{
		cfg:       cfg,
		log:       log,
		ingestion: ingestion,
	}
}

// Submit accepts one message from the relay: 201 when stored, 204 when no route asked to keep it.
func (h *InboundHandler) Submit() gin.HandlerFunc {
	return func(c *gin.Context) {
		trace := tracing.NewRequestTrace(c.GetString(utils.GinKeyTraceID), h.log)

		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				err = errors.Wrapf(mailgate_errors.ErrInvalidEnvelope, "body exceeds %d bytes", tooLarge.Limit)
			} else {
				err = errors.Wrap(mailgate_errors.ErrInvalidEnvelope, "body could not be read")
			}
			trace.Fail("read", err)
			respondError(c, h.log, err)
			return
		}

		result, err := h.ingestion.Ingest(c.Request.Context(), trace, ingestion.Submission{
			ContentType: c.GetHeader("Content-Type"),
			Header:      c.Request.Header,
			Body:        body,
		})
		if err != nil {
			respondError(c, h.log, err)
			return
		}

		if !result.Stored {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusCreated, dto.InboundResponse{
			Item:            dto.NewMessageSummary(result.Message),
			MatchedRouteIDs: result.MatchedRouteIDs,
			TraceID:         result.TraceID,
		})
	}
}
