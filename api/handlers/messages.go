package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	api_errors "github.com/customeros/mailgate/api/errors"
	mailgate_errors "github.com/customeros/mailgate/errors"
	"github.com/customeros/mailgate/internal/enum"
	"github.com/customeros/mailgate/internal/logger"
	"github.com/customeros/mailgate/internal/utils"
	"github.com/customeros/mailgate/services/messages"
)

type MessagesHandler struct {
	log      logger.Logger
	messages *messages.Service
}

func NewMessagesHandler(log logger.Logger, messages *messages.Service) *MessagesHandler {
	return &MessagesHandler{
		log:      log,
		messages: messages,
	}
}

func (h *MessagesHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, err := parseListFilter(c)
		if err != nil {
			respondError(c, h.log, err)
			return
		}

		page, err := h.messages.List(c.Request.Context(), c.GetUint64(utils.GinKeyTenantID), filter)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

func (h *MessagesHandler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		detail, err := h.messages.Detail(c.Request.Context(), c.GetUint64(utils.GinKeyTenantID), c.Param("id"))
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"item": detail})
	}
}

func (h *MessagesHandler) Raw() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := h.messages.Raw(c.Request.Context(), c.GetUint64(utils.GinKeyTenantID), c.Param("id"))
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, raw)
	}
}

func parseListFilter(c *gin.Context) (messages.ListFilter, error) {
	errs := api_errors.NewMultiErrors()
	filter := messages.ListFilter{
		Query: c.Query("q"),
		DKIM:  parseVerdict(c, "dkim", errs),
		DMARC: parseVerdict(c, "dmarc", errs),
		ARC:   parseVerdict(c, "arc", errs),
	}

	if value := c.Query("domainId"); value != "" {
		id, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			errs.Add("domainId", "must be a positive integer", err)
		} else {
			filter.DomainID = &id
		}
	}
	filter.SpamMin = parseFloat(c, "spamMin", errs)
	filter.SpamMax = parseFloat(c, "spamMax", errs)
	filter.ReceivedFrom = parseTime(c, "receivedFrom", errs)
	filter.ReceivedTo = parseTime(c, "receivedTo", errs)
	filter.Page = parseInt(c, "page", errs)
	filter.PerPage = parseInt(c, "perPage", errs)

	if errs.HasErrors() {
		return filter, errors.Wrap(mailgate_errors.ErrInvalidQuery, errs.Error())
	}
	return filter, nil
}

func parseFloat(c *gin.Context, name string, errs *api_errors.MultiErrors) *float64 {
	value := c.Query(name)
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		errs.Add(name, "must be a number", err)
		return nil
	}
	return &parsed
}

func parseInt(c *gin.Context, name string, errs *api_errors.MultiErrors) int {
	value := c.Query(name)
	if value == "" {
		return 0
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 {
		errs.Add(name, "must be a positive integer", err)
		return 0
	}
	return parsed
}

func parseTime(c *gin.Context, name string, errs *api_errors.MultiErrors) *time.Time {
	value := c.Query(name)
	if value == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		errs.Add(name, "must be an RFC3339 timestamp", err)
		return nil
	}
	return &parsed
}

func parseVerdict(c *gin.Context, name string, errs *api_errors.MultiErrors) string {
	value := strings.ToLower(strings.TrimSpace(c.Query(name)))
	switch enum.AuthVerdict(value) {
	case enum.AuthVerdictUnknown, enum.AuthVerdictPass, enum.AuthVerdictFail, enum.AuthVerdictNone:
		return value
	default:
		errs.Add(name, "must be one of pass, fail, none", nil)
		return ""
	}
}
