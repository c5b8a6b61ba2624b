package messages

import (
	"context"
	"encoding/base64"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/k3a/html2text"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/customeros/mailgate/dto"
	mailgate_errors "github.com/customeros/mailgate/errors"
	"github.com/customeros/mailgate/interfaces"
	"github.com/customeros/mailgate/internal/logger"
	"github.com/customeros/mailgate/internal/models"
	"github.com/customeros/mailgate/internal/tracing"
	"github.com/customeros/mailgate/internal/utils"
	"github.com/customeros/mailgate/services/mime_extractor"
	"github.com/customeros/mailgate/services/storage"
)

const (
	MaxBodyBytes    = 262144
	TruncatedMarker = "\n[truncated]"
	snippetRunes    = 200
)

// Service is the read side. Bodies and attachments are re-derived from the raw artifact on every call.
type Service struct {
	log       logger.Logger
	messages  interfaces.InboundMessageRepository
	storage   interfaces.StorageService
	extractor interfaces.MimeExtractor
}

func NewService(log logger.Logger, messages interfaces.InboundMessageRepository, store interfaces.StorageService, extractor interfaces.MimeExtractor) *Service {
	return &Service{
		log:       log,
		messages:  messages,
		storage:   store,
		extractor: extractor,
	}
}

func (s *Service) List(ctx context.Context, tenantID uint64, filter ListFilter) (*dto.MessagePage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MessageService.List")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	filter = filter.normalized()
	all, err := s.messages.ListByTenant(ctx, tenantID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "list messages")
	}

	matched := make([]models.InboundMessage, 0, len(all))
	for i := range all {
		if filter.Matches(&all[i]) {
			matched = append(matched, all[i])
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].ReceivedAt.Equal(matched[j].ReceivedAt) {
			return matched[i].ReceivedAt.After(matched[j].ReceivedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	page := &dto.MessagePage{
		Meta: dto.PageMeta{
			Page:       filter.Page,
			PerPage:    filter.PerPage,
			Total:      total,
			TotalPages: (total + filter.PerPage - 1) / filter.PerPage,
		},
		Items: []dto.MessageSummary{},
	}
	start := (filter.Page - 1) * filter.PerPage
	if start >= total {
		return page, nil
	}
	end := start + filter.PerPage
	if end > total {
		end = total
	}
	for i := start; i < end; i++ {
		page.Items = append(page.Items, dto.NewMessageSummary(&matched[i]))
	}
	return page, nil
}

func (s *Service) Detail(ctx context.Context, tenantID uint64, id string) (*dto.MessageDetail, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MessageService.Detail")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, id)

	message, raw, err := s.load(ctx, tenantID, id)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	parsed, err := s.extractor.Extract(raw)
	if err != nil {
		s.log.Logger().Error("stored artifact could not be parsed",
			zap.String("messageId", message.ID),
			zap.String("key", message.RawMimeRef),
			zap.String("parser", s.extractor.Name()),
			zap.Int("size", len(raw)),
			zap.String("reason", "mime parse failed"))
		tracing.TraceErr(span, mime_extractor.ErrUnparseable)
		return nil, errors.Wrap(mailgate_errors.ErrStorageFailure, "stored artifact could not be parsed")
	}

	attachments := parsed.Attachments
	if attachments == nil {
		attachments = []dto.Attachment{}
	}
	headers := parsed.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	return &dto.MessageDetail{
		MessageSummary: dto.NewMessageSummary(message),
		Headers:        headers,
		Body: dto.MessageBody{
			Text: Truncate(parsed.Text, MaxBodyBytes),
			HTML: Truncate(parsed.HTML, MaxBodyBytes),
		},
		Snippet:     Snippet(parsed.Text, parsed.HTML),
		Attachments: attachments,
	}, nil
}

func (s *Service) Raw(ctx context.Context, tenantID uint64, id string) (*dto.RawMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MessageService.Raw")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, id)

	message, raw, err := s.load(ctx, tenantID, id)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &dto.RawMessage{
		Filename: message.ID + ".eml",
		MimeB64:  base64.StdEncoding.EncodeToString(raw),
	}, nil
}

// load fetches the tenant-scoped row and its artifact. Another tenant's id is indistinguishable from a missing one.
func (s *Service) load(ctx context.Context, tenantID uint64, id string) (*models.InboundMessage, []byte, error) {
	message, err := s.messages.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, nil, errors.Wrap(err, "get message")
	}
	if message == nil {
		return nil, nil, errors.Wrapf(mailgate_errors.ErrNotFound, "message %s", id)
	}

	raw, err := s.storage.Download(ctx, message.RawMimeRef)
	if err != nil {
		fields := []zap.Field{
			zap.String("traceId", utils.GetTraceIDFromContext(ctx)),
			zap.String("messageId", message.ID),
			zap.Uint64("tenantId", message.TenantID),
			zap.String("key", message.RawMimeRef),
			zap.Error(err),
		}
		if errors.Is(err, storage.ErrObjectNotFound) {
			s.log.Logger().Error("broken raw artifact reference", fields...)
			return nil, nil, errors.Wrapf(mailgate_errors.ErrNotFound, "raw artifact for message %s", id)
		}
		s.log.Logger().Error("raw artifact download failed", fields...)
		return nil, nil, errors.Wrap(mailgate_errors.ErrStorageFailure, "raw artifact download failed")
	}
	return message, raw, nil
}

// Truncate cuts s to at most max bytes on a rune boundary and appends the truncation marker.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + TruncatedMarker
}

// Snippet is a short single-line preview taken from the text body, or the HTML rendered to text.
func Snippet(text, html string) string {
	source := text
	if strings.TrimSpace(source) == "" && html != "" {
		source = html2text.HTML2Text(html)
	}
	source = strings.Join(strings.Fields(source), " ")
	if utf8.RuneCountInString(source) <= snippetRunes {
		return source
	}
	return string([]rune(source)[:snippetRunes])
}
