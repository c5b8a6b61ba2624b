package ingestion

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/customeros/mailgate/config"
	"github.com/customeros/mailgate/dto"
	mailgate_errors "github.com/customeros/mailgate/errors"
	"github.com/customeros/mailgate/interfaces"
	"github.com/customeros/mailgate/internal/enum"
	"github.com/customeros/mailgate/internal/logger"
	"github.com/customeros/mailgate/internal/metrics"
	"github.com/customeros/mailgate/internal/models"
	"github.com/customeros/mailgate/internal/repository"
	"github.com/customeros/mailgate/internal/tracing"
	"github.com/customeros/mailgate/internal/utils"
	"github.com/customeros/mailgate/services/authresults"
	"github.com/customeros/mailgate/services/envelope"
	"github.com/customeros/mailgate/services/mime_extractor"
	"github.com/customeros/mailgate/services/routing"
	"github.com/customeros/mailgate/services/storage"
	"github.com/customeros/mailgate/services/tenant"
)

const (
	rawMimeContentType = "message/rfc822"
	maxSubjectRunes    = 1000
	maxAddressRunes    = 255
)

// Submission is the unparsed request as received from the relay.
type Submission struct {
	ContentType string
	Header      http.Header
	Body        []byte
}

type Result struct {
	Stored          bool
	Message         *models.InboundMessage
	MatchedRouteIDs []uint64
	TraceID         string
}

type Service struct {
	cfg        *config.IngestConfig
	log        logger.Logger
	extractor  interfaces.MimeExtractor
	resolver   *tenant.RecipientResolver
	domains    interfaces.DomainRepository
	routes     interfaces.RouteRepository
	messages   interfaces.InboundMessageRepository
	storage    interfaces.StorageService
	dispatcher interfaces.DeliveryDispatcher
	now        func() time.Time
	inflight   sync.WaitGroup
}

func NewService(cfg *config.IngestConfig, log logger.Logger, repos *repository.Repositories,
	store interfaces.StorageService, extractor interfaces.MimeExtractor, dispatcher interfaces.DeliveryDispatcher) *Service {
	return &Service{
		cfg:        cfg,
		log:        log,
		extractor:  extractor,
		resolver:   tenant.NewRecipientResolver(repos.DomainRepository, repos.TenantRepository),
		domains:    repos.DomainRepository,
		routes:     repos.RouteRepository,
		messages:   repos.InboundMessageRepository,
		storage:    store,
		dispatcher: dispatcher,
		now:        utils.Now,
	}
}

// Wait blocks until every pending delivery hand-off has returned.
func (s *Service) Wait() {
	s.inflight.Wait()
}

// Ingest authenticates, decodes and routes one submission, persisting it only when a store route matched.
// Returned errors wrap the mailgate_errors taxonomy.
func (s *Service) Ingest(ctx context.Context, trace *tracing.RequestTrace, submission Submission) (result *Result, err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IngestionService.Ingest")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag(tracing.SpanTagTraceId, trace.ID)

	defer func() {
		metrics.IngestRequestsTotal.WithLabelValues(outcome(result, err)).Inc()
		if err != nil {
			tracing.TraceErr(span, err)
		}
	}()

	// signature
	if s.cfg.SignatureEnforced() {
		if err := VerifySignature(s.cfg.WebhookSecret, submission.Header.Get(s.cfg.SignatureHeader), submission.Body); err != nil {
			trace.Fail("signature", err)
			return nil, err
		}
		trace.Step("signature", zap.String("signature", "verified"))
	} else {
		trace.Logger().Logger().Warn("inbound stage", zap.String("stage", "signature"), zap.String("signature", "skipped"))
	}

	env, err := envelope.Decode(submission.ContentType, submission.Header, submission.Body)
	if err != nil {
		trace.Fail("decode", err, zap.Int("bytes", len(submission.Body)))
		return nil, err
	}
	trace.Step("decode", zap.Int("mimeBytes", len(env.RawMime)), zap.Int("recipients", len(env.Recipients)))
	if len(env.Ignored) > 0 {
		trace.Logger().Logger().Warn("inbound stage", zap.String("stage", "decode"), zap.Strings("ignored", env.Ignored))
	}

	parsed, err := s.extractor.Extract(env.RawMime)
	if err != nil {
		// parser errors quote the input, so only a fixed reason is logged
		trace.FailReason("extract", "mime parse failed", zap.String("parser", s.extractor.Name()), zap.Int("mimeBytes", len(env.RawMime)))
		return nil, errors.Wrap(mailgate_errors.ErrInvalidEnvelope, "mime could not be parsed")
	}
	trace.Step("extract",
		zap.String("parser", s.extractor.Name()),
		zap.Int("headers", len(parsed.Headers)),
		zap.Int("attachments", len(parsed.Attachments)),
		zap.Int("textBytes", len(parsed.Text)),
		zap.Int("htmlBytes", len(parsed.HTML)),
	)

	verdicts := authresults.Resolve(env.AuthResults, parsed.Headers)
	trace.Step("auth",
		zap.String("dkim", verdicts.DKIM.String()),
		zap.String("dmarc", verdicts.DMARC.String()),
		zap.String("arc", verdicts.ARC.String()),
	)

	domain, owner, err := s.resolver.Resolve(ctx, env.Recipients[0])
	if err != nil {
		trace.Fail("resolve", err)
		return nil, err
	}
	ctx = utils.WithCustomContext(ctx, &utils.CustomContext{TraceID: trace.ID, TenantID: owner.ID, Tenant: owner.Name})
	trace.Step("resolve", zap.Uint64("tenantId", owner.ID), zap.Uint64("domainId", domain.ID))

	compiled, err := s.loadRoutes(ctx, trace, owner.ID)
	if err != nil {
		return nil, err
	}

	sender := env.MailFrom
	if sender == "" {
		sender = mime_extractor.FromAddress(parsed.Headers)
	}
	decision := routing.Evaluate(routing.RoutingContext{
		TenantID:   owner.ID,
		DomainID:   domain.ID,
		Recipients: env.Recipients,
		Sender:     sender,
		Headers:    parsed.Headers,
		SpamScore:  env.SpamScore,
		DKIM:       verdicts.DKIM,
		TLS:        env.TLS,
	}, compiled)
	recordMatches(compiled, decision)
	trace.Step("evaluate",
		zap.Bool("store", decision.ShouldStore),
		zap.Int("matched", len(decision.MatchedRouteIDs)),
		zap.Int("notify", len(decision.NotifyTargets)),
		zap.Int("forward", len(decision.ForwardTargets)),
		zap.Bool("stopped", decision.StoppedBy != nil),
	)

	if !decision.ShouldStore {
		trace.Step("done", zap.Bool("stored", false))
		return &Result{Stored: false, MatchedRouteIDs: decision.MatchedRouteIDs, TraceID: trace.ID}, nil
	}

	now := s.now()
	key := storage.NewRawMimeKey(owner.ID, now)
	if err := s.storage.Upload(ctx, key, env.RawMime, rawMimeContentType); err != nil {
		trace.Fail("persist", err, zap.Uint64("tenantId", owner.ID), zap.String("key", key), zap.Int("bytes", len(env.RawMime)))
		return nil, errors.Wrap(mailgate_errors.ErrStorageFailure, "raw mime upload failed")
	}
	metrics.IngestMessageBytes.Observe(float64(len(env.RawMime)))
	trace.Step("persist", zap.String("key", key), zap.Int("bytes", len(env.RawMime)))

	receivedAt := now
	if env.ReceivedAt != nil {
		receivedAt = *env.ReceivedAt
	}
	fromEmail := mime_extractor.FromAddress(parsed.Headers)
	if fromEmail == "" {
		fromEmail = env.MailFrom
	}
	message := &models.InboundMessage{
		TenantID:        owner.ID,
		DomainID:        domain.ID,
		FromEmail:       truncateRunes(fromEmail, maxAddressRunes),
		Subject:         truncateRunes(parsed.Headers["subject"], maxSubjectRunes),
		Recipients:      env.Recipients,
		RawMimeRef:      key,
		RawSize:         len(env.RawMime),
		SpamScore:       env.SpamScore,
		DKIMResult:      verdicts.DKIM.Ptr(),
		DMARCResult:     verdicts.DMARC.Ptr(),
		ARCResult:       verdicts.ARC.Ptr(),
		TLS:             env.TLS,
		MatchedRouteIDs: routeIDStrings(decision.MatchedRouteIDs),
		ReceivedAt:      receivedAt.UTC(),
	}
	if err := s.messages.Create(ctx, message); err != nil {
		trace.Fail("record", err, zap.Uint64("tenantId", owner.ID), zap.String("key", key))
		if delErr := s.storage.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			trace.Logger().Logger().Error("orphaned raw artifact could not be removed",
				zap.String("stage", "record"), zap.String("key", key), zap.Error(delErr))
		}
		return nil, errors.Wrap(mailgate_errors.ErrStorageFailure, "message record could not be created")
	}
	trace.Step("record", zap.String("messageId", message.ID))

	handoffs := s.handOff(ctx, trace, message, decision)
	trace.Step("handoff", zap.Int("dispatched", handoffs))

	trace.Step("done", zap.Bool("stored", true), zap.String("messageId", message.ID))
	return &Result{
		Stored:          true,
		Message:         message,
		MatchedRouteIDs: decision.MatchedRouteIDs,
		TraceID:         trace.ID,
	}, nil
}

// loadRoutes reads the tenant's routes and domains fresh for every request.
func (s *Service) loadRoutes(ctx context.Context, trace *tracing.RequestTrace, tenantID uint64) ([]routing.CompiledRoute, error) {
	routes, err := s.routes.ListByTenant(ctx, tenantID)
	if err != nil {
		trace.Fail("routes", err)
		return nil, errors.Wrap(err, "load routes")
	}
	domains, err := s.domains.ListByTenant(ctx, tenantID)
	if err != nil {
		trace.Fail("routes", err)
		return nil, errors.Wrap(err, "load tenant domains")
	}
	owned := make(map[uint64]bool, len(domains))
	for _, d := range domains {
		owned[d.ID] = true
	}

	compiled, skipped := routing.Compile(routes, owned)
	for _, skip := range skipped {
		trace.Logger().Logger().Warn("route skipped", zap.Uint64("routeId", skip.ID), zap.String("reason", skip.Reason))
	}
	trace.Step("routes", zap.Int("loaded", len(routes)), zap.Int("usable", len(compiled)), zap.Int("skipped", len(skipped)))
	return compiled, nil
}

// handOff dispatches notify and forward targets off the request path. Failures are logged and counted only.
func (s *Service) handOff(ctx context.Context, trace *tracing.RequestTrace, message *models.InboundMessage, decision routing.Decision) int {
	var handoffs []dto.Handoff
	if len(decision.NotifyTargets) > 0 {
		handoffs = append(handoffs, s.newHandoff(enum.HandoffNotify, trace, message, decision.NotifyTargets))
	}
	if len(decision.ForwardTargets) > 0 {
		handoffs = append(handoffs, s.newHandoff(enum.HandoffForward, trace, message, decision.ForwardTargets))
	}
	if len(handoffs) == 0 || s.dispatcher == nil {
		return 0
	}

	detached := context.WithoutCancel(ctx)
	log := trace.Logger()
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer tracing.RecoverAndLogToJaeger(log)

		for _, handoff := range handoffs {
			if err := s.dispatcher.Dispatch(detached, handoff); err != nil {
				metrics.DeliveryHandoffTotal.WithLabelValues(handoff.Kind.String(), metrics.ResultError).Inc()
				log.Logger().Error("delivery handoff failed",
					zap.String("kind", handoff.Kind.String()),
					zap.String("messageId", handoff.MessageID),
					zap.Int("targets", len(handoff.Targets)),
					zap.Error(err))
				continue
			}
			metrics.DeliveryHandoffTotal.WithLabelValues(handoff.Kind.String(), metrics.ResultOK).Inc()
		}
	}()
	return len(handoffs)
}

func (s *Service) newHandoff(kind enum.HandoffKind, trace *tracing.RequestTrace, message *models.InboundMessage, targets []string) dto.Handoff {
	return dto.Handoff{
		Kind:       kind,
		TenantID:   message.TenantID,
		MessageID:  message.ID,
		RawMimeRef: message.RawMimeRef,
		Targets:    targets,
		TraceID:    trace.ID,
	}
}

func recordMatches(compiled []routing.CompiledRoute, decision routing.Decision) {
	actions := make(map[uint64]enum.RouteAction, len(compiled))
	for _, r := range compiled {
		actions[r.ID] = r.Action()
	}
	for _, id := range decision.MatchedRouteIDs {
		metrics.RouteMatchesTotal.WithLabelValues(actions[id].String()).Inc()
	}
}

func outcome(result *Result, err error) string {
	switch {
	case err == nil && result != nil && result.Stored:
		return metrics.OutcomeAccepted
	case err == nil:
		return metrics.OutcomeNotRetained
	case errors.Is(err, mailgate_errors.ErrInvalidSignature), errors.Is(err, mailgate_errors.ErrUnauthorized):
		return metrics.OutcomeUnauthorized
	case errors.Is(err, mailgate_errors.ErrInvalidEnvelope):
		return metrics.OutcomeInvalid
	case errors.Is(err, mailgate_errors.ErrUnsupportedMedia):
		return metrics.OutcomeUnsupported
	case errors.Is(err, mailgate_errors.ErrUnknownDomain):
		return metrics.OutcomeUnknown
	default:
		return metrics.OutcomeFailed
	}
}

func routeIDStrings(ids []uint64) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, strconv.FormatUint(id, 10))
	}
	return out
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
