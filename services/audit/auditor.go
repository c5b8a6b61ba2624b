package audit

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/customeros/mailgate/config"
	"github.com/customeros/mailgate/interfaces"
	"github.com/customeros/mailgate/internal/logger"
	"github.com/customeros/mailgate/internal/metrics"
	"github.com/customeros/mailgate/internal/tracing"
	"github.com/customeros/mailgate/internal/utils"
)

// Report summarizes one audit pass. Missing holds the ids of messages whose raw artifact is gone.
type Report struct {
	Checked int
	Missing []string
	Errors  int
}

// Auditor looks for message rows whose raw artifact no longer exists in storage.
type Auditor struct {
	cfg      *config.AuditConfig
	log      logger.Logger
	messages interfaces.InboundMessageRepository
	storage  interfaces.StorageService
	now      func() time.Time
}

func NewAuditor(cfg *config.AuditConfig, log logger.Logger, messages interfaces.InboundMessageRepository, store interfaces.StorageService) *Auditor {
	return &Auditor{
		cfg:      cfg,
		log:      log,
		messages: messages,
		storage:  store,
		now:      utils.Now,
	}
}

func (a *Auditor) Run(ctx context.Context) (*Report, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Auditor.Run")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	lookback := time.Duration(a.cfg.LookbackHours) * time.Hour
	since := a.now().Add(-lookback)
	messages, err := a.messages.ListReceivedSince(ctx, since, a.cfg.BatchSize)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "list messages for audit")
	}

	report := &Report{Missing: []string{}}
	for _, message := range messages {
		report.Checked++
		exists, err := a.storage.Exists(ctx, message.RawMimeRef)
		if err != nil {
			report.Errors++
			metrics.ArtifactAuditTotal.WithLabelValues(metrics.ResultError).Inc()
			a.log.Logger().Warn("artifact audit check failed",
				zap.String("messageId", message.ID),
				zap.String("key", message.RawMimeRef),
				zap.Error(err))
			continue
		}
		if !exists {
			report.Missing = append(report.Missing, message.ID)
			metrics.ArtifactAuditTotal.WithLabelValues(metrics.ResultMissed).Inc()
			a.log.Logger().Error("broken raw artifact reference",
				zap.String("messageId", message.ID),
				zap.Uint64("tenantId", message.TenantID),
				zap.String("key", message.RawMimeRef))
			continue
		}
		metrics.ArtifactAuditTotal.WithLabelValues(metrics.ResultOK).Inc()
	}

	span.LogKV("checked", report.Checked, "missing", len(report.Missing), "errors", report.Errors)
	a.log.Infof("Artifact audit checked %d messages since %s: %d missing, %d errors",
		report.Checked, since.Format(time.RFC3339), len(report.Missing), report.Errors)
	return report, nil
}
