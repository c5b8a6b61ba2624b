package services

import (
	"context"

	"github.com/pkg/errors"

	"github.com/customeros/mailgate/config"
	"github.com/customeros/mailgate/interfaces"
	"github.com/customeros/mailgate/internal/logger"
	"github.com/customeros/mailgate/internal/metrics"
	"github.com/customeros/mailgate/internal/repository"
	"github.com/customeros/mailgate/services/audit"
	"github.com/customeros/mailgate/services/delivery"
	"github.com/customeros/mailgate/services/ingestion"
	"github.com/customeros/mailgate/services/messages"
	"github.com/customeros/mailgate/services/mime_extractor"
	"github.com/customeros/mailgate/services/storage"
	"github.com/customeros/mailgate/services/tenant"
)

type Services struct {
	StorageService   interfaces.StorageService
	MimeExtractor    interfaces.MimeExtractor
	Dispatcher       interfaces.DeliveryDispatcher
	CallerResolver   *tenant.CallerResolver
	IngestionService *ingestion.Service
	MessageService   *messages.Service
	Auditor          *audit.Auditor
}

func InitServices(ctx context.Context, cfg *config.Config, log logger.Logger, repos *repository.Repositories) (*Services, error) {
	store, err := storage.NewFromConfig(cfg.StorageConfig)
	if err != nil {
		return nil, errors.Wrap(err, "raw storage")
	}

	// parser is chosen once here, never per request
	extractor, err := mime_extractor.NewExtractor(cfg.IngestConfig.MimeParser)
	if err != nil {
		return nil, err
	}

	dispatcher, err := delivery.NewDispatcher(ctx, cfg.DeliveryConfig, log)
	if err != nil {
		return nil, errors.Wrap(err, "delivery dispatcher")
	}

	if cfg.IngestConfig.SignatureEnforced() {
		metrics.IngestSignatureEnforced.Set(1)
	} else {
		metrics.IngestSignatureEnforced.Set(0)
		log.Warn("INBOUND_WEBHOOK_SECRET is not set: inbound submissions are accepted without signature verification")
	}
	log.Infof("Using %s mime extractor, %s raw storage, %s delivery backend",
		extractor.Name(), cfg.StorageConfig.Backend, cfg.DeliveryConfig.Backend)

	return &Services{
		StorageService:   store,
		MimeExtractor:    extractor,
		Dispatcher:       dispatcher,
		CallerResolver:   tenant.NewCallerResolver(repos.TenantRepository),
		IngestionService: ingestion.NewService(cfg.IngestConfig, log, repos, store, extractor, dispatcher),
		MessageService:   messages.NewService(log, repos.InboundMessageRepository, store, extractor),
		Auditor:          audit.NewAuditor(cfg.AuditConfig, log, repos.InboundMessageRepository, store),
	}, nil
}

// Close waits for in-flight delivery hand-offs and releases the dispatcher.
func (s *Services) Close() error {
	s.IngestionService.Wait()
	return s.Dispatcher.Close()
}
