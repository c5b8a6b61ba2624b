package delivery

import (
	"context"

	"go.uber.org/zap"

	"github.com/customeros/mailgate/dto"
	"github.com/customeros/mailgate/internal/logger"
)

// NoopDispatcher logs hand-offs and drops them. Used when no delivery backend is configured.
type NoopDispatcher struct {
	log logger.Logger
}

func NewNoopDispatcher(log logger.Logger) *NoopDispatcher {
	return &NoopDispatcher{log: log}
}

func (d *NoopDispatcher) Dispatch(_ context.Context, handoff dto.Handoff) error {
	d.log.Logger().Info("delivery backend disabled, handoff dropped",
		zap.String("traceId", handoff.TraceID),
		zap.String("messageId", handoff.MessageID),
		zap.String("kind", handoff.Kind.String()),
		zap.Int("targets", len(handoff.Targets)),
	)
	return nil
}

func (d *NoopDispatcher) Close() error {
	return nil
}
