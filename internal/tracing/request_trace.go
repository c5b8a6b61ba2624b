package tracing

import (
	"go.uber.org/zap"

	"github.com/customeros/mailgate/internal/logger"
)

// RequestTrace carries the per-request trace id and a logger already scoped to it.
// Stage lines never include message content.
type RequestTrace struct {
	ID  string
	log logger.Logger
}

func NewRequestTrace(id string, log logger.Logger) *RequestTrace {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &RequestTrace{ID: id, log: log.With(zap.String("traceId", id))}
}

func (t *RequestTrace) Logger() logger.Logger {
	return t.log
}

// Step records a completed pipeline stage.
func (t *RequestTrace) Step(stage string, fields ...zap.Field) {
	t.log.Logger().Info("inbound stage", append([]zap.Field{zap.String("stage", stage)}, fields...)...)
}

// Fail records the stage at which processing stopped.
func (t *RequestTrace) Fail(stage string, err error, fields ...zap.Field) {
	fs := append([]zap.Field{zap.String("stage", stage), zap.Error(err)}, fields...)
	t.log.Logger().Warn("inbound stage failed", fs...)
}

// FailReason records a failed stage with a fixed reason instead of the error text.
func (t *RequestTrace) FailReason(stage, reason string, fields ...zap.Field) {
	fs := append([]zap.Field{zap.String("stage", stage), zap.String("reason", reason)}, fields...)
	t.log.Logger().Warn("inbound stage failed", fs...)
}
