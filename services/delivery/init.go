package delivery

import (
	"context"

	"github.com/pkg/errors"

	"github.com/customeros/mailgate/config"
	"github.com/customeros/mailgate/interfaces"
	"github.com/customeros/mailgate/internal/logger"
)

const (
	BackendNone     = "none"
	BackendRabbitMQ = "rabbitmq"
	BackendRedis    = "redis"
)

// NewDispatcher connects the backend selected by DELIVERY_BACKEND.
func NewDispatcher(ctx context.Context, cfg *config.DeliveryConfig, log logger.Logger) (interfaces.DeliveryDispatcher, error) {
	switch cfg.Backend {
	case BackendNone, "":
		return NewNoopDispatcher(log), nil
	case BackendRabbitMQ:
		if cfg.RabbitMQURL == "" {
			return nil, errors.New("RABBITMQ_URL is required for the rabbitmq delivery backend")
		}
		publisher, err := NewRabbitMQPublisher(cfg.RabbitMQURL, log, nil)
		if err != nil {
			return nil, err
		}
		return publisher, nil
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New("REDIS_URL is required for the redis delivery backend")
		}
		publisher, err := NewRedisPublisherFromURL(ctx, cfg.RedisURL, cfg.RedisQueue)
		if err != nil {
			return nil, err
		}
		return publisher, nil
	default:
		return nil, errors.Errorf("unknown DELIVERY_BACKEND %q", cfg.Backend)
	}
}
