package delivery

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/customeros/mailgate/dto"
	"github.com/customeros/mailgate/internal/tracing"
	"github.com/customeros/mailgate/internal/utils"
)

// redisTask is pushed with LPUSH; consumers pop from the other end.
type redisTask struct {
	ID        string      `json:"id"`
	Handoff   dto.Handoff `json:"handoff"`
	Timestamp string      `json:"timestamp"`
}

type RedisPublisher struct {
	rdb       redis.UniversalClient
	queueName string
}

func NewRedisPublisher(rdb redis.UniversalClient, queueName string) *RedisPublisher {
	return &RedisPublisher{
		rdb:       rdb,
		queueName: queueName,
	}
}

// NewRedisPublisherFromURL parses a redis:// URL and checks the connection.
func NewRedisPublisherFromURL(ctx context.Context, redisURL, queueName string) (*RedisPublisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse REDIS_URL")
	}
	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, errors.Wrap(err, "redis ping")
	}
	return NewRedisPublisher(rdb, queueName), nil
}

func (p *RedisPublisher) Dispatch(ctx context.Context, handoff dto.Handoff) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RedisPublisher.Dispatch")
	defer span.Finish()
	tracing.TagComponentPublisher(span)
	tracing.TagEntity(span, handoff.MessageID)
	span.LogKV("kind", handoff.Kind, "targets", len(handoff.Targets), "queue", p.queueName)

	payload, err := json.Marshal(redisTask{
		ID:        uuid.New().String(),
		Handoff:   handoff,
		Timestamp: utils.Now().Format(time.RFC3339),
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "marshal handoff")
	}

	if err := p.rdb.LPush(ctx, p.queueName, string(payload)).Err(); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "redis LPUSH")
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}
