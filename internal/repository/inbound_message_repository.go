package repository

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/customeros/mailgate/interfaces"
	"github.com/customeros/mailgate/internal/models"
	"github.com/customeros/mailgate/internal/tracing"
)

type inboundMessageRepository struct {
	db *gorm.DB
}

func NewInboundMessageRepository(db *gorm.DB) interfaces.InboundMessageRepository {
	return &inboundMessageRepository{
		db: db,
	}
}

// Create inserts the record. Messages are never updated afterwards.
func (r *inboundMessageRepository) Create(ctx context.Context, message *models.InboundMessage) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "InboundMessageRepository.Create")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.LogKV("tenantId", message.TenantID, "domainId", message.DomainID)

	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}

	tracing.TagEntity(span, message.ID)
	return nil
}

// GetByID scopes the lookup to the tenant so another tenant's id reads as missing.
func (r *inboundMessageRepository) GetByID(ctx context.Context, tenantID uint64, id string) (*models.InboundMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "InboundMessageRepository.GetByID")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	tracing.TagEntity(span, id)

	var message models.InboundMessage
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return &message, nil
}

func (r *inboundMessageRepository) ListByTenant(ctx context.Context, tenantID uint64) ([]models.InboundMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "InboundMessageRepository.ListByTenant")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.LogKV("tenantId", tenantID)

	var messages []models.InboundMessage
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Find(&messages).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return messages, nil
}

// ListReceivedSince is used by the artifact audit and deliberately crosses tenants.
func (r *inboundMessageRepository) ListReceivedSince(ctx context.Context, since time.Time, limit int) ([]models.InboundMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "InboundMessageRepository.ListReceivedSince")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.LogKV("since", since.String(), "limit", limit)

	var messages []models.InboundMessage
	query := r.db.WithContext(ctx).
		Where("received_at >= ?", since).
		Order("received_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&messages).Error; err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return messages, nil
}
