package repository

import (
	"context"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/customeros/mailgate/interfaces"
	"github.com/customeros/mailgate/internal/models"
	"github.com/customeros/mailgate/internal/tracing"
)

type domainRepository struct {
	db *gorm.DB
}

func NewDomainRepository(db *gorm.DB) interfaces.DomainRepository {
	return &domainRepository{
		db: db,
	}
}

// GetByName looks up a registered domain by exact, lower-cased name across all tenants.
func (r *domainRepository) GetByName(ctx context.Context, domain string) (*models.Domain, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DomainRepository.GetByName")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.LogKV("domain", domain)

	var result models.Domain
	err := r.db.WithContext(ctx).
		Where("domain = ?", strings.ToLower(domain)).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return &result, nil
}

func (r *domainRepository) ListByTenant(ctx context.Context, tenantID uint64) ([]models.Domain, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DomainRepository.ListByTenant")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.LogKV("tenantId", tenantID)

	var domains []models.Domain
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Find(&domains).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return domains, nil
}
