package repository

import (
	"context"
	"strconv"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/customeros/mailgate/interfaces"
	"github.com/customeros/mailgate/internal/models"
	"github.com/customeros/mailgate/internal/tracing"
)

type tenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) interfaces.TenantRepository {
	return &tenantRepository{
		db: db,
	}
}

func (r *tenantRepository) GetByID(ctx context.Context, id uint64) (*models.Tenant, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "TenantRepository.GetByID")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	tracing.TagEntity(span, strconv.FormatUint(id, 10))

	var tenant models.Tenant
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return &tenant, nil
}

func (r *tenantRepository) GetByName(ctx context.Context, name string) (*models.Tenant, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "TenantRepository.GetByName")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	tracing.TagTenant(span, name)

	var tenant models.Tenant
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return &tenant, nil
}
