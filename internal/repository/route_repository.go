package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/customeros/mailgate/interfaces"
	"github.com/customeros/mailgate/internal/models"
	"github.com/customeros/mailgate/internal/tracing"
)

type routeRepository struct {
	db *gorm.DB
}

func NewRouteRepository(db *gorm.DB) interfaces.RouteRepository {
	return &routeRepository{
		db: db,
	}
}

// ListByTenant returns every route of the tenant. Ordering is left to the evaluator.
func (r *routeRepository) ListByTenant(ctx context.Context, tenantID uint64) ([]models.Route, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RouteRepository.ListByTenant")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.LogKV("tenantId", tenantID)

	var routes []models.Route
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Find(&routes).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	span.LogKV("routes", len(routes))
	return routes, nil
}
