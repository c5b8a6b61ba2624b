package interfaces

import (
	"context"
	"time"

	"github.com/customeros/mailgate/internal/models"
)

type TenantRepository interface {
	GetByID(ctx context.Context, id uint64) (*models.Tenant, error)
	GetByName(ctx context.Context, name string) (*models.Tenant, error)
}

type DomainRepository interface {
	GetByName(ctx context.Context, domain string) (*models.Domain, error)
	ListByTenant(ctx context.Context, tenantID uint64) ([]models.Domain, error)
}

type RouteRepository interface {
	ListByTenant(ctx context.Context, tenantID uint64) ([]models.Route, error)
}

type InboundMessageRepository interface {
	Create(ctx context.Context, message *models.InboundMessage) error
	GetByID(ctx context.Context, tenantID uint64, id string) (*models.InboundMessage, error)
	ListByTenant(ctx context.Context, tenantID uint64) ([]models.InboundMessage, error)
	ListReceivedSince(ctx context.Context, since time.Time, limit int) ([]models.InboundMessage, error)
}
