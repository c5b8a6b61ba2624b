package tenant

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/customeros/mailgate/internal/models"
)

type mockDomainRepository struct {
	mock.Mock
}

func (m *mockDomainRepository) GetByName(ctx context.Context, domain string) (*models.Domain, error) {
	args := m.Called(ctx, domain)
	d, _ := args.Get(0).(*models.Domain)
	return d, args.Error(1)
}

func (m *mockDomainRepository) ListByTenant(ctx context.Context, tenantID uint64) ([]models.Domain, error) {
	args := m.Called(ctx, tenantID)
	d, _ := args.Get(0).([]models.Domain)
	return d, args.Error(1)
}

type mockTenantRepository struct {
	mock.Mock
}

func (m *mockTenantRepository) GetByID(ctx context.Context, id uint64) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*models.Tenant)
	return t, args.Error(1)
}

func (m *mockTenantRepository) GetByName(ctx context.Context, name string) (*models.Tenant, error) {
	args := m.Called(ctx, name)
	t, _ := args.Get(0).(*models.Tenant)
	return t, args.Error(1)
}
