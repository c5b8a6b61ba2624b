package tenant

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	mailgate_errors "github.com/customeros/mailgate/errors"
	"github.com/customeros/mailgate/internal/models"
)

func TestRecipientResolver_Resolve(t *testing.T) {
	domains := &mockDomainRepository{}
	tenants := &mockTenantRepository{}
	domains.On("GetByName", mock.Anything, "example.com").Return(&models.Domain{ID: 7, TenantID: 3, Domain: "example.com"}, nil)
	tenants.On("GetByID", mock.Anything, uint64(3)).Return(&models.Tenant{ID: 3, Name: "acme"}, nil)

	domain, tenant, err := NewRecipientResolver(domains, tenants).Resolve(context.Background(), "Bob@Sub@EXAMPLE.com")

	require.NoError(t, err)
	assert.Equal(t, uint64(7), domain.ID)
	assert.Equal(t, "acme", tenant.Name)
	domains.AssertExpectations(t)
}

func TestRecipientResolver_UnknownDomain(t *testing.T) {
	domains := &mockDomainRepository{}
	tenants := &mockTenantRepository{}
	domains.On("GetByName", mock.Anything, "example.org").Return(nil, nil)
	resolver := NewRecipientResolver(domains, tenants)

	_, _, err := resolver.Resolve(context.Background(), "a@example.org")
	assert.True(t, errors.Is(err, mailgate_errors.ErrUnknownDomain))

	_, _, err = resolver.Resolve(context.Background(), "no-at-sign")
	assert.True(t, errors.Is(err, mailgate_errors.ErrUnknownDomain))
	tenants.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestRecipientResolver_MissingTenant(t *testing.T) {
	domains := &mockDomainRepository{}
	tenants := &mockTenantRepository{}
	domains.On("GetByName", mock.Anything, "example.com").Return(&models.Domain{ID: 7, TenantID: 3}, nil)
	tenants.On("GetByID", mock.Anything, uint64(3)).Return(nil, nil)

	_, _, err := NewRecipientResolver(domains, tenants).Resolve(context.Background(), "a@example.com")
	assert.True(t, errors.Is(err, mailgate_errors.ErrUnknownDomain))
}

func TestCallerResolver_Resolve(t *testing.T) {
	tenants := &mockTenantRepository{}
	tenants.On("GetByName", mock.Anything, "acme").Return(&models.Tenant{ID: 3, Name: "acme", APIKeyHash: HashAPIKey("secret-key")}, nil)
	tenants.On("GetByName", mock.Anything, "ghost").Return(nil, nil)
	resolver := NewCallerResolver(tenants)

	tenant, err := resolver.Resolve(context.Background(), "secret-key", "acme")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), tenant.ID)

	_, err = resolver.Resolve(context.Background(), "wrong-key", "acme")
	assert.True(t, errors.Is(err, mailgate_errors.ErrUnauthorized))

	_, err = resolver.Resolve(context.Background(), "secret-key", "ghost")
	assert.True(t, errors.Is(err, mailgate_errors.ErrUnauthorized))

	_, err = resolver.Resolve(context.Background(), "", "acme")
	assert.True(t, errors.Is(err, mailgate_errors.ErrUnauthorized))
}

func TestMatchesAPIKey_RejectsMalformedHash(t *testing.T) {
	assert.False(t, MatchesAPIKey("not-hex", "key"))
	assert.False(t, MatchesAPIKey("", ""))
	assert.True(t, MatchesAPIKey(HashAPIKey("key"), "key"))
}
