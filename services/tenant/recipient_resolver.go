package tenant

import (
	"context"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	mailgate_errors "github.com/customeros/mailgate/errors"
	"github.com/customeros/mailgate/interfaces"
	"github.com/customeros/mailgate/internal/models"
	"github.com/customeros/mailgate/internal/tracing"
	"github.com/customeros/mailgate/internal/utils"
)

// RecipientResolver maps a receiving address to its registered domain and owning tenant.
type RecipientResolver struct {
	domains interfaces.DomainRepository
	tenants interfaces.TenantRepository
}

func NewRecipientResolver(domains interfaces.DomainRepository, tenants interfaces.TenantRepository) *RecipientResolver {
	return &RecipientResolver{domains: domains, tenants: tenants}
}

func (r *RecipientResolver) Resolve(ctx context.Context, recipient string) (*models.Domain, *models.Tenant, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RecipientResolver.Resolve")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if !strings.Contains(recipient, "@") {
		return nil, nil, errors.Wrap(mailgate_errors.ErrUnknownDomain, "recipient has no domain part")
	}
	name := utils.ExtractDomainFromEmail(recipient)
	span.LogKV("domain", name)
	if name == "" {
		return nil, nil, errors.Wrap(mailgate_errors.ErrUnknownDomain, "recipient has no domain part")
	}

	domain, err := r.domains.GetByName(ctx, name)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, nil, errors.Wrap(err, "domain lookup")
	}
	if domain == nil {
		return nil, nil, errors.Wrapf(mailgate_errors.ErrUnknownDomain, "%s", name)
	}

	tenant, err := r.tenants.GetByID(ctx, domain.TenantID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, nil, errors.Wrap(err, "tenant lookup")
	}
	if tenant == nil {
		return nil, nil, errors.Wrapf(mailgate_errors.ErrUnknownDomain, "%s has no owning tenant", name)
	}

	return domain, tenant, nil
}
