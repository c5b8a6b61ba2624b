package tenant

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	mailgate_errors "github.com/customeros/mailgate/errors"
	"github.com/customeros/mailgate/interfaces"
	"github.com/customeros/mailgate/internal/models"
	"github.com/customeros/mailgate/internal/tracing"
)

// CallerResolver authenticates a read-side caller against the tenant named by its handle.
type CallerResolver struct {
	tenants interfaces.TenantRepository
}

func NewCallerResolver(tenants interfaces.TenantRepository) *CallerResolver {
	return &CallerResolver{tenants: tenants}
}

func (r *CallerResolver) Resolve(ctx context.Context, apiKey, handle string) (*models.Tenant, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CallerResolver.Resolve")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagTenant(span, handle)

	if apiKey == "" || handle == "" {
		return nil, errors.Wrap(mailgate_errors.ErrUnauthorized, "missing credentials")
	}

	tenant, err := r.tenants.GetByName(ctx, handle)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "tenant lookup")
	}
	if tenant == nil || !MatchesAPIKey(tenant.APIKeyHash, apiKey) {
		return nil, mailgate_errors.ErrUnauthorized
	}
	return tenant, nil
}

// HashAPIKey is the value stored in tenants.api_key_hash.
func HashAPIKey(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:])
}

func MatchesAPIKey(storedHash, apiKey string) bool {
	expected, err := hex.DecodeString(strings.TrimSpace(storedHash))
	if err != nil || len(expected) != sha256.Size {
		return false
	}
	sum := sha256.Sum256([]byte(apiKey))
	return subtle.ConstantTimeCompare(expected, sum[:]) == 1
}
