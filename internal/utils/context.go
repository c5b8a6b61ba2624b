package utils

import (
	"context"

	"github.com/gin-gonic/gin"
)

type CustomContext struct {
	AppSource string
	TraceID   string
	TenantID  uint64
	Tenant    string
}

type customContextKey struct{}

const (
	GinKeyTraceID    = "TraceId"
	GinKeyTenantID   = "TenantId"
	GinKeyTenantName = "TenantName"
)

func WithCustomContext(ctx context.Context, customContext *CustomContext) context.Context {
	return context.WithValue(ctx, customContextKey{}, customContext)
}

func WithCustomContextFromGinRequest(c *gin.Context, appSource string) context.Context {
	customContext := &CustomContext{
		AppSource: appSource,
		TraceID:   c.GetString(GinKeyTraceID),
		TenantID:  c.GetUint64(GinKeyTenantID),
		Tenant:    c.GetString(GinKeyTenantName),
	}
	return WithCustomContext(c.Request.Context(), customContext)
}

func GetContext(ctx context.Context) *CustomContext {
	customContext, ok := ctx.Value(customContextKey{}).(*CustomContext)
	if !ok {
		return new(CustomContext)
	}
	return customContext
}

func GetTraceIDFromContext(ctx context.Context) string {
	return GetContext(ctx).TraceID
}
