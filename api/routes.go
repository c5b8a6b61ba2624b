package api

import (
	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/customeros/mailgate/api/handlers"
	"github.com/customeros/mailgate/api/middleware"
	"github.com/customeros/mailgate/config"
	"github.com/customeros/mailgate/internal/logger"
	"github.com/customeros/mailgate/internal/tracing"
	"github.com/customeros/mailgate/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(r *gin.Engine, cfg *config.Config, s *services.Services, log logger.Logger) {
	if s == nil {
		panic("Services cannot be nil")
	}

	// Add recovery middlewares
	r.Use(gin.Recovery())                                         // Gin's built-in recovery
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer())) // Our custom Jaeger recovery
	r.Use(middleware.TraceIDMiddleware())

	apiHandlers := handlers.InitHandlers(cfg.IngestConfig, log, s)

	// Health check and metrics (no custom context needed)
	r.GET("/health", handlers.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	appSource := cfg.AppConfig.ServiceName
	api := r.Group("/v1")
	{
		// relay submissions are authenticated by signature, not by tenant
		inbound := api.Group("/inbound")
		inbound.Use(middleware.CustomContextMiddleware(appSource))
		inbound.Use(middleware.TracingMiddleware())
		inbound.POST("", apiHandlers.Inbound.Submit())

		messages := api.Group("/messages")
		messages.Use(middleware.TenantHeaderMiddleware())
		messages.Use(middleware.APIKeyMiddleware(middleware.APIKeyConfig{
			HeaderName: middleware.HeaderAPIKey,
			Resolver:   s.CallerResolver,
			Log:        log,
		}))
		messages.Use(middleware.CustomContextMiddleware(appSource))
		messages.Use(middleware.TracingMiddleware())
		{
			messages.GET("", apiHandlers.Messages.List())
			messages.GET("/:id", apiHandlers.Messages.Get())
			messages.GET("/:id/raw", apiHandlers.Messages.Raw())
		}
	}
}
