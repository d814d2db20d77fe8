package router

import (
	"github.com/gin-gonic/gin"
	"github.com/storesync/backend/internal/infrastructure/auth"
	"github.com/storesync/backend/internal/infrastructure/config"
	"github.com/storesync/backend/internal/infrastructure/logger"
	"github.com/storesync/backend/internal/infrastructure/telemetry"
	"github.com/storesync/backend/internal/interfaces/http/handler"
	"github.com/storesync/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// EngineConfig collects what the HTTP engine needs besides handlers
type EngineConfig struct {
	ServiceName string
	HTTP        config.HTTPConfig
	Tracing     bool
	Logger      *zap.Logger
	Meter       *telemetry.MeterProvider
	Validator   middleware.TokenValidator
	Revocations auth.RevocationList
}

// Handlers are the route handlers mounted by NewEngine
type Handlers struct {
	System      *handler.SystemHandler
	CatalogSync *handler.CatalogSyncHandler
}

// NewEngine builds the gin engine with the global middleware chain, public
// probes, and the authenticated /api/v1 routes.
func NewEngine(cfg EngineConfig, h Handlers) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
		_ = engine.SetTrustedProxies(nil)
	}

	cors := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	// Order matters: request id first so every later log line and span carries it
	engine.Use(
		middleware.RequestID(),
		middleware.Tracing(middleware.TracingConfig{ServiceName: cfg.ServiceName, Enabled: cfg.Tracing}),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Secure(),
		middleware.CORSWithConfig(cors),
	)
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}
	engine.Use(middleware.HTTPMetrics(cfg.Meter, log))

	engine.GET("/health", h.System.Health)
	engine.GET("/ping", h.System.Ping)

	api := []gin.HandlerFunc{
		middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			Validator:   cfg.Validator,
			Revocations: cfg.Revocations,
			Logger:      log,
		}),
		middleware.TracingAttributeInjector(),
		middleware.SpanErrorMarker(),
	}
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		api = append(api, middleware.RateLimit(limiter))
	}

	NewRouter(engine, WithMiddleware(api...), WithLogger(log)).
		Register(NewSystemGroup(h.System)).
		Register(NewCatalogSyncGroup(h.CatalogSync, middleware.PermissionConfig{Logger: log})).
		Setup()

	return engine
}
