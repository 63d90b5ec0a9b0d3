package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Vardandatasciences/riskavaire-access/internal/infra/config"
	"github.com/Vardandatasciences/riskavaire-access/internal/registry"
	"github.com/Vardandatasciences/riskavaire-access/internal/transport/http/handlers"
	"github.com/Vardandatasciences/riskavaire-access/internal/transport/http/middleware"
	"github.com/Vardandatasciences/riskavaire-access/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Directory *usecase.DirectoryService
	Grants    *usecase.GrantService
	Templates *usecase.TemplateService
	Updates   *usecase.UpdateService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config   *config.AppConfig
	Logger   *zap.Logger
	Registry *registry.Registry
	Services ServiceSet
	Throttle middleware.WriteLimiter
	Metrics  *middleware.HTTPMetrics
	Database DatabaseChecker
	Cache    CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}
	r.Use(middleware.CORS(deps.Config.CORS.AllowedOrigins))

	healthHandler := handlers.NewHealthHandler()
	if deps.Database != nil {
		healthHandler.WithReadinessCheck("database", deps.Database.Ping)
	}
	if deps.Cache != nil {
		healthHandler.WithReadinessCheck("redis", deps.Cache.HealthCheck)
	}

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	verifier := middleware.NewTokenVerifier(deps.Config.Auth.JWTSecret, deps.Config.Auth.Issuer)
	authMiddleware := middleware.RequireAuth(verifier)
	managerMiddleware := middleware.RequireAccessManager(deps.Services.Grants)

	userHandler := handlers.NewUserHandler(deps.Services.Directory)
	permissionHandler := handlers.NewPermissionHandler(deps.Services.Grants, deps.Services.Updates, deps.Registry).
		WithBulkTimeout(deps.Config.Bulk.DefaultTimeout)
	roleHandler := handlers.NewRoleHandler(deps.Services.Templates)

	admin := r.Group("/admin-access")
	admin.Use(authMiddleware, managerMiddleware)
	{
		admin.GET("/users/", userHandler.List)
		admin.GET("/users/:userId/permissions/", permissionHandler.GetForUser)
		admin.GET("/permissions/fields/", permissionHandler.Fields)
		admin.GET("/roles/", roleHandler.List)

		writes := admin.Group("/permissions")
		if deps.Throttle != nil && deps.Config.Throttle.Enabled {
			writes.Use(middleware.WriteThrottle(deps.Throttle,
				deps.Config.Throttle.Limit, deps.Config.Throttle.Window, deps.Logger))
		}
		writes.POST("/update/", permissionHandler.Update)
		writes.POST("/bulk-update/", permissionHandler.BulkUpdate)
	}

	return r
}
