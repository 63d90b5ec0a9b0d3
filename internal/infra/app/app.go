package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Vardandatasciences/riskavaire-access/internal/core/port"
	"github.com/Vardandatasciences/riskavaire-access/internal/infra/config"
	"github.com/Vardandatasciences/riskavaire-access/internal/infra/database"
	kafkainfra "github.com/Vardandatasciences/riskavaire-access/internal/infra/kafka"
	"github.com/Vardandatasciences/riskavaire-access/internal/infra/logger"
	redisinfra "github.com/Vardandatasciences/riskavaire-access/internal/infra/redis"
	"github.com/Vardandatasciences/riskavaire-access/internal/infra/telemetry"
	"github.com/Vardandatasciences/riskavaire-access/internal/registry"
	postgresrepo "github.com/Vardandatasciences/riskavaire-access/internal/repository/postgres"
	redisrepo "github.com/Vardandatasciences/riskavaire-access/internal/repository/redis"
	"github.com/Vardandatasciences/riskavaire-access/internal/transport/http/middleware"
	"github.com/Vardandatasciences/riskavaire-access/internal/transport/http/routes"
	"github.com/Vardandatasciences/riskavaire-access/internal/usecase"
)

type Application struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	pool   *pgxpool.Pool
	redis  *redisinfra.Client
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	provider, err := telemetry.Attach(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	reg, err := registry.Load(cfg.Registry.DefinitionPath)
	if err != nil {
		return nil, fmt.Errorf("load permission registry: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	// Redis is a best-effort layer. Without it the engine serves reads from
	// Postgres and skips write throttling.
	var redisClient *redisinfra.Client
	if client, err := redisinfra.NewClient(cfg.Redis, log); err != nil {
		log.Warn("redis unavailable, continuing without cache", zap.Error(err))
	} else {
		redisClient = client
	}

	repos := postgresrepo.NewRepositories(pool)

	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(kafkaProducer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	grantService := usecase.NewGrantService(repos.Grants, repos.Users, reg, log).
		WithEventPublisher(eventPublisher)
	if redisClient != nil {
		grantService.WithCache(redisrepo.NewGrantCache(redisClient.Client(),
			cfg.Redis.GrantKeyPrefix, cfg.Redis.GrantTTL))
	}

	templateService := usecase.NewTemplateService(reg, grantService, log).
		WithEventPublisher(eventPublisher)
	updateService := usecase.NewUpdateService(grantService, templateService, log).
		WithEventPublisher(eventPublisher).
		WithObserver(provider).
		WithConcurrency(cfg.Bulk.Concurrency)
	directoryService := usecase.NewDirectoryService(repos.Users)

	var throttle middleware.WriteLimiter
	if redisClient != nil && cfg.Throttle.Enabled {
		throttle = redisrepo.NewWriteThrottleStore(redisClient.Client(), "access:throttle")
	}

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	deps := routes.Dependencies{
		Config:   cfg,
		Logger:   log,
		Registry: reg,
		Throttle: throttle,
		Metrics:  metrics,
		Database: pool,
		Services: routes.ServiceSet{
			Directory: directoryService,
			Grants:    grantService,
			Templates: templateService,
			Updates:   updateService,
		},
	}
	if redisClient != nil {
		deps.Cache = redisClient
	}

	engine := routes.Register(deps)

	return &Application{
		cfg:    cfg,
		engine: engine,
		logger: log,
		pool:   pool,
		redis:  redisClient,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting access engine API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
