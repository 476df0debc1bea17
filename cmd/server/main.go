package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	appintegration "github.com/erp/channelsync/internal/application/integration"
	"github.com/erp/channelsync/internal/domain/integration"
	"github.com/erp/channelsync/internal/infrastructure/auth"
	"github.com/erp/channelsync/internal/infrastructure/cache"
	"github.com/erp/channelsync/internal/infrastructure/config"
	"github.com/erp/channelsync/internal/infrastructure/ecommerce"
	"github.com/erp/channelsync/internal/infrastructure/logger"
	"github.com/erp/channelsync/internal/infrastructure/persistence"
	"github.com/erp/channelsync/internal/infrastructure/scheduler"
	"github.com/erp/channelsync/internal/infrastructure/telemetry"
	"github.com/erp/channelsync/internal/interfaces/http/handler"
	"github.com/erp/channelsync/internal/interfaces/http/middleware"
	"github.com/erp/channelsync/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//	@title			Channel Sync API
//	@version		1.0
//	@description	Synchronizes ERP sale channels with Magento storefronts.

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Operator token. Format: "Bearer {token}"

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = telemetry.DefaultServiceName
	}

	obs, log := setupObservability(ctx, cfg, serviceName, log)
	defer func() {
		obs.shutdown(log)
		_ = logger.Sync(log)
	}()

	log.Info("Starting channel sync",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	if err := db.EnableTracing(telemetry.DBTracingConfig{
		Enabled:            cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:         cfg.Telemetry.DBLogFullSQL,
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
		DBName:             cfg.Database.DBName,
	}, log); err != nil {
		log.Warn("Database tracing unavailable", zap.Error(err))
	}
	dbMetricsCfg := telemetry.DefaultDBMetricsConfig()
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		dbMetricsCfg.SlowQueryThreshold = cfg.Telemetry.DBSlowQueryThresh
	}
	dbMetrics, err := db.EnableMetrics(obs.meters, dbMetricsCfg, log)
	if err != nil {
		log.Warn("Database metrics unavailable", zap.Error(err))
	}
	defer func() { _ = dbMetrics.Stop() }()

	// Repositories
	channelRepo := persistence.NewGormChannelRepository(db.DB)
	repos := appintegration.Repositories{
		Channels:    channelRepo,
		OrderStates: persistence.NewGormOrderStateRepository(db.DB),
		Carriers:    persistence.NewGormCarrierRepository(db.DB),
		Products:    persistence.NewGormProductRepository(db.DB),
		Listings:    persistence.NewGormListingRepository(db.DB),
		Categories:  persistence.NewGormCategoryRepository(db.DB),
		PriceLists:  persistence.NewGormPriceListRepository(db.DB),
		Sales:       persistence.NewGormSaleRepository(db.DB),
		Shipments:   persistence.NewGormShipmentRepository(db.DB),
	}

	// Magento provider and dispatcher
	gateway := ecommerce.NewMagentoGateway(cfg.Magento.APIPath, cfg.Magento.TimeoutSeconds, log.Named("magento"))
	magentoSync := appintegration.NewMagentoSyncService(gateway, repos, appintegration.MagentoSyncOptions{
		OrderSearchPageSize: cfg.Magento.OrderSearchPageSize,
		StatusBatchSize:     cfg.Magento.StatusBatchSize,
	}, log.Named("magento_sync"))

	runLock, err := cache.NewChannelLockFactory(cfg.Redis, cache.WithLogger(log)).CreateLock()
	if err != nil {
		log.Fatal("Failed to create channel run lock", zap.Error(err))
	}
	defer func() { _ = runLock.Close() }()

	dispatcher := appintegration.NewChannelDispatcher(log.Named("dispatcher"),
		appintegration.WithProvider(magentoSync),
		appintegration.WithRunLock(runLock, cfg.Scheduler.RunLockTTL),
	)

	syncMetrics, err := telemetry.NewSyncMetrics(telemetry.SyncMetricsConfig{
		Meter:             obs.meters.Meter("channel_sync"),
		Logger:            log,
		WatermarkProvider: appintegration.NewWatermarkTracker(channelRepo),
	})
	if err != nil {
		log.Warn("Sync metrics unavailable", zap.Error(err))
	} else {
		dispatcher.SetSyncMetrics(syncMetrics)
		if obs.meters.IsEnabled() {
			syncMetrics.StartPeriodicCollection(ctx, cfg.Telemetry.WatermarkCollectInterval)
		}
		defer syncMetrics.Stop()
	}

	// Background queue
	executor := scheduler.NewChannelSyncExecutor(channelRepo, dispatcher, log.Named("executor"))
	executor.SetOnSyncCompletedCallback(func(ctx context.Context, job *scheduler.ChannelSyncJob, result *integration.SyncResult) {
		logger.L(ctx).Info("Queued sync finished",
			zap.String("job_id", job.ID.String()),
			zap.String("operation", string(job.Operation)),
			zap.Int("processed", len(result.Items)),
			zap.Int("failed", len(result.FailedItems)),
		)
	})

	jobs, err := scheduler.NewChannelSyncScheduler(scheduler.ChannelSyncSchedulerConfig{
		MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
		QueueSize:         cfg.Scheduler.QueueSize,
		JobTimeout:        cfg.Scheduler.JobTimeout,
		RetryAttempts:     cfg.Scheduler.RetryAttempts,
		RetryDelay:        cfg.Scheduler.RetryDelay,
	}, executor, log.Named("scheduler"))
	if err != nil {
		log.Fatal("Invalid scheduler configuration", zap.Error(err))
	}
	if err := jobs.Start(ctx); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}

	var trigger handler.SyncTrigger
	if cfg.Scheduler.Enabled {
		triggerCfg := scheduler.DefaultChannelSyncCronTriggerConfig()
		triggerCfg.Interval = cfg.Scheduler.SyncInterval
		cron := scheduler.NewChannelSyncCronTrigger(triggerCfg, jobs, channelRepo, log.Named("cron"))
		if err := cron.Start(ctx); err != nil {
			log.Fatal("Failed to start sync trigger", zap.Error(err))
		}
		defer func() { _ = cron.Stop(context.Background()) }()
		trigger = cron
	}

	// HTTP
	systemHandler := handler.NewSystemHandler(version)
	systemHandler.AddReadinessCheck("database", func(context.Context) error { return db.Ping() })
	systemHandler.AddReadinessCheck("run_lock", runLock.Ping)

	engine, limiter := newEngine(cfg, serviceName, obs, log)
	if limiter != nil {
		defer limiter.Stop()
	}
	router.RegisterProbes(engine, systemHandler)

	channelHandler := handler.NewChannelSyncHandler(channelRepo, dispatcher)
	schedulerHandler := handler.NewSchedulerHandler(channelRepo, jobs, trigger)
	router.NewRouter(engine).
		Register(router.ChannelRoutes(channelHandler, schedulerHandler)).
		Register(router.SchedulerRoutes(schedulerHandler)).
		Register(router.SystemRoutes(systemHandler)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := jobs.Stop(shutdownCtx); err != nil {
		log.Warn("Scheduler did not drain", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newEngine builds the gin engine with the middleware chain shared by every
// route. The returned limiter is nil when rate limiting is off.
func newEngine(cfg *config.Config, serviceName string, obs *observability, log *zap.Logger) (*gin.Engine, *middleware.RateLimiter) {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
		_ = engine.SetTrustedProxies(nil)
	}

	secure := middleware.DefaultSecurityConfig()
	secure.HSTSEnabled = cfg.HTTP.HSTSEnabled

	engine.Use(middleware.RequestID())
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: serviceName,
		Enabled:     obs.tracer.IsEnabled(),
	})...)
	engine.Use(
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: obs.meters,
			Enabled:       obs.meters.IsEnabled(),
			Logger:        log,
		}),
		middleware.ProfilingWithConfig(middleware.ProfilingConfig{
			Enabled:   obs.profiler.IsEnabled(),
			SkipPaths: middleware.DefaultProfilingConfig().SkipPaths,
		}),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.SecureWithConfig(secure),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
	}

	jwtCfg := middleware.DefaultJWTConfig(auth.NewJWTService(cfg.JWT))
	jwtCfg.Logger = log
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtCfg))

	return engine, limiter
}
