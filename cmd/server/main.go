package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mystock/warehouse/internal/application/inventory"
	reportapp "github.com/mystock/warehouse/internal/application/report"
	"github.com/mystock/warehouse/internal/infrastructure/config"
	"github.com/mystock/warehouse/internal/infrastructure/event"
	"github.com/mystock/warehouse/internal/infrastructure/logger"
	"github.com/mystock/warehouse/internal/infrastructure/persistence"
	"github.com/mystock/warehouse/internal/infrastructure/storage"
	"github.com/mystock/warehouse/internal/infrastructure/telemetry"
	"github.com/mystock/warehouse/internal/interfaces/http/handler"
	"github.com/mystock/warehouse/internal/interfaces/http/middleware"
	"github.com/mystock/warehouse/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx := context.Background()

	// Telemetry providers stay no-op unless enabled in config
	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	log = loggerProvider.Bridge(log, cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level))
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		_ = meterProvider.Shutdown(shutdownCtx)
		_ = tracerProvider.Shutdown(shutdownCtx)
		_ = loggerProvider.Shutdown(shutdownCtx)
	}()

	log.Info("Starting warehouse",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("storage", cfg.Storage.Driver),
	)

	// Snapshot store
	store, checks, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open snapshot store", zap.Error(err))
	}
	defer closeStore()

	// Event bus and inventory engine
	eventBus := event.NewInMemoryEventBus(log)
	engine := inventory.NewEngine(
		inventory.WithLogger(log),
		inventory.WithEventPublisher(eventBus),
		inventory.WithLowStockThreshold(cfg.Inventory.LowStockThreshold),
		inventory.WithAuditAdjustments(cfg.Inventory.RecordAuditAdjustments),
	)

	projections := reportapp.NewProjections(engine, engine.LowStockThreshold())
	var reader reportapp.Reader = projections
	if cfg.Inventory.CacheProjections {
		reader = reportapp.NewCachedProjections(projections)
	}

	persister := inventory.NewSnapshotPersister(engine, store, log)
	alertHandler := inventory.NewStockBelowThresholdHandler(log).
		WithNotifier(inventory.NewLoggingStockAlertNotifier(log))
	eventBus.Subscribe(persister)
	eventBus.Subscribe(alertHandler)

	metrics, err := telemetry.NewInventoryMetrics(meterProvider.Meter(telemetry.TracerName), reader, log)
	if err != nil {
		log.Fatal("Failed to register inventory metrics", zap.Error(err))
	}
	defer func() {
		_ = metrics.Close()
	}()
	eventBus.Subscribe(metrics)

	log.Info("Event handlers registered",
		zap.Strings("snapshot_events", persister.EventTypes()),
		zap.Strings("stock_alert_events", alertHandler.EventTypes()),
		zap.Strings("metric_events", metrics.EventTypes()),
	)

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	if inventory.LoadState(ctx, store, engine, log) {
		log.Info("Inventory restored",
			zap.Int("transactions", engine.TransactionCount()),
			zap.Uint64("version", engine.Version()),
		)
	}

	// Report export
	reportStorage, err := openReportStorage(ctx, cfg.Export, log)
	if err != nil {
		log.Fatal("Failed to initialize report storage", zap.Error(err))
	}
	exporter := reportapp.NewExportService(reader, reportStorage, log)

	// Initialize HTTP handlers
	inventoryHandler := handler.NewInventoryHandler(engine)
	reportHandler := handler.NewReportHandler(reader, exporter, engine, cfg.Inventory.RecentActivityLimit)
	healthHandler := handler.NewHealthHandler(engine)
	for name, check := range checks {
		healthHandler.WithCheck(name, check)
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpEngine, err := router.NewEngine(router.EngineConfig{
		Logger:         log,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		CORS:           middleware.DefaultCORSConfig(),
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tracerProvider.IsEnabled(),
		},
	})
	if err != nil {
		log.Fatal("Failed to create HTTP engine", zap.Error(err))
	}
	router.NewRouter(httpEngine).
		Register(inventoryHandler).
		Register(reportHandler).
		Register(healthHandler).
		Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        httpEngine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := persister.Flush(shutdownCtx); err != nil {
		log.Error("Failed to flush inventory snapshot", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// openStore selects the snapshot store for the configured driver. It returns
// the health checks of the backing service and a function releasing it.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (inventory.SnapshotStore, map[string]handler.HealthCheck, func(), error) {
	checks := make(map[string]handler.HealthCheck)
	noop := func() {}

	switch cfg.Storage.Driver {
	case config.StorageMemory:
		return persistence.NewMemoryStore(), checks, noop, nil

	case config.StorageFile:
		return persistence.NewFileStore(cfg.Storage.FilePath), checks, noop, nil

	case config.StorageSQLite, config.StoragePostgres:
		db, err := persistence.NewDatabase(cfg.Storage.Driver, &cfg.Database, logger.NewGormLogger(log, cfg.Log.Level))
		if err != nil {
			return nil, nil, nil, err
		}
		if cfg.Telemetry.Enabled && cfg.Telemetry.DBTracing {
			if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
				Enabled:  true,
				DBSystem: cfg.Storage.Driver,
			}, log); err != nil {
				log.Warn("Database tracing unavailable", zap.Error(err))
			}
		}
		if err := db.Migrate(); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		log.Info("Database connected successfully", zap.String("driver", cfg.Storage.Driver))
		checks["database"] = func(context.Context) error { return db.Ping() }
		return persistence.NewGormStore(db.DB), checks, func() {
			if err := db.Close(); err != nil {
				log.Error("Error closing database", zap.Error(err))
			}
		}, nil

	case config.StorageRedis:
		client, err := persistence.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, nil, err
		}
		log.Info("Redis connected successfully", zap.String("addr", cfg.Redis.Addr()))
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		return persistence.NewRedisStore(client, cfg.Redis.KeyPrefix), checks, func() {
			if err := client.Close(); err != nil {
				log.Error("Error closing redis client", zap.Error(err))
			}
		}, nil
	}
	return nil, nil, nil, errors.New("unknown storage driver " + cfg.Storage.Driver)
}

func openReportStorage(ctx context.Context, cfg config.ExportConfig, log *zap.Logger) (reportapp.ReportStorage, error) {
	if cfg.Backend != config.ExportS3 {
		return storage.NewLocalReportStorage(cfg.LocalDir), nil
	}

	s3Storage, err := storage.NewS3ReportStorage(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	bucketCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := s3Storage.EnsureBucket(bucketCtx); err != nil {
		return nil, err
	}
	return s3Storage, nil
}
