package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	syncapp "github.com/storesync/backend/internal/application/catalogsync"
	"github.com/storesync/backend/internal/infrastructure/auth"
	"github.com/storesync/backend/internal/infrastructure/cache"
	"github.com/storesync/backend/internal/infrastructure/config"
	"github.com/storesync/backend/internal/infrastructure/ecommerce"
	"github.com/storesync/backend/internal/infrastructure/logger"
	"github.com/storesync/backend/internal/infrastructure/migration"
	"github.com/storesync/backend/internal/infrastructure/persistence"
	"github.com/storesync/backend/internal/infrastructure/storage"
	"github.com/storesync/backend/internal/infrastructure/telemetry"
	"github.com/storesync/backend/internal/interfaces/http/handler"
	"github.com/storesync/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.Setup(ctx, cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	log, err := logger.New(logCfg,
		logger.WithTee(telemetry.NewZapOTELCore(providers.Logs, cfg.Telemetry.ServiceName, zapcore.InfoLevel)),
		logger.WithFields(zap.String("version", version)),
	)
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting StoreSync backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	gormLog := logger.NewGormLogger(log,
		logger.MapGormLogLevel(cfg.Log.Level),
		cfg.Telemetry.DBSlowQueryThresh,
		cfg.Telemetry.DBLogFullSQL,
	)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Database.AutoMigrate {
		runMigrations(db, log)
	}

	dbMetrics, err := providers.InstrumentDB(ctx, db.DB)
	if err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}

	var syncMetrics *telemetry.SyncMetrics
	if providers.Meter.IsEnabled() {
		syncMetrics, err = telemetry.NewSyncMetrics(telemetry.SyncMetricsConfig{
			Meter:           providers.Meter.Meter("storesync.catalogsync"),
			Logger:          log,
			CollectInterval: cfg.Sync.AuditCollectInterval,
			AuditProvider:   telemetry.NewGormAuditHealthProvider(db.DB),
		})
		if err != nil {
			log.Fatal("Failed to create sync metrics", zap.Error(err))
		}
		syncMetrics.StartPeriodicCollection(ctx, cfg.Sync.AuditCollectInterval)
	}

	// Repositories
	storeRepo := persistence.NewGormStoreRepository(db.DB)
	accountRepo := persistence.NewGormSyncAccountRepository(db.DB)
	historyRepo := persistence.NewGormSyncHistoryRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	idempotency, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	var revocations auth.RevocationList = auth.NewInMemoryRevocationList()
	if cfg.Redis.Enabled() {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, token revocations are process local", zap.Error(err))
		} else {
			defer func() {
				_ = client.Close()
			}()
			revocations = auth.NewRedisRevocationList(client)
		}
	}

	registryOpts := []ecommerce.RegistryOption{ecommerce.WithLogger(log)}
	if syncMetrics != nil {
		registryOpts = append(registryOpts, ecommerce.WithRecorder(syncMetrics))
	}
	gateways := ecommerce.NewRegistry(cfg.Platform, registryOpts...)

	archive, linker := newReportArchive(cfg, log)

	// Application services
	opts := syncapp.Options{
		MaxRecords:          cfg.Sync.MaxRecords,
		ErrorSampleSize:     cfg.Sync.ErrorSampleSize,
		ChunkThresholdBytes: cfg.Sync.AuditChunkThresholdBytes,
		IdempotencyTTL:      cfg.Sync.ApplyIdempotencyTTL,
	}
	recorder := syncapp.NewAuditRecorder(txScope, historyRepo, opts.ChunkThresholdBytes, log)
	recorder.SetArchive(archive)
	previewService := syncapp.NewPreviewService(storeRepo, accountRepo, gateways, opts, log)
	applyService := syncapp.NewApplyService(storeRepo, accountRepo, gateways, idempotency, recorder, opts, log)
	historyService := syncapp.NewHistoryService(historyRepo, log)
	historyService.SetReportLinker(linker, cfg.Storage.PresignExpiration)
	quotaService := syncapp.NewQuotaService(accountRepo, log)
	storeService := syncapp.NewStoreService(storeRepo, log)
	if syncMetrics != nil {
		recorder.SetSyncMetrics(syncMetrics)
		previewService.SetSyncMetrics(syncMetrics)
		applyService.SetSyncMetrics(syncMetrics)
	}

	engine := router.NewEngine(router.EngineConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		HTTP:        cfg.HTTP,
		Tracing:     cfg.Telemetry.Enabled,
		Logger:      log,
		Meter:       providers.Meter,
		Validator:   auth.NewJWTValidator(cfg.JWT),
		Revocations: revocations,
	}, router.Handlers{
		System:      handler.NewSystemHandler(cfg.App.Name, version, db, log),
		CatalogSync: handler.NewCatalogSyncHandler(previewService, applyService, historyService, quotaService, storeService),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           engine,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if syncMetrics != nil {
		syncMetrics.Stop()
	}
	if dbMetrics != nil {
		dbMetrics.Stop()
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down telemetry", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// runMigrations applies the embedded schema before serving
func runMigrations(db *persistence.Database, log *zap.Logger) {
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get sql.DB for migrations", zap.Error(err))
	}
	m, err := migration.New(sqlDB, "", log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := m.Up(); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}
}

// newReportArchive returns the S3 archive when storage is enabled, or an
// in-memory stub otherwise.
func newReportArchive(cfg *config.Config, log *zap.Logger) (syncapp.ReportArchive, syncapp.ReportLinker) {
	if !cfg.Storage.Enabled {
		log.Info("Object storage disabled, archiving reports in memory")
		stub := storage.NewStubReportArchive()
		return stub, stub
	}

	s3Archive, err := storage.NewS3ReportArchive(&cfg.Storage,
		storage.WithLogger(log),
		storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
	)
	if err != nil {
		log.Fatal("Failed to create report archive", zap.Error(err))
	}
	return s3Archive, s3Archive
}
