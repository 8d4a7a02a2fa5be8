package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	importapp "github.com/cosmetica/backend/internal/application/import"
	"github.com/cosmetica/backend/internal/infrastructure/cache"
	"github.com/cosmetica/backend/internal/infrastructure/config"
	"github.com/cosmetica/backend/internal/infrastructure/logger"
	"github.com/cosmetica/backend/internal/infrastructure/persistence"
	"github.com/cosmetica/backend/internal/infrastructure/telemetry"
	"github.com/cosmetica/backend/internal/interfaces/http/handler"
	"github.com/cosmetica/backend/internal/interfaces/http/middleware"
	"github.com/cosmetica/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	configDir := flag.String("config-dir", ".", "Directory holding config.toml and .env.local")
	flag.Parse()

	cfg, err := config.LoadFrom(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logCfg := logger.ProductionConfig()
	logCfg.Level = cfg.Log.Level
	if cfg.App.Env == "development" {
		logCfg.Format = cfg.Log.Format
	}
	log, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting catalog import server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.HTTP.Port),
		zap.String("version", version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		_ = tp.Shutdown(context.Background())
	}()

	db, err := persistence.NewDatabase(&cfg.Store, persistence.DatabaseOptions{
		Logger:   log,
		LogLevel: logger.MapGormLogLevel(cfg.Log.Level),
		Tracing:  persistence.TracingConfigFrom(cfg.Telemetry),
	})
	if err != nil {
		log.Fatal("Failed to connect to catalog store",
			zap.String("store", cfg.Store.Redacted()),
			zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Catalog store connected", zap.String("store", cfg.Store.Redacted()))

	lock, err := cache.NewRunLockFactory(cfg.Redis, cache.WithLogger(log)).CreateLock(ctx)
	if err != nil {
		log.Fatal("Failed to create run lock", zap.Error(err))
	}

	runRepo := persistence.NewGormImportRunRepository(db.DB)
	importService := importapp.NewCatalogImportService(
		persistence.NewGormProductRepository(db.DB),
		runRepo,
		lock,
		validator.New(),
		log,
		importapp.ServiceOptions{
			LookupPageSize:   cfg.Import.LookupPageSize,
			UpsertPageSize:   cfg.Import.UpsertPageSize,
			MaxErrors:        cfg.Import.MaxErrors,
			LockTTL:          cfg.Import.LockTTL,
			DefaultBrand:     cfg.Import.DefaultBrand,
			PlaceholderImage: cfg.Import.PlaceholderImage,
		},
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSOrigins

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
			SkipPaths:   []string{"/health", "/system/ping"},
		}),
		middleware.SpanAttributes(),
		middleware.Secure(),
		middleware.CORSWithConfig(corsCfg),
	)

	r := router.NewRouter(engine, router.WithAdminMiddleware(
		middleware.AdminKey(cfg.Store.ServiceKey, log),
		middleware.UploadLimit(cfg.HTTP.MaxUploadSize),
	))
	r.Register(handler.NewSystemHandler(db, version))
	r.RegisterAdmin(handler.NewCatalogImportHandler(
		importService,
		importapp.NewRunHistoryService(runRepo),
		cfg.HTTP.MaxUploadSize,
		log,
	))
	r.Setup()

	for _, route := range r.Routes() {
		log.Debug("Route registered", zap.String("method", route.Method), zap.String("path", route.Path))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.HTTP.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case err := <-serverErr:
		log.Error("Server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	log.Info("Server exited gracefully")
}
