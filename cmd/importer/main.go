package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	importapp "github.com/cosmetica/backend/internal/application/import"
	"github.com/cosmetica/backend/internal/domain/bulk"
	"github.com/cosmetica/backend/internal/infrastructure/cache"
	"github.com/cosmetica/backend/internal/infrastructure/config"
	sheetimport "github.com/cosmetica/backend/internal/infrastructure/import"
	"github.com/cosmetica/backend/internal/infrastructure/logger"
	"github.com/cosmetica/backend/internal/infrastructure/persistence"
	"github.com/cosmetica/backend/internal/infrastructure/storage"
	"github.com/cosmetica/backend/internal/infrastructure/telemetry"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configDir string
		logLevel  string
		dryRun    bool
	)
	flag.StringVar(&configDir, "config-dir", ".", "Directory holding config.toml and .env.local")
	flag.StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	flag.BoolVar(&dryRun, "dry-run", false, "Parse and plan the import without writing")
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() != 1 {
		printUsage()
		return 2
	}
	location := flag.Arg(0)

	cfg, err := config.LoadFrom(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		if errors.Is(err, config.ErrMissingStoreURL) || errors.Is(err, config.ErrMissingServiceKey) {
			fmt.Fprintln(os.Stderr, "Create .env.local with COSMETICA_STORE_URL and COSMETICA_STORE_SERVICE_KEY, or export them.")
		}
		return 1
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() {
		_ = log.Sync()
	}()

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
		log.Error("Failed to initialize tracing", zap.Error(err))
		return 1
	}
	defer func() {
		_ = tp.Shutdown(context.Background())
	}()

	sheet, fileName, err := readInput(ctx, cfg, location, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Input error: %v\n", err)
		var notFound *storage.SheetNotFoundError
		if errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Looked in: %v\n", notFound.Tried)
		}
		return 1
	}

	db, err := persistence.NewDatabase(&cfg.Store, persistence.DatabaseOptions{
		Logger:   log,
		LogLevel: logger.MapGormLogLevel(cfg.Log.Level),
		Tracing:  persistence.TracingConfigFrom(cfg.Telemetry),
	})
	if err != nil {
		log.Error("Failed to connect to catalog store",
			zap.String("store", cfg.Store.Redacted()),
			zap.Error(err))
		return 1
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("Error closing database", zap.Error(err))
		}
	}()

	lock, err := cache.NewRunLockFactory(cfg.Redis, cache.WithLogger(log)).CreateLock(ctx)
	if err != nil {
		log.Error("Failed to create run lock", zap.Error(err))
		return 1
	}
	if closer, ok := lock.(interface{ Close() error }); ok {
		defer func() {
			_ = closer.Close()
		}()
	}

	svc := importapp.NewCatalogImportService(
		persistence.NewGormProductRepository(db.DB),
		persistence.NewGormImportRunRepository(db.DB),
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

	_, err = svc.Run(ctx, fileName, sheet, importapp.RunOptions{
		DryRun:   dryRun,
		Trigger:  bulk.RunTriggerCLI,
		Reporter: importapp.NewConsoleReporter(os.Stdout),
	})
	if err != nil {
		switch {
		case errors.Is(err, importapp.ErrImportInProgress):
			fmt.Fprintln(os.Stderr, "Another catalog import is running; try again when it has finished.")
		case errors.Is(err, context.Canceled):
			fmt.Fprintln(os.Stderr, "Import interrupted; pages already written stay applied, rerun to converge.")
		default:
			fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		}
		log.Error("Catalog import failed", zap.String("file", fileName), zap.Error(err))
		return 1
	}
	return 0
}

// readInput resolves location to a local file or S3 object and decodes it
func readInput(ctx context.Context, cfg *config.Config, location string, log *zap.Logger) (*sheetimport.Sheet, string, error) {
	locator := &storage.SheetLocator{Local: storage.NewLocalSheetSource(cfg.Import.SearchDirs)}
	if storage.IsS3URI(location) {
		s3Source, err := storage.NewS3SheetSource(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			return nil, "", err
		}
		locator.S3 = s3Source
	}

	name, body, err := locator.Open(ctx, location)
	if err != nil {
		return nil, "", err
	}
	defer body.Close()

	log.Info("Reading sheet", zap.String("location", location), zap.String("file", name))
	sheet, err := sheetimport.ReadSheet(name, body)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", name, err)
	}
	return sheet, name, nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Cosmetica catalog importer

Usage:
  importer [flags] <sheet.xlsx|sheet.csv|s3://bucket/key>

A bare file name that does not exist is looked up in import.search_dirs
(default ./data, ./scripts, ~/Downloads).

Flags:
  -config-dir string    Directory holding config.toml and .env.local (default ".")
  -log-level string     Log level override: debug, info, warn, error
  -dry-run              Parse and plan the import without writing

Environment Variables:
  COSMETICA_STORE_URL, COSMETICA_STORE_SERVICE_KEY (required)
  COSMETICA_REDIS_ENABLED, COSMETICA_STORAGE_REGION, COSMETICA_TELEMETRY_ENABLED`)
}
