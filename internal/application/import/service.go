package importapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cosmetica/backend/internal/domain/bulk"
	"github.com/cosmetica/backend/internal/domain/catalog"
	sheetimport "github.com/cosmetica/backend/internal/infrastructure/import"
	"github.com/cosmetica/backend/internal/infrastructure/telemetry"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrImportInProgress is returned when another run holds the import lock
var ErrImportInProgress = errors.New("another catalog import is in progress")

// DefaultUpsertPageSize bounds the number of entries per upsert statement
const DefaultUpsertPageSize = 100

// ServiceOptions tune a CatalogImportService
type ServiceOptions struct {
	LookupPageSize   int
	UpsertPageSize   int
	MaxErrors        int
	LockTTL          time.Duration
	DefaultBrand     string
	PlaceholderImage string
	BuilderOptions   []BuilderOption
}

// RunOptions describe one invocation
type RunOptions struct {
	DryRun   bool
	Trigger  bulk.RunTrigger
	Reporter Reporter
}

// CatalogImportService reconciles a product sheet into the catalog
type CatalogImportService struct {
	repo     catalog.ProductRepository
	runRepo  bulk.ImportRunRepository
	lock     bulk.RunLock
	parser   *RowParser
	resolver *Resolver
	builder  *BatchBuilder
	logger   *zap.Logger
	opts     ServiceOptions
}

// NewCatalogImportService creates the service. runRepo and lock may be nil.
func NewCatalogImportService(
	repo catalog.ProductRepository,
	runRepo bulk.ImportRunRepository,
	lock bulk.RunLock,
	validate *validator.Validate,
	logger *zap.Logger,
	opts ServiceOptions,
) *CatalogImportService {
	if opts.UpsertPageSize <= 0 {
		opts.UpsertPageSize = DefaultUpsertPageSize
	}
	if opts.LookupPageSize <= 0 {
		opts.LookupPageSize = DefaultLookupPageSize
	}
	if opts.MaxErrors <= 0 {
		opts.MaxErrors = sheetimport.DefaultMaxErrors
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 30 * time.Minute
	}
	if validate == nil {
		validate = validator.New()
	}

	return &CatalogImportService{
		repo:     repo,
		runRepo:  runRepo,
		lock:     lock,
		parser:   NewRowParser(opts.DefaultBrand, opts.PlaceholderImage),
		resolver: NewResolver(repo, opts.LookupPageSize, logger),
		builder:  NewBatchBuilder(validate, logger, opts.BuilderOptions...),
		logger:   logger,
		opts:     opts,
	}
}

// Run imports the sheet. Row-level problems are reported in the result; an
// error is returned only when the run could not proceed (lock held, catalog
// lookup failure, cancellation).
func (s *CatalogImportService) Run(ctx context.Context, fileName string, sheet *sheetimport.Sheet, opts RunOptions) (*ImportResult, error) {
	started := time.Now()
	reporter := opts.Reporter
	if reporter == nil {
		reporter = nopReporter{}
	}
	if opts.Trigger == "" {
		opts.Trigger = bulk.RunTriggerCLI
	}

	release, err := s.acquireLock(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	run := s.startRun(ctx, fileName, opts)
	result := &ImportResult{
		RunID:     run.ID,
		FileName:  fileName,
		DryRun:    opts.DryRun,
		TotalRows: len(sheet.Rows),
	}

	ctx, span := telemetry.StartSpan(ctx, "catalog_import.run",
		telemetry.SpanAttrRunID, run.ID.String(),
		telemetry.SpanAttrFileName, fileName,
		telemetry.SpanAttrDryRun, opts.DryRun,
		telemetry.SpanAttrRowCount, len(sheet.Rows),
	)
	defer span.End()

	log := s.logger.With(zap.String("run_id", run.ID.String()), zap.String("file", fileName))
	log.Info("Catalog import started", zap.Int("rows", len(sheet.Rows)), zap.Bool("dry_run", opts.DryRun))
	reporter.RowsRead(fileName, len(sheet.Rows))

	outcome := s.parse(ctx, sheet)
	result.ParsedRows = len(outcome.Products)
	result.SkippedRows = outcome.Skipped
	reporter.Parsed(outcome)

	index, err := s.resolver.Resolve(ctx, outcome.Products)
	if err != nil {
		telemetry.RecordError(span, err)
		log.Error("Catalog lookup failed", zap.Error(err))
		s.failRun(ctx, run, err)
		return nil, fmt.Errorf("resolve existing catalog entries: %w", err)
	}
	result.MatchedByBarcode = index.MatchedByBarcode
	result.MatchedByName = index.MatchedByName
	reporter.Preflight(index)

	_, buildSpan := telemetry.StartSpan(ctx, "catalog_import.build")
	batch := s.builder.Build(outcome.Products, index)
	telemetry.SetAttributes(buildSpan,
		telemetry.SpanAttrNewRows, batch.New,
		telemetry.SpanAttrUpdated, batch.Updated,
		telemetry.SpanAttrErrorRows, len(batch.Invalid),
	)
	buildSpan.End()

	for _, e := range batch.Invalid {
		outcome.Errors.Add(e)
	}
	result.ErrorRows = outcome.Errors.TotalCount()
	result.Errors = outcome.Errors.Errors()
	result.IsTruncated = outcome.Errors.IsTruncated()
	result.NewRows = batch.New
	result.UpdatedRows = batch.Updated
	result.UpdateSamples = batch.UpdateSamples
	reporter.Planned(batch, opts.DryRun)

	if opts.DryRun {
		result.PlannedRows = batch.RowCount()
	} else if err := s.write(ctx, batch, result, reporter); err != nil {
		telemetry.RecordError(span, err)
		log.Error("Catalog import interrupted", zap.Error(err))
		s.failRun(ctx, run, err)
		return result, err
	}

	result.Duration = time.Since(started)
	telemetry.SetAttributes(span, telemetry.SpanAttrFailed, result.FailedRows)
	s.completeRun(ctx, run, result)
	reporter.Summary(result)

	log.Info("Catalog import finished",
		zap.Int("total", result.TotalRows),
		zap.Int("new", result.NewRows),
		zap.Int("updated", result.UpdatedRows),
		zap.Int("succeeded", result.SucceededRows),
		zap.Int("failed", result.FailedRows),
		zap.Int("errors", result.ErrorRows),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

func (s *CatalogImportService) parse(ctx context.Context, sheet *sheetimport.Sheet) *ParseOutcome {
	_, span := telemetry.StartSpan(ctx, "catalog_import.parse", telemetry.SpanAttrRowCount, len(sheet.Rows))
	defer span.End()

	outcome := s.parser.ParseRows(sheet.Rows, s.opts.MaxErrors)
	telemetry.SetAttributes(span, telemetry.SpanAttrErrorRows, outcome.Errors.TotalCount())
	return outcome
}

// write upserts the batch page by page. A failed page marks its rows failed
// and the loop moves on; only cancellation stops it.
func (s *CatalogImportService) write(ctx context.Context, batch *Batch, result *ImportResult, reporter Reporter) error {
	failures := sheetimport.NewErrorCollection(s.opts.MaxErrors)
	defer func() { result.FailedDetails = failures.Errors() }()

	pages := chunk(batch.Writes, s.opts.UpsertPageSize)
	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("import cancelled before page %d/%d: %w", i+1, len(pages), err)
		}

		rows := 0
		products := make([]*catalog.Product, len(page))
		for j, w := range page {
			products[j] = w.Product
			rows += len(w.Rows)
		}

		pageCtx, span := telemetry.StartSpan(ctx, "catalog_import.write_page",
			telemetry.SpanAttrPage, i+1,
			telemetry.SpanAttrPageSize, len(products),
		)
		err := s.repo.UpsertBatch(pageCtx, products)
		if err != nil {
			telemetry.RecordError(span, err)
		}
		span.End()

		reporter.PageWritten(i+1, len(pages), rows, err)
		if err != nil {
			s.logger.Warn("Upsert page failed", zap.Int("page", i+1), zap.Int("rows", rows), zap.Error(err))
			result.FailedRows += rows
			for _, w := range page {
				for _, row := range w.Rows {
					failures.AddRowError(row, w.Product.Name, sheetimport.ErrCodeImportUpsertFailed, err.Error())
				}
			}
			continue
		}
		result.SucceededRows += rows
	}
	return nil
}

func (s *CatalogImportService) acquireLock(ctx context.Context) (func(), error) {
	if s.lock == nil {
		return func() {}, nil
	}
	token, ok, err := s.lock.TryAcquire(ctx, bulk.CatalogImportLockKey, s.opts.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire import lock: %w", err)
	}
	if !ok {
		return nil, ErrImportInProgress
	}
	return func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), bulk.CatalogImportLockKey, token); err != nil {
			s.logger.Warn("Failed to release import lock", zap.Error(err))
		}
	}, nil
}

// startRun records the run when a repository is configured. History is
// best effort and never blocks the import itself.
func (s *CatalogImportService) startRun(ctx context.Context, fileName string, opts RunOptions) *bulk.ImportRun {
	run, err := bulk.NewImportRun(fileName, opts.Trigger, opts.DryRun)
	if err != nil {
		s.logger.Warn("Invalid import run record", zap.Error(err))
		run = &bulk.ImportRun{FileName: fileName, Trigger: opts.Trigger, DryRun: opts.DryRun, Status: bulk.RunStatusPending}
		run.ID = uuid.New()
	}
	_ = run.Start()
	s.saveRun(ctx, run)
	return run
}

func (s *CatalogImportService) completeRun(ctx context.Context, run *bulk.ImportRun, result *ImportResult) {
	if err := run.Complete(result.Totals(), result.ErrorDetails()); err != nil {
		s.logger.Warn("Cannot complete import run", zap.Error(err))
		return
	}
	s.saveRun(ctx, run)
}

func (s *CatalogImportService) failRun(ctx context.Context, run *bulk.ImportRun, cause error) {
	if err := run.Fail(cause.Error()); err != nil {
		s.logger.Warn("Cannot fail import run", zap.Error(err))
		return
	}
	s.saveRun(context.WithoutCancel(ctx), run)
}

func (s *CatalogImportService) saveRun(ctx context.Context, run *bulk.ImportRun) {
	if s.runRepo == nil {
		return
	}
	if err := s.runRepo.Save(ctx, run); err != nil {
		s.logger.Warn("Failed to save import run", zap.String("run_id", run.ID.String()), zap.Error(err))
	}
}
