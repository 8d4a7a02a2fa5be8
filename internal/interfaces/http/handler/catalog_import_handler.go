package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	importapp "github.com/cosmetica/backend/internal/application/import"
	"github.com/cosmetica/backend/internal/domain/bulk"
	sheetimport "github.com/cosmetica/backend/internal/infrastructure/import"
	"github.com/cosmetica/backend/internal/interfaces/http/dto"
	"github.com/cosmetica/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxUploadSize is used when no upload limit is configured
const DefaultMaxUploadSize int64 = 10 << 20

var allowedSheetExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".csv":  true,
}

// CatalogImporter runs one reconciliation of a decoded sheet
type CatalogImporter interface {
	Run(ctx context.Context, fileName string, sheet *sheetimport.Sheet, opts importapp.RunOptions) (*importapp.ImportResult, error)
}

// RunHistory reads back recorded import runs
type RunHistory interface {
	ListRecent(ctx context.Context, limit int) ([]*bulk.ImportRun, error)
	Get(ctx context.Context, id uuid.UUID) (*bulk.ImportRun, error)
	ErrorsCSV(ctx context.Context, id uuid.UUID) ([]byte, string, error)
}

// CatalogImportHandler exposes catalog imports over HTTP
type CatalogImportHandler struct {
	BaseHandler
	importer      CatalogImporter
	history       RunHistory
	maxUploadSize int64
	logger        *zap.Logger
}

// NewCatalogImportHandler creates a new CatalogImportHandler
func NewCatalogImportHandler(importer CatalogImporter, history RunHistory, maxUploadSize int64, logger *zap.Logger) *CatalogImportHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxUploadSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogImportHandler{
		importer:      importer,
		history:       history,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// RegisterRoutes mounts the import endpoints on rg
func (h *CatalogImportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/catalog/import", h.Import)
	rg.GET("/catalog/import-runs", h.ListRuns)
	rg.GET("/catalog/import-runs/:id", h.GetRun)
	rg.GET("/catalog/import-runs/:id/errors", h.DownloadRunErrors)
}

// Import handles POST /catalog/import
func (h *CatalogImportHandler) Import(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.payloadTooLarge(c)
			return
		}
		h.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	var req dto.CatalogImportRequest
	if err := c.ShouldBind(&req); err != nil {
		h.BadRequest(c, "invalid form: "+err.Error())
		return
	}

	if header.Size > h.maxUploadSize {
		h.payloadTooLarge(c)
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedSheetExtensions[ext] {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, "file must be .xlsx, .xlsm or .csv")
		return
	}

	sheet, err := sheetimport.ReadSheet(header.Filename, file)
	if err != nil {
		if errors.Is(err, sheetimport.ErrEmptySheet) || errors.Is(err, sheetimport.ErrEmptyFile) {
			h.ErrorWithCode(c, dto.ErrCodeImportEmptySheet, "sheet has no header or data rows")
			return
		}
		h.ErrorWithCode(c, dto.ErrCodeImportUnreadable, "could not read sheet: "+err.Error())
		return
	}

	result, err := h.importer.Run(c.Request.Context(), header.Filename, sheet, importapp.RunOptions{
		DryRun:  req.DryRun,
		Trigger: bulk.RunTriggerHTTP,
	})
	if err != nil {
		if errors.Is(err, importapp.ErrImportInProgress) {
			h.Conflict(c, dto.ErrCodeImportInProgress, err.Error())
			return
		}
		h.logger.Error("catalog import failed",
			zap.String("request_id", getRequestID(c)),
			zap.String("file", header.Filename),
			zap.Error(err))
		h.InternalError(c, "catalog import failed")
		return
	}

	h.Success(c, dto.NewCatalogImportResponse(result))
}

// ListRuns handles GET /catalog/import-runs
func (h *CatalogImportHandler) ListRuns(c *gin.Context) {
	var req dto.RunListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	runs, err := h.history.ListRecent(c.Request.Context(), req.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	limit := req.Limit
	if limit == 0 {
		limit = importapp.DefaultHistoryLimit
	}
	items := make([]dto.ImportRunResponse, 0, len(runs))
	for _, run := range runs {
		items = append(items, dto.NewImportRunResponse(run, false))
	}
	h.SuccessList(c, items, len(items), limit)
}

// GetRun handles GET /catalog/import-runs/:id
func (h *CatalogImportHandler) GetRun(c *gin.Context) {
	id, ok := h.bindRunID(c)
	if !ok {
		return
	}

	run, err := h.history.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewImportRunResponse(run, true))
}

// DownloadRunErrors handles GET /catalog/import-runs/:id/errors
func (h *CatalogImportHandler) DownloadRunErrors(c *gin.Context) {
	id, ok := h.bindRunID(c)
	if !ok {
		return
	}

	content, fileName, err := h.history.ErrorsCSV(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, importapp.ErrNoRunErrors) {
			h.ErrorWithCode(c, dto.ErrCodeImportNoErrors, err.Error())
			return
		}
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", content)
}

func (h *CatalogImportHandler) bindRunID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.RunIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "invalid run id")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "invalid run id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *CatalogImportHandler) payloadTooLarge(c *gin.Context) {
	h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge,
		fmt.Sprintf("file exceeds maximum size of %d bytes", h.maxUploadSize))
}
