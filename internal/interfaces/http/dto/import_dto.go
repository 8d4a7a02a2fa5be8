package dto

import (
	"time"

	importapp "github.com/cosmetica/backend/internal/application/import"
	"github.com/cosmetica/backend/internal/domain/bulk"
	sheetimport "github.com/cosmetica/backend/internal/infrastructure/import"
	"github.com/google/uuid"
)

// CatalogImportRequest holds the form fields that accompany an uploaded sheet
type CatalogImportRequest struct {
	DryRun bool `form:"dry_run"`
}

// RunListRequest holds the query for listing runs
type RunListRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// RunIDRequest represents a request with a run id path parameter
type RunIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// CatalogImportResponse is the JSON form of an import result
type CatalogImportResponse struct {
	RunID            uuid.UUID               `json:"run_id"`
	FileName         string                  `json:"file_name"`
	DryRun           bool                    `json:"dry_run"`
	TotalRows        int                     `json:"total_rows"`
	ParsedRows       int                     `json:"parsed_rows"`
	SkippedRows      int                     `json:"skipped_rows"`
	ErrorRows        int                     `json:"error_rows"`
	MatchedByBarcode int                     `json:"matched_by_barcode"`
	MatchedByName    int                     `json:"matched_by_name"`
	NewRows          int                     `json:"new_rows"`
	UpdatedRows      int                     `json:"updated_rows"`
	PlannedRows      int                     `json:"planned_rows"`
	SucceededRows    int                     `json:"succeeded_rows"`
	FailedRows       int                     `json:"failed_rows"`
	Errors           []sheetimport.RowError  `json:"errors,omitempty"`
	IsTruncated      bool                    `json:"is_truncated,omitempty"`
	FailedDetails    []sheetimport.RowError  `json:"failed_details,omitempty"`
	UpdateSamples    []importapp.PriceChange `json:"update_samples,omitempty"`
	DurationMs       int64                   `json:"duration_ms"`
}

// NewCatalogImportResponse converts an import result
func NewCatalogImportResponse(r *importapp.ImportResult) CatalogImportResponse {
	return CatalogImportResponse{
		RunID:            r.RunID,
		FileName:         r.FileName,
		DryRun:           r.DryRun,
		TotalRows:        r.TotalRows,
		ParsedRows:       r.ParsedRows,
		SkippedRows:      r.SkippedRows,
		ErrorRows:        r.ErrorRows,
		MatchedByBarcode: r.MatchedByBarcode,
		MatchedByName:    r.MatchedByName,
		NewRows:          r.NewRows,
		UpdatedRows:      r.UpdatedRows,
		PlannedRows:      r.PlannedRows,
		SucceededRows:    r.SucceededRows,
		FailedRows:       r.FailedRows,
		Errors:           r.Errors,
		IsTruncated:      r.IsTruncated,
		FailedDetails:    r.FailedDetails,
		UpdateSamples:    r.UpdateSamples,
		DurationMs:       r.Duration.Milliseconds(),
	}
}

// ImportRunResponse is the JSON form of a recorded run
type ImportRunResponse struct {
	ID           uuid.UUID             `json:"id"`
	FileName     string                `json:"file_name"`
	Trigger      string                `json:"trigger"`
	DryRun       bool                  `json:"dry_run"`
	Status       string                `json:"status"`
	TotalRows    int                   `json:"total_rows"`
	NewRows      int                   `json:"new_rows"`
	UpdatedRows  int                   `json:"updated_rows"`
	Succeeded    int                   `json:"succeeded_rows"`
	Failed       int                   `json:"failed_rows"`
	ErrorRows    int                   `json:"error_rows"`
	SkippedRows  int                   `json:"skipped_rows"`
	FailReason   string                `json:"fail_reason,omitempty"`
	ErrorDetails []bulk.RunErrorDetail `json:"error_details,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	StartedAt    *time.Time            `json:"started_at,omitempty"`
	CompletedAt  *time.Time            `json:"completed_at,omitempty"`
}

// NewImportRunResponse converts a run; details are included only when asked for
func NewImportRunResponse(run *bulk.ImportRun, withDetails bool) ImportRunResponse {
	resp := ImportRunResponse{
		ID:          run.ID,
		FileName:    run.FileName,
		Trigger:     string(run.Trigger),
		DryRun:      run.DryRun,
		Status:      string(run.Status),
		TotalRows:   run.Totals.TotalRows,
		NewRows:     run.Totals.NewRows,
		UpdatedRows: run.Totals.UpdatedRows,
		Succeeded:   run.Totals.SucceededRows,
		Failed:      run.Totals.FailedRows,
		ErrorRows:   run.Totals.ParseErrorRows,
		SkippedRows: run.Totals.SkippedRows,
		FailReason:  run.FailReason,
		CreatedAt:   run.CreatedAt,
		StartedAt:   run.StartedAt,
		CompletedAt: run.CompletedAt,
	}
	if withDetails {
		resp.ErrorDetails = run.ErrorDetails
	}
	return resp
}
