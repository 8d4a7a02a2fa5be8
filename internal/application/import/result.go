package importapp

import (
	"time"

	"github.com/cosmetica/backend/internal/domain/bulk"
	sheetimport "github.com/cosmetica/backend/internal/infrastructure/import"
	"github.com/google/uuid"
)

// ImportResult is the outcome of one import run. Every input row ends up in
// exactly one of Skipped, ErrorRows, SucceededRows or FailedRows (or in
// PlannedRows for a dry run).
type ImportResult struct {
	RunID            uuid.UUID              `json:"run_id"`
	FileName         string                 `json:"file_name"`
	DryRun           bool                   `json:"dry_run"`
	TotalRows        int                    `json:"total_rows"`
	ParsedRows       int                    `json:"parsed_rows"`
	SkippedRows      int                    `json:"skipped_rows"`
	ErrorRows        int                    `json:"error_rows"`
	MatchedByBarcode int                    `json:"matched_by_barcode"`
	MatchedByName    int                    `json:"matched_by_name"`
	NewRows          int                    `json:"new_rows"`
	UpdatedRows      int                    `json:"updated_rows"`
	PlannedRows      int                    `json:"planned_rows"`
	SucceededRows    int                    `json:"succeeded_rows"`
	FailedRows       int                    `json:"failed_rows"`
	Errors           []sheetimport.RowError `json:"errors,omitempty"`
	IsTruncated      bool                   `json:"is_truncated,omitempty"`
	FailedDetails    []sheetimport.RowError `json:"failed_details,omitempty"`
	UpdateSamples    []PriceChange          `json:"update_samples,omitempty"`
	Duration         time.Duration          `json:"duration_ns"`
}

// Totals converts the result into the counters stored with the run record
func (r *ImportResult) Totals() bulk.RunTotals {
	return bulk.RunTotals{
		TotalRows:        r.TotalRows,
		ParsedRows:       r.ParsedRows,
		ParseErrorRows:   r.ErrorRows,
		SkippedRows:      r.SkippedRows,
		MatchedByBarcode: r.MatchedByBarcode,
		MatchedByName:    r.MatchedByName,
		NewRows:          r.NewRows,
		UpdatedRows:      r.UpdatedRows,
		SucceededRows:    r.SucceededRows,
		FailedRows:       r.FailedRows,
	}
}

// ErrorDetails merges row errors and write failures for the run record
func (r *ImportResult) ErrorDetails() []bulk.RunErrorDetail {
	details := make([]bulk.RunErrorDetail, 0, len(r.Errors)+len(r.FailedDetails))
	for _, src := range [][]sheetimport.RowError{r.Errors, r.FailedDetails} {
		for _, e := range src {
			details = append(details, bulk.RunErrorDetail{Row: e.Row, Name: e.Name, Code: e.Code, Message: e.Message})
		}
	}
	return details
}
