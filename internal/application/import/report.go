package importapp

import (
	"fmt"
	"io"
	"strings"
)

// Console limits
const (
	ConsoleParseErrorLimit  = 10
	ConsoleFailedRowLimit   = 20
	consoleSummaryRuleWidth = 40
)

// Reporter receives human-readable progress for an import run
type Reporter interface {
	RowsRead(fileName string, rows int)
	Parsed(outcome *ParseOutcome)
	Preflight(index *MatchIndex)
	Planned(batch *Batch, dryRun bool)
	PageWritten(page, pages, rows int, err error)
	Summary(result *ImportResult)
}

// ConsoleReporter prints operator output, separate from structured logs
type ConsoleReporter struct {
	w io.Writer
}

// NewConsoleReporter writes to w
func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{w: w}
}

func (c *ConsoleReporter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.w, format+"\n", args...)
}

func (c *ConsoleReporter) RowsRead(fileName string, rows int) {
	c.printf("Read %d rows from %s", rows, fileName)
}

func (c *ConsoleReporter) Parsed(outcome *ParseOutcome) {
	c.printf("Parsed %d products (%d blank rows skipped)", len(outcome.Products), outcome.Skipped)
	if !outcome.Errors.HasErrors() {
		return
	}

	c.printf("%d rows could not be parsed:", outcome.Errors.TotalCount())
	errs := outcome.Errors.Errors()
	for i, e := range errs {
		if i == ConsoleParseErrorLimit {
			break
		}
		c.printf("  - %s", e.Error())
	}
	if extra := outcome.Errors.TotalCount() - min(len(errs), ConsoleParseErrorLimit); extra > 0 {
		c.printf("  ... and %d more", extra)
	}
}

func (c *ConsoleReporter) Preflight(index *MatchIndex) {
	c.printf("Existing catalog matches: %d by barcode, %d by name", index.MatchedByBarcode, index.MatchedByName)
}

func (c *ConsoleReporter) Planned(batch *Batch, dryRun bool) {
	for _, s := range batch.UpdateSamples {
		c.printf("  update row %d %q (%s): %s -> %s", s.Row, s.Name, s.Match, formatMinor(s.OldPrice), formatMinor(s.NewPrice))
	}
	for _, e := range batch.Invalid {
		c.printf("  invalid: %s", e.Error())
	}
	if dryRun {
		c.printf("Dry run: %d new, %d updates planned in %d writes; nothing written", batch.New, batch.Updated, len(batch.Writes))
	}
}

func (c *ConsoleReporter) PageWritten(page, pages, rows int, err error) {
	if err != nil {
		c.printf("Batch %d/%d failed (%d rows): %v", page, pages, rows, err)
		return
	}
	c.printf("Batch %d/%d upserted (%d rows)", page, pages, rows)
}

func (c *ConsoleReporter) Summary(r *ImportResult) {
	rule := strings.Repeat("=", consoleSummaryRuleWidth)
	c.printf("%s", rule)
	if r.DryRun {
		c.printf("Import summary (dry run)")
	} else {
		c.printf("Import summary")
	}
	c.printf("  total:     %d", r.TotalRows)
	c.printf("  new:       %d", r.NewRows)
	c.printf("  updated:   %d", r.UpdatedRows)
	c.printf("  succeeded: %d", r.SucceededRows)
	c.printf("  failed:    %d", r.FailedRows)
	if r.SkippedRows > 0 || r.ErrorRows > 0 {
		c.printf("  skipped:   %d, errors: %d", r.SkippedRows, r.ErrorRows)
	}
	c.printf("%s", rule)

	if len(r.FailedDetails) == 0 {
		return
	}
	c.printf("Failed rows:")
	for i, e := range r.FailedDetails {
		if i == ConsoleFailedRowLimit {
			c.printf("  ... and %d more", r.FailedRows-ConsoleFailedRowLimit)
			break
		}
		c.printf("  - %s", e.Error())
	}
}

func formatMinor(v int64) string {
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

type nopReporter struct{}

func (nopReporter) RowsRead(string, int)             {}
func (nopReporter) Parsed(*ParseOutcome)             {}
func (nopReporter) Preflight(*MatchIndex)            {}
func (nopReporter) Planned(*Batch, bool)             {}
func (nopReporter) PageWritten(int, int, int, error) {}
func (nopReporter) Summary(*ImportResult)            {}
