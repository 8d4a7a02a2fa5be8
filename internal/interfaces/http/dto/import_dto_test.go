package dto

import (
	"testing"
	"time"

	importapp "github.com/cosmetica/backend/internal/application/import"
	"github.com/cosmetica/backend/internal/domain/bulk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalogImportResponse(t *testing.T) {
	resp := NewCatalogImportResponse(&importapp.ImportResult{
		FileName:      "urunler.xlsx",
		TotalRows:     3,
		NewRows:       1,
		UpdatedRows:   2,
		SucceededRows: 3,
		Duration:      2*time.Second + 250*time.Millisecond,
	})

	assert.Equal(t, "urunler.xlsx", resp.FileName)
	assert.Equal(t, 3, resp.SucceededRows)
	assert.Equal(t, int64(2250), resp.DurationMs)
}

func TestNewImportRunResponse(t *testing.T) {
	run, err := bulk.NewImportRun("urunler.xlsx", bulk.RunTriggerCLI, false)
	require.NoError(t, err)
	require.NoError(t, run.Start())
	require.NoError(t, run.Complete(
		bulk.RunTotals{TotalRows: 2, SucceededRows: 1, ParseErrorRows: 1},
		[]bulk.RunErrorDetail{{Row: 2, Code: "ERR_IMPORT_INVALID_PRICE", Message: "price missing"}},
	))

	summary := NewImportRunResponse(run, false)
	assert.Equal(t, "cli", summary.Trigger)
	assert.Equal(t, 1, summary.ErrorRows)
	assert.Empty(t, summary.ErrorDetails)
	assert.NotNil(t, summary.CompletedAt)

	detailed := NewImportRunResponse(run, true)
	assert.Len(t, detailed.ErrorDetails, 1)
}
