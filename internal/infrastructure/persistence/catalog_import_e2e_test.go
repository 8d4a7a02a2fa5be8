package persistence

import (
	"context"
	"testing"
	"time"

	importapp "github.com/cosmetica/backend/internal/application/import"
	"github.com/cosmetica/backend/internal/domain/bulk"
	"github.com/cosmetica/backend/internal/domain/catalog"
	sheetimport "github.com/cosmetica/backend/internal/infrastructure/import"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func catalogSheet(rows ...[]any) *sheetimport.Sheet {
	headers := []string{"Barkod", "Ürün Adı", "Marka", "Fiyat", "Eski Fiyat", "Kategori"}
	sheet := &sheetimport.Sheet{Name: "urunler.xlsx", Headers: headers}
	for i, values := range rows {
		sheet.Rows = append(sheet.Rows, sheetimport.NewRow(i+1, i+2, headers, values))
	}
	return sheet
}

func TestCatalogImport_AgainstGormRepositories(t *testing.T) {
	db := setupCatalogTestDB(t)
	ctx := context.Background()

	existing := newCatalogProduct(t, "eski-krem-x1", "Eski Krem", "8690000000011",
		time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
	products := NewGormProductRepository(db)
	require.NoError(t, products.UpsertBatch(ctx, []*catalog.Product{existing}))

	runs := NewGormImportRunRepository(db)
	svc := importapp.NewCatalogImportService(products, runs, nil, validator.New(), zaptest.NewLogger(t), importapp.ServiceOptions{
		LookupPageSize: 2,
		UpsertPageSize: 2,
	})
	sheet := func() *sheetimport.Sheet {
		return catalogSheet(
			[]any{"8690000000011", "Nemlendirici Krem", "Cosmetica", "129,90", "149,90", "Cilt Bakımı"},
			[]any{"", "Mat Ruj", "Lumi", "199", "", "Makyaj"},
			[]any{"8690000000099", "Gül Suyu", "", "39,90", "", "cilt-bakimi"},
			[]any{"8690000000099", "Gül Suyu", "", "44,90", "", "cilt-bakimi"},
		)
	}

	first, err := svc.Run(ctx, "urunler.xlsx", sheet(), importapp.RunOptions{Trigger: bulk.RunTriggerCLI})
	require.NoError(t, err)
	assert.Equal(t, 4, first.TotalRows)
	assert.Equal(t, 2, first.NewRows)
	assert.Equal(t, 1, first.UpdatedRows)
	assert.Equal(t, 4, first.SucceededRows)
	assert.Equal(t, 0, first.FailedRows)

	count, err := products.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	updated, err := products.FindBySlug(ctx, "eski-krem-x1")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, updated.ID)
	assert.Equal(t, "Nemlendirici Krem", updated.Name)
	assert.Equal(t, int64(12990), updated.Price)
	require.NotNil(t, updated.Discount)
	assert.Equal(t, 13, *updated.Discount)
	assert.True(t, existing.CreatedAt.Equal(updated.CreatedAt))

	ruj := findActiveByName(t, products, "Mat Ruj")
	gul := findActiveByName(t, products, "Gül Suyu")
	assert.Equal(t, "FK000002", ruj.BarcodeValue())
	assert.Equal(t, int64(4490), gul.Price)

	second, err := svc.Run(ctx, "urunler.xlsx", sheet(), importapp.RunOptions{Trigger: bulk.RunTriggerCLI})
	require.NoError(t, err)
	assert.Equal(t, 0, second.NewRows)
	assert.Equal(t, 4, second.UpdatedRows)
	assert.Equal(t, 4, second.SucceededRows)

	count, err = products.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	for _, before := range []*catalog.Product{ruj, gul} {
		after := findActiveByName(t, products, before.Name)
		assert.Equal(t, before.ID, after.ID)
		assert.Equal(t, before.Slug, after.Slug)
		assert.Equal(t, before.ReviewsCount, after.ReviewsCount)
		assert.True(t, before.CreatedAt.Equal(after.CreatedAt))
	}

	history, err := runs.FindLatest(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	for _, run := range history {
		assert.Equal(t, bulk.RunStatusCompleted, run.Status)
		assert.Equal(t, 4, run.Totals.SucceededRows)
	}
}

func findActiveByName(t *testing.T, repo *GormProductRepository, name string) *catalog.Product {
	t.Helper()
	found, err := repo.FindActiveByNames(context.Background(), []string{name})
	require.NoError(t, err)
	require.Len(t, found, 1, "entries named %q", name)
	return found[0]
}
