package importapp

import (
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/cosmetica/backend/internal/domain/catalog"
	sheetimport "github.com/cosmetica/backend/internal/infrastructure/import"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestBuilder() *BatchBuilder {
	return NewBatchBuilder(validator.New(), zap.NewNop(),
		WithClock(func() time.Time { return fixedNow }),
		WithRand(rand.New(rand.NewPCG(1, 2))),
	)
}

func indexOf(byBarcode, byName []*catalog.Product) *MatchIndex {
	index := newMatchIndex()
	for _, p := range byBarcode {
		index.addBarcode(p)
	}
	for _, p := range byName {
		index.addName(p)
	}
	return index
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestComputeDiscount(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		original *decimal.Decimal
		want     *int
	}{
		{"no original", "100", nil, nil},
		{"original below price", "100", dec("50"), nil},
		{"same price", "100", dec("100"), nil},
		{"ninety percent", "10", dec("100"), intPtr(90)},
		{"rounded", "80", dec("99.90"), intPtr(20)},
		{"clamped", "1", dec("1000"), intPtr(100)},
		{"zero original", "10", dec("0"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDiscount(decimal.RequireFromString(tt.price), tt.original)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func intPtr(v int) *int { return &v }

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(124990), ToMinorUnits(decimal.RequireFromString("1249.90")))
	assert.Equal(t, int64(1), ToMinorUnits(decimal.RequireFromString("0.005")))
}

func TestBatchBuilder_NewEntry(t *testing.T) {
	p := excelProduct(3, "Nemlendirici Krem", "")
	p.Price = decimal.RequireFromString("90")
	p.OriginalPrice = dec("100")

	batch := newTestBuilder().Build([]*ExcelProduct{p}, indexOf(nil, nil))

	require.Len(t, batch.Writes, 1)
	assert.Equal(t, 1, batch.New)
	assert.Equal(t, 0, batch.Updated)
	assert.Empty(t, batch.Invalid)

	w := batch.Writes[0]
	assert.True(t, w.IsNew())
	assert.Equal(t, []int{3}, w.Rows)
	assert.True(t, strings.HasPrefix(w.Product.Slug, "nemlendirici-krem-"))
	assert.Equal(t, "FK000003", w.Product.BarcodeValue())
	assert.Equal(t, int64(9000), w.Product.Price)
	require.NotNil(t, w.Product.Discount)
	assert.Equal(t, 10, *w.Product.Discount)
	assert.Equal(t, catalog.DefaultRating, w.Product.Rating)
	assert.GreaterOrEqual(t, w.Product.ReviewsCount, catalog.MinSeedReviews)
	assert.LessOrEqual(t, w.Product.ReviewsCount, catalog.MaxSeedReviews)
	assert.Equal(t, fixedNow, w.Product.CreatedAt)
}

func TestBatchBuilder_UpdateKeepsIdentity(t *testing.T) {
	existing := existingProduct("eski-krem-abc", "Eski Krem", "8690000000011", 5000)
	existing.Rating = 4.9
	p := excelProduct(1, "Yeni Krem", "8690000000011")
	p.Price = decimal.RequireFromString("75.5")

	batch := newTestBuilder().Build([]*ExcelProduct{p}, indexOf([]*catalog.Product{existing}, nil))

	require.Len(t, batch.Writes, 1)
	assert.Equal(t, 1, batch.Updated)
	w := batch.Writes[0]
	assert.Equal(t, MatchBarcode, w.Match)
	assert.Equal(t, existing.ID, w.Product.ID)
	assert.Equal(t, "eski-krem-abc", w.Product.Slug)
	assert.Equal(t, 4.9, w.Product.Rating)
	assert.Equal(t, 42, w.Product.ReviewsCount)
	assert.Equal(t, "Yeni Krem", w.Product.Name)
	assert.Equal(t, int64(7550), w.Product.Price)

	// the indexed entry itself is left untouched
	assert.Equal(t, "Eski Krem", existing.Name)

	require.Len(t, batch.UpdateSamples, 1)
	assert.Equal(t, PriceChange{Row: 1, Name: "Yeni Krem", Match: "barcode", OldPrice: 5000, NewPrice: 7550}, batch.UpdateSamples[0])
}

func TestBatchBuilder_PlaceholderKeepsExistingBarcode(t *testing.T) {
	existing := existingProduct("tonik", "Tonik", "8690000000028", 1000)
	p := excelProduct(4, "Tonik", "")

	batch := newTestBuilder().Build([]*ExcelProduct{p}, indexOf(nil, []*catalog.Product{existing}))

	require.Len(t, batch.Writes, 1)
	assert.Equal(t, MatchName, batch.Writes[0].Match)
	assert.Equal(t, "8690000000028", batch.Writes[0].Product.BarcodeValue())
}

func TestBatchBuilder_DuplicateMatchesCollapse(t *testing.T) {
	existing := existingProduct("serum", "Serum", "", 1000)
	first := excelProduct(1, "Serum", "")
	first.Price = decimal.NewFromInt(20)
	second := excelProduct(2, "Serum", "")
	second.Price = decimal.NewFromInt(30)

	batch := newTestBuilder().Build([]*ExcelProduct{first, second}, indexOf(nil, []*catalog.Product{existing}))

	require.Len(t, batch.Writes, 1)
	assert.Equal(t, 2, batch.Updated)
	assert.Equal(t, 2, batch.RowCount())
	assert.Equal(t, []int{1, 2}, batch.Writes[0].Rows)
	assert.Equal(t, int64(3000), batch.Writes[0].Product.Price)
	assert.Equal(t, existing.ID, batch.Writes[0].Product.ID)
}

func TestBatchBuilder_SlugsAreUnique(t *testing.T) {
	products := make([]*ExcelProduct, 0, 50)
	for i := 1; i <= 50; i++ {
		// names differ only in punctuation the slug drops
		products = append(products, excelProduct(i, "Aynı İsim"+strings.Repeat("!", i), ""))
	}

	batch := newTestBuilder().Build(products, indexOf(nil, nil))

	require.Len(t, batch.Writes, 50)
	seen := make(map[string]bool)
	for _, w := range batch.Writes {
		assert.False(t, seen[w.Product.Slug], "duplicate slug %s", w.Product.Slug)
		seen[w.Product.Slug] = true
	}
}

func TestBatchBuilder_RepeatedNewBarcodeCollapses(t *testing.T) {
	first := excelProduct(1, "Gül Suyu", "8690000000099")
	first.Price = decimal.NewFromInt(40)
	second := excelProduct(2, "Gül Suyu 250ml", " 8690000000099 ")
	second.Price = decimal.NewFromInt(45)

	batch := newTestBuilder().Build([]*ExcelProduct{first, second}, indexOf(nil, nil))

	require.Len(t, batch.Writes, 1)
	assert.Equal(t, 1, batch.New)
	assert.Equal(t, 0, batch.Updated)
	assert.Equal(t, 2, batch.RowCount())

	w := batch.Writes[0]
	assert.True(t, w.IsNew())
	assert.Equal(t, []int{1, 2}, w.Rows)
	assert.Equal(t, "Gül Suyu 250ml", w.Product.Name)
	assert.Equal(t, int64(4500), w.Product.Price)
	assert.Equal(t, "8690000000099", w.Product.BarcodeValue())
	assert.True(t, strings.HasPrefix(w.Product.Slug, "gul-suyu-"))
}

func TestBatchBuilder_RepeatedNewNameCollapses(t *testing.T) {
	first := excelProduct(1, "Tırnak Cilası", "")
	second := excelProduct(2, " Tırnak Cilası ", "")
	second.Price = decimal.NewFromInt(60)

	batch := newTestBuilder().Build([]*ExcelProduct{first, second}, indexOf(nil, nil))

	require.Len(t, batch.Writes, 1)
	assert.Equal(t, 1, batch.New)
	w := batch.Writes[0]
	assert.Equal(t, []int{1, 2}, w.Rows)
	assert.Equal(t, int64(6000), w.Product.Price)
	// the placeholder of the first row stays on the entry
	assert.Equal(t, "FK000001", w.Product.BarcodeValue())
}

func TestBatchBuilder_DistinctNewBarcodesStayApart(t *testing.T) {
	first := excelProduct(1, "Maskara", "8690000000101")
	second := excelProduct(2, "Maskara Siyah", "8690000000102")

	batch := newTestBuilder().Build([]*ExcelProduct{first, second}, indexOf(nil, nil))

	require.Len(t, batch.Writes, 2)
	assert.Equal(t, 2, batch.New)
	assert.NotEqual(t, batch.Writes[0].Product.ID, batch.Writes[1].Product.ID)
}

func TestBatchBuilder_InvalidEntry(t *testing.T) {
	p := excelProduct(7, strings.Repeat("a", 300), "")

	batch := newTestBuilder().Build([]*ExcelProduct{p}, indexOf(nil, nil))

	assert.Empty(t, batch.Writes)
	require.Len(t, batch.Invalid, 1)
	assert.Equal(t, 7, batch.Invalid[0].Row)
	assert.Equal(t, sheetimport.ErrCodeImportInvalidEntry, batch.Invalid[0].Code)
}
