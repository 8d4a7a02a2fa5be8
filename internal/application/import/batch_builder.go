package importapp

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/cosmetica/backend/internal/domain/catalog"
	sheetimport "github.com/cosmetica/backend/internal/infrastructure/import"
	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// UpdateSampleLimit is how many updates are reported with old and new price
const UpdateSampleLimit = 5

const (
	slugTokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	maxSlugBase       = 200
)

var hundred = decimal.NewFromInt(100)

// ComputeDiscount returns round((1 - price/original) * 100) clamped to
// [0, 100], or nil when either price is not positive or there is no discount.
func ComputeDiscount(price decimal.Decimal, original *decimal.Decimal) *int {
	if original == nil || !price.IsPositive() || !original.IsPositive() {
		return nil
	}
	pct := decimal.NewFromInt(1).Sub(price.Div(*original)).Mul(hundred).Round(0).IntPart()
	if pct <= 0 {
		return nil
	}
	d := int(min(pct, 100))
	return &d
}

// ToMinorUnits scales a currency amount to integer cents
func ToMinorUnits(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

// PlannedWrite is one catalog entry queued for upsert and the rows behind it
type PlannedWrite struct {
	Product *catalog.Product
	Rows    []int
	Match   MatchKind
}

// IsNew reports whether the write creates a catalog entry
func (w *PlannedWrite) IsNew() bool {
	return w.Match == MatchNone
}

// PriceChange is a sample update shown to the operator
type PriceChange struct {
	Row      int    `json:"row"`
	Name     string `json:"name"`
	Match    string `json:"match"`
	OldPrice int64  `json:"old_price"`
	NewPrice int64  `json:"new_price"`
}

// Batch is the full write plan for one run
type Batch struct {
	Writes        []*PlannedWrite
	New           int
	Updated       int
	UpdateSamples []PriceChange
	Invalid       []sheetimport.RowError
}

// RowCount returns the number of input rows carried by the writes
func (b *Batch) RowCount() int {
	n := 0
	for _, w := range b.Writes {
		n += len(w.Rows)
	}
	return n
}

// BatchBuilder turns parsed rows and their matches into catalog writes
type BatchBuilder struct {
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
	rng      *rand.Rand
}

// BuilderOption configures a BatchBuilder
type BuilderOption func(*BatchBuilder)

// WithClock replaces time.Now
func WithClock(now func() time.Time) BuilderOption {
	return func(b *BatchBuilder) {
		b.now = now
	}
}

// WithRand replaces the random source used for slugs and review counts
func WithRand(rng *rand.Rand) BuilderOption {
	return func(b *BatchBuilder) {
		b.rng = rng
	}
}

// NewBatchBuilder creates a builder
func NewBatchBuilder(validate *validator.Validate, logger *zap.Logger, opts ...BuilderOption) *BatchBuilder {
	b := &BatchBuilder{
		validate: validate,
		logger:   logger,
		now:      time.Now,
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build plans one write per catalog entry. Rows matching the same entry
// collapse into a single write carrying the last row's values. Unmatched rows
// repeating a barcode or name already planned in this batch collapse onto that
// new entry the same way, so a sheet never creates two entries a later run
// would resolve to one.
func (b *BatchBuilder) Build(products []*ExcelProduct, index *MatchIndex) *Batch {
	batch := &Batch{Writes: make([]*PlannedWrite, 0, len(products))}
	byID := make(map[string]*PlannedWrite)
	pending := newPendingIndex()

	for _, p := range products {
		existing, kind := index.Lookup(p)
		if existing == nil {
			b.planNew(batch, pending, p)
			continue
		}

		base := existing
		if planned, ok := byID[existing.ID.String()]; ok {
			base = planned.Product
		}
		entry, err := b.overwrite(base, b.listingFor(p, existing))
		if err != nil {
			batch.Invalid = append(batch.Invalid,
				sheetimport.NewRowError(p.Row, p.Name, sheetimport.ErrCodeImportInvalidEntry, err.Error()))
			continue
		}

		batch.Updated++
		if len(batch.UpdateSamples) < UpdateSampleLimit {
			change := PriceChange{Row: p.Row, Name: entry.Name, Match: string(kind), OldPrice: existing.Price, NewPrice: entry.Price}
			batch.UpdateSamples = append(batch.UpdateSamples, change)
			b.logger.Info("Updating catalog entry",
				zap.Int("row", p.Row),
				zap.String("name", entry.Name),
				zap.String("match", string(kind)),
				zap.Int64("old_price", existing.Price),
				zap.Int64("new_price", entry.Price),
			)
		}

		if planned, ok := byID[existing.ID.String()]; ok {
			planned.Product = entry
			planned.Rows = append(planned.Rows, p.Row)
			planned.Match = kind
			continue
		}
		planned := &PlannedWrite{Product: entry, Rows: []int{p.Row}, Match: kind}
		byID[existing.ID.String()] = planned
		batch.Writes = append(batch.Writes, planned)
	}

	return batch
}

// planNew queues a fresh entry for an unmatched row, or folds the row into a
// fresh entry an earlier row of the batch already planned.
func (b *BatchBuilder) planNew(batch *Batch, pending *pendingIndex, p *ExcelProduct) {
	if planned := pending.lookup(p); planned != nil {
		entry, err := b.overwrite(planned.Product, b.listingFor(p, planned.Product))
		if err != nil {
			batch.Invalid = append(batch.Invalid,
				sheetimport.NewRowError(p.Row, p.Name, sheetimport.ErrCodeImportInvalidEntry, err.Error()))
			return
		}
		b.logger.Debug("Row repeats a new entry planned in this batch",
			zap.Int("row", p.Row),
			zap.Int("first_row", planned.Rows[0]),
			zap.String("name", entry.Name),
		)
		planned.Product = entry
		planned.Rows = append(planned.Rows, p.Row)
		pending.add(planned)
		return
	}

	now := b.now()
	entry, err := catalog.NewProduct(b.newSlug(p.Name, now), b.listingFor(p, nil), b.seedReviews(), now)
	if err == nil {
		err = b.validate.Struct(entry)
	}
	if err != nil {
		batch.Invalid = append(batch.Invalid,
			sheetimport.NewRowError(p.Row, p.Name, sheetimport.ErrCodeImportInvalidEntry, err.Error()))
		return
	}

	planned := &PlannedWrite{Product: entry, Rows: []int{p.Row}, Match: MatchNone}
	pending.add(planned)
	batch.New++
	batch.Writes = append(batch.Writes, planned)
}

// overwrite applies listing to a copy of base and validates the result
func (b *BatchBuilder) overwrite(base *catalog.Product, listing catalog.Listing) (*catalog.Product, error) {
	clone := *base
	entry := &clone
	if err := entry.Overwrite(listing, b.now()); err != nil {
		return nil, err
	}
	if err := b.validate.Struct(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// pendingIndex finds new entries planned earlier in the batch with the same
// precedence MatchIndex.Lookup uses against the catalog.
type pendingIndex struct {
	byBarcode map[string]*PlannedWrite
	byName    map[string]*PlannedWrite
}

func newPendingIndex() *pendingIndex {
	return &pendingIndex{
		byBarcode: make(map[string]*PlannedWrite),
		byName:    make(map[string]*PlannedWrite),
	}
}

func (x *pendingIndex) lookup(p *ExcelProduct) *PlannedWrite {
	if p.HasMatchableBarcode() {
		if w, ok := x.byBarcode[strings.TrimSpace(p.Barcode)]; ok {
			return w
		}
	}
	return x.byName[strings.TrimSpace(p.Name)]
}

func (x *pendingIndex) add(w *PlannedWrite) {
	if code := w.Product.BarcodeValue(); catalog.IsMatchableBarcode(code) {
		if _, exists := x.byBarcode[code]; !exists {
			x.byBarcode[code] = w
		}
	}
	if name := strings.TrimSpace(w.Product.Name); name != "" {
		if _, exists := x.byName[name]; !exists {
			x.byName[name] = w
		}
	}
}

func (b *BatchBuilder) listingFor(p *ExcelProduct, existing *catalog.Product) catalog.Listing {
	var original *int64
	if p.OriginalPrice != nil {
		v := ToMinorUnits(*p.OriginalPrice)
		original = &v
	}

	barcode := p.Barcode
	// A generated code never replaces a real barcode already on the entry.
	if existing != nil && !p.HasMatchableBarcode() && existing.BarcodeValue() != "" {
		barcode = existing.BarcodeValue()
	}

	return catalog.Listing{
		Barcode:       barcode,
		Name:          p.Name,
		Brand:         p.Brand,
		Price:         ToMinorUnits(p.Price),
		OriginalPrice: original,
		Discount:      ComputeDiscount(p.Price, p.OriginalPrice),
		Image:         p.Image,
		Images:        p.Images,
		IsNew:         p.IsNew,
		IsBestSeller:  p.IsBestSeller,
		InStock:       p.InStock,
		StockQuantity: p.StockQty,
		CategorySlug:  p.Category,
		Description:   p.Description,
	}
}

// newSlug is the name slug plus a base36 millisecond stamp and a random token
func (b *BatchBuilder) newSlug(name string, now time.Time) string {
	base := slug.Make(name)
	if len(base) > maxSlugBase {
		base = strings.TrimRight(base[:maxSlugBase], "-")
	}
	if base == "" {
		base = "urun"
	}
	return fmt.Sprintf("%s-%s-%s", base, strconv.FormatInt(now.UnixMilli(), 36), b.token(6))
}

func (b *BatchBuilder) token(n int) string {
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		sb.WriteByte(slugTokenAlphabet[b.rng.IntN(len(slugTokenAlphabet))])
	}
	return sb.String()
}

func (b *BatchBuilder) seedReviews() int {
	return catalog.MinSeedReviews + b.rng.IntN(catalog.MaxSeedReviews-catalog.MinSeedReviews+1)
}
