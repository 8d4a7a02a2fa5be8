package importapp

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cosmetica/backend/internal/domain/bulk"
	"github.com/cosmetica/backend/internal/domain/catalog"
	"github.com/cosmetica/backend/internal/domain/shared"
	sheetimport "github.com/cosmetica/backend/internal/infrastructure/import"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindActiveByBarcodes(ctx context.Context, barcodes []string) ([]*catalog.Product, error) {
	args := m.Called(ctx, barcodes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindActiveByNames(ctx context.Context, names []string) ([]*catalog.Product, error) {
	args := m.Called(ctx, names)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) UpsertBatch(ctx context.Context, products []*catalog.Product) error {
	args := m.Called(ctx, products)
	return args.Error(0)
}

func (m *MockProductRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// memoryCatalog is an in-memory catalog store keyed by id
type memoryCatalog struct {
	mu       sync.Mutex
	entries  map[uuid.UUID]catalog.Product
	order    []uuid.UUID
	upserts  int
	failWith error
}

func newMemoryCatalog(seed ...*catalog.Product) *memoryCatalog {
	c := &memoryCatalog{entries: make(map[uuid.UUID]catalog.Product)}
	for _, p := range seed {
		c.put(p)
	}
	return c
}

func (c *memoryCatalog) put(p *catalog.Product) {
	if _, ok := c.entries[p.ID]; !ok {
		c.order = append(c.order, p.ID)
	}
	c.entries[p.ID] = *p
}

func (c *memoryCatalog) FindActiveByBarcodes(_ context.Context, barcodes []string) ([]*catalog.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	want := make(map[string]bool, len(barcodes))
	for _, b := range barcodes {
		want[b] = true
	}
	var out []*catalog.Product
	for _, id := range c.order {
		p := c.entries[id]
		if p.IsActive() && want[p.BarcodeValue()] {
			out = append(out, &p)
		}
	}
	return out, nil
}

func (c *memoryCatalog) FindActiveByNames(_ context.Context, names []string) ([]*catalog.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []*catalog.Product
	for _, id := range c.order {
		p := c.entries[id]
		if p.IsActive() && want[p.Name] {
			out = append(out, &p)
		}
	}
	return out, nil
}

func (c *memoryCatalog) UpsertBatch(_ context.Context, products []*catalog.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return c.failWith
	}
	c.upserts++
	for _, p := range products {
		c.put(p)
	}
	return nil
}

func (c *memoryCatalog) FindBySlug(_ context.Context, slug string) (*catalog.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range c.order {
		if p := c.entries[id]; p.Slug == slug && p.IsActive() {
			return &p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (c *memoryCatalog) Count(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(len(c.entries)), nil
}

func (c *memoryCatalog) byName(name string) (catalog.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range c.order {
		if p := c.entries[id]; p.Name == name {
			return p, true
		}
	}
	return catalog.Product{}, false
}

// memoryRuns keeps the last saved copy of every run
type memoryRuns struct {
	mu   sync.Mutex
	runs map[uuid.UUID]bulk.ImportRun
}

func newMemoryRuns() *memoryRuns {
	return &memoryRuns{runs: make(map[uuid.UUID]bulk.ImportRun)}
}

func (r *memoryRuns) FindByID(_ context.Context, id uuid.UUID) (*bulk.ImportRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &run, nil
}

func (r *memoryRuns) FindLatest(_ context.Context, limit int) ([]*bulk.ImportRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	runs := make([]*bulk.ImportRun, 0, len(r.runs))
	for _, run := range r.runs {
		run := run
		runs = append(runs, &run)
	}
	slices.SortFunc(runs, func(a, b *bulk.ImportRun) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (r *memoryRuns) Save(_ context.Context, run *bulk.ImportRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = *run
	return nil
}

// heldLock reports the lock as taken by someone else
type heldLock struct{}

func (heldLock) TryAcquire(context.Context, string, time.Duration) (string, bool, error) {
	return "", false, nil
}

func (heldLock) Release(context.Context, string, string) error { return nil }

// countingLock records acquire and release calls
type countingLock struct {
	acquired int
	released int
}

func (l *countingLock) TryAcquire(context.Context, string, time.Duration) (string, bool, error) {
	l.acquired++
	return "token", true, nil
}

func (l *countingLock) Release(_ context.Context, _, token string) error {
	if token == "token" {
		l.released++
	}
	return nil
}

func sheetRow(position int, headers []string, values ...any) *sheetimport.Row {
	return sheetimport.NewRow(position, position+1, headers, values)
}

func newSheet(headers []string, rows ...[]any) *sheetimport.Sheet {
	sheet := &sheetimport.Sheet{Name: "urunler.xlsx", Headers: headers}
	for i, values := range rows {
		sheet.Rows = append(sheet.Rows, sheetRow(i+1, headers, values...))
	}
	return sheet
}

func existingProduct(slug, name string, barcode string, price int64) *catalog.Product {
	p, err := catalog.NewProduct(slug, catalog.Listing{
		Barcode:      barcode,
		Name:         name,
		Brand:        "Cosmetica",
		Price:        price,
		CategorySlug: catalog.FallbackCategory,
	}, 42, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		panic(err)
	}
	return p
}
