package importapp

import (
	"context"
	"fmt"
	"strings"

	"github.com/cosmetica/backend/internal/domain/catalog"
	"github.com/cosmetica/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultLookupPageSize bounds the number of keys per catalog query
const DefaultLookupPageSize = 100

// MatchKind tells how an input row was tied to a catalog entry
type MatchKind string

const (
	MatchNone    MatchKind = "none"
	MatchBarcode MatchKind = "barcode"
	MatchName    MatchKind = "name"
)

// MatchIndex holds the active catalog entries a batch can match against
type MatchIndex struct {
	byBarcode map[string]*catalog.Product
	byName    map[string]*catalog.Product
	byID      map[uuid.UUID]*catalog.Product

	MatchedByBarcode int
	MatchedByName    int
}

func newMatchIndex() *MatchIndex {
	return &MatchIndex{
		byBarcode: make(map[string]*catalog.Product),
		byName:    make(map[string]*catalog.Product),
		byID:      make(map[uuid.UUID]*catalog.Product),
	}
}

// Lookup tries the sheet barcode first (placeholders never match), then the
// trimmed name.
func (m *MatchIndex) Lookup(p *ExcelProduct) (*catalog.Product, MatchKind) {
	if p.HasMatchableBarcode() {
		if existing, ok := m.byBarcode[strings.TrimSpace(p.Barcode)]; ok {
			return existing, MatchBarcode
		}
	}
	if existing, ok := m.byName[strings.TrimSpace(p.Name)]; ok {
		return existing, MatchName
	}
	return nil, MatchNone
}

// Size returns the number of distinct entries in the index
func (m *MatchIndex) Size() int {
	return len(m.byID)
}

func (m *MatchIndex) addBarcode(p *catalog.Product) {
	m.byID[p.ID] = p
	key := p.BarcodeValue()
	if key == "" {
		return
	}
	if _, exists := m.byBarcode[key]; !exists {
		m.byBarcode[key] = p
	}
}

func (m *MatchIndex) addName(p *catalog.Product) {
	m.byID[p.ID] = p
	key := strings.TrimSpace(p.Name)
	if key == "" {
		return
	}
	if _, exists := m.byName[key]; !exists {
		m.byName[key] = p
	}
}

// Resolver loads the catalog entries an input batch can match
type Resolver struct {
	repo     catalog.ProductRepository
	pageSize int
	logger   *zap.Logger
}

// NewResolver creates a resolver querying repo in pages of pageSize keys
func NewResolver(repo catalog.ProductRepository, pageSize int, logger *zap.Logger) *Resolver {
	if pageSize <= 0 {
		pageSize = DefaultLookupPageSize
	}
	return &Resolver{repo: repo, pageSize: pageSize, logger: logger}
}

// Resolve builds the match index for products. Store errors are returned
// as-is (wrapped); nothing has been written at this point.
func (r *Resolver) Resolve(ctx context.Context, products []*ExcelProduct) (*MatchIndex, error) {
	ctx, span := telemetry.StartSpan(ctx, "catalog_import.resolve", telemetry.SpanAttrRowCount, len(products))
	defer span.End()

	index := newMatchIndex()

	barcodes := uniqueStrings(products, func(p *ExcelProduct) (string, bool) {
		return strings.TrimSpace(p.Barcode), p.HasMatchableBarcode()
	})
	for i, page := range chunk(barcodes, r.pageSize) {
		found, err := r.repo.FindActiveByBarcodes(ctx, page)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("barcode lookup page %d: %w", i+1, err)
		}
		for _, p := range found {
			index.addBarcode(p)
		}
	}

	names := uniqueStrings(products, func(p *ExcelProduct) (string, bool) {
		if p.HasMatchableBarcode() {
			if _, ok := index.byBarcode[strings.TrimSpace(p.Barcode)]; ok {
				return "", false
			}
		}
		name := strings.TrimSpace(p.Name)
		return name, name != ""
	})
	for i, page := range chunk(names, r.pageSize) {
		found, err := r.repo.FindActiveByNames(ctx, page)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("name lookup page %d: %w", i+1, err)
		}
		for _, p := range found {
			index.addName(p)
		}
	}

	for _, p := range products {
		switch _, kind := index.Lookup(p); kind {
		case MatchBarcode:
			index.MatchedByBarcode++
		case MatchName:
			index.MatchedByName++
		}
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrKeyCount, len(barcodes)+len(names),
		"import.matched_by_barcode", index.MatchedByBarcode,
		"import.matched_by_name", index.MatchedByName,
	)
	r.logger.Debug("Resolved existing catalog entries",
		zap.Int("barcode_keys", len(barcodes)),
		zap.Int("name_keys", len(names)),
		zap.Int("entries", index.Size()),
		zap.Int("matched_by_barcode", index.MatchedByBarcode),
		zap.Int("matched_by_name", index.MatchedByName),
	)

	return index, nil
}

func uniqueStrings(products []*ExcelProduct, key func(*ExcelProduct) (string, bool)) []string {
	seen := make(map[string]struct{}, len(products))
	out := make([]string, 0, len(products))
	for _, p := range products {
		k, ok := key(p)
		if !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	pages := make([][]T, 0, (len(items)+size-1)/max(size, 1))
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		pages = append(pages, items[start:end])
	}
	return pages
}
