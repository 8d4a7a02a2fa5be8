package catalog

import (
	"context"
)

// ProductRepository defines the catalog store operations the importer relies on.
// Find* methods only return entries that are not soft-deleted.
type ProductRepository interface {
	// FindActiveByBarcodes finds active entries whose barcode is in the set
	FindActiveByBarcodes(ctx context.Context, barcodes []string) ([]*Product, error)

	// FindActiveByNames finds active entries whose name is in the set
	FindActiveByNames(ctx context.Context, names []string) ([]*Product, error)

	// UpsertBatch inserts or replaces entries by id, all-or-nothing per call
	UpsertBatch(ctx context.Context, products []*Product) error

	// FindBySlug returns shared.ErrNotFound when no active entry has the slug
	FindBySlug(ctx context.Context, slug string) (*Product, error)

	// Count counts active entries
	Count(ctx context.Context) (int64, error)
}
