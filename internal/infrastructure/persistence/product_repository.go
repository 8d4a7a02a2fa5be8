package persistence

import (
	"context"
	"errors"

	"github.com/cosmetica/backend/internal/domain/catalog"
	"github.com/cosmetica/backend/internal/domain/shared"
	"github.com/cosmetica/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindActiveByBarcodes finds active entries whose barcode is in the set.
// Results are ordered oldest first so callers resolving duplicates keep a
// stable winner.
func (r *GormProductRepository) FindActiveByBarcodes(ctx context.Context, barcodes []string) ([]*catalog.Product, error) {
	if len(barcodes) == 0 {
		return []*catalog.Product{}, nil
	}
	return r.findActive(ctx, "barcode IN ?", barcodes)
}

// FindActiveByNames finds active entries whose name is in the set
func (r *GormProductRepository) FindActiveByNames(ctx context.Context, names []string) ([]*catalog.Product, error) {
	if len(names) == 0 {
		return []*catalog.Product{}, nil
	}
	return r.findActive(ctx, "name IN ?", names)
}

func (r *GormProductRepository) findActive(ctx context.Context, query string, args []string) ([]*catalog.Product, error) {
	var productModels []models.CatalogProductModel
	if err := r.db.WithContext(ctx).
		Where(query, args).
		Order("created_at ASC, id ASC").
		Find(&productModels).Error; err != nil {
		return nil, err
	}

	products := make([]*catalog.Product, len(productModels))
	for i := range productModels {
		products[i] = productModels[i].ToDomain()
	}
	return products, nil
}

// UpsertBatch writes the entries in one statement, replacing rows whose id
// already exists. created_at of existing rows is left untouched.
func (r *GormProductRepository) UpsertBatch(ctx context.Context, products []*catalog.Product) error {
	if len(products) == 0 {
		return nil
	}

	productModels := make([]*models.CatalogProductModel, len(products))
	for i, p := range products {
		productModels[i] = models.CatalogProductModelFromDomain(p)
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&productModels).Error
}

// FindBySlug finds an active entry by slug
func (r *GormProductRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	var model models.CatalogProductModel
	if err := r.db.WithContext(ctx).
		Where("slug = ?", slug).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Count counts active entries
func (r *GormProductRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CatalogProductModel{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormProductRepository implements the interface
var _ catalog.ProductRepository = (*GormProductRepository)(nil)
