package persistence

import (
	"context"
	"errors"

	"github.com/cosmetica/backend/internal/domain/bulk"
	"github.com/cosmetica/backend/internal/domain/shared"
	"github.com/cosmetica/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxRunHistoryLimit caps FindLatest
const MaxRunHistoryLimit = 100

// GormImportRunRepository implements bulk.ImportRunRepository using GORM
type GormImportRunRepository struct {
	db *gorm.DB
}

// NewGormImportRunRepository creates a new GormImportRunRepository
func NewGormImportRunRepository(db *gorm.DB) *GormImportRunRepository {
	return &GormImportRunRepository{db: db}
}

// FindByID finds an import run by ID
func (r *GormImportRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*bulk.ImportRun, error) {
	var model models.ImportRunModel
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindLatest returns the most recent runs, newest first
func (r *GormImportRunRepository) FindLatest(ctx context.Context, limit int) ([]*bulk.ImportRun, error) {
	if limit <= 0 || limit > MaxRunHistoryLimit {
		limit = MaxRunHistoryLimit
	}

	var runModels []models.ImportRunModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&runModels).Error; err != nil {
		return nil, err
	}

	runs := make([]*bulk.ImportRun, len(runModels))
	for i := range runModels {
		runs[i] = runModels[i].ToDomain()
	}
	return runs, nil
}

// Save creates or updates an import run
func (r *GormImportRunRepository) Save(ctx context.Context, run *bulk.ImportRun) error {
	model := models.ImportRunModelFromDomain(run)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormImportRunRepository implements the interface
var _ bulk.ImportRunRepository = (*GormImportRunRepository)(nil)
