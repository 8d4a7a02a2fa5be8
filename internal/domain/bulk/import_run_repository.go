package bulk

import (
	"context"

	"github.com/google/uuid"
)

// ImportRunRepository defines the interface for import run persistence
type ImportRunRepository interface {
	// FindByID finds a run by ID
	FindByID(ctx context.Context, id uuid.UUID) (*ImportRun, error)

	// FindLatest returns the most recent runs, newest first
	FindLatest(ctx context.Context, limit int) ([]*ImportRun, error)

	// Save creates or updates a run
	Save(ctx context.Context, run *ImportRun) error
}
