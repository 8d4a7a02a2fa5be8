package importapp

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"

	"github.com/cosmetica/backend/internal/domain/bulk"
	"github.com/google/uuid"
)

// ErrNoRunErrors is returned when an error export is requested for a clean run
var ErrNoRunErrors = errors.New("run has no recorded errors")

// DefaultHistoryLimit is the number of runs listed when no limit is given
const DefaultHistoryLimit = 20

// RunHistoryService reads back recorded import runs
type RunHistoryService struct {
	runRepo bulk.ImportRunRepository
}

// NewRunHistoryService creates a new RunHistoryService
func NewRunHistoryService(runRepo bulk.ImportRunRepository) *RunHistoryService {
	return &RunHistoryService{runRepo: runRepo}
}

// ListRecent returns the latest runs, newest first
func (s *RunHistoryService) ListRecent(ctx context.Context, limit int) ([]*bulk.ImportRun, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	runs, err := s.runRepo.FindLatest(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}
	return runs, nil
}

// Get retrieves one run
func (s *RunHistoryService) Get(ctx context.Context, id uuid.UUID) (*bulk.ImportRun, error) {
	return s.runRepo.FindByID(ctx, id)
}

// ErrorsCSV renders the stored error details of a run as CSV and suggests a
// download file name.
func (s *RunHistoryService) ErrorsCSV(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	run, err := s.runRepo.FindByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if len(run.ErrorDetails) == 0 {
		return nil, "", ErrNoRunErrors
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"Row", "Name", "Error Code", "Error Message"})
	for _, e := range run.ErrorDetails {
		_ = w.Write([]string{strconv.Itoa(e.Row), e.Name, e.Code, e.Message})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", fmt.Errorf("render run errors: %w", err)
	}

	return buf.Bytes(), fmt.Sprintf("import_errors_%s.csv", run.ID.String()[:8]), nil
}
