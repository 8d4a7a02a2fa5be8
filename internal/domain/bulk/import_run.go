package bulk

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cosmetica/backend/internal/domain/shared"
)

// MaxStoredErrors caps the error details persisted with a run
const MaxStoredErrors = 100

// RunTrigger identifies what started an import run
type RunTrigger string

const (
	RunTriggerCLI  RunTrigger = "cli"
	RunTriggerHTTP RunTrigger = "http"
)

// IsValid checks if the trigger is known
func (t RunTrigger) IsValid() bool {
	return t == RunTriggerCLI || t == RunTriggerHTTP
}

// RunStatus represents the lifecycle state of an import run
type RunStatus string

const (
	RunStatusPending    RunStatus = "pending"
	RunStatusProcessing RunStatus = "processing"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

// IsValid checks if the status is valid
func (s RunStatus) IsValid() bool {
	switch s {
	case RunStatusPending, RunStatusProcessing, RunStatusCompleted, RunStatusFailed:
		return true
	}
	return false
}

// IsTerminal returns true if this is a terminal state
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// RunErrorDetail is a single row-level problem recorded with a run
type RunErrorDetail struct {
	Row     int    `json:"row"`
	Name    string `json:"name,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RunTotals are the counters an import run ends with
type RunTotals struct {
	TotalRows        int
	ParsedRows       int
	ParseErrorRows   int
	SkippedRows      int
	MatchedByBarcode int
	MatchedByName    int
	NewRows          int
	UpdatedRows      int
	SucceededRows    int
	FailedRows       int
}

// ImportRun records one execution of the catalog importer
type ImportRun struct {
	shared.BaseEntity
	FileName     string
	Trigger      RunTrigger
	DryRun       bool
	Status       RunStatus
	Totals       RunTotals
	ErrorDetails []RunErrorDetail
	FailReason   string
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

// NewImportRun creates a pending run for the given source file
func NewImportRun(fileName string, trigger RunTrigger, dryRun bool) (*ImportRun, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return nil, shared.NewDomainError("INVALID_FILE_NAME", "File name cannot be empty")
	}
	if !trigger.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRIGGER", fmt.Sprintf("Invalid run trigger: %s", trigger))
	}

	return &ImportRun{
		BaseEntity:   shared.NewBaseEntity(time.Now()),
		FileName:     fileName,
		Trigger:      trigger,
		DryRun:       dryRun,
		Status:       RunStatusPending,
		ErrorDetails: make([]RunErrorDetail, 0),
	}, nil
}

// Start marks the run as processing
func (r *ImportRun) Start() error {
	if r.Status != RunStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot start processing from state: %s", r.Status))
	}

	now := time.Now()
	r.Status = RunStatusProcessing
	r.StartedAt = &now
	r.UpdatedAt = now
	return nil
}

// Complete stores the final counters. A run where every row failed is
// recorded as failed.
func (r *ImportRun) Complete(totals RunTotals, details []RunErrorDetail) error {
	if r.Status != RunStatusProcessing {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete from state: %s", r.Status))
	}

	status := RunStatusCompleted
	if totals.TotalRows > 0 && totals.SucceededRows == 0 && totals.FailedRows+totals.ParseErrorRows > 0 && !r.DryRun {
		status = RunStatusFailed
	}

	now := time.Now()
	r.Status = status
	r.Totals = totals
	r.ErrorDetails = capDetails(details)
	r.CompletedAt = &now
	r.UpdatedAt = now
	return nil
}

// Fail marks the run as aborted
func (r *ImportRun) Fail(reason string) error {
	if r.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot fail from terminal state: %s", r.Status))
	}

	now := time.Now()
	r.Status = RunStatusFailed
	r.FailReason = reason
	r.CompletedAt = &now
	r.UpdatedAt = now
	return nil
}

// ErrorDetailsJSON returns the error details as a JSON string
func (r *ImportRun) ErrorDetailsJSON() (string, error) {
	if len(r.ErrorDetails) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(r.ErrorDetails)
	if err != nil {
		return "", fmt.Errorf("failed to marshal error details: %w", err)
	}
	return string(data), nil
}

// SetErrorDetailsFromJSON parses error details from a JSON string
func (r *ImportRun) SetErrorDetailsFromJSON(jsonStr string) error {
	if jsonStr == "" || jsonStr == "[]" {
		r.ErrorDetails = make([]RunErrorDetail, 0)
		return nil
	}
	var details []RunErrorDetail
	if err := json.Unmarshal([]byte(jsonStr), &details); err != nil {
		return fmt.Errorf("failed to unmarshal error details: %w", err)
	}
	r.ErrorDetails = details
	return nil
}

// Duration returns how long the run took, or has taken so far
func (r *ImportRun) Duration() time.Duration {
	if r.StartedAt == nil {
		return 0
	}
	end := time.Now()
	if r.CompletedAt != nil {
		end = *r.CompletedAt
	}
	return end.Sub(*r.StartedAt)
}

func capDetails(details []RunErrorDetail) []RunErrorDetail {
	if len(details) > MaxStoredErrors {
		details = details[:MaxStoredErrors]
	}
	return append(make([]RunErrorDetail, 0, len(details)), details...)
}
