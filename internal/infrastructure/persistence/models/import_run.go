package models

import (
	"time"

	"github.com/cosmetica/backend/internal/domain/bulk"
)

// ImportRunModel is the persistence model for bulk.ImportRun
type ImportRunModel struct {
	BaseModel
	FileName         string          `gorm:"type:varchar(255);not null"`
	Trigger          bulk.RunTrigger `gorm:"type:varchar(16);not null"`
	DryRun           bool            `gorm:"not null"`
	Status           bulk.RunStatus  `gorm:"type:varchar(20);not null;index"`
	TotalRows        int             `gorm:"not null"`
	ParsedRows       int             `gorm:"not null"`
	ParseErrorRows   int             `gorm:"not null"`
	SkippedRows      int             `gorm:"not null"`
	MatchedByBarcode int             `gorm:"not null"`
	MatchedByName    int             `gorm:"not null"`
	NewRows          int             `gorm:"not null"`
	UpdatedRows      int             `gorm:"not null"`
	SucceededRows    int             `gorm:"not null"`
	FailedRows       int             `gorm:"not null"`
	ErrorDetails     string          `gorm:"type:jsonb;not null"`
	FailReason       string          `gorm:"type:text;not null"`
	StartedAt        *time.Time
	CompletedAt      *time.Time
}

// TableName returns the table name for GORM
func (ImportRunModel) TableName() string {
	return "import_runs"
}

// ToDomain converts the persistence model to a domain ImportRun
func (m *ImportRunModel) ToDomain() *bulk.ImportRun {
	run := &bulk.ImportRun{
		BaseEntity: m.BaseModel.ToDomain(),
		FileName:   m.FileName,
		Trigger:    m.Trigger,
		DryRun:     m.DryRun,
		Status:     m.Status,
		Totals: bulk.RunTotals{
			TotalRows:        m.TotalRows,
			ParsedRows:       m.ParsedRows,
			ParseErrorRows:   m.ParseErrorRows,
			SkippedRows:      m.SkippedRows,
			MatchedByBarcode: m.MatchedByBarcode,
			MatchedByName:    m.MatchedByName,
			NewRows:          m.NewRows,
			UpdatedRows:      m.UpdatedRows,
			SucceededRows:    m.SucceededRows,
			FailedRows:       m.FailedRows,
		},
		FailReason:  m.FailReason,
		StartedAt:   m.StartedAt,
		CompletedAt: m.CompletedAt,
	}
	_ = run.SetErrorDetailsFromJSON(m.ErrorDetails)
	return run
}

// FromDomain populates the persistence model from a domain ImportRun
func (m *ImportRunModel) FromDomain(r *bulk.ImportRun) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.FileName = r.FileName
	m.Trigger = r.Trigger
	m.DryRun = r.DryRun
	m.Status = r.Status
	m.TotalRows = r.Totals.TotalRows
	m.ParsedRows = r.Totals.ParsedRows
	m.ParseErrorRows = r.Totals.ParseErrorRows
	m.SkippedRows = r.Totals.SkippedRows
	m.MatchedByBarcode = r.Totals.MatchedByBarcode
	m.MatchedByName = r.Totals.MatchedByName
	m.NewRows = r.Totals.NewRows
	m.UpdatedRows = r.Totals.UpdatedRows
	m.SucceededRows = r.Totals.SucceededRows
	m.FailedRows = r.Totals.FailedRows
	m.FailReason = r.FailReason
	m.StartedAt = r.StartedAt
	m.CompletedAt = r.CompletedAt

	if errorJSON, err := r.ErrorDetailsJSON(); err == nil {
		m.ErrorDetails = errorJSON
	} else {
		m.ErrorDetails = "[]"
	}
}

// ImportRunModelFromDomain creates a new persistence model from a domain ImportRun
func ImportRunModelFromDomain(r *bulk.ImportRun) *ImportRunModel {
	m := &ImportRunModel{}
	m.FromDomain(r)
	return m
}
