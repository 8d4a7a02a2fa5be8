package sheetimport

import (
	"errors"
	"fmt"
	"strings"
)

// Import error codes
const (
	ErrCodeImportUnknown      = "ERR_IMPORT_UNKNOWN"
	ErrCodeImportInvalidPrice = "ERR_IMPORT_INVALID_PRICE"
	ErrCodeImportRowPanic     = "ERR_IMPORT_ROW_PANIC"
	ErrCodeImportInvalidEntry = "ERR_IMPORT_INVALID_ENTRY"
	ErrCodeImportUpsertFailed = "ERR_IMPORT_UPSERT_FAILED"
)

// DefaultMaxErrors is the number of row errors kept in full
const DefaultMaxErrors = 100

var (
	// ErrEmptyFile is returned when the input has no bytes
	ErrEmptyFile = errors.New("sheet file is empty")

	// ErrInvalidEncoding is returned when CSV input is not UTF-8
	ErrInvalidEncoding = errors.New("invalid file encoding")

	// ErrMissingHeader is returned when no header row can be found
	ErrMissingHeader = errors.New("sheet missing header row")

	// ErrEmptySheet is returned when the workbook has no worksheet or no data rows
	ErrEmptySheet = errors.New("sheet contains no data rows")
)

// RowError represents a problem with one input row
type RowError struct {
	Row     int    `json:"row"`
	Name    string `json:"name,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e RowError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("row %d (%s): %s", e.Row, e.Name, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// NewRowError creates a new RowError
func NewRowError(row int, name, code, message string) RowError {
	return RowError{
		Row:     row,
		Name:    name,
		Code:    code,
		Message: message,
	}
}

// ErrorCollection keeps the first maxErrors row errors and counts the rest
type ErrorCollection struct {
	errors     []RowError
	maxErrors  int
	totalCount int
}

// NewErrorCollection creates a new ErrorCollection with a maximum error limit
func NewErrorCollection(maxErrors int) *ErrorCollection {
	if maxErrors <= 0 {
		maxErrors = DefaultMaxErrors
	}
	return &ErrorCollection{
		errors:    make([]RowError, 0),
		maxErrors: maxErrors,
	}
}

// Add adds an error to the collection
func (ec *ErrorCollection) Add(err RowError) {
	ec.totalCount++
	if len(ec.errors) < ec.maxErrors {
		ec.errors = append(ec.errors, err)
	}
}

// AddRowError adds an error built from its parts
func (ec *ErrorCollection) AddRowError(row int, name, code, message string) {
	ec.Add(NewRowError(row, name, code, message))
}

// Errors returns the collected errors
func (ec *ErrorCollection) Errors() []RowError {
	return ec.errors
}

// Count returns the number of collected errors (up to maxErrors)
func (ec *ErrorCollection) Count() int {
	return len(ec.errors)
}

// TotalCount returns the total number of errors including those not collected
func (ec *ErrorCollection) TotalCount() int {
	return ec.totalCount
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollection) HasErrors() bool {
	return ec.totalCount > 0
}

// IsTruncated returns true if some errors were not collected due to the limit
func (ec *ErrorCollection) IsTruncated() bool {
	return ec.totalCount > ec.maxErrors
}

// ErrorSummary returns a summary of errors by code
func (ec *ErrorCollection) ErrorSummary() map[string]int {
	summary := make(map[string]int)
	for _, err := range ec.errors {
		summary[err.Code]++
	}
	return summary
}

// String returns a string representation of all errors
func (ec *ErrorCollection) String() string {
	if !ec.HasErrors() {
		return "no errors"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d error(s) found", ec.totalCount))
	if ec.IsTruncated() {
		sb.WriteString(fmt.Sprintf(" (showing first %d)", ec.maxErrors))
	}
	sb.WriteString(":\n")

	for _, err := range ec.errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}

	return sb.String()
}
