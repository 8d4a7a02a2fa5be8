package sheetimport

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Sheet is the decoded content of one worksheet or CSV file
type Sheet struct {
	Name    string
	Headers []string
	Rows    []*Row
}

// IsCSV reports whether a file name should be read as delimited text
func IsCSV(fileName string) bool {
	return strings.EqualFold(filepath.Ext(fileName), ".csv")
}

// ReadSheet decodes r as CSV or as an Excel workbook depending on the file
// name extension.
func ReadSheet(fileName string, r io.Reader) (*Sheet, error) {
	var (
		sheet *Sheet
		err   error
	)
	if IsCSV(fileName) {
		sheet, err = readCSV(fileName, r)
	} else {
		sheet, err = ReadWorkbook(r)
	}
	if err != nil {
		if errors.Is(err, ErrMissingHeader) {
			return nil, fmt.Errorf("%s: %w", fileName, ErrEmptySheet)
		}
		return nil, err
	}
	return sheet, nil
}

func readCSV(fileName string, r io.Reader) (*Sheet, error) {
	parser, err := NewCSVParser(r)
	if err != nil {
		if errors.Is(err, ErrEmptyFile) {
			return nil, ErrMissingHeader
		}
		return nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, err
	}
	rows, err := parser.ReadAllRows()
	if err != nil {
		return nil, err
	}
	return &Sheet{
		Name:    filepath.Base(fileName),
		Headers: parser.Headers(),
		Rows:    rows,
	}, nil
}
