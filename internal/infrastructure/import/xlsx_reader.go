package sheetimport

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadWorkbook reads the first worksheet of an Excel workbook. The first
// non-blank row is the header. Empty cells become "" and numeric cells float64.
func ReadWorkbook(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}
	name := sheets[0]

	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
	}

	sheet := &Sheet{Name: name}
	headerIdx := -1
	for i, cells := range raw {
		if !isBlankRecord(cells) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, ErrMissingHeader
	}

	sheet.Headers = make([]string, len(raw[headerIdx]))
	for i, h := range raw[headerIdx] {
		sheet.Headers[i] = strings.TrimSpace(h)
	}

	position := 0
	for i := headerIdx + 1; i < len(raw); i++ {
		cells := raw[i]
		if isBlankRecord(cells) {
			continue
		}
		line := i + 1

		values := make([]any, len(sheet.Headers))
		for col := range sheet.Headers {
			if col >= len(cells) {
				values[col] = ""
				continue
			}
			values[col] = typedCell(f, name, col, line, cells[col])
		}

		position++
		sheet.Rows = append(sheet.Rows, NewRow(position, line, sheet.Headers, values))
	}

	return sheet, nil
}

// typedCell returns numeric cells as float64 and everything else as trimmed text
func typedCell(f *excelize.File, sheet string, col, line int, value string) any {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	cellName, err := excelize.CoordinatesToCellName(col+1, line)
	if err != nil {
		return value
	}
	cellType, err := f.GetCellType(sheet, cellName)
	if err != nil {
		return value
	}

	switch cellType {
	case excelize.CellTypeNumber, excelize.CellTypeUnset, excelize.CellTypeFormula:
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			return n
		}
	}
	return value
}
