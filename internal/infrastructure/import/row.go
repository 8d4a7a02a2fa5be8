package sheetimport

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Row is one data line of a sheet keyed by the author's header text.
type Row struct {
	// Position is the 1-based index among non-blank data rows
	Position int
	// Line is the physical line (or spreadsheet row) number, header included
	Line    int
	Headers []string
	Data    map[string]any

	folded []string
}

// NewRow maps values onto headers. Missing trailing cells become "".
func NewRow(position, line int, headers []string, values []any) *Row {
	row := &Row{
		Position: position,
		Line:     line,
		Headers:  headers,
		Data:     make(map[string]any, len(headers)),
	}
	for i, h := range headers {
		if h == "" {
			continue
		}
		if _, dup := row.Data[h]; dup {
			continue
		}
		if i < len(values) && values[i] != nil {
			row.Data[h] = values[i]
		} else {
			row.Data[h] = ""
		}
	}
	return row
}

// Pick resolves the first candidate header present in the row. Exact
// case-insensitive matches are tried in candidate order; failing that, the
// first column (in sheet order) whose folded header contains any candidate wins.
func (r *Row) Pick(candidates ...string) (any, bool) {
	if v, ok := r.PickExact(candidates...); ok {
		return v, true
	}

	keys := r.foldedHeaders()
	wanted := foldAll(candidates)
	for i, key := range keys {
		if key == "" {
			continue
		}
		for _, c := range wanted {
			if c != "" && strings.Contains(key, c) {
				return r.Data[r.Headers[i]], true
			}
		}
	}
	return nil, false
}

// PickExact is Pick without the containment fallback
func (r *Row) PickExact(candidates ...string) (any, bool) {
	keys := r.foldedHeaders()
	for _, c := range foldAll(candidates) {
		for i, key := range keys {
			if key != "" && key == c {
				return r.Data[r.Headers[i]], true
			}
		}
	}
	return nil, false
}

// PickString is Pick followed by CellString
func (r *Row) PickString(candidates ...string) string {
	v, _ := r.Pick(candidates...)
	return CellString(v)
}

// IsEmpty returns true if the row has no non-blank values
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if CellString(v) != "" {
			return false
		}
	}
	return true
}

func (r *Row) foldedHeaders() []string {
	if r.folded == nil {
		r.folded = foldAll(r.Headers)
	}
	return r.folded
}

// FoldHeader lower-cases header text with Turkish rules and maps the dotless
// ı onto i so that "FIYAT", "FİYAT" and "fiyat" compare equal.
func FoldHeader(s string) string {
	lower := cases.Lower(language.Turkish).String(strings.TrimSpace(s))
	return strings.ReplaceAll(lower, "ı", "i")
}

func foldAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = FoldHeader(s)
	}
	return out
}
