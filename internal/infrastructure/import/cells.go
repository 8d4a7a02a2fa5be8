package sheetimport

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var nonNumeric = regexp.MustCompile(`[^0-9.,-]`)

// ToNumber converts a cell into a decimal. Native numbers pass through.
// Text follows the Turkish convention: "." groups thousands and ","
// separates decimals. Anything unparseable is zero.
func ToNumber(v any) decimal.Decimal {
	switch n := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return n
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(n)
	case float32:
		return ToNumber(float64(n))
	case int:
		return decimal.NewFromInt(int64(n))
	case int64:
		return decimal.NewFromInt(n)
	case string:
		return parseLocaleNumber(n)
	case fmt.Stringer:
		return parseLocaleNumber(n.String())
	default:
		return parseLocaleNumber(fmt.Sprint(n))
	}
}

func parseLocaleNumber(s string) decimal.Decimal {
	s = nonNumeric.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// CellString renders a cell as trimmed text. Whole floats print without
// a fraction so numeric barcodes survive.
func CellString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case decimal.Decimal:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	case fmt.Stringer:
		return strings.TrimSpace(s.String())
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}

// yesMarkers are the free-text values read as true in flag columns
var yesMarkers = map[string]bool{
	"evet": true,
	"yes":  true,
	"var":  true,
	"1":    true,
	"true": true,
	"x":    true,
}

// IsYes reports whether a flag cell holds a yes-marker
func IsYes(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return yesMarkers[FoldHeader(CellString(v))]
}
