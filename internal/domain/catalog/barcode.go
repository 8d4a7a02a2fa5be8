package catalog

import (
	"fmt"
	"strings"
)

// PlaceholderBarcodePrefix marks generated barcodes. They never take part in matching.
const PlaceholderBarcodePrefix = "FK"

// PlaceholderBarcode returns the generated code for a 1-based sheet position.
func PlaceholderBarcode(position int) string {
	return fmt.Sprintf("%s%06d", PlaceholderBarcodePrefix, position)
}

// IsMatchableBarcode reports whether code is present and not a placeholder.
func IsMatchableBarcode(code string) bool {
	code = strings.TrimSpace(code)
	return code != "" && !strings.HasPrefix(code, PlaceholderBarcodePrefix)
}
