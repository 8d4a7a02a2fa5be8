package sheetimport

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestToNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"turkish thousands and decimals", "1.234,56", "1234.56"},
		{"plain integer text", "50", "50"},
		{"letters only", "abc", "0"},
		{"empty", "", "0"},
		{"nil", nil, "0"},
		{"currency symbol", "₺ 149,90", "149.9"},
		{"negative", "-12,5", "-12.5"},
		{"native float", 1234.56, "1234.56"},
		{"native int", 7, "7"},
		{"NaN", math.NaN(), "0"},
		{"dot is always grouping", "12.5", "125"},
		{"garbled minus", "1-2", "0"},
		{"stringer", labelCell(" 1.499,00 TL "), "1499"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToNumber(tt.in)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestCellString(t *testing.T) {
	assert.Equal(t, "", CellString(nil))
	assert.Equal(t, "Ruj", CellString("  Ruj "))
	assert.Equal(t, "8690000000011", CellString(8690000000011.0))
	assert.Equal(t, "12.5", CellString(12.5))
	assert.Equal(t, "true", CellString(true))
	assert.Equal(t, "Mat Ruj", CellString(labelCell(" Mat Ruj ")))
}

// labelCell stands in for rich-text cells that render through String
type labelCell string

func (c labelCell) String() string { return string(c) }

func TestIsYes(t *testing.T) {
	for _, v := range []any{"Evet", "EVET", "yes", "Var", "1", 1.0, "x", true} {
		assert.True(t, IsYes(v), "%v", v)
	}
	for _, v := range []any{"", "hayır", "no", "yok", 0.0, false, nil} {
		assert.False(t, IsYes(v), "%v", v)
	}
}
