package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmount_CurrencyStrings(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected float64
	}{
		{"debit with glyph and lakh separators", "₹12,63,844.06 Dr", 1263844.06},
		{"credit forces negative", "₹500 Cr", -500},
		{"credit on already negative stays negative", "-500 Cr", -500},
		{"debit forces positive", "-1,200 Dr", 1200},
		{"no marker keeps sign", "-42.50", -42.50},
		{"plain positive", "1500", 1500},
		{"lowercase marker", "₹99 dr", 99},
		{"em dash placeholder", "—", 0},
		{"hyphen placeholder", "-", 0},
		{"empty string", "", 0},
		{"whitespace only", "   ", 0},
		{"garbage", "abc", 0},
		{"rupee word prefix", "Rs. 2,500.00 Cr", -2500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Amount(tt.input))
		})
	}
}

func TestAmount_NumericInputs(t *testing.T) {
	assert.Equal(t, 12.5, Amount(12.5))
	assert.Equal(t, float64(7), Amount(7))
	assert.Equal(t, float64(-3), Amount(int64(-3)))
	assert.Equal(t, float64(0), Amount(nil))
	assert.Equal(t, float64(0), Amount(struct{}{}))
}
