package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCurrency(t *testing.T) {
	cases := map[string]string{
		"150000":     "$150,000.00",
		"105000.5":   "$105,000.50",
		"0":          "$0.00",
		"999.999":    "$1,000.00",
		"-12.5":      "-$12.50",
		"1234567.89": "$1,234,567.89",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatCurrency(decimal.RequireFromString(in)), "input %s", in)
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "70.0%", FormatPercent(decimal.NewFromInt(70)))
	assert.Equal(t, "70.0%", FormatPercent(decimal.RequireFromString("70.001")))
	assert.Equal(t, "33.3%", FormatPercent(decimal.RequireFromString("33.333")))
}

func TestParse(t *testing.T) {
	d, err := Parse(" 1,000.50 ")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("1000.5")))

	_, err = Parse("abc")
	assert.Error(t, err)
}

func TestPercent(t *testing.T) {
	assert.True(t, Percent(decimal.NewFromInt(70000), decimal.NewFromInt(100000)).Equal(decimal.NewFromInt(70)))
	assert.True(t, Percent(decimal.NewFromInt(5), decimal.Zero).IsZero())
}
