package view

import (
	"testing"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormat_Amount(t *testing.T) {
	usd := Format{Currency: "USD", Precision: 2}
	assert.Equal(t, "$1,234.50", usd.Amount(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "+$10.00", usd.SignedAmount(decimal.NewFromInt(10)))
	assert.Equal(t, "-$10.00", usd.SignedAmount(decimal.NewFromInt(-10)))
	assert.Equal(t, "$0.00", usd.SignedAmount(decimal.RequireFromString("0.001")))

	plain := Format{Precision: 4}
	assert.Equal(t, "1.0850", plain.Amount(decimal.RequireFromString("1.085")))
	assert.Equal(t, "+0.0010", plain.SignedAmount(decimal.RequireFromString("0.001")))

	unknown := Format{Currency: "GWEI", Precision: 0}
	assert.Equal(t, "42", unknown.Amount(decimal.NewFromInt(42)))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "+2.50%", Percent(decimal.RequireFromString("2.5")))
	assert.Equal(t, "-0.33%", Percent(decimal.RequireFromString("-0.333")))
	assert.Equal(t, "0.00%", Percent(decimal.Zero))
}

func TestSparkline(t *testing.T) {
	line := Sparkline([]decimal.Decimal{
		decimal.NewFromInt(1), decimal.NewFromInt(8), decimal.NewFromInt(4),
	})
	assert.Equal(t, 3, utf8.RuneCountInString(line))
	assert.Equal(t, "▁█", string([]rune(line)[:2]))

	flat := Sparkline([]decimal.Decimal{decimal.NewFromInt(5), decimal.NewFromInt(5)})
	assert.Equal(t, "▅▅", flat)

	assert.Empty(t, Sparkline(nil))
}
