package view

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const sparkGlyphs = "▁▂▃▄▅▆▇█"

// Format number formatting of one widget.
type Format struct {
	// Currency ISO code used for amounts, plain fixed-point when empty or unknown.
	Currency string
	// Precision decimal places of plain amounts.
	Precision int32
}

// Amount formats a monetary amount.
func (f Format) Amount(d decimal.Decimal) string {
	if m, ok := f.money(d); ok {
		return m.Display()
	}
	return d.StringFixed(f.Precision)
}

// SignedAmount formats an amount with an explicit sign for positive values.
func (f Format) SignedAmount(d decimal.Decimal) string {
	s := f.Amount(d)
	if d.Round(f.fraction()).IsPositive() {
		return "+" + s
	}
	return s
}

func (f Format) fraction() int32 {
	if f.Currency != "" {
		if cur := money.GetCurrency(f.Currency); cur != nil {
			return int32(cur.Fraction)
		}
	}
	return f.Precision
}

func (f Format) money(d decimal.Decimal) (*money.Money, bool) {
	if f.Currency == "" {
		return nil, false
	}
	cur := money.GetCurrency(f.Currency)
	if cur == nil {
		return nil, false
	}

	factor := decimal.New(1, int32(cur.Fraction))
	minor := d.Mul(factor).Round(0).IntPart()
	return money.New(minor, cur.Code), true
}

// Percent formats a percentage with sign and two decimals, e.g. +2.50%.
func Percent(d decimal.Decimal) string {
	d = d.Round(2)
	if d.IsPositive() {
		return "+" + d.StringFixed(2) + "%"
	}
	return d.StringFixed(2) + "%"
}

// Sparkline draws values as block glyphs scaled between their min and max.
func Sparkline(values []decimal.Decimal) string {
	if len(values) == 0 {
		return ""
	}

	glyphs := []rune(sparkGlyphs)
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = decimal.Min(lo, v)
		hi = decimal.Max(hi, v)
	}

	var b strings.Builder
	span := hi.Sub(lo)
	top := decimal.NewFromInt(int64(len(glyphs) - 1))
	for _, v := range values {
		idx := len(glyphs) / 2
		if span.IsPositive() {
			idx = int(v.Sub(lo).Div(span).Mul(top).Round(0).IntPart())
		}
		b.WriteRune(glyphs[idx])
	}

	return b.String()
}
